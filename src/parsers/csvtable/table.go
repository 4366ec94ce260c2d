// Package csvtable reads the loosely structured CSV that booking platforms export:
// a few lines of preamble, a header row somewhere near the top, then data rows.
package csvtable

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxScan is how many leading lines are searched for the header row.
const DefaultMaxScan = 20

// HeaderMarkers identify the listing column; a line containing either one is the header.
var HeaderMarkers = []string{"Listing title", "Listing ID"}

// ErrHeaderNotFound rejects a file whose scanned window has no header row.
var ErrHeaderNotFound = errors.New("header row not found")

// Table is an export split into raw lines with its header located.
type Table struct {
	Lines       []string
	HeaderIndex int
}

// Parse splits text into lines and locates the header row within the first maxScan lines.
func Parse(text string, maxScan int) (*Table, error) {
	lines := SplitLines(text)
	idx, err := LocateHeaderRow(lines, maxScan)
	if err != nil {
		return nil, err
	}
	return &Table{Lines: lines, HeaderIndex: idx}, nil
}

// Header returns the parsed header fields.
func (t *Table) Header() []string {
	return ParseRow(t.Lines[t.HeaderIndex])
}

// DataLines returns the raw lines after the header, blank ones included.
func (t *Table) DataLines() []string {
	return t.Lines[t.HeaderIndex+1:]
}

// SplitLines splits on "\n", dropping one "\r" before each break and a leading UTF-8 BOM.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LocateHeaderRow returns the index of the first line among the first maxScan
// whose raw text contains a header marker. The match is case-sensitive.
func LocateHeaderRow(lines []string, maxScan int) (int, error) {
	if maxScan <= 0 {
		maxScan = DefaultMaxScan
	}
	limit := min(len(lines), maxScan)
	for i := 0; i < limit; i++ {
		for _, marker := range HeaderMarkers {
			if strings.Contains(lines[i], marker) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%w: no line among the first %d contains %q or %q",
		ErrHeaderNotFound, maxScan, HeaderMarkers[0], HeaderMarkers[1])
}

// ParseRow splits one line into fields.
//
// A double quote toggles quoted mode and is not kept; there is no "" escape, so a
// doubled quote is simply two toggles. A comma outside quoted mode ends a field.
// Fields are trimmed and lose one surrounding quote on each side if present.
// The last field is always flushed, so "a," yields two fields.
func ParseRow(line string) []string {
	var (
		fields  []string
		current strings.Builder
		inQuote bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ',' && !inQuote:
			fields = append(fields, cleanField(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, cleanField(current.String()))
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
