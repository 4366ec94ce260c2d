package processors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// leadingNumber is the longest numeric prefix, e.g. "1234.50-" -> "1234.50", "1.2.3" -> "1.2".
var leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

// parseDecimalOrDefault keeps only the runes accepted by keep and parses the leading
// number of what is left. Text with no leading number yields def, never an error.
func parseDecimalOrDefault(raw string, keep func(rune) bool, def decimal.Decimal) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if keep(r) {
			return r
		}
		return -1
	}, raw)
	match := strings.TrimSuffix(leadingNumber.FindString(cleaned), ".")
	if match == "" || match == "-" {
		return def
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return def
	}
	return d
}

func isASCIIDigit(r rune) bool {
	return r <= unicode.MaxASCII && unicode.IsDigit(r)
}

// ParseEarnings extracts a signed amount such as "SAR 1,234.50" -> 1234.50. Defaults to 0.
func ParseEarnings(raw string) decimal.Decimal {
	return parseDecimalOrDefault(raw, func(r rune) bool {
		return isASCIIDigit(r) || r == '.' || r == '-'
	}, decimal.Zero)
}

// ParseNights extracts an unsigned night count; any sign is discarded. Defaults to 0.
func ParseNights(raw string) decimal.Decimal {
	return parseDecimalOrDefault(raw, func(r rune) bool {
		return isASCIIDigit(r) || r == '.'
	}, decimal.Zero)
}
