package processors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/models"
	"github.com/username/strperformance/backend/src/parsers/csvtable"
)

// OccupancyPeriodDays is the fixed occupancy denominator. It does not follow the
// real length of the reporting month, so February occupancy reads low.
const OccupancyPeriodDays = 31

// ErrRequiredColumnsMissing rejects a file whose header lacks a listing or earnings column.
var ErrRequiredColumnsMissing = errors.New("required columns missing")

// Header keywords per logical column, in priority order within each column.
var (
	listingKeywords  = []string{"Listing title", "Listing ID"}
	earningsKeywords = []string{"Booking value", "Earnings", "Amount"}
	nightsKeywords   = []string{"Nights booked", "Nights"}
)

// ColumnMap holds resolved field positions; -1 means unresolved.
type ColumnMap struct {
	Listing  int
	Earnings int
	Nights   int
}

// ResolveColumns finds, for each logical column, the first header field containing
// any of its keywords (case-sensitive). Nights is optional.
func ResolveColumns(header []string) (ColumnMap, error) {
	cols := ColumnMap{
		Listing:  findColumn(header, listingKeywords),
		Earnings: findColumn(header, earningsKeywords),
		Nights:   findColumn(header, nightsKeywords),
	}
	var missing []string
	if cols.Listing < 0 {
		missing = append(missing, "listing ("+strings.Join(listingKeywords, " / ")+")")
	}
	if cols.Earnings < 0 {
		missing = append(missing, "earnings ("+strings.Join(earningsKeywords, " / ")+")")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrRequiredColumnsMissing, strings.Join(missing, ", "))
	}
	return cols, nil
}

func findColumn(header []string, keywords []string) int {
	for i, h := range header {
		for _, kw := range keywords {
			if strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}

// MatchUnit returns the index of the first unit, in roster order, whose unit number
// occurs anywhere in listing. It is first-match, not best-match: a title containing
// two unit numbers resolves to whichever unit comes earlier in the roster.
func MatchUnit(roster []models.Unit, listing string) (int, bool) {
	for i, u := range roster {
		if u.UnitNumber == "" {
			continue
		}
		if strings.Contains(listing, u.UnitNumber) {
			return i, true
		}
	}
	return -1, false
}

// OccupancyFromNights is min(100, round(nights/OccupancyPeriodDays*100)), floored at 0.
func OccupancyFromNights(nights decimal.Decimal) int {
	pct := nights.Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(OccupancyPeriodDays)).
		Round(0).
		IntPart()
	switch {
	case pct > 100:
		return 100
	case pct < 0:
		return 0
	}
	return int(pct)
}

// ReconcileResult is the updated roster plus row-level bookkeeping for the status message.
type ReconcileResult struct {
	Units             []models.Unit
	Accumulators      map[string]models.UnitAccumulator
	HeaderIndex       int
	UnitsUpdated      int
	RowsMatched       int
	RowsUnmatched     int
	RowsSkipped       int
	UnmatchedListings []string
}

type bookingReconcilerImpl struct {
	headerScanLines int
}

// NewBookingReconciler creates a reconciler that looks for the header within the
// first headerScanLines lines (csvtable.DefaultMaxScan when <= 0).
func NewBookingReconciler(headerScanLines int) BookingReconciler {
	if headerScanLines <= 0 {
		headerScanLines = csvtable.DefaultMaxScan
	}
	return &bookingReconcilerImpl{headerScanLines: headerScanLines}
}

// Reconcile parses csvText and returns a new roster with matched units updated.
// Header and column failures reject the whole file; row-level noise is skipped.
func (r *bookingReconcilerImpl) Reconcile(roster []models.Unit, csvText string) (*ReconcileResult, error) {
	table, err := csvtable.Parse(csvText, r.headerScanLines)
	if err != nil {
		return nil, err
	}
	cols, err := ResolveColumns(table.Header())
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{
		Accumulators: make(map[string]models.UnitAccumulator),
		HeaderIndex:  table.HeaderIndex,
	}
	seenUnmatched := make(map[string]bool)

	for _, line := range table.DataLines() {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := csvtable.ParseRow(line)
		listing := fieldAt(fields, cols.Listing)
		if listing == "" {
			result.RowsSkipped++
			continue
		}

		idx, ok := MatchUnit(roster, listing)
		if !ok {
			result.RowsUnmatched++
			if !seenUnmatched[listing] {
				seenUnmatched[listing] = true
				result.UnmatchedListings = append(result.UnmatchedListings, listing)
			}
			continue
		}
		result.RowsMatched++

		unitNumber := roster[idx].UnitNumber
		acc, exists := result.Accumulators[unitNumber]
		if !exists {
			acc = models.UnitAccumulator{Revenue: decimal.Zero, BookedNights: decimal.Zero}
		}
		acc.Revenue = acc.Revenue.Add(ParseEarnings(fieldAt(fields, cols.Earnings)))
		acc.BookedNights = acc.BookedNights.Add(ParseNights(fieldAt(fields, cols.Nights)))
		result.Accumulators[unitNumber] = acc
	}

	result.Units = make([]models.Unit, len(roster))
	for i, u := range roster {
		updated := u.Clone()
		if acc, ok := result.Accumulators[u.UnitNumber]; ok {
			updated.ActualRevenue = acc.Revenue
			updated.OccupancyRate = OccupancyFromNights(acc.BookedNights)
			if updated.OccupancyRate > 0 {
				updated.Status = models.StatusOccupied
			} else {
				updated.Status = models.StatusVacant
			}
			updated.Comments = ""
			result.UnitsUpdated++
		}
		result.Units[i] = updated
	}

	logger.L.Debug("Booking export reconciled",
		"headerIndex", result.HeaderIndex,
		"unitsUpdated", result.UnitsUpdated,
		"rowsMatched", result.RowsMatched,
		"rowsUnmatched", result.RowsUnmatched,
		"rowsSkipped", result.RowsSkipped)
	return result, nil
}

func fieldAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
