package processors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/strperformance/backend/src/models"
	"github.com/username/strperformance/backend/src/parsers/csvtable"
)

func seedRoster() []models.Unit {
	unit := func(id, number string, actual, forecast int64, occupancy int, status models.UnitStatus, days int, comments string) models.Unit {
		return models.Unit{
			ID:                id,
			UnitNumber:        number,
			BuildingName:      "Mathwaa 33 - Al Olaya",
			ActualRevenue:     decimal.NewFromInt(actual),
			ForecastedRevenue: decimal.NewFromInt(forecast),
			OccupancyRate:     occupancy,
			Status:            status,
			DaysRemaining:     days,
			Comments:          comments,
			NegotiatedRates: []models.NegotiatedRate{
				{Label: "Negotiation 1", Price: decimal.NewFromInt(forecast - 1000)},
			},
		}
	}
	return []models.Unit{
		unit("u1", "3305", 5570, 7675, 100, models.StatusOccupied, 0, "accepted a 28 night booking"),
		unit("u2", "3321", 3193, 7400, 43, models.StatusVacant, 18, "2 vacant days so far"),
		unit("u3", "3322", 5965, 7237, 87, models.StatusOccupied, 5, "zero vacant days"),
	}
}

func csvOf(lines ...string) string {
	return strings.Join(lines, "\n")
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}

func reconcile(t *testing.T, roster []models.Unit, text string) *ReconcileResult {
	t.Helper()
	res, err := NewBookingReconciler(csvtable.DefaultMaxScan).Reconcile(roster, text)
	require.NoError(t, err)
	return res
}

func TestReconcileSingleBooking(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Stay at Mathwaa 3305 Deluxe","1500.00","5"`,
	))

	u := res.Units[0]
	assertDecimal(t, "1500", u.ActualRevenue)
	assert.Equal(t, 16, u.OccupancyRate)
	assert.Equal(t, models.StatusOccupied, u.Status)
	assert.Empty(t, u.Comments)
	assert.Equal(t, 1, res.UnitsUpdated)
	assert.Equal(t, 1, res.RowsMatched)
}

func TestReconcileAccumulatesRowsPerUnit(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Mathwaa 3305 - weekend","1000","3"`,
		`"Mathwaa 3305 - midweek","2000","4"`,
	))

	acc, ok := res.Accumulators["3305"]
	require.True(t, ok)
	assertDecimal(t, "3000", acc.Revenue)
	assertDecimal(t, "7", acc.BookedNights)
	assertDecimal(t, "3000", res.Units[0].ActualRevenue)
	assert.Equal(t, 23, res.Units[0].OccupancyRate)
}

func TestReconcileDropsUnmatchedRows(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Riyadh Studio 9999","800","2"`,
		`"Riyadh Studio 9999","900","3"`,
	))

	assert.Empty(t, res.Accumulators)
	assert.Equal(t, 0, res.UnitsUpdated)
	assert.Equal(t, 2, res.RowsUnmatched)
	assert.Equal(t, []string{"Riyadh Studio 9999"}, res.UnmatchedListings)
	assert.Equal(t, seedRoster(), res.Units)
}

func TestReconcileStripsCurrencyFormatting(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Mathwaa 3321","SAR 1,234.50","2 nights"`,
	))
	assertDecimal(t, "1234.50", res.Units[1].ActualRevenue)
	assert.Equal(t, 6, res.Units[1].OccupancyRate)
}

func TestReconcileLeavesUntouchedUnitsUnchanged(t *testing.T) {
	before := seedRoster()
	res := reconcile(t, before, csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Mathwaa 3305","1500","5"`,
	))

	assert.Equal(t, before[1], res.Units[1])
	assert.Equal(t, before[2], res.Units[2])
	assertDecimal(t, "3193", res.Units[1].ActualRevenue)
	assert.Equal(t, 43, res.Units[1].OccupancyRate)
	assert.Equal(t, models.StatusVacant, res.Units[1].Status)
}

func TestReconcileReplacesRatherThanAdds(t *testing.T) {
	roster := seedRoster()
	text := csvOf(`Listing title,Earnings`, `Mathwaa 3305,100`)

	first := reconcile(t, roster, text)
	second := reconcile(t, first.Units, text)

	assertDecimal(t, "100", first.Units[0].ActualRevenue)
	assertDecimal(t, "100", second.Units[0].ActualRevenue)
}

func TestReconcileHeaderNotFound(t *testing.T) {
	roster := seedRoster()
	lines := []string{}
	for i := 0; i < 20; i++ {
		lines = append(lines, "preamble line")
	}
	lines = append(lines, `"Listing title","Booking value"`, `"Mathwaa 3305","1500"`)

	res, err := NewBookingReconciler(csvtable.DefaultMaxScan).Reconcile(roster, csvOf(lines...))
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, csvtable.ErrHeaderNotFound))
	assert.Equal(t, seedRoster(), roster)
}

func TestReconcileRequiredColumnsMissing(t *testing.T) {
	roster := seedRoster()
	res, err := NewBookingReconciler(0).Reconcile(roster, csvOf(
		`"Listing title","Nights booked"`,
		`"Mathwaa 3305","5"`,
	))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrRequiredColumnsMissing)
	assert.Equal(t, seedRoster(), roster)
}

func TestReconcileClampsOccupancy(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Mathwaa 3322","9000","25"`,
		`"Mathwaa 3322","4000","15"`,
	))
	assert.Equal(t, 100, res.Units[2].OccupancyRate)
	assertDecimal(t, "40", res.Accumulators["3322"].BookedNights)
}

// A full 28-night February reads as 90%: the denominator is always 31 days.
func TestReconcileUsesFixedThirtyOneDayDenominator(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Mathwaa 3305","7000","28"`,
	))
	assert.Equal(t, 90, res.Units[0].OccupancyRate)
	assert.Equal(t, 31, OccupancyPeriodDays)
}

func TestReconcileIsDeterministic(t *testing.T) {
	roster := seedRoster()
	text := csvOf(
		"Airbnb transaction history",
		`"Date","Listing title","Booking value","Nights booked"`,
		`"2026-01-03","Mathwaa 3305","1500","5"`,
		`"2026-01-04","Mathwaa 3321","SAR 700.25","2"`,
		`"2026-01-05","Unknown flat","10","1"`,
	)
	r := NewBookingReconciler(csvtable.DefaultMaxScan)

	first, err := r.Reconcile(roster, text)
	require.NoError(t, err)
	second, err := r.Reconcile(roster, text)
	require.NoError(t, err)

	a, err := json.Marshal(first.Units)
	require.NoError(t, err)
	b, err := json.Marshal(second.Units)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, seedRoster(), roster)
}

func TestReconcileFirstMatchFollowsRosterOrder(t *testing.T) {
	text := csvOf(`Listing title,Earnings,Nights`, `Combined 3305 + 3321 suite,1000,3`)

	res := reconcile(t, seedRoster(), text)
	_, ok := res.Accumulators["3305"]
	assert.True(t, ok)
	_, ok = res.Accumulators["3321"]
	assert.False(t, ok)

	reversed := seedRoster()
	reversed[0], reversed[1] = reversed[1], reversed[0]
	res = reconcile(t, reversed, text)
	_, ok = res.Accumulators["3321"]
	assert.True(t, ok)
	_, ok = res.Accumulators["3305"]
	assert.False(t, ok)
}

func TestMatchUnitPrefersEarlierShorterNumber(t *testing.T) {
	roster := seedRoster()
	roster = append([]models.Unit{{ID: "u0", UnitNumber: "330"}}, roster...)

	idx, ok := MatchUnit(roster, "Mathwaa 3305")
	require.True(t, ok)
	assert.Equal(t, "330", roster[idx].UnitNumber)
}

func TestReconcileWithoutNightsColumn(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value"`,
		`"Mathwaa 3305","1500"`,
	))
	u := res.Units[0]
	assertDecimal(t, "1500", u.ActualRevenue)
	assert.Equal(t, 0, u.OccupancyRate)
	assert.Equal(t, models.StatusVacant, u.Status)
	assert.Empty(t, u.Comments)
}

func TestReconcileSkipsBlankAndEmptyListingRows(t *testing.T) {
	res := reconcile(t, seedRoster(), strings.Join([]string{
		"Earnings report",
		"",
		`"Listing title","Booking value","Nights booked"`,
		"   ",
		`"","500","2"`,
		`"Mathwaa 3305"`,
		`"Mathwaa 3305","abc","x"`,
		`"Mathwaa 3305","200","1"`,
		"",
	}, "\r\n"))

	assert.Equal(t, 2, res.HeaderIndex)
	assert.Equal(t, 1, res.RowsSkipped)
	assert.Equal(t, 3, res.RowsMatched)
	assertDecimal(t, "200", res.Units[0].ActualRevenue)
	assert.Equal(t, 3, res.Units[0].OccupancyRate)
}

func TestReconcileKeepsLeadingNumberOfPartialAmounts(t *testing.T) {
	res := reconcile(t, seedRoster(), csvOf(
		`"Listing title","Booking value","Nights booked"`,
		`"Mathwaa 3305","SAR 1,234.50-","10.5.1"`,
		`"Mathwaa 3305","12-5","2"`,
	))

	assert.Equal(t, 2, res.RowsMatched)
	assertDecimal(t, "1246.50", res.Units[0].ActualRevenue)
	assertDecimal(t, "12.5", res.Accumulators["3305"].BookedNights)
	assert.Equal(t, 40, res.Units[0].OccupancyRate)
}

func TestReconcileDoesNotShareRatesWithInput(t *testing.T) {
	roster := seedRoster()
	res := reconcile(t, roster, csvOf(`Listing title,Earnings`, `Mathwaa 3305,1`))
	res.Units[0].NegotiatedRates[0].Label = "mutated"
	assert.Equal(t, "Negotiation 1", roster[0].NegotiatedRates[0].Label)
}

func TestResolveColumnsFirstFieldWins(t *testing.T) {
	cols, err := ResolveColumns([]string{"Date", "Amount paid", "Listing ID", "Earnings", "Nights booked", "Nights"})
	require.NoError(t, err)
	assert.Equal(t, ColumnMap{Listing: 2, Earnings: 1, Nights: 4}, cols)

	cols, err = ResolveColumns([]string{"Listing title", "Gross Earnings"})
	require.NoError(t, err)
	assert.Equal(t, -1, cols.Nights)

	_, err = ResolveColumns([]string{"listing title", "earnings"})
	assert.ErrorIs(t, err, ErrRequiredColumnsMissing)
}

func TestOccupancyFromNights(t *testing.T) {
	cases := []struct {
		nights string
		want   int
	}{
		{"0", 0},
		{"5", 16},
		{"7", 23},
		{"15.5", 50},
		{"31", 100},
		{"62", 100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, OccupancyFromNights(decimal.RequireFromString(tc.nights)), "nights=%s", tc.nights)
	}
}
