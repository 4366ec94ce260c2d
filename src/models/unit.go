package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Dashboard clients expect currency amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// UnitStatus is the letting state shown on a unit card.
type UnitStatus string

const (
	StatusOccupied    UnitStatus = "Occupied"
	StatusVacant      UnitStatus = "Vacant"
	StatusMaintenance UnitStatus = "Maintenance"
)

// Valid reports whether s is one of the known statuses.
func (s UnitStatus) Valid() bool {
	switch s {
	case StatusOccupied, StatusVacant, StatusMaintenance:
		return true
	}
	return false
}

// NegotiatedRate is a labelled monthly price tier agreed for a unit.
type NegotiatedRate struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// Unit is a canonical rental unit tracked by the dashboard.
// UnitNumber is unique across a roster and appears verbatim in matching listing titles.
type Unit struct {
	ID                string           `json:"id"`
	UnitNumber        string           `json:"unitNumber"`
	BuildingName      string           `json:"buildingName"`
	ActualRevenue     decimal.Decimal  `json:"actualRevenue"`
	ForecastedRevenue decimal.Decimal  `json:"forecastedRevenue"`
	OccupancyRate     int              `json:"occupancyRate"`
	Status            UnitStatus       `json:"status"`
	DaysRemaining     int              `json:"daysRemaining"`
	Comments          string           `json:"comments"`
	NegotiatedRates   []NegotiatedRate `json:"negotiatedRates"`
}

// Clone returns a copy of u that shares no slices with it.
func (u Unit) Clone() Unit {
	c := u
	if u.NegotiatedRates != nil {
		c.NegotiatedRates = make([]NegotiatedRate, len(u.NegotiatedRates))
		copy(c.NegotiatedRates, u.NegotiatedRates)
	}
	return c
}

// Variance is actual minus forecasted revenue; negative means behind target.
func (u Unit) Variance() decimal.Decimal {
	return u.ActualRevenue.Sub(u.ForecastedRevenue)
}

// PercentAchieved is min(100, round(actual/forecast*100)), or 0 without a forecast.
func (u Unit) PercentAchieved() int {
	p := percentOf(u.ActualRevenue, u.ForecastedRevenue)
	if p > 100 {
		return 100
	}
	return p
}

// CloneRoster deep-copies a roster, preserving order.
func CloneRoster(units []Unit) []Unit {
	if units == nil {
		return nil
	}
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = u.Clone()
	}
	return out
}

// FindUnit returns the unit with the given id.
func FindUnit(units []Unit, id string) (Unit, bool) {
	for _, u := range units {
		if u.ID == id {
			return u, true
		}
	}
	return Unit{}, false
}

// FilterUnits keeps units whose number contains query, or whose building name
// contains it ignoring case. An empty query keeps everything.
func FilterUnits(units []Unit, query string) []Unit {
	q := strings.TrimSpace(query)
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if q == "" ||
			strings.Contains(u.UnitNumber, q) ||
			strings.Contains(strings.ToLower(u.BuildingName), strings.ToLower(q)) {
			out = append(out, u.Clone())
		}
	}
	return out
}

// PerformanceData is the roster snapshot for one reporting period.
type PerformanceData struct {
	Period string `json:"period"`
	Units  []Unit `json:"units"`
}

// PortfolioTotals aggregates revenue across a roster.
type PortfolioTotals struct {
	Actual             decimal.Decimal `json:"actual"`
	Forecast           decimal.Decimal `json:"forecast"`
	Variance           decimal.Decimal `json:"variance"`
	PerformancePercent int             `json:"performancePercent"`
}

// ComputeTotals sums actual and forecast revenue. PerformancePercent is not clamped.
func ComputeTotals(units []Unit) PortfolioTotals {
	totals := PortfolioTotals{
		Actual:   decimal.Zero,
		Forecast: decimal.Zero,
		Variance: decimal.Zero,
	}
	for _, u := range units {
		totals.Actual = totals.Actual.Add(u.ActualRevenue)
		totals.Forecast = totals.Forecast.Add(u.ForecastedRevenue)
		totals.Variance = totals.Variance.Add(u.Variance())
	}
	totals.PerformancePercent = percentOf(totals.Actual, totals.Forecast)
	return totals
}

func percentOf(part, whole decimal.Decimal) int {
	if whole.IsZero() {
		return 0
	}
	return int(part.Mul(decimal.NewFromInt(100)).Div(whole).Round(0).IntPart())
}

// Insight is one line of generated advice for a unit card.
type Insight struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
