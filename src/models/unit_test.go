package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUnit(number string, actual, forecast int64) Unit {
	return Unit{
		ID:                "u-" + number,
		UnitNumber:        number,
		BuildingName:      "Mathwaa 33 - Al Olaya",
		ActualRevenue:     decimal.NewFromInt(actual),
		ForecastedRevenue: decimal.NewFromInt(forecast),
		Status:            StatusVacant,
		NegotiatedRates:   []NegotiatedRate{{Label: "Negotiation 1", Price: decimal.NewFromInt(6140)}},
	}
}

func TestUnitPercentAchieved(t *testing.T) {
	assert.Equal(t, 73, sampleUnit("3305", 5570, 7675).PercentAchieved())
	assert.Equal(t, 100, sampleUnit("3305", 9000, 7675).PercentAchieved())
	assert.Equal(t, 0, sampleUnit("3305", 9000, 0).PercentAchieved())
}

func TestUnitCloneDoesNotShareRates(t *testing.T) {
	u := sampleUnit("3305", 1, 2)
	c := u.Clone()
	c.NegotiatedRates[0].Label = "changed"
	assert.Equal(t, "Negotiation 1", u.NegotiatedRates[0].Label)
}

func TestComputeTotals(t *testing.T) {
	units := []Unit{
		sampleUnit("3305", 5570, 7675),
		sampleUnit("3321", 3193, 7400),
		sampleUnit("3322", 5965, 7237),
	}
	totals := ComputeTotals(units)
	assert.True(t, totals.Actual.Equal(decimal.NewFromInt(14728)))
	assert.True(t, totals.Forecast.Equal(decimal.NewFromInt(22312)))
	assert.True(t, totals.Variance.Equal(decimal.NewFromInt(-7584)))
	assert.Equal(t, 66, totals.PerformancePercent)

	empty := ComputeTotals(nil)
	assert.Equal(t, 0, empty.PerformancePercent)
	assert.True(t, empty.Actual.IsZero())
}

func TestFilterUnits(t *testing.T) {
	units := []Unit{sampleUnit("3305", 0, 1), sampleUnit("3321", 0, 1)}
	units[1].BuildingName = "Narjis Tower"

	assert.Len(t, FilterUnits(units, ""), 2)
	assert.Len(t, FilterUnits(units, "33"), 2)

	byNumber := FilterUnits(units, "3305")
	require.Len(t, byNumber, 1)
	assert.Equal(t, "3305", byNumber[0].UnitNumber)

	byBuilding := FilterUnits(units, "narjis")
	require.Len(t, byBuilding, 1)
	assert.Equal(t, "3321", byBuilding[0].UnitNumber)
}

func TestUnitJSONUsesNumbers(t *testing.T) {
	u := sampleUnit("3305", 1500, 7675)
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"actualRevenue":1500`)
	assert.Contains(t, string(raw), `"status":"Vacant"`)
}
