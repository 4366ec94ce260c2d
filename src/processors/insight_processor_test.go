package processors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/strperformance/backend/src/models"
)

func TestFormatSAR(t *testing.T) {
	assert.Equal(t, "SAR 1,234", FormatSAR(decimal.RequireFromString("1234.49")))
	assert.Equal(t, "SAR 12,346", FormatSAR(decimal.RequireFromString("12345.5")))
	assert.Equal(t, "SAR 0", FormatSAR(decimal.Zero))
}

func TestInsightsForUnitsBehindTarget(t *testing.T) {
	roster := seedRoster()
	p := NewInsightProcessor()

	closed := p.Generate(roster[0])
	require.Len(t, closed, 2)
	assert.Equal(t, "observation", closed[0].Type)
	assert.Equal(t, "Analysis: Revenue is SAR 2,105 below target. Occupancy is at 100%.", closed[0].Text)
	assert.Equal(t, "warning", closed[1].Type)

	slow := p.Generate(roster[1])
	require.Len(t, slow, 2)
	assert.Equal(t, "strategy", slow[1].Type)

	urgent := p.Generate(roster[2])
	require.Len(t, urgent, 2)
	assert.Equal(t, "urgent", urgent[1].Type)
	assert.Contains(t, urgent[1].Text, "~SAR 254/day")
}

func TestInsightsForUnitsOnTarget(t *testing.T) {
	p := NewInsightProcessor()
	unit := models.Unit{
		ActualRevenue:     decimal.NewFromInt(8000),
		ForecastedRevenue: decimal.NewFromInt(7000),
		OccupancyRate:     95,
		DaysRemaining:     10,
	}

	got := p.Generate(unit)
	require.Len(t, got, 2)
	assert.Equal(t, "success", got[0].Type)
	assert.Equal(t, "Analysis: Strong performance. Revenue is SAR 1,000 above target with 95% occupancy.", got[0].Text)
	assert.Equal(t, "opportunity", got[1].Type)

	unit.OccupancyRate = 60
	assert.Equal(t, "info", p.Generate(unit)[1].Type)
	assert.Contains(t, p.Generate(unit)[1].Text, "Performance is stable")

	unit.DaysRemaining = 0
	assert.Contains(t, p.Generate(unit)[1].Text, "Strategy successful")
}
