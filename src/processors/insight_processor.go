package processors

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/username/strperformance/backend/src/models"
)

const (
	urgentDaysThreshold    = 10
	highDemandOccupancyPct = 90
)

type insightProcessorImpl struct{}

// NewInsightProcessor creates the rule-based insight generator.
func NewInsightProcessor() InsightProcessor {
	return &insightProcessorImpl{}
}

// FormatSAR renders an amount rounded to whole riyals with thousands separators.
func FormatSAR(v decimal.Decimal) string {
	return "SAR " + humanize.Comma(v.Round(0).IntPart())
}

// Generate returns an analysis line followed by one recommended action.
func (p *insightProcessorImpl) Generate(unit models.Unit) []models.Insight {
	variance := unit.Variance()
	behind := variance.IsNegative()
	gap := variance.Abs()

	var insights []models.Insight
	if behind {
		insights = append(insights, models.Insight{
			Type: "observation",
			Text: fmt.Sprintf("Analysis: Revenue is %s below target. Occupancy is at %d%%.", FormatSAR(gap), unit.OccupancyRate),
		})
	} else {
		insights = append(insights, models.Insight{
			Type: "success",
			Text: fmt.Sprintf("Analysis: Strong performance. Revenue is %s above target with %d%% occupancy.", FormatSAR(variance), unit.OccupancyRate),
		})
	}

	switch {
	case unit.DaysRemaining == 0 && behind:
		insights = append(insights, models.Insight{
			Type: "warning",
			Text: "Action: Review past month's pricing strategy. Consider lowering minimum stay restrictions for the upcoming period to avoid gaps.",
		})
	case unit.DaysRemaining == 0:
		insights = append(insights, models.Insight{
			Type: "info",
			Text: "Action: Strategy successful. Analyze tenant feedback to maintain high ratings and replicate this success.",
		})
	case behind && unit.DaysRemaining <= urgentDaysThreshold:
		dailyGap := gap.Div(decimal.NewFromInt(int64(unit.DaysRemaining)))
		insights = append(insights, models.Insight{
			Type: "urgent",
			Text: fmt.Sprintf("Action: High urgency. You need ~%s/day to recover. Reduce weekday rates by 15%% immediately.", FormatSAR(dailyGap)),
		})
	case behind:
		insights = append(insights, models.Insight{
			Type: "strategy",
			Text: "Action: Booking pace is slow. Enable 'Instant Book' and adjust weekend pricing to be more competitive vs peers.",
		})
	case unit.OccupancyRate > highDemandOccupancyPct:
		insights = append(insights, models.Insight{
			Type: "opportunity",
			Text: "Action: High demand detected. Increase daily rates by 10-15% for the remaining available dates to maximize yield.",
		})
	default:
		insights = append(insights, models.Insight{
			Type: "info",
			Text: "Action: Performance is stable. Maintain current pricing but monitor competitor activity for next weekend.",
		})
	}
	return insights
}
