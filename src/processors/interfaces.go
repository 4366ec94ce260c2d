package processors

import "github.com/username/strperformance/backend/src/models"

// BookingReconciler folds a booking export into a unit roster.
// Implementations are stateless: the same (roster, text) always yields the same result,
// and the roster passed in is never modified.
type BookingReconciler interface {
	Reconcile(roster []models.Unit, csvText string) (*ReconcileResult, error)
}

// InsightProcessor turns a unit's figures into dashboard advice.
type InsightProcessor interface {
	Generate(unit models.Unit) []models.Insight
}
