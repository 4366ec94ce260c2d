package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/strperformance/backend/src/models"
)

var (
	ErrIngestionRejected = errors.New("booking export rejected")
	ErrUnitNotFound      = errors.New("unit not found")
)

// RosterStore supplies the roster every new session starts from.
type RosterStore interface {
	LoadSeedRoster(ctx context.Context) ([]models.Unit, error)
}

// PerformanceService owns each session's working roster.
// Every method returns copies; callers can never mutate the stored roster.
type PerformanceService interface {
	GetPerformance(ctx context.Context, sessionID string) (*models.PerformanceData, error)
	GetTotals(ctx context.Context, sessionID string) (models.PortfolioTotals, error)
	SearchUnits(ctx context.Context, sessionID, query string) ([]models.Unit, error)
	GetUnitInsights(ctx context.Context, sessionID, unitID string) ([]models.Insight, error)
	UpdateUnitComments(ctx context.Context, sessionID, unitID, comments string) (*models.Unit, error)

	// IngestBookings reconciles a booking export into the session roster.
	// A rejected export returns a non-nil outcome describing why, together
	// with an error wrapping ErrIngestionRejected; the roster is left unchanged.
	IngestBookings(ctx context.Context, sessionID string, export io.Reader) (*models.IngestOutcome, error)

	// ResetSession drops the session roster so the next read starts from the seed.
	ResetSession(sessionID string)
}
