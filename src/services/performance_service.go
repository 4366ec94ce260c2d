package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/models"
	"github.com/username/strperformance/backend/src/parsers/csvtable"
	"github.com/username/strperformance/backend/src/processors"
	"github.com/username/strperformance/backend/src/security/validation"
)

const (
	ckSessionRoster      = "roster_session_%s"
	DefaultRosterExpiry  = 12 * time.Hour
	CacheCleanupInterval = 30 * time.Minute

	msgIngestOK            = "Dashboard updated successfully!"
	msgHeaderNotFound      = `Could not find a valid header row containing "Listing title" or "Listing ID". Please check the CSV format.`
	msgRequiredColumnsGone = `Missing required columns: "Listing title" and "Booking value".`
)

type performanceServiceImpl struct {
	store       RosterStore
	reconciler  processors.BookingReconciler
	insights    processors.InsightProcessor
	rosterCache *cache.Cache
	period      string

	// mu serialises read-modify-write of session rosters and guards seed.
	mu   sync.Mutex
	seed []models.Unit
}

func NewPerformanceService(
	store RosterStore,
	reconciler processors.BookingReconciler,
	insights processors.InsightProcessor,
	rosterCache *cache.Cache,
	period string,
) PerformanceService {
	return &performanceServiceImpl{
		store:       store,
		reconciler:  reconciler,
		insights:    insights,
		rosterCache: rosterCache,
		period:      period,
	}
}

// NewRosterCache builds the cache holding per-session rosters.
func NewRosterCache(expiry time.Duration) *cache.Cache {
	if expiry <= 0 {
		expiry = DefaultRosterExpiry
	}
	return cache.New(expiry, CacheCleanupInterval)
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf(ckSessionRoster, sessionID)
}

// loadSeedLocked returns the validated seed roster, reading the store once. Callers hold s.mu.
func (s *performanceServiceImpl) loadSeedLocked(ctx context.Context) ([]models.Unit, error) {
	if s.seed != nil {
		return s.seed, nil
	}
	units, err := s.store.LoadSeedRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seed roster: %w", err)
	}
	if err := validation.ValidateRoster(units); err != nil {
		return nil, fmt.Errorf("seed roster is invalid: %w", err)
	}
	s.seed = models.CloneRoster(units)
	logger.L.Info("Seed roster loaded", "units", len(units))
	return s.seed, nil
}

// rosterLocked returns the session's stored roster, seeding it on first access. Callers hold s.mu
// and must not modify the returned slice.
func (s *performanceServiceImpl) rosterLocked(ctx context.Context, sessionID string) ([]models.Unit, error) {
	if cached, found := s.rosterCache.Get(sessionKey(sessionID)); found {
		return cached.([]models.Unit), nil
	}
	seed, err := s.loadSeedLocked(ctx)
	if err != nil {
		return nil, err
	}
	roster := models.CloneRoster(seed)
	s.rosterCache.Set(sessionKey(sessionID), roster, cache.DefaultExpiration)
	logger.FromContext(ctx).Debug("Session roster seeded", "units", len(roster))
	return roster, nil
}

// snapshot returns a private copy of the session roster.
func (s *performanceServiceImpl) snapshot(ctx context.Context, sessionID string) ([]models.Unit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster, err := s.rosterLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return models.CloneRoster(roster), nil
}

func (s *performanceServiceImpl) GetPerformance(ctx context.Context, sessionID string) (*models.PerformanceData, error) {
	units, err := s.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.PerformanceData{Period: s.period, Units: units}, nil
}

func (s *performanceServiceImpl) GetTotals(ctx context.Context, sessionID string) (models.PortfolioTotals, error) {
	units, err := s.snapshot(ctx, sessionID)
	if err != nil {
		return models.PortfolioTotals{}, err
	}
	return models.ComputeTotals(units), nil
}

func (s *performanceServiceImpl) SearchUnits(ctx context.Context, sessionID, query string) ([]models.Unit, error) {
	units, err := s.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return models.FilterUnits(units, query), nil
}

func (s *performanceServiceImpl) GetUnitInsights(ctx context.Context, sessionID, unitID string) ([]models.Insight, error) {
	units, err := s.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	unit, ok := models.FindUnit(units, unitID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, unitID)
	}
	return s.insights.Generate(unit), nil
}

func (s *performanceServiceImpl) UpdateUnitComments(ctx context.Context, sessionID, unitID, comments string) (*models.Unit, error) {
	if err := validation.ValidateComment(comments, sessionID); err != nil {
		return nil, err
	}
	cleaned := validation.CleanComment(comments)

	s.mu.Lock()
	defer s.mu.Unlock()
	roster, err := s.rosterLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	updated := models.CloneRoster(roster)
	for i := range updated {
		if updated[i].ID != unitID {
			continue
		}
		updated[i].Comments = cleaned
		s.rosterCache.Set(sessionKey(sessionID), updated, cache.DefaultExpiration)
		logger.FromContext(ctx).Info("Unit comments updated", "unitID", unitID, "length", len(cleaned))
		result := updated[i].Clone()
		return &result, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, unitID)
}

func (s *performanceServiceImpl) IngestBookings(ctx context.Context, sessionID string, export io.Reader) (*models.IngestOutcome, error) {
	log := logger.FromContext(ctx)

	raw, err := io.ReadAll(export)
	if err != nil {
		return nil, fmt.Errorf("read booking export: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	roster, err := s.rosterLocked(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.reconciler.Reconcile(roster, string(raw))
	if err != nil {
		outcome := rejectedOutcome(err)
		if outcome == nil {
			return nil, fmt.Errorf("reconcile booking export: %w", err)
		}
		log.Warn("Booking export rejected", "status", outcome.Status, "error", err)
		return outcome, fmt.Errorf("%w: %w", ErrIngestionRejected, err)
	}

	s.rosterCache.Set(sessionKey(sessionID), result.Units, cache.DefaultExpiration)
	log.Info("Booking export ingested",
		"bytes", len(raw),
		"unitsUpdated", result.UnitsUpdated,
		"rowsMatched", result.RowsMatched,
		"rowsUnmatched", result.RowsUnmatched)

	unmatched := result.UnmatchedListings
	if unmatched == nil {
		unmatched = []string{}
	}
	return &models.IngestOutcome{
		Status:            models.IngestOK,
		Message:           msgIngestOK,
		UnitsUpdated:      result.UnitsUpdated,
		RowsMatched:       result.RowsMatched,
		RowsUnmatched:     result.RowsUnmatched,
		UnmatchedListings: unmatched,
	}, nil
}

func rejectedOutcome(err error) *models.IngestOutcome {
	switch {
	case errors.Is(err, csvtable.ErrHeaderNotFound):
		return &models.IngestOutcome{Status: models.IngestHeaderNotFound, Message: msgHeaderNotFound, UnmatchedListings: []string{}}
	case errors.Is(err, processors.ErrRequiredColumnsMissing):
		return &models.IngestOutcome{Status: models.IngestRequiredColumnsMissing, Message: msgRequiredColumnsGone, UnmatchedListings: []string{}}
	}
	return nil
}

func (s *performanceServiceImpl) ResetSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosterCache.Delete(sessionKey(sessionID))
	logger.L.Debug("Session roster reset", "sessionID", sessionID)
}
