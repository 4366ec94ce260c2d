package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/strperformance/backend/src/logger"
	"github.com/username/strperformance/backend/src/models"
)

// GetRoster loads every unit with its negotiated rates, in sort_order.
// The order matters: it is the order units are matched against listing titles.
func GetRoster(ctx context.Context, db *sql.DB) ([]models.Unit, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, unit_number, building_name, actual_revenue, forecasted_revenue,
		       occupancy_rate, status, days_remaining, comments
		FROM units
		ORDER BY sort_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	var units []models.Unit
	byID := make(map[string]int)
	for rows.Next() {
		var u models.Unit
		var status string
		if err := rows.Scan(
			&u.ID,
			&u.UnitNumber,
			&u.BuildingName,
			&u.ActualRevenue,
			&u.ForecastedRevenue,
			&u.OccupancyRate,
			&status,
			&u.DaysRemaining,
			&u.Comments,
		); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.Status = models.UnitStatus(status)
		u.NegotiatedRates = []models.NegotiatedRate{}
		byID[u.ID] = len(units)
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}

	if err := attachRates(ctx, db, units, byID); err != nil {
		return nil, err
	}
	return units, nil
}

func attachRates(ctx context.Context, db *sql.DB, units []models.Unit, byID map[string]int) error {
	rows, err := db.QueryContext(ctx, `
		SELECT unit_id, label, price
		FROM negotiated_rates
		ORDER BY unit_id ASC, position ASC`)
	if err != nil {
		return fmt.Errorf("query negotiated rates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var unitID string
		var rate models.NegotiatedRate
		if err := rows.Scan(&unitID, &rate.Label, &rate.Price); err != nil {
			return fmt.Errorf("scan negotiated rate: %w", err)
		}
		idx, ok := byID[unitID]
		if !ok {
			logger.L.Warn("Negotiated rate references unknown unit", "unitID", unitID)
			continue
		}
		units[idx].NegotiatedRates = append(units[idx].NegotiatedRates, rate)
	}
	return rows.Err()
}

// SQLRosterStore serves the seed roster from the units tables.
type SQLRosterStore struct {
	DB *sql.DB
}

// NewSQLRosterStore wraps db as a roster source.
func NewSQLRosterStore(db *sql.DB) *SQLRosterStore {
	return &SQLRosterStore{DB: db}
}

// LoadSeedRoster returns the roster a new session starts from.
func (s *SQLRosterStore) LoadSeedRoster(ctx context.Context) ([]models.Unit, error) {
	return GetRoster(ctx, s.DB)
}
