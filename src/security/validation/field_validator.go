package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/username/strperformance/backend/src/models"
)

var ErrValidationFailed = errors.New("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxUnitNumberLength    = 32
	MaxBuildingNameLength  = 255
	MaxCommentLength       = 2000
)

// ValidateStringNotEmpty checks that s is not blank.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength counts runes, not bytes.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateComment checks free-text commentary before it is sanitised and stored.
func ValidateComment(s, contextID string) error {
	if err := ValidateStringMaxLength(s, MaxCommentLength, "comments"); err != nil {
		return err
	}
	if err := CheckXSSPatterns(s, "comments", contextID); err != nil {
		return err
	}
	return CheckFormulaInjection(s, "comments", contextID)
}

// ValidateUnit checks the invariants every roster unit must hold.
func ValidateUnit(u models.Unit) error {
	if err := ValidateStringNotEmpty(u.ID, "id"); err != nil {
		return err
	}
	if err := ValidateStringNotEmpty(u.UnitNumber, "unitNumber"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(u.UnitNumber, MaxUnitNumberLength, "unitNumber"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(u.BuildingName, MaxBuildingNameLength, "buildingName"); err != nil {
		return err
	}
	if !u.ForecastedRevenue.IsPositive() {
		return fmt.Errorf("%w: unit %s forecastedRevenue must be positive", ErrValidationFailed, u.UnitNumber)
	}
	if u.ActualRevenue.IsNegative() {
		return fmt.Errorf("%w: unit %s actualRevenue cannot be negative", ErrValidationFailed, u.UnitNumber)
	}
	if u.OccupancyRate < 0 || u.OccupancyRate > 100 {
		return fmt.Errorf("%w: unit %s occupancyRate %d outside 0-100", ErrValidationFailed, u.UnitNumber, u.OccupancyRate)
	}
	if !u.Status.Valid() {
		return fmt.Errorf("%w: unit %s has unknown status '%s'", ErrValidationFailed, u.UnitNumber, u.Status)
	}
	if u.DaysRemaining < 0 {
		return fmt.Errorf("%w: unit %s daysRemaining cannot be negative", ErrValidationFailed, u.UnitNumber)
	}
	return nil
}

// ValidateRoster validates every unit and requires unique ids and unit numbers.
func ValidateRoster(units []models.Unit) error {
	if len(units) == 0 {
		return fmt.Errorf("%w: roster is empty", ErrValidationFailed)
	}
	seenIDs := make(map[string]bool, len(units))
	seenNumbers := make(map[string]bool, len(units))
	for _, u := range units {
		if err := ValidateUnit(u); err != nil {
			return err
		}
		if seenIDs[u.ID] {
			return fmt.Errorf("%w: duplicate unit id '%s'", ErrValidationFailed, u.ID)
		}
		if seenNumbers[u.UnitNumber] {
			return fmt.Errorf("%w: duplicate unit number '%s'", ErrValidationFailed, u.UnitNumber)
		}
		seenIDs[u.ID] = true
		seenNumbers[u.UnitNumber] = true
	}
	return nil
}
