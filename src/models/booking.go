package models

import "github.com/shopspring/decimal"

// UnitAccumulator is the running total for one unit during a single ingestion.
type UnitAccumulator struct {
	Revenue      decimal.Decimal
	BookedNights decimal.Decimal
}

// IngestStatus discriminates the outcome of a booking export upload.
type IngestStatus string

const (
	IngestOK                     IngestStatus = "ok"
	IngestHeaderNotFound         IngestStatus = "header_not_found"
	IngestRequiredColumnsMissing IngestStatus = "required_columns_missing"
)

// IngestOutcome is what the dashboard renders as the upload status message.
type IngestOutcome struct {
	Status            IngestStatus `json:"status"`
	Message           string       `json:"message"`
	UnitsUpdated      int          `json:"unitsUpdated"`
	RowsMatched       int          `json:"rowsMatched"`
	RowsUnmatched     int          `json:"rowsUnmatched"`
	UnmatchedListings []string     `json:"unmatchedListings"`
}
