package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Series represents one market index row.
type Series struct {
	SeriesID string `json:"seriesID"` // Primary Key (e.g., UUID)
	TenantID string `json:"tenantID"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	AuditFields
}

// Observation represents one versioned value-point row. The database enforces
// uniqueness on (series_id, as_of_date, version_tag).
type Observation struct {
	ObservationID string          `json:"observationID"`
	SeriesID      string          `json:"seriesID"`
	AsOfDate      time.Time       `json:"asOfDate"`
	Value         decimal.Decimal `json:"value"`
	VersionTag    string          `json:"versionTag"`
	IngestedAt    time.Time       `json:"ingestedAt"`
	AuditFields
}
