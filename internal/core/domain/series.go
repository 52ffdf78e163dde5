package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VersionTag is the revision status of a single observation.
type VersionTag string

const (
	Preliminary VersionTag = "PRELIMINARY"
	Final       VersionTag = "FINAL"
	Revised     VersionTag = "REVISED"
)

// IsValid reports whether the tag is one of the known revision statuses.
func (t VersionTag) IsValid() bool {
	switch t {
	case Preliminary, Final, Revised:
		return true
	}
	return false
}

// FallbackMode controls how the resolver behaves when the preferred tag has
// no observation at the requested date.
type FallbackMode string

const (
	// FallbackChain tries the preferred tag first, then the remaining tags
	// in the fixed precedence REVISED > FINAL > PRELIMINARY.
	FallbackChain FallbackMode = "FALLBACK_CHAIN"
	// StrictMatch accepts the preferred tag only.
	StrictMatch FallbackMode = "STRICT_MATCH"
)

// ResolutionPolicy is the version preference applied when resolving a series
// observation. The fallback behavior is an explicit per-tenant configuration,
// not a hidden default.
type ResolutionPolicy struct {
	Preferred VersionTag   `json:"preferred"`
	Fallback  FallbackMode `json:"fallback"`
}

// TagOrder returns the tag precedence this policy resolves under, starting
// with the preferred tag.
func (p ResolutionPolicy) TagOrder() []VersionTag {
	if p.Fallback == StrictMatch {
		return []VersionTag{p.Preferred}
	}
	order := []VersionTag{p.Preferred}
	for _, t := range []VersionTag{Revised, Final, Preliminary} {
		if t != p.Preferred {
			order = append(order, t)
		}
	}
	return order
}

// Series identifies a market index (commodity, FX, wage index) owned by a tenant.
type Series struct {
	SeriesID string `json:"seriesID"` // Primary Key (e.g., UUID)
	TenantID string `json:"tenantID"`
	Code     string `json:"code"` // e.g. "WTI", "EURUSD", "BLS-CES0500000003"
	Name     string `json:"name"`
	Unit     string `json:"unit"` // e.g. "USD/bbl", "index points"
	AuditFields
}

// Observation is a single versioned value-point of a series. At most one
// observation exists per (series, asOfDate, versionTag).
type Observation struct {
	ObservationID string          `json:"observationID"`
	SeriesID      string          `json:"seriesID"`
	AsOfDate      time.Time       `json:"asOfDate"` // calendar day; time-of-day discarded
	Value         decimal.Decimal `json:"value"`
	VersionTag    VersionTag      `json:"versionTag"`
	IngestedAt    time.Time       `json:"ingestedAt"`
	AuditFields
}
