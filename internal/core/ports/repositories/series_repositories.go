package repositories

import (
	"context"
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
)

// SeriesReader defines read operations for series metadata
type SeriesReader interface {
	// FindSeriesByID retrieves a series by its unique identifier.
	FindSeriesByID(ctx context.Context, seriesID string) (*domain.Series, error)

	// FindSeriesByCode retrieves a tenant's series by its code.
	FindSeriesByCode(ctx context.Context, tenantID string, code string) (*domain.Series, error)

	// ListSeriesByTenant retrieves all series owned by a tenant.
	ListSeriesByTenant(ctx context.Context, tenantID string) ([]domain.Series, error)
}

// SeriesWriter defines write operations for series metadata
type SeriesWriter interface {
	// SaveSeries persists a new series.
	SaveSeries(ctx context.Context, series domain.Series) error
}

// ObservationReader defines read operations for observation data
type ObservationReader interface {
	// FindObservation retrieves the observation at exactly (seriesID, asOfDate, tag).
	FindObservation(ctx context.Context, seriesID string, asOfDate time.Time, tag domain.VersionTag) (*domain.Observation, error)

	// FindLatestObservationAtOrBefore retrieves the most recent observation
	// with asOfDate <= target carrying the given tag.
	FindLatestObservationAtOrBefore(ctx context.Context, seriesID string, target time.Time, tag domain.VersionTag) (*domain.Observation, error)

	// ListObservationsBySeries retrieves all observations of a series ordered by asOfDate.
	ListObservationsBySeries(ctx context.Context, seriesID string) ([]domain.Observation, error)
}

// ObservationWriter defines write operations for observation data
type ObservationWriter interface {
	// UpsertObservation inserts the observation or, when the
	// (seriesID, asOfDate, versionTag) tuple already exists, updates its
	// value. Re-ingestion of an identical tuple and value is a no-op.
	// Returns true when a row was inserted or changed.
	UpsertObservation(ctx context.Context, obs domain.Observation) (bool, error)
}

// SeriesRepositoryFacade combines all series-related repository interfaces
type SeriesRepositoryFacade interface {
	SeriesReader
	SeriesWriter
	ObservationReader
	ObservationWriter
}
