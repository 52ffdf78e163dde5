package services

import (
	"context"
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/dto"
)

// SeriesReaderSvc defines read operations for series data
type SeriesReaderSvc interface {
	// GetSeriesByCode retrieves a tenant's series by code.
	GetSeriesByCode(ctx context.Context, tenantID string, code string) (*domain.Series, error)

	// ListSeries retrieves all series owned by a tenant.
	ListSeries(ctx context.Context, tenantID string) ([]domain.Series, error)

	// ListObservations retrieves all observations of a tenant's series.
	ListObservations(ctx context.Context, tenantID string, code string) ([]domain.Observation, error)
}

// SeriesWriterSvc defines write operations for series data
type SeriesWriterSvc interface {
	// CreateSeries persists a new series.
	CreateSeries(ctx context.Context, tenantID string, req dto.CreateSeriesRequest, creatorUserID string) (*domain.Series, error)

	// IngestObservation upserts one observation under the uniqueness
	// invariant. The bool reports whether anything was written (false for a
	// no-op re-ingestion).
	IngestObservation(ctx context.Context, tenantID string, seriesCode string, req dto.IngestObservationRequest, creatorUserID string) (*domain.Observation, bool, error)
}

// ObservationResolverSvc selects the applicable observation for a date under
// a version-tag preference. It never searches adjacent dates implicitly;
// at-or-before semantics must be requested explicitly.
type ObservationResolverSvc interface {
	// Resolve returns the observation for exactly (series, asOfDate) under
	// the policy's tag precedence, or apperrors.ErrDataUnavailable.
	Resolve(ctx context.Context, tenantID string, seriesCode string, asOfDate time.Time, policy domain.ResolutionPolicy) (*domain.Observation, error)

	// ResolveLatestAtOrBefore returns the most recent observation with
	// asOfDate <= target under the policy's tag precedence.
	ResolveLatestAtOrBefore(ctx context.Context, tenantID string, seriesCode string, target time.Time, policy domain.ResolutionPolicy) (*domain.Observation, error)
}

// SeriesSvcFacade combines all series-related service interfaces
type SeriesSvcFacade interface {
	SeriesReaderSvc
	SeriesWriterSvc
	ObservationResolverSvc
}
