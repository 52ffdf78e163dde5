package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portsrepo "github.com/Numraio/cpam-sub003/internal/core/ports/repositories"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/middleware"
)

const dayKeyFormat = "2006-01-02"

// ObservationCache is an explicit TTL cache for resolved observations. It is
// constructed once per process by the caller and handed to the series
// service; it is never a package-level global.
type ObservationCache struct {
	cache *lru.LRU[string, domain.Observation]
}

// NewObservationCache creates a cache holding up to size entries for ttl.
func NewObservationCache(size int, ttl time.Duration) *ObservationCache {
	return &ObservationCache{
		cache: lru.NewLRU[string, domain.Observation](size, nil, ttl),
	}
}

func (c *ObservationCache) key(seriesID string, asOfDate time.Time, tag domain.VersionTag) string {
	return seriesID + "|" + asOfDate.Format(dayKeyFormat) + "|" + string(tag)
}

func (c *ObservationCache) get(seriesID string, asOfDate time.Time, tag domain.VersionTag) (domain.Observation, bool) {
	return c.cache.Get(c.key(seriesID, asOfDate, tag))
}

func (c *ObservationCache) put(obs domain.Observation) {
	c.cache.Add(c.key(obs.SeriesID, obs.AsOfDate, obs.VersionTag), obs)
}

func (c *ObservationCache) invalidate(seriesID string, asOfDate time.Time, tag domain.VersionTag) {
	c.cache.Remove(c.key(seriesID, asOfDate, tag))
}

// seriesService provides series management, observation ingestion and
// version-preference resolution.
type seriesService struct {
	seriesRepo portsrepo.SeriesRepositoryFacade
	cache      *ObservationCache
}

// NewSeriesService creates a new series service. The cache may be nil to
// disable caching (tests, one-shot tools).
func NewSeriesService(seriesRepo portsrepo.SeriesRepositoryFacade, cache *ObservationCache) portssvc.SeriesSvcFacade {
	return &seriesService{
		seriesRepo: seriesRepo,
		cache:      cache,
	}
}

// Ensure seriesService implements the portssvc.SeriesSvcFacade interface
var _ portssvc.SeriesSvcFacade = (*seriesService)(nil)

// normalizeDay discards time-of-day; observation identity is by calendar day.
func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CreateSeries persists a new series for the tenant.
func (s *seriesService) CreateSeries(ctx context.Context, tenantID string, req dto.CreateSeriesRequest, creatorUserID string) (*domain.Series, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, fmt.Errorf("%w: series code is required", apperrors.ErrValidation)
	}

	if _, err := s.seriesRepo.FindSeriesByCode(ctx, tenantID, code); err == nil {
		return nil, fmt.Errorf("%w: series code %s already exists", apperrors.ErrDuplicate, code)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing series: %w", err)
	}

	now := time.Now().UTC()
	series := domain.Series{
		SeriesID: uuid.NewString(),
		TenantID: tenantID,
		Code:     code,
		Name:     req.Name,
		Unit:     req.Unit,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.seriesRepo.SaveSeries(ctx, series); err != nil {
		logger.Error("Failed to save series", slog.String("code", code), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create series: %w", err)
	}

	return &series, nil
}

// GetSeriesByCode retrieves a tenant's series by code.
func (s *seriesService) GetSeriesByCode(ctx context.Context, tenantID string, code string) (*domain.Series, error) {
	series, err := s.seriesRepo.FindSeriesByCode(ctx, tenantID, strings.ToUpper(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get series %s: %w", code, err)
	}
	return series, nil
}

// ListSeries retrieves all series owned by the tenant.
func (s *seriesService) ListSeries(ctx context.Context, tenantID string) ([]domain.Series, error) {
	return s.seriesRepo.ListSeriesByTenant(ctx, tenantID)
}

// ListObservations retrieves all observations of a tenant's series.
func (s *seriesService) ListObservations(ctx context.Context, tenantID string, code string) ([]domain.Observation, error) {
	series, err := s.seriesRepo.FindSeriesByCode(ctx, tenantID, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	return s.seriesRepo.ListObservationsBySeries(ctx, series.SeriesID)
}

// IngestObservation upserts one observation. Re-ingestion of an identical
// (series, date, tag, value) tuple is a no-op; a changed value under the same
// tuple is an update.
func (s *seriesService) IngestObservation(ctx context.Context, tenantID string, seriesCode string, req dto.IngestObservationRequest, creatorUserID string) (*domain.Observation, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	tag := domain.VersionTag(req.VersionTag)
	if !tag.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown version tag %q", apperrors.ErrValidation, req.VersionTag)
	}

	series, err := s.seriesRepo.FindSeriesByCode(ctx, tenantID, strings.ToUpper(seriesCode))
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve series %s: %w", seriesCode, err)
	}

	now := time.Now().UTC()
	ingestedAt := now
	if req.ProviderTimestamp != nil {
		ingestedAt = *req.ProviderTimestamp
	}

	obs := domain.Observation{
		ObservationID: uuid.NewString(),
		SeriesID:      series.SeriesID,
		AsOfDate:      normalizeDay(req.AsOfDate),
		Value:         req.Value,
		VersionTag:    tag,
		IngestedAt:    ingestedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	changed, err := s.seriesRepo.UpsertObservation(ctx, obs)
	if err != nil {
		logger.Error("Failed to upsert observation",
			slog.String("series", seriesCode),
			slog.Time("as_of", obs.AsOfDate),
			slog.String("error", err.Error()))
		return nil, false, fmt.Errorf("failed to ingest observation: %w", err)
	}

	if changed && s.cache != nil {
		s.cache.invalidate(obs.SeriesID, obs.AsOfDate, obs.VersionTag)
	}

	return &obs, changed, nil
}

// Resolve returns the observation for exactly (series, asOfDate) under the
// policy's tag precedence. It never searches adjacent dates; callers needing
// at-or-before semantics use ResolveLatestAtOrBefore.
func (s *seriesService) Resolve(ctx context.Context, tenantID string, seriesCode string, asOfDate time.Time, policy domain.ResolutionPolicy) (*domain.Observation, error) {
	series, err := s.seriesRepo.FindSeriesByCode(ctx, tenantID, strings.ToUpper(seriesCode))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve series %s: %w", seriesCode, err)
	}
	day := normalizeDay(asOfDate)

	for _, tag := range policy.TagOrder() {
		if s.cache != nil {
			if cached, ok := s.cache.get(series.SeriesID, day, tag); ok {
				return &cached, nil
			}
		}

		obs, err := s.seriesRepo.FindObservation(ctx, series.SeriesID, day, tag)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to look up observation: %w", err)
		}

		if s.cache != nil {
			s.cache.put(*obs)
		}
		return obs, nil
	}

	return nil, fmt.Errorf("%w: series %s has no observation on %s for preference %s/%s",
		apperrors.ErrDataUnavailable, seriesCode, day.Format(dayKeyFormat), policy.Preferred, policy.Fallback)
}

// ResolveLatestAtOrBefore returns the most recent observation with
// asOfDate <= target under the policy's tag precedence.
func (s *seriesService) ResolveLatestAtOrBefore(ctx context.Context, tenantID string, seriesCode string, target time.Time, policy domain.ResolutionPolicy) (*domain.Observation, error) {
	series, err := s.seriesRepo.FindSeriesByCode(ctx, tenantID, strings.ToUpper(seriesCode))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve series %s: %w", seriesCode, err)
	}
	day := normalizeDay(target)

	for _, tag := range policy.TagOrder() {
		obs, err := s.seriesRepo.FindLatestObservationAtOrBefore(ctx, series.SeriesID, day, tag)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to look up observation: %w", err)
		}
		return obs, nil
	}

	return nil, fmt.Errorf("%w: series %s has no observation at or before %s for preference %s/%s",
		apperrors.ErrDataUnavailable, seriesCode, day.Format(dayKeyFormat), policy.Preferred, policy.Fallback)
}
