package pgsql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
	"github.com/Numraio/cpam-sub003/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxSeriesRepository implements the ports series and observation repository
// interfaces using pgxpool.
type PgxSeriesRepository struct {
	BaseRepository
}

func newPgxSeriesRepository(db *pgxpool.Pool) *PgxSeriesRepository {
	return &PgxSeriesRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const seriesColumns = `series_id, tenant_id, code, name, unit, created_at, created_by, last_updated_at, last_updated_by`

func scanSeries(row pgx.Row) (models.Series, error) {
	var m models.Series
	err := row.Scan(
		&m.SeriesID, &m.TenantID, &m.Code, &m.Name, &m.Unit,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveSeries persists a new series.
func (r *PgxSeriesRepository) SaveSeries(ctx context.Context, series domain.Series) error {
	m := mapping.ToModelSeries(series)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO series (series_id, tenant_id, code, name, unit, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.SeriesID, m.TenantID, m.Code, m.Name, m.Unit,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("series code " + m.Code + " already exists for tenant")
		}
		return apperrors.NewAppError(500, "failed to save series", err)
	}
	return nil
}

// FindSeriesByID retrieves a series by its ID.
func (r *PgxSeriesRepository) FindSeriesByID(ctx context.Context, seriesID string) (*domain.Series, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+seriesColumns+` FROM series WHERE series_id = $1`, seriesID)
	m, err := scanSeries(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("series with ID " + seriesID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find series", err)
	}
	d := mapping.ToDomainSeries(m)
	return &d, nil
}

// FindSeriesByCode retrieves a tenant's series by its code.
func (r *PgxSeriesRepository) FindSeriesByCode(ctx context.Context, tenantID string, code string) (*domain.Series, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+seriesColumns+` FROM series WHERE tenant_id = $1 AND code = $2`,
		tenantID, strings.ToUpper(code),
	)
	m, err := scanSeries(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("series " + code + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find series", err)
	}
	d := mapping.ToDomainSeries(m)
	return &d, nil
}

// ListSeriesByTenant retrieves all series owned by a tenant ordered by code.
func (r *PgxSeriesRepository) ListSeriesByTenant(ctx context.Context, tenantID string) ([]domain.Series, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+seriesColumns+` FROM series WHERE tenant_id = $1 ORDER BY code`,
		tenantID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list series", err)
	}
	defer rows.Close()

	var list []domain.Series
	for rows.Next() {
		m, err := scanSeries(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan series", err)
		}
		list = append(list, mapping.ToDomainSeries(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating series", err)
	}
	return list, nil
}

const observationColumns = `observation_id, series_id, as_of_date, value, version_tag, ingested_at, created_at, created_by, last_updated_at, last_updated_by`

func scanObservation(row pgx.Row) (models.Observation, error) {
	var m models.Observation
	err := row.Scan(
		&m.ObservationID, &m.SeriesID, &m.AsOfDate, &m.Value, &m.VersionTag, &m.IngestedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// UpsertObservation inserts the observation or updates the value held under
// the same (series, date, tag) tuple. The WHERE clause on the conflict update
// makes an identical re-ingestion touch zero rows, which is how the caller
// learns nothing changed.
func (r *PgxSeriesRepository) UpsertObservation(ctx context.Context, obs domain.Observation) (bool, error) {
	m := mapping.ToModelObservation(obs)
	tag, err := r.Pool.Exec(ctx, `
		INSERT INTO observations (observation_id, series_id, as_of_date, value, version_tag, ingested_at, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (series_id, as_of_date, version_tag) DO UPDATE
		SET value = EXCLUDED.value,
		    ingested_at = EXCLUDED.ingested_at,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by
		WHERE observations.value IS DISTINCT FROM EXCLUDED.value`,
		m.ObservationID, m.SeriesID, m.AsOfDate, m.Value, m.VersionTag, m.IngestedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to upsert observation", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindObservation retrieves the observation at exactly (series, date, tag).
func (r *PgxSeriesRepository) FindObservation(ctx context.Context, seriesID string, asOfDate time.Time, tag domain.VersionTag) (*domain.Observation, error) {
	row := r.Pool.QueryRow(ctx,
		`SELECT `+observationColumns+` FROM observations WHERE series_id = $1 AND as_of_date = $2 AND version_tag = $3`,
		seriesID, asOfDate, string(tag),
	)
	m, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("observation not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find observation", err)
	}
	d := mapping.ToDomainObservation(m)
	return &d, nil
}

// FindLatestObservationAtOrBefore retrieves the most recent observation with
// as_of_date <= target carrying the given tag.
func (r *PgxSeriesRepository) FindLatestObservationAtOrBefore(ctx context.Context, seriesID string, target time.Time, tag domain.VersionTag) (*domain.Observation, error) {
	row := r.Pool.QueryRow(ctx, `
		SELECT `+observationColumns+` FROM observations
		WHERE series_id = $1 AND as_of_date <= $2 AND version_tag = $3
		ORDER BY as_of_date DESC
		LIMIT 1`,
		seriesID, target, string(tag),
	)
	m, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no observation at or before target date")
		}
		return nil, apperrors.NewAppError(500, "failed to find observation", err)
	}
	d := mapping.ToDomainObservation(m)
	return &d, nil
}

// ListObservationsBySeries retrieves all observations of a series ordered by
// as_of_date then version_tag.
func (r *PgxSeriesRepository) ListObservationsBySeries(ctx context.Context, seriesID string) ([]domain.Observation, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+observationColumns+` FROM observations WHERE series_id = $1 ORDER BY as_of_date, version_tag`,
		seriesID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list observations", err)
	}
	defer rows.Close()

	var ms []models.Observation
	for rows.Next() {
		m, err := scanObservation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan observation", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating observations", err)
	}
	return mapping.ToDomainObservationSlice(ms), nil
}
