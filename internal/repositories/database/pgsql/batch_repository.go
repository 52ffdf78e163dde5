package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
	"github.com/Numraio/cpam-sub003/internal/utils/mapping"
	"github.com/Numraio/cpam-sub003/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxBatchRepository implements the ports batch and result repository
// interfaces using pgxpool. The unique index on the flattened identity key
// columns is what serializes concurrent batch submissions.
type PgxBatchRepository struct {
	BaseRepository
}

func newPgxBatchRepository(db *pgxpool.Pool) *PgxBatchRepository {
	return &PgxBatchRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const batchColumns = `batch_id, tenant_id, formula_id, contract_id, as_of_date, preferred, revision, status, error, started_at, completed_at, created_at, created_by, last_updated_at, last_updated_by`

func scanBatch(row pgx.Row) (models.CalcBatch, error) {
	var m models.CalcBatch
	var errMsg *string
	err := row.Scan(
		&m.BatchID, &m.TenantID, &m.FormulaID, &m.ContractID, &m.AsOfDate, &m.Preferred, &m.Revision,
		&m.Status, &errMsg, &m.StartedAt, &m.CompletedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if errMsg != nil {
		m.Error = *errMsg
	}
	return m, err
}

// CreateBatch inserts a new batch row. A unique violation on the identity key
// surfaces as ErrDuplicate so callers can resolve the race by re-reading.
func (r *PgxBatchRepository) CreateBatch(ctx context.Context, batch domain.CalcBatch) error {
	m := mapping.ToModelCalcBatch(batch)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO calc_batches (batch_id, tenant_id, formula_id, contract_id, as_of_date, preferred, revision, status, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.BatchID, m.TenantID, m.FormulaID, m.ContractID, m.AsOfDate, m.Preferred, m.Revision,
		m.Status, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("batch already exists for identity key")
		}
		return apperrors.NewAppError(500, "failed to create batch", err)
	}
	return nil
}

// FindBatchByID retrieves a batch by its ID.
func (r *PgxBatchRepository) FindBatchByID(ctx context.Context, batchID string) (*domain.CalcBatch, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+batchColumns+` FROM calc_batches WHERE batch_id = $1`, batchID)
	m, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("batch with ID " + batchID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find batch", err)
	}
	d := mapping.ToDomainCalcBatch(m)
	return &d, nil
}

// FindBatchByKey retrieves the batch with the given identity key, if any.
// IS NOT DISTINCT FROM makes the nullable contract_id column part of the key.
func (r *PgxBatchRepository) FindBatchByKey(ctx context.Context, key domain.BatchKey) (*domain.CalcBatch, error) {
	row := r.Pool.QueryRow(ctx, `
		SELECT `+batchColumns+` FROM calc_batches
		WHERE tenant_id = $1 AND formula_id = $2 AND contract_id IS NOT DISTINCT FROM $3
		  AND as_of_date = $4 AND preferred = $5 AND revision = $6`,
		key.TenantID, key.FormulaID, key.ContractID, key.AsOfDate, string(key.Preferred), key.Revision,
	)
	m, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no batch for identity key")
		}
		return nil, apperrors.NewAppError(500, "failed to find batch by key", err)
	}
	d := mapping.ToDomainCalcBatch(m)
	return &d, nil
}

// MaxRevisionForKey returns the highest revision present for the key's
// identity parameters, ignoring key.Revision, or -1 when none exist.
func (r *PgxBatchRepository) MaxRevisionForKey(ctx context.Context, key domain.BatchKey) (int, error) {
	var maxRevision int
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(revision), -1) FROM calc_batches
		WHERE tenant_id = $1 AND formula_id = $2 AND contract_id IS NOT DISTINCT FROM $3
		  AND as_of_date = $4 AND preferred = $5`,
		key.TenantID, key.FormulaID, key.ContractID, key.AsOfDate, string(key.Preferred),
	).Scan(&maxRevision)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to determine max revision", err)
	}
	return maxRevision, nil
}

// MarkBatchRunning transitions QUEUED -> RUNNING. The status predicate makes
// the update an optimistic compare-and-set: zero rows means another worker
// already owns the batch.
func (r *PgxBatchRepository) MarkBatchRunning(ctx context.Context, batchID string, startedAt time.Time) (bool, error) {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE calc_batches
		SET status = $1, started_at = $2, last_updated_at = $2
		WHERE batch_id = $3 AND status = $4`,
		string(domain.BatchRunning), startedAt, batchID, string(domain.BatchQueued),
	)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to mark batch running", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteBatchWithResults persists every result row and the COMPLETED
// transition in one transaction, so a batch is never COMPLETED with a partial
// result set.
func (r *PgxBatchRepository) CompleteBatchWithResults(ctx context.Context, batchID string, results []domain.CalcResult, completedAt time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	for _, result := range results {
		m, mapErr := mapping.ToModelCalcResult(result)
		if mapErr != nil {
			_ = r.Rollback(ctx, tx)
			return mapErr
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO calc_results (result_id, batch_id, item_id, adjusted_price, adjusted_currency, effective_date, is_approved, contributions, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			m.ResultID, m.BatchID, m.ItemID, m.AdjustedPrice, m.AdjustedCurrency, m.EffectiveDate,
			m.IsApproved, m.Contributions, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
		)
		if err != nil {
			break
		}
	}

	if err == nil {
		var cmdErr error
		cmd, cmdErr := tx.Exec(ctx, `
			UPDATE calc_batches
			SET status = $1, completed_at = $2, last_updated_at = $2
			WHERE batch_id = $3 AND status = $4`,
			string(domain.BatchCompleted), completedAt, batchID, string(domain.BatchRunning),
		)
		if cmdErr != nil {
			err = cmdErr
		} else if cmd.RowsAffected() == 0 {
			err = errors.New("batch was not in RUNNING state")
		}
	}

	if err != nil {
		_ = r.Rollback(ctx, tx)
		return apperrors.NewAppError(500, "failed to complete batch with results", err)
	}
	return r.Commit(ctx, tx)
}

// FailBatch transitions the batch to FAILED recording the triggering error.
func (r *PgxBatchRepository) FailBatch(ctx context.Context, batchID string, cause string, failedAt time.Time) error {
	_, err := r.Pool.Exec(ctx, `
		UPDATE calc_batches
		SET status = $1, error = $2, completed_at = $3, last_updated_at = $3
		WHERE batch_id = $4`,
		string(domain.BatchFailed), cause, failedAt, batchID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark batch failed", err)
	}
	return nil
}

// ListBatchesByTenant retrieves a page of a tenant's batches newest-first
// using keyset pagination on (created_at, batch_id).
func (r *PgxBatchRepository) ListBatchesByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.CalcBatch, *string, error) {
	query := `SELECT ` + batchColumns + ` FROM calc_batches WHERE tenant_id = $1`
	args := []any{tenantID}

	if nextToken != nil && *nextToken != "" {
		createdAt, batchID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError(err.Error())
		}
		query += ` AND (created_at, batch_id) < ($2, $3)`
		args = append(args, createdAt, batchID)
	}

	query += ` ORDER BY created_at DESC, batch_id DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit+1) // one extra row to know whether a next page exists

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list batches", err)
	}
	defer rows.Close()

	var list []domain.CalcBatch
	for rows.Next() {
		m, err := scanBatch(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan batch", err)
		}
		list = append(list, mapping.ToDomainCalcBatch(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating batches", err)
	}

	var token *string
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		t := pagination.EncodeToken(last.CreatedAt, last.BatchID)
		token = &t
	}
	return list, token, nil
}

// ListBatchIDsWithApprovedResults returns the IDs of COMPLETED batches whose
// result set is non-empty and fully approved.
func (r *PgxBatchRepository) ListBatchIDsWithApprovedResults(ctx context.Context, tenantID string) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT b.batch_id FROM calc_batches b
		WHERE b.tenant_id = $1 AND b.status = $2
		  AND EXISTS (SELECT 1 FROM calc_results res WHERE res.batch_id = b.batch_id)
		  AND NOT EXISTS (SELECT 1 FROM calc_results res WHERE res.batch_id = b.batch_id AND NOT res.is_approved)
		ORDER BY b.created_at`,
		tenantID, string(domain.BatchCompleted),
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list approved batches", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan batch ID", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating batch IDs", err)
	}
	return ids, nil
}

// ListTenantsWithBatches returns every tenant that has submitted at least one batch.
func (r *PgxBatchRepository) ListTenantsWithBatches(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `SELECT DISTINCT tenant_id FROM calc_batches ORDER BY tenant_id`)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list tenants", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan tenant ID", err)
		}
		tenants = append(tenants, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating tenants", err)
	}
	return tenants, nil
}

const resultColumns = `result_id, batch_id, item_id, adjusted_price, adjusted_currency, effective_date, is_approved, contributions, created_at, created_by, last_updated_at, last_updated_by`

// FindResultsByBatchID retrieves all results of a batch ordered by item ID.
func (r *PgxBatchRepository) FindResultsByBatchID(ctx context.Context, batchID string) ([]domain.CalcResult, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+resultColumns+` FROM calc_results WHERE batch_id = $1 ORDER BY item_id`,
		batchID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list batch results", err)
	}
	defer rows.Close()

	var list []domain.CalcResult
	for rows.Next() {
		var m models.CalcResult
		err := rows.Scan(
			&m.ResultID, &m.BatchID, &m.ItemID, &m.AdjustedPrice, &m.AdjustedCurrency, &m.EffectiveDate,
			&m.IsApproved, &m.Contributions, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan batch result", err)
		}
		d, err := mapping.ToDomainCalcResult(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode batch result", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating batch results", err)
	}
	return list, nil
}

// ApproveResultsByBatchID marks every result of the batch approved.
func (r *PgxBatchRepository) ApproveResultsByBatchID(ctx context.Context, batchID string, approvedBy string, approvedAt time.Time) error {
	_, err := r.Pool.Exec(ctx, `
		UPDATE calc_results
		SET is_approved = TRUE, last_updated_by = $1, last_updated_at = $2
		WHERE batch_id = $3`,
		approvedBy, approvedAt, batchID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to approve batch results", err)
	}
	return nil
}
