package pgsql

import (
	"context"
	"errors"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
	"github.com/Numraio/cpam-sub003/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxFormulaRepository implements the ports formula repository interfaces
// using pgxpool. Graphs are stored as JSONB documents.
type PgxFormulaRepository struct {
	BaseRepository
}

func newPgxFormulaRepository(db *pgxpool.Pool) *PgxFormulaRepository {
	return &PgxFormulaRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const formulaColumns = `formula_id, tenant_id, name, type, graph, created_at, created_by, last_updated_at, last_updated_by`

func scanFormula(row pgx.Row) (models.Formula, error) {
	var m models.Formula
	err := row.Scan(
		&m.FormulaID, &m.TenantID, &m.Name, &m.Type, &m.Graph,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveFormula persists a new formula with its graph document.
func (r *PgxFormulaRepository) SaveFormula(ctx context.Context, formula domain.Formula) error {
	m, err := mapping.ToModelFormula(formula)
	if err != nil {
		return err
	}
	_, err = r.Pool.Exec(ctx, `
		INSERT INTO formulas (formula_id, tenant_id, name, type, graph, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.FormulaID, m.TenantID, m.Name, m.Type, m.Graph,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save formula", err)
	}
	return nil
}

// FindFormulaByID retrieves a formula by its ID.
func (r *PgxFormulaRepository) FindFormulaByID(ctx context.Context, formulaID string) (*domain.Formula, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+formulaColumns+` FROM formulas WHERE formula_id = $1`, formulaID)
	m, err := scanFormula(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("formula with ID " + formulaID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find formula", err)
	}
	d, err := mapping.ToDomainFormula(m)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode formula", err)
	}
	return &d, nil
}

// ListFormulasByTenant retrieves all formulas owned by a tenant ordered by name.
func (r *PgxFormulaRepository) ListFormulasByTenant(ctx context.Context, tenantID string) ([]domain.Formula, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+formulaColumns+` FROM formulas WHERE tenant_id = $1 ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list formulas", err)
	}
	defer rows.Close()

	var list []domain.Formula
	for rows.Next() {
		m, err := scanFormula(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan formula", err)
		}
		d, err := mapping.ToDomainFormula(m)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to decode formula", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating formulas", err)
	}
	return list, nil
}
