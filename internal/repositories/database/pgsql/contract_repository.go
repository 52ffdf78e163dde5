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

// PgxContractRepository implements the ports contract repository interfaces
// using pgxpool.
type PgxContractRepository struct {
	BaseRepository
}

func newPgxContractRepository(db *pgxpool.Pool) *PgxContractRepository {
	return &PgxContractRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const contractColumns = `contract_id, tenant_id, formula_id, name, created_at, created_by, last_updated_at, last_updated_by`
const contractItemColumns = `item_id, contract_id, description, base_price, currency_code, quantity, created_at, created_by, last_updated_at, last_updated_by`

func scanContract(row pgx.Row) (models.Contract, error) {
	var m models.Contract
	err := row.Scan(
		&m.ContractID, &m.TenantID, &m.FormulaID, &m.Name,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func scanContractItem(row pgx.Row) (models.ContractItem, error) {
	var m models.ContractItem
	err := row.Scan(
		&m.ItemID, &m.ContractID, &m.Description, &m.BasePrice, &m.CurrencyCode, &m.Quantity,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveContract persists a contract and its line items in one transaction.
func (r *PgxContractRepository) SaveContract(ctx context.Context, contract domain.Contract, items []domain.ContractItem) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	m := mapping.ToModelContract(contract)
	_, err = tx.Exec(ctx, `
		INSERT INTO contracts (contract_id, tenant_id, formula_id, name, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ContractID, m.TenantID, m.FormulaID, m.Name,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err == nil {
		for _, item := range items {
			mi := mapping.ToModelContractItem(item)
			_, err = tx.Exec(ctx, `
				INSERT INTO contract_items (item_id, contract_id, description, base_price, currency_code, quantity, created_at, created_by, last_updated_at, last_updated_by)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				mi.ItemID, mi.ContractID, mi.Description, mi.BasePrice, mi.CurrencyCode, mi.Quantity,
				mi.CreatedAt, mi.CreatedBy, mi.LastUpdatedAt, mi.LastUpdatedBy,
			)
			if err != nil {
				break
			}
		}
	}

	if err != nil {
		_ = r.Rollback(ctx, tx)
		return apperrors.NewAppError(500, "failed to save contract", err)
	}
	return r.Commit(ctx, tx)
}

// FindContractByID retrieves a contract by its ID.
func (r *PgxContractRepository) FindContractByID(ctx context.Context, contractID string) (*domain.Contract, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE contract_id = $1`, contractID)
	m, err := scanContract(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("contract with ID " + contractID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find contract", err)
	}
	d := mapping.ToDomainContract(m)
	return &d, nil
}

// FindItemsByContractID retrieves the line items of a contract ordered by item ID.
func (r *PgxContractRepository) FindItemsByContractID(ctx context.Context, contractID string) ([]domain.ContractItem, error) {
	return r.queryItems(ctx,
		`SELECT `+contractItemColumns+` FROM contract_items WHERE contract_id = $1 ORDER BY item_id`,
		contractID,
	)
}

// FindItemsByFormulaID retrieves the line items of every contract bound to the
// formula, ordered by item ID for deterministic batch evaluation order.
func (r *PgxContractRepository) FindItemsByFormulaID(ctx context.Context, formulaID string) ([]domain.ContractItem, error) {
	return r.queryItems(ctx, `
		SELECT `+itemColumnsQualified+`
		FROM contract_items i
		JOIN contracts c ON c.contract_id = i.contract_id
		WHERE c.formula_id = $1
		ORDER BY i.item_id`,
		formulaID,
	)
}

const itemColumnsQualified = `i.item_id, i.contract_id, i.description, i.base_price, i.currency_code, i.quantity, i.created_at, i.created_by, i.last_updated_at, i.last_updated_by`

func (r *PgxContractRepository) queryItems(ctx context.Context, query string, args ...any) ([]domain.ContractItem, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list contract items", err)
	}
	defer rows.Close()

	var ms []models.ContractItem
	for rows.Next() {
		m, err := scanContractItem(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan contract item", err)
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating contract items", err)
	}
	return mapping.ToDomainContractItemSlice(ms), nil
}

// ListContractsByTenant retrieves all contracts owned by a tenant ordered by name.
func (r *PgxContractRepository) ListContractsByTenant(ctx context.Context, tenantID string) ([]domain.Contract, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE tenant_id = $1 ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list contracts", err)
	}
	defer rows.Close()

	var list []domain.Contract
	for rows.Next() {
		m, err := scanContract(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan contract", err)
		}
		list = append(list, mapping.ToDomainContract(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating contracts", err)
	}
	return list, nil
}
