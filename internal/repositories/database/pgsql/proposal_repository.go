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

// PgxProposalRepository implements the ports proposal repository interfaces
// using pgxpool. Deltas live in their own table keyed by proposal ID.
type PgxProposalRepository struct {
	BaseRepository
}

func newPgxProposalRepository(db *pgxpool.Pool) *PgxProposalRepository {
	return &PgxProposalRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const proposalColumns = `proposal_id, tenant_id, original_batch_id, proposal_batch_id, type, total_delta, delta_currency, status, reason, revision_note, reviewed_by, reviewed_at, review_comments, created_at, created_by, last_updated_at, last_updated_by`

func scanProposal(row pgx.Row) (models.Proposal, error) {
	var m models.Proposal
	err := row.Scan(
		&m.ProposalID, &m.TenantID, &m.OriginalBatchID, &m.ProposalBatchID, &m.Type,
		&m.TotalDelta, &m.DeltaCurrency, &m.Status, &m.Reason, &m.RevisionNote,
		&m.ReviewedBy, &m.ReviewedAt, &m.ReviewComments,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveProposal persists a proposal and its delta list in one transaction.
func (r *PgxProposalRepository) SaveProposal(ctx context.Context, proposal domain.Proposal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	m := mapping.ToModelProposal(proposal)
	_, err = tx.Exec(ctx, `
		INSERT INTO proposals (proposal_id, tenant_id, original_batch_id, proposal_batch_id, type, total_delta, delta_currency, status, reason, revision_note, review_comments, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.ProposalID, m.TenantID, m.OriginalBatchID, m.ProposalBatchID, m.Type,
		m.TotalDelta, m.DeltaCurrency, m.Status, m.Reason, m.RevisionNote, m.ReviewComments,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err == nil {
		for _, delta := range proposal.Deltas {
			md := mapping.ToModelProposalDelta(proposal.ProposalID, delta)
			_, err = tx.Exec(ctx, `
				INSERT INTO proposal_deltas (proposal_id, item_id, original_price, revised_price, delta)
				VALUES ($1, $2, $3, $4, $5)`,
				md.ProposalID, md.ItemID, md.OriginalPrice, md.RevisedPrice, md.Delta,
			)
			if err != nil {
				break
			}
		}
	}

	if err != nil {
		_ = r.Rollback(ctx, tx)
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateError("proposal already exists")
		}
		return apperrors.NewAppError(500, "failed to save proposal", err)
	}
	return r.Commit(ctx, tx)
}

// FindProposalByID retrieves a proposal with its delta list.
func (r *PgxProposalRepository) FindProposalByID(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE proposal_id = $1`, proposalID)
	m, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("proposal with ID " + proposalID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find proposal", err)
	}
	d := mapping.ToDomainProposal(m)
	d.Deltas, err = r.findDeltas(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PgxProposalRepository) findDeltas(ctx context.Context, proposalID string) ([]domain.ItemDelta, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT proposal_id, item_id, original_price, revised_price, delta
		FROM proposal_deltas WHERE proposal_id = $1 ORDER BY item_id`,
		proposalID,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list proposal deltas", err)
	}
	defer rows.Close()

	var deltas []domain.ItemDelta
	for rows.Next() {
		var md models.ProposalDelta
		if err := rows.Scan(&md.ProposalID, &md.ItemID, &md.OriginalPrice, &md.RevisedPrice, &md.Delta); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan proposal delta", err)
		}
		deltas = append(deltas, mapping.ToDomainItemDelta(md))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating proposal deltas", err)
	}
	return deltas, nil
}

// ListProposalsByTenant retrieves a page of a tenant's proposals newest-first
// using keyset pagination on (created_at, proposal_id). The list omits delta
// rows; FindProposalByID loads them.
func (r *PgxProposalRepository) ListProposalsByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Proposal, *string, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE tenant_id = $1`
	args := []any{tenantID}

	if nextToken != nil && *nextToken != "" {
		createdAt, proposalID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError(err.Error())
		}
		query += ` AND (created_at, proposal_id) < ($2, $3)`
		args = append(args, createdAt, proposalID)
	}

	query += ` ORDER BY created_at DESC, proposal_id DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to list proposals", err)
	}
	defer rows.Close()

	var list []domain.Proposal
	for rows.Next() {
		m, err := scanProposal(rows)
		if err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan proposal", err)
		}
		list = append(list, mapping.ToDomainProposal(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating proposals", err)
	}

	var token *string
	if len(list) > limit {
		list = list[:limit]
		last := list[len(list)-1]
		t := pagination.EncodeToken(last.CreatedAt, last.ProposalID)
		token = &t
	}
	return list, token, nil
}

// FindOpenProposalByOriginalBatch retrieves a non-terminal proposal for the
// given original batch, if one exists.
func (r *PgxProposalRepository) FindOpenProposalByOriginalBatch(ctx context.Context, originalBatchID string) (*domain.Proposal, error) {
	row := r.Pool.QueryRow(ctx, `
		SELECT `+proposalColumns+` FROM proposals
		WHERE original_batch_id = $1 AND status IN ($2, $3)
		LIMIT 1`,
		originalBatchID, string(domain.ProposalDraft), string(domain.ProposalPendingReview),
	)
	m, err := scanProposal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("no open proposal for batch " + originalBatchID)
		}
		return nil, apperrors.NewAppError(500, "failed to find open proposal", err)
	}
	d := mapping.ToDomainProposal(m)
	return &d, nil
}

// UpdateProposalStatus updates only the proposal status.
func (r *PgxProposalRepository) UpdateProposalStatus(ctx context.Context, proposalID string, status domain.ProposalStatus, updatedBy string, updatedAt time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE proposals
		SET status = $1, last_updated_by = $2, last_updated_at = $3
		WHERE proposal_id = $4`,
		string(status), updatedBy, updatedAt, proposalID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update proposal status", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("proposal with ID " + proposalID + " not found")
	}
	return nil
}

// UpdateProposalReview records the terminal review decision.
func (r *PgxProposalRepository) UpdateProposalReview(ctx context.Context, proposalID string, status domain.ProposalStatus, reviewedBy string, reviewedAt time.Time, comments string) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE proposals
		SET status = $1, reviewed_by = $2, reviewed_at = $3, review_comments = $4,
		    last_updated_by = $2, last_updated_at = $3
		WHERE proposal_id = $5`,
		string(status), reviewedBy, reviewedAt, comments, proposalID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to record proposal review", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("proposal with ID " + proposalID + " not found")
	}
	return nil
}
