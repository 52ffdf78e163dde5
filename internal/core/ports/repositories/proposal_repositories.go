package repositories

import (
	"context"
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
)

// ProposalReader defines read operations for proposals
type ProposalReader interface {
	// FindProposalByID retrieves a proposal with its delta list.
	FindProposalByID(ctx context.Context, proposalID string) (*domain.Proposal, error)

	// ListProposalsByTenant retrieves a paginated list of a tenant's
	// proposals using token-based pagination.
	ListProposalsByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Proposal, *string, error)

	// FindOpenProposalByOriginalBatch retrieves a non-terminal proposal for
	// the given original batch, if one exists.
	FindOpenProposalByOriginalBatch(ctx context.Context, originalBatchID string) (*domain.Proposal, error)
}

// ProposalWriter defines write operations for proposals
type ProposalWriter interface {
	// SaveProposal persists a proposal together with its delta list.
	SaveProposal(ctx context.Context, proposal domain.Proposal) error

	// UpdateProposalStatus updates only the proposal status (DRAFT -> PENDING_REVIEW).
	UpdateProposalStatus(ctx context.Context, proposalID string, status domain.ProposalStatus, updatedBy string, updatedAt time.Time) error

	// UpdateProposalReview records the terminal review decision.
	UpdateProposalReview(ctx context.Context, proposalID string, status domain.ProposalStatus, reviewedBy string, reviewedAt time.Time, comments string) error
}

// ProposalRepositoryFacade combines all proposal-related repository interfaces
type ProposalRepositoryFacade interface {
	ProposalReader
	ProposalWriter
}
