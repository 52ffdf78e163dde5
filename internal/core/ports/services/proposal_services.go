package services

import (
	"context"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/dto"
)

// ProposalReaderSvc defines read operations for proposals
type ProposalReaderSvc interface {
	// GetProposalByID retrieves a tenant's proposal with its delta list.
	GetProposalByID(ctx context.Context, tenantID string, proposalID string) (*domain.Proposal, error)

	// ListProposals retrieves a paginated list of a tenant's proposals.
	ListProposals(ctx context.Context, tenantID string, params dto.ListProposalsParams) (*dto.ListProposalsResponse, error)
}

// ProposalWriterSvc defines write operations for proposals
type ProposalWriterSvc interface {
	// CreateProposal re-runs the original batch's parameters against
	// current data and drafts a proposal from the non-zero price deltas.
	// Fails with apperrors.ErrNoChanges when recomputation matches the
	// approved results exactly.
	CreateProposal(ctx context.Context, tenantID string, req dto.CreateProposalRequest, creatorUserID string) (*domain.Proposal, error)

	// SubmitForReview transitions DRAFT -> PENDING_REVIEW.
	SubmitForReview(ctx context.Context, tenantID string, proposalID string, userID string) (*domain.Proposal, error)

	// ReviewProposal records the terminal approve/reject decision. Valid
	// only from DRAFT or PENDING_REVIEW.
	ReviewProposal(ctx context.Context, tenantID string, proposalID string, req dto.ReviewProposalRequest, reviewerUserID string) (*domain.Proposal, error)
}

// RevisionScannerSvc sweeps approved batches for late-arriving data revisions.
type RevisionScannerSvc interface {
	// ScanForRevisions drafts proposals for every approved batch whose
	// recomputation differs from the approved prices. Returns the number of
	// proposals drafted.
	ScanForRevisions(ctx context.Context, tenantID string) (int, error)
}

// ProposalSvcFacade combines all proposal-related service interfaces
type ProposalSvcFacade interface {
	ProposalReaderSvc
	ProposalWriterSvc
	RevisionScannerSvc
}
