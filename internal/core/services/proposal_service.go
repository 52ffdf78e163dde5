package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portsrepo "github.com/Numraio/cpam-sub003/internal/core/ports/repositories"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/middleware"
)

var (
	ErrOriginalNotCompleted = errors.New("original batch is not completed")
	ErrNoApprovedResults    = errors.New("original batch has no approved results")
	ErrMixedCurrencies      = errors.New("batch results carry mixed currencies")
	ErrRevisionRunFailed    = errors.New("revision recalculation failed")
)

// scanReason tags proposals drafted by the scheduled revision scan.
const scanReason = "scheduled revision scan"

// proposalService detects data revisions by recomputation and manages the
// draft/review workflow of the resulting credit/debit proposals.
type proposalService struct {
	proposalRepo portsrepo.ProposalRepositoryFacade
	batchRepo    portsrepo.BatchRepositoryFacade
	revisions    portssvc.RevisionRunnerSvc
}

// NewProposalService creates a new proposal service.
func NewProposalService(
	proposalRepo portsrepo.ProposalRepositoryFacade,
	batchRepo portsrepo.BatchRepositoryFacade,
	revisions portssvc.RevisionRunnerSvc,
) portssvc.ProposalSvcFacade {
	return &proposalService{
		proposalRepo: proposalRepo,
		batchRepo:    batchRepo,
		revisions:    revisions,
	}
}

// Ensure proposalService implements the portssvc.ProposalSvcFacade interface
var _ portssvc.ProposalSvcFacade = (*proposalService)(nil)

// CreateProposal re-runs the original batch's identity parameters against
// current data and drafts a proposal from the non-zero per-item deltas.
// Revision detection is a side effect of recomputation: when no observation
// changed, every recomputed price matches and creation fails with
// apperrors.ErrNoChanges.
func (s *proposalService) CreateProposal(ctx context.Context, tenantID string, req dto.CreateProposalRequest, creatorUserID string) (*domain.Proposal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.batchRepo.FindBatchByID(ctx, req.OriginalBatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load original batch %s: %w", req.OriginalBatchID, err)
	}
	if original.Key.TenantID != tenantID {
		return nil, fmt.Errorf("%w: batch %s", apperrors.ErrNotFound, req.OriginalBatchID)
	}
	if original.Status != domain.BatchCompleted {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrOriginalNotCompleted)
	}

	originalResults, err := s.batchRepo.FindResultsByBatchID(ctx, req.OriginalBatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load original results: %w", err)
	}
	approved := make([]domain.CalcResult, 0, len(originalResults))
	for _, r := range originalResults {
		if r.IsApproved {
			approved = append(approved, r)
		}
	}
	if len(approved) == 0 {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrNoApprovedResults)
	}

	if open, err := s.proposalRepo.FindOpenProposalByOriginalBatch(ctx, req.OriginalBatchID); err == nil && open != nil {
		return nil, fmt.Errorf("%w: proposal %s is already open for batch %s", apperrors.ErrDuplicate, open.ProposalID, req.OriginalBatchID)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for open proposals: %w", err)
	}

	revision, err := s.revisions.RunRevision(ctx, req.OriginalBatchID, creatorUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to run revision batch: %w", err)
	}
	if revision.Status != domain.BatchCompleted {
		return nil, fmt.Errorf("%w: %w: %s", apperrors.ErrDataUnavailable, ErrRevisionRunFailed, revision.Error)
	}

	revisedResults, err := s.batchRepo.FindResultsByBatchID(ctx, revision.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load revised results: %w", err)
	}

	deltas, currency, err := diffResults(approved, revisedResults)
	if err != nil {
		return nil, err
	}
	if len(deltas) == 0 {
		return nil, fmt.Errorf("%w: recomputation of batch %s matches the approved prices", apperrors.ErrNoChanges, req.OriginalBatchID)
	}

	totalDelta := decimal.Zero
	for _, d := range deltas {
		totalDelta = totalDelta.Add(d.Delta)
	}
	proposalType := domain.Debit
	if totalDelta.GreaterThan(decimal.Zero) {
		proposalType = domain.Credit
	}

	now := time.Now().UTC()
	proposal := domain.Proposal{
		ProposalID:      uuid.NewString(),
		TenantID:        tenantID,
		OriginalBatchID: req.OriginalBatchID,
		ProposalBatchID: revision.BatchID,
		Type:            proposalType,
		TotalDelta:      totalDelta,
		DeltaCurrency:   currency,
		Deltas:          deltas,
		Status:          domain.ProposalDraft,
		Reason:          req.Reason,
		RevisionNote:    req.RevisionNote,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.proposalRepo.SaveProposal(ctx, proposal); err != nil {
		logger.Error("Failed to save proposal",
			slog.String("original_batch_id", req.OriginalBatchID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save proposal: %w", err)
	}

	logger.Info("Proposal drafted",
		slog.String("proposal_id", proposal.ProposalID),
		slog.String("type", string(proposalType)),
		slog.String("total_delta", totalDelta.String()),
		slog.Int("item_count", len(deltas)))
	return &proposal, nil
}

// diffResults computes revisedPrice - originalPrice for every item present in
// both result sets, dropping zero deltas. Items are ordered by item ID so the
// delta list is deterministic.
func diffResults(original, revised []domain.CalcResult) ([]domain.ItemDelta, string, error) {
	revisedByItem := make(map[string]domain.CalcResult, len(revised))
	for _, r := range revised {
		revisedByItem[r.ItemID] = r
	}

	sorted := make([]domain.CalcResult, len(original))
	copy(sorted, original)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })

	var deltas []domain.ItemDelta
	currency := ""
	for _, orig := range sorted {
		rev, ok := revisedByItem[orig.ItemID]
		if !ok {
			continue
		}
		if currency == "" {
			currency = orig.AdjustedCurrency
		} else if currency != orig.AdjustedCurrency {
			return nil, "", fmt.Errorf("%w: %w: %s vs %s", apperrors.ErrValidation, ErrMixedCurrencies, currency, orig.AdjustedCurrency)
		}

		delta := rev.AdjustedPrice.Sub(orig.AdjustedPrice)
		if delta.IsZero() {
			continue
		}
		deltas = append(deltas, domain.ItemDelta{
			ItemID:        orig.ItemID,
			OriginalPrice: orig.AdjustedPrice,
			RevisedPrice:  rev.AdjustedPrice,
			Delta:         delta,
		})
	}
	return deltas, currency, nil
}

// SubmitForReview transitions DRAFT -> PENDING_REVIEW.
func (s *proposalService) SubmitForReview(ctx context.Context, tenantID string, proposalID string, userID string) (*domain.Proposal, error) {
	proposal, err := s.loadTenantProposal(ctx, tenantID, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != domain.ProposalDraft {
		return nil, fmt.Errorf("%w: proposal %s is %s, only DRAFT proposals can be submitted", apperrors.ErrConflict, proposalID, proposal.Status)
	}

	now := time.Now().UTC()
	if err := s.proposalRepo.UpdateProposalStatus(ctx, proposalID, domain.ProposalPendingReview, userID, now); err != nil {
		return nil, fmt.Errorf("failed to submit proposal for review: %w", err)
	}
	proposal.Status = domain.ProposalPendingReview
	proposal.LastUpdatedAt = now
	proposal.LastUpdatedBy = userID
	return proposal, nil
}

// ReviewProposal records the terminal approve/reject decision. The transition
// has no side effects on CalcResult rows: applying an approved adjustment is
// a separate workflow.
func (s *proposalService) ReviewProposal(ctx context.Context, tenantID string, proposalID string, req dto.ReviewProposalRequest, reviewerUserID string) (*domain.Proposal, error) {
	proposal, err := s.loadTenantProposal(ctx, tenantID, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != domain.ProposalDraft && proposal.Status != domain.ProposalPendingReview {
		return nil, fmt.Errorf("%w: proposal %s is %s and cannot be reviewed", apperrors.ErrConflict, proposalID, proposal.Status)
	}

	status := domain.ProposalRejected
	if req.Approve {
		status = domain.ProposalApproved
	}
	now := time.Now().UTC()
	if err := s.proposalRepo.UpdateProposalReview(ctx, proposalID, status, reviewerUserID, now, req.Comments); err != nil {
		return nil, fmt.Errorf("failed to record proposal review: %w", err)
	}

	proposal.Status = status
	proposal.ReviewedBy = &reviewerUserID
	proposal.ReviewedAt = &now
	proposal.ReviewComments = req.Comments
	proposal.LastUpdatedAt = now
	proposal.LastUpdatedBy = reviewerUserID
	return proposal, nil
}

// GetProposalByID retrieves a tenant's proposal with its delta list.
func (s *proposalService) GetProposalByID(ctx context.Context, tenantID string, proposalID string) (*domain.Proposal, error) {
	return s.loadTenantProposal(ctx, tenantID, proposalID)
}

// ListProposals retrieves a paginated list of a tenant's proposals.
func (s *proposalService) ListProposals(ctx context.Context, tenantID string, params dto.ListProposalsParams) (*dto.ListProposalsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	proposals, nextToken, err := s.proposalRepo.ListProposalsByTenant(ctx, tenantID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	resp := &dto.ListProposalsResponse{NextToken: nextToken}
	for i := range proposals {
		resp.Proposals = append(resp.Proposals, dto.ToProposalResponse(&proposals[i]))
	}
	return resp, nil
}

// ScanForRevisions drafts a proposal for every approved batch whose
// recomputation differs from the approved prices. "No changes" and "already
// open" are expected non-events, not failures.
func (s *proposalService) ScanForRevisions(ctx context.Context, tenantID string) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	batchIDs, err := s.batchRepo.ListBatchIDsWithApprovedResults(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list approved batches: %w", err)
	}

	drafted := 0
	for _, batchID := range batchIDs {
		_, err := s.CreateProposal(ctx, tenantID, dto.CreateProposalRequest{
			OriginalBatchID: batchID,
			Reason:          scanReason,
		}, "system")
		switch {
		case err == nil:
			drafted++
		case errors.Is(err, apperrors.ErrNoChanges), errors.Is(err, apperrors.ErrDuplicate):
			logger.Debug("Revision scan skipped batch",
				slog.String("batch_id", batchID),
				slog.String("reason", err.Error()))
		default:
			logger.Error("Revision scan failed for batch",
				slog.String("batch_id", batchID),
				slog.String("error", err.Error()))
		}
	}
	return drafted, nil
}

func (s *proposalService) loadTenantProposal(ctx context.Context, tenantID string, proposalID string) (*domain.Proposal, error) {
	proposal, err := s.proposalRepo.FindProposalByID(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal %s: %w", proposalID, err)
	}
	if proposal.TenantID != tenantID {
		return nil, fmt.Errorf("%w: proposal %s", apperrors.ErrNotFound, proposalID)
	}
	return proposal, nil
}
