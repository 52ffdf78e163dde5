package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/core/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
)

// --- Test Suite ---
type ProposalServiceTestSuite struct {
	suite.Suite
	mockProposalRepo *MockProposalRepository
	mockBatchRepo    *MockBatchRepository
	mockRevisions    *MockRevisionRunner
	service          portssvc.ProposalSvcFacade

	tenantID        string
	originalBatchID string
	itemA           string
	itemB           string
}

func (suite *ProposalServiceTestSuite) SetupTest() {
	suite.mockProposalRepo = new(MockProposalRepository)
	suite.mockBatchRepo = new(MockBatchRepository)
	suite.mockRevisions = new(MockRevisionRunner)
	suite.service = services.NewProposalService(suite.mockProposalRepo, suite.mockBatchRepo, suite.mockRevisions)

	suite.tenantID = uuid.NewString()
	suite.originalBatchID = uuid.NewString()
	suite.itemA = "item-a"
	suite.itemB = "item-b"
}

func (suite *ProposalServiceTestSuite) completedBatch(batchID string, revision int) *domain.CalcBatch {
	return &domain.CalcBatch{
		BatchID: batchID,
		Key: domain.BatchKey{
			TenantID:  suite.tenantID,
			FormulaID: uuid.NewString(),
			AsOfDate:  day("2024-03-15"),
			Preferred: domain.Final,
			Revision:  revision,
		},
		Status: domain.BatchCompleted,
	}
}

func result(batchID, itemID, price string, approved bool) domain.CalcResult {
	return domain.CalcResult{
		ResultID:         uuid.NewString(),
		BatchID:          batchID,
		ItemID:           itemID,
		AdjustedPrice:    decimal.RequireFromString(price),
		AdjustedCurrency: "USD",
		IsApproved:       approved,
	}
}

func (suite *ProposalServiceTestSuite) createReq() dto.CreateProposalRequest {
	return dto.CreateProposalRequest{
		OriginalBatchID: suite.originalBatchID,
		Reason:          "WTI April FINAL revised the March PRELIMINARY print",
	}
}

// --- Creation ---

func (suite *ProposalServiceTestSuite) TestCreateProposal_DraftsSignedDeltas() {
	ctx := context.Background()
	creator := uuid.NewString()
	original := suite.completedBatch(suite.originalBatchID, 0)
	revision := suite.completedBatch(uuid.NewString(), 1)

	// Item A moved 100 -> 110 (+10), item B moved 50 -> 45 (-5): net +5, CREDIT.
	suite.mockBatchRepo.On("FindBatchByID", ctx, suite.originalBatchID).Return(original, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, suite.originalBatchID).Return([]domain.CalcResult{
		result(suite.originalBatchID, suite.itemA, "100", true),
		result(suite.originalBatchID, suite.itemB, "50", true),
	}, nil).Once()
	suite.mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, suite.originalBatchID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRevisions.On("RunRevision", ctx, suite.originalBatchID, creator).Return(revision, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, revision.BatchID).Return([]domain.CalcResult{
		result(revision.BatchID, suite.itemA, "110", false),
		result(revision.BatchID, suite.itemB, "45", false),
	}, nil).Once()
	suite.mockProposalRepo.On("SaveProposal", ctx, mock.AnythingOfType("domain.Proposal")).Return(nil).Once()

	proposal, err := suite.service.CreateProposal(ctx, suite.tenantID, suite.createReq(), creator)

	suite.Require().NoError(err)
	suite.Require().NotNil(proposal)
	suite.Equal(domain.ProposalDraft, proposal.Status)
	suite.Equal(domain.Credit, proposal.Type)
	suite.True(proposal.TotalDelta.Equal(decimal.NewFromInt(5)), "got %s", proposal.TotalDelta)
	suite.Equal("USD", proposal.DeltaCurrency)
	suite.Equal(revision.BatchID, proposal.ProposalBatchID)

	suite.Require().Len(proposal.Deltas, 2)
	suite.Equal(suite.itemA, proposal.Deltas[0].ItemID)
	suite.True(proposal.Deltas[0].Delta.Equal(decimal.NewFromInt(10)))
	suite.Equal(suite.itemB, proposal.Deltas[1].ItemID)
	suite.True(proposal.Deltas[1].Delta.Equal(decimal.NewFromInt(-5)))

	suite.mockProposalRepo.AssertExpectations(suite.T())
	suite.mockRevisions.AssertExpectations(suite.T())
}

func (suite *ProposalServiceTestSuite) TestCreateProposal_NetNegativeIsDebit() {
	ctx := context.Background()
	creator := uuid.NewString()
	original := suite.completedBatch(suite.originalBatchID, 0)
	revision := suite.completedBatch(uuid.NewString(), 1)

	suite.mockBatchRepo.On("FindBatchByID", ctx, suite.originalBatchID).Return(original, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, suite.originalBatchID).Return([]domain.CalcResult{
		result(suite.originalBatchID, suite.itemA, "100", true),
	}, nil).Once()
	suite.mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, suite.originalBatchID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRevisions.On("RunRevision", ctx, suite.originalBatchID, creator).Return(revision, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, revision.BatchID).Return([]domain.CalcResult{
		result(revision.BatchID, suite.itemA, "92.50", false),
	}, nil).Once()
	suite.mockProposalRepo.On("SaveProposal", ctx, mock.AnythingOfType("domain.Proposal")).Return(nil).Once()

	proposal, err := suite.service.CreateProposal(ctx, suite.tenantID, suite.createReq(), creator)

	suite.Require().NoError(err)
	suite.Equal(domain.Debit, proposal.Type)
	suite.True(proposal.TotalDelta.Equal(decimal.RequireFromString("-7.50")))
}

func (suite *ProposalServiceTestSuite) TestCreateProposal_NoChanges() {
	ctx := context.Background()
	creator := uuid.NewString()
	original := suite.completedBatch(suite.originalBatchID, 0)
	revision := suite.completedBatch(uuid.NewString(), 1)

	suite.mockBatchRepo.On("FindBatchByID", ctx, suite.originalBatchID).Return(original, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, suite.originalBatchID).Return([]domain.CalcResult{
		result(suite.originalBatchID, suite.itemA, "100", true),
	}, nil).Once()
	suite.mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, suite.originalBatchID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRevisions.On("RunRevision", ctx, suite.originalBatchID, creator).Return(revision, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, revision.BatchID).Return([]domain.CalcResult{
		result(revision.BatchID, suite.itemA, "100", false),
	}, nil).Once()

	proposal, err := suite.service.CreateProposal(ctx, suite.tenantID, suite.createReq(), creator)

	suite.Require().Error(err)
	suite.Nil(proposal)
	suite.ErrorIs(err, apperrors.ErrNoChanges)
	suite.mockProposalRepo.AssertNotCalled(suite.T(), "SaveProposal")
}

func (suite *ProposalServiceTestSuite) TestCreateProposal_OriginalNotCompleted() {
	ctx := context.Background()
	original := suite.completedBatch(suite.originalBatchID, 0)
	original.Status = domain.BatchRunning

	suite.mockBatchRepo.On("FindBatchByID", ctx, suite.originalBatchID).Return(original, nil).Once()

	proposal, err := suite.service.CreateProposal(ctx, suite.tenantID, suite.createReq(), uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(proposal)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockRevisions.AssertNotCalled(suite.T(), "RunRevision")
}

func (suite *ProposalServiceTestSuite) TestCreateProposal_NoApprovedResults() {
	ctx := context.Background()
	original := suite.completedBatch(suite.originalBatchID, 0)

	suite.mockBatchRepo.On("FindBatchByID", ctx, suite.originalBatchID).Return(original, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, suite.originalBatchID).Return([]domain.CalcResult{
		result(suite.originalBatchID, suite.itemA, "100", false),
	}, nil).Once()

	proposal, err := suite.service.CreateProposal(ctx, suite.tenantID, suite.createReq(), uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(proposal)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRevisions.AssertNotCalled(suite.T(), "RunRevision")
}

func (suite *ProposalServiceTestSuite) TestCreateProposal_OpenProposalBlocksSecond() {
	ctx := context.Background()
	original := suite.completedBatch(suite.originalBatchID, 0)
	open := &domain.Proposal{ProposalID: uuid.NewString(), Status: domain.ProposalPendingReview}

	suite.mockBatchRepo.On("FindBatchByID", ctx, suite.originalBatchID).Return(original, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, suite.originalBatchID).Return([]domain.CalcResult{
		result(suite.originalBatchID, suite.itemA, "100", true),
	}, nil).Once()
	suite.mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, suite.originalBatchID).Return(open, nil).Once()

	proposal, err := suite.service.CreateProposal(ctx, suite.tenantID, suite.createReq(), uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(proposal)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockRevisions.AssertNotCalled(suite.T(), "RunRevision")
}

func (suite *ProposalServiceTestSuite) TestCreateProposal_RevisionRunFailed() {
	ctx := context.Background()
	creator := uuid.NewString()
	original := suite.completedBatch(suite.originalBatchID, 0)
	failedRevision := suite.completedBatch(uuid.NewString(), 1)
	failedRevision.Status = domain.BatchFailed
	failedRevision.Error = "series WTI has no observation on 2024-03-15"

	suite.mockBatchRepo.On("FindBatchByID", ctx, suite.originalBatchID).Return(original, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, suite.originalBatchID).Return([]domain.CalcResult{
		result(suite.originalBatchID, suite.itemA, "100", true),
	}, nil).Once()
	suite.mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, suite.originalBatchID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRevisions.On("RunRevision", ctx, suite.originalBatchID, creator).Return(failedRevision, nil).Once()

	proposal, err := suite.service.CreateProposal(ctx, suite.tenantID, suite.createReq(), creator)

	suite.Require().Error(err)
	suite.Nil(proposal)
	suite.ErrorIs(err, apperrors.ErrDataUnavailable)
	suite.mockProposalRepo.AssertNotCalled(suite.T(), "SaveProposal")
}

// --- Review workflow ---

func (suite *ProposalServiceTestSuite) draftProposal() *domain.Proposal {
	return &domain.Proposal{
		ProposalID:      uuid.NewString(),
		TenantID:        suite.tenantID,
		OriginalBatchID: suite.originalBatchID,
		Type:            domain.Credit,
		TotalDelta:      decimal.NewFromInt(5),
		DeltaCurrency:   "USD",
		Status:          domain.ProposalDraft,
	}
}

func (suite *ProposalServiceTestSuite) TestSubmitForReview_Success() {
	ctx := context.Background()
	proposal := suite.draftProposal()
	userID := uuid.NewString()

	suite.mockProposalRepo.On("FindProposalByID", ctx, proposal.ProposalID).Return(proposal, nil).Once()
	suite.mockProposalRepo.On("UpdateProposalStatus", ctx, proposal.ProposalID, domain.ProposalPendingReview, userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.SubmitForReview(ctx, suite.tenantID, proposal.ProposalID, userID)

	suite.Require().NoError(err)
	suite.Equal(domain.ProposalPendingReview, updated.Status)
	suite.mockProposalRepo.AssertExpectations(suite.T())
}

func (suite *ProposalServiceTestSuite) TestSubmitForReview_OnlyFromDraft() {
	ctx := context.Background()
	proposal := suite.draftProposal()
	proposal.Status = domain.ProposalApproved

	suite.mockProposalRepo.On("FindProposalByID", ctx, proposal.ProposalID).Return(proposal, nil).Once()

	updated, err := suite.service.SubmitForReview(ctx, suite.tenantID, proposal.ProposalID, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockProposalRepo.AssertNotCalled(suite.T(), "UpdateProposalStatus")
}

func (suite *ProposalServiceTestSuite) TestReviewProposal_Approve() {
	ctx := context.Background()
	proposal := suite.draftProposal()
	proposal.Status = domain.ProposalPendingReview
	reviewer := uuid.NewString()

	suite.mockProposalRepo.On("FindProposalByID", ctx, proposal.ProposalID).Return(proposal, nil).Once()
	suite.mockProposalRepo.On("UpdateProposalReview", ctx, proposal.ProposalID, domain.ProposalApproved, reviewer, mock.AnythingOfType("time.Time"), "looks right").Return(nil).Once()

	updated, err := suite.service.ReviewProposal(ctx, suite.tenantID, proposal.ProposalID, dto.ReviewProposalRequest{Approve: true, Comments: "looks right"}, reviewer)

	suite.Require().NoError(err)
	suite.Equal(domain.ProposalApproved, updated.Status)
	suite.Require().NotNil(updated.ReviewedBy)
	suite.Equal(reviewer, *updated.ReviewedBy)
	suite.NotNil(updated.ReviewedAt)
	suite.mockProposalRepo.AssertExpectations(suite.T())
}

func (suite *ProposalServiceTestSuite) TestReviewProposal_Reject() {
	ctx := context.Background()
	proposal := suite.draftProposal()
	reviewer := uuid.NewString()

	suite.mockProposalRepo.On("FindProposalByID", ctx, proposal.ProposalID).Return(proposal, nil).Once()
	suite.mockProposalRepo.On("UpdateProposalReview", ctx, proposal.ProposalID, domain.ProposalRejected, reviewer, mock.AnythingOfType("time.Time"), "").Return(nil).Once()

	updated, err := suite.service.ReviewProposal(ctx, suite.tenantID, proposal.ProposalID, dto.ReviewProposalRequest{Approve: false}, reviewer)

	suite.Require().NoError(err)
	suite.Equal(domain.ProposalRejected, updated.Status)
}

func (suite *ProposalServiceTestSuite) TestReviewProposal_TerminalIsImmutable() {
	ctx := context.Background()
	proposal := suite.draftProposal()
	proposal.Status = domain.ProposalApproved

	suite.mockProposalRepo.On("FindProposalByID", ctx, proposal.ProposalID).Return(proposal, nil).Once()

	updated, err := suite.service.ReviewProposal(ctx, suite.tenantID, proposal.ProposalID, dto.ReviewProposalRequest{Approve: false}, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockProposalRepo.AssertNotCalled(suite.T(), "UpdateProposalReview")
}

func (suite *ProposalServiceTestSuite) TestGetProposalByID_WrongTenant() {
	ctx := context.Background()
	proposal := suite.draftProposal()

	suite.mockProposalRepo.On("FindProposalByID", ctx, proposal.ProposalID).Return(proposal, nil).Once()

	got, err := suite.service.GetProposalByID(ctx, uuid.NewString(), proposal.ProposalID)

	suite.Require().Error(err)
	suite.Nil(got)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Revision scan ---

func (suite *ProposalServiceTestSuite) TestScanForRevisions_CountsOnlyDrafted() {
	ctx := context.Background()
	changedID := uuid.NewString()
	unchangedID := uuid.NewString()

	suite.mockBatchRepo.On("ListBatchIDsWithApprovedResults", ctx, suite.tenantID).Return([]string{changedID, unchangedID}, nil).Once()

	// changedID drafts a proposal.
	changedBatch := suite.completedBatch(changedID, 0)
	changedRevision := suite.completedBatch(uuid.NewString(), 1)
	suite.mockBatchRepo.On("FindBatchByID", ctx, changedID).Return(changedBatch, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, changedID).Return([]domain.CalcResult{
		result(changedID, suite.itemA, "100", true),
	}, nil).Once()
	suite.mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, changedID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRevisions.On("RunRevision", ctx, changedID, "system").Return(changedRevision, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, changedRevision.BatchID).Return([]domain.CalcResult{
		result(changedRevision.BatchID, suite.itemA, "103", false),
	}, nil).Once()
	suite.mockProposalRepo.On("SaveProposal", ctx, mock.AnythingOfType("domain.Proposal")).Return(nil).Once()

	// unchangedID recomputes to the same prices.
	unchangedBatch := suite.completedBatch(unchangedID, 0)
	unchangedRevision := suite.completedBatch(uuid.NewString(), 1)
	suite.mockBatchRepo.On("FindBatchByID", ctx, unchangedID).Return(unchangedBatch, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, unchangedID).Return([]domain.CalcResult{
		result(unchangedID, suite.itemA, "100", true),
	}, nil).Once()
	suite.mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, unchangedID).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockRevisions.On("RunRevision", ctx, unchangedID, "system").Return(unchangedRevision, nil).Once()
	suite.mockBatchRepo.On("FindResultsByBatchID", ctx, unchangedRevision.BatchID).Return([]domain.CalcResult{
		result(unchangedRevision.BatchID, suite.itemA, "100", false),
	}, nil).Once()

	drafted, err := suite.service.ScanForRevisions(ctx, suite.tenantID)

	suite.Require().NoError(err)
	suite.Equal(1, drafted)
	suite.mockProposalRepo.AssertNumberOfCalls(suite.T(), "SaveProposal", 1)
}

// --- Run Suite ---
func TestProposalService(t *testing.T) {
	suite.Run(t, new(ProposalServiceTestSuite))
}

// Zero-sum movements still produce a proposal: offsetting deltas are real
// per-item adjustments even when the net is zero. Net zero types as DEBIT.
func TestCreateProposalZeroNetDelta(t *testing.T) {
	ctx := context.Background()
	mockProposalRepo := new(MockProposalRepository)
	mockBatchRepo := new(MockBatchRepository)
	mockRevisions := new(MockRevisionRunner)
	svc := services.NewProposalService(mockProposalRepo, mockBatchRepo, mockRevisions)

	tenantID := uuid.NewString()
	originalID := uuid.NewString()
	creator := uuid.NewString()
	original := &domain.CalcBatch{
		BatchID: originalID,
		Key:     domain.BatchKey{TenantID: tenantID, FormulaID: uuid.NewString(), AsOfDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Preferred: domain.Final},
		Status:  domain.BatchCompleted,
	}
	revision := &domain.CalcBatch{BatchID: uuid.NewString(), Key: original.Key, Status: domain.BatchCompleted}

	mockBatchRepo.On("FindBatchByID", ctx, originalID).Return(original, nil).Once()
	mockBatchRepo.On("FindResultsByBatchID", ctx, originalID).Return([]domain.CalcResult{
		result(originalID, "item-a", "100", true),
		result(originalID, "item-b", "100", true),
	}, nil).Once()
	mockProposalRepo.On("FindOpenProposalByOriginalBatch", ctx, originalID).Return(nil, apperrors.ErrNotFound).Once()
	mockRevisions.On("RunRevision", ctx, originalID, creator).Return(revision, nil).Once()
	mockBatchRepo.On("FindResultsByBatchID", ctx, revision.BatchID).Return([]domain.CalcResult{
		result(revision.BatchID, "item-a", "110", false),
		result(revision.BatchID, "item-b", "90", false),
	}, nil).Once()
	mockProposalRepo.On("SaveProposal", ctx, mock.AnythingOfType("domain.Proposal")).Return(nil).Once()

	proposal, err := svc.CreateProposal(ctx, tenantID, dto.CreateProposalRequest{OriginalBatchID: originalID, Reason: "offsetting moves"}, creator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proposal.TotalDelta.IsZero() {
		t.Fatalf("expected zero total delta, got %s", proposal.TotalDelta)
	}
	if proposal.Type != domain.Debit {
		t.Fatalf("expected DEBIT for net-zero delta, got %s", proposal.Type)
	}
	if len(proposal.Deltas) != 2 {
		t.Fatalf("expected both item deltas, got %d", len(proposal.Deltas))
	}
}
