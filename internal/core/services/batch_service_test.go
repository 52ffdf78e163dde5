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
	"github.com/Numraio/cpam-sub003/internal/core/calendar"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/core/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
)

// constantGraph is the simplest evaluable formula: one constant output node.
func constantGraph(value string) domain.FormulaGraph {
	return domain.FormulaGraph{
		Nodes:  []domain.Node{{ID: "adj", Type: domain.NodeConstant, Config: domain.NodeConfig{Value: decimal.RequireFromString(value)}}},
		Output: "adj",
	}
}

// --- Test Suite ---
type BatchServiceTestSuite struct {
	suite.Suite
	mockBatchRepo    *MockBatchRepository
	mockFormulaRepo  *MockFormulaRepository
	mockContractRepo *MockContractRepository
	mockResolver     *MockResolver
	service          portssvc.BatchSvcFacade

	tenantID string
	formula  *domain.Formula
}

func (suite *BatchServiceTestSuite) SetupTest() {
	suite.mockBatchRepo = new(MockBatchRepository)
	suite.mockFormulaRepo = new(MockFormulaRepository)
	suite.mockContractRepo = new(MockContractRepository)
	suite.mockResolver = new(MockResolver)

	cal := calendar.New("TEST", nil)
	evaluator := services.NewEvaluator(suite.mockResolver, cal)
	suite.service = services.NewBatchService(
		suite.mockBatchRepo,
		suite.mockFormulaRepo,
		suite.mockContractRepo,
		evaluator,
		cal,
		domain.FallbackChain,
		nil,
	)

	suite.tenantID = uuid.NewString()
	suite.formula = &domain.Formula{
		FormulaID: uuid.NewString(),
		TenantID:  suite.tenantID,
		Name:      "flat surcharge",
		Type:      domain.Additive,
		Graph:     constantGraph("5"),
	}
}

func (suite *BatchServiceTestSuite) createReq() dto.CreateBatchRequest {
	return dto.CreateBatchRequest{
		FormulaID: suite.formula.FormulaID,
		AsOfDate:  day("2024-03-15"),
		Preferred: "FINAL",
	}
}

// --- Creation ---

func (suite *BatchServiceTestSuite) TestCreateBatch_Success() {
	ctx := context.Background()

	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(suite.formula, nil).Once()
	suite.mockBatchRepo.On("FindBatchByKey", ctx, mock.AnythingOfType("domain.BatchKey")).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockBatchRepo.On("CreateBatch", ctx, mock.AnythingOfType("domain.CalcBatch")).Return(nil).Once()

	batch, isDuplicate, err := suite.service.CreateBatch(ctx, suite.tenantID, suite.createReq(), uuid.NewString())

	suite.Require().NoError(err)
	suite.Require().NotNil(batch)
	suite.False(isDuplicate)
	suite.Equal(domain.BatchQueued, batch.Status)
	suite.Equal(0, batch.Key.Revision)
	suite.Equal(domain.Final, batch.Key.Preferred)
	suite.mockBatchRepo.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestCreateBatch_IdempotentResubmission() {
	ctx := context.Background()
	existing := &domain.CalcBatch{
		BatchID: uuid.NewString(),
		Key: domain.BatchKey{
			TenantID:  suite.tenantID,
			FormulaID: suite.formula.FormulaID,
			AsOfDate:  day("2024-03-15"),
			Preferred: domain.Final,
		},
		Status: domain.BatchCompleted,
	}

	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(suite.formula, nil).Once()
	suite.mockBatchRepo.On("FindBatchByKey", ctx, mock.AnythingOfType("domain.BatchKey")).Return(existing, nil).Once()

	batch, isDuplicate, err := suite.service.CreateBatch(ctx, suite.tenantID, suite.createReq(), uuid.NewString())

	suite.Require().NoError(err)
	suite.True(isDuplicate)
	suite.Equal(existing.BatchID, batch.BatchID)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "CreateBatch")
}

func (suite *BatchServiceTestSuite) TestCreateBatch_LostRaceReturnsWinner() {
	ctx := context.Background()
	winner := &domain.CalcBatch{BatchID: uuid.NewString(), Status: domain.BatchQueued}

	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(suite.formula, nil).Once()
	// Key check sees nothing, insert hits the unique constraint, re-read
	// returns the batch the concurrent submission created.
	suite.mockBatchRepo.On("FindBatchByKey", ctx, mock.AnythingOfType("domain.BatchKey")).Return(nil, apperrors.ErrNotFound).Once()
	suite.mockBatchRepo.On("CreateBatch", ctx, mock.AnythingOfType("domain.CalcBatch")).Return(apperrors.ErrDuplicate).Once()
	suite.mockBatchRepo.On("FindBatchByKey", ctx, mock.AnythingOfType("domain.BatchKey")).Return(winner, nil).Once()

	batch, isDuplicate, err := suite.service.CreateBatch(ctx, suite.tenantID, suite.createReq(), uuid.NewString())

	suite.Require().NoError(err)
	suite.True(isDuplicate)
	suite.Equal(winner.BatchID, batch.BatchID)
	suite.mockBatchRepo.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestCreateBatch_InvalidPreference() {
	ctx := context.Background()
	req := suite.createReq()
	req.Preferred = "LATEST"

	batch, _, err := suite.service.CreateBatch(ctx, suite.tenantID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(batch)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BatchServiceTestSuite) TestCreateBatch_ContractNotBoundToFormula() {
	ctx := context.Background()
	contractID := uuid.NewString()
	req := suite.createReq()
	req.ContractID = &contractID
	contract := &domain.Contract{ContractID: contractID, TenantID: suite.tenantID, FormulaID: uuid.NewString()}

	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(suite.formula, nil).Once()
	suite.mockContractRepo.On("FindContractByID", ctx, contractID).Return(contract, nil).Once()

	batch, _, err := suite.service.CreateBatch(ctx, suite.tenantID, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(batch)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Execution ---

func (suite *BatchServiceTestSuite) queuedBatch() *domain.CalcBatch {
	return &domain.CalcBatch{
		BatchID: uuid.NewString(),
		Key: domain.BatchKey{
			TenantID:  suite.tenantID,
			FormulaID: suite.formula.FormulaID,
			AsOfDate:  day("2024-03-15"),
			Preferred: domain.Final,
		},
		Status: domain.BatchQueued,
	}
}

func (suite *BatchServiceTestSuite) TestExecuteBatch_CompletesWithResults() {
	ctx := context.Background()
	batch := suite.queuedBatch()
	items := []domain.ContractItem{
		{ItemID: uuid.NewString(), BasePrice: decimal.NewFromInt(100), CurrencyCode: "USD"},
		{ItemID: uuid.NewString(), BasePrice: decimal.NewFromInt(200), CurrencyCode: "USD"},
	}
	completed := *batch
	completed.Status = domain.BatchCompleted

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()
	suite.mockBatchRepo.On("MarkBatchRunning", ctx, batch.BatchID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(suite.formula, nil).Once()
	suite.mockContractRepo.On("FindItemsByFormulaID", ctx, suite.formula.FormulaID).Return(items, nil).Once()
	suite.mockBatchRepo.On("CompleteBatchWithResults", ctx, batch.BatchID, mock.MatchedBy(func(results []domain.CalcResult) bool {
		return len(results) == 2 &&
			results[0].AdjustedPrice.Equal(decimal.NewFromInt(105)) &&
			results[1].AdjustedPrice.Equal(decimal.NewFromInt(205))
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(&completed, nil).Once()

	got, err := suite.service.ExecuteBatch(ctx, batch.BatchID)

	suite.Require().NoError(err)
	suite.Equal(domain.BatchCompleted, got.Status)
	suite.mockBatchRepo.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestExecuteBatch_NoOpWhenNotQueued() {
	ctx := context.Background()
	batch := suite.queuedBatch()
	batch.Status = domain.BatchCompleted

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()

	got, err := suite.service.ExecuteBatch(ctx, batch.BatchID)

	suite.Require().NoError(err)
	suite.Equal(domain.BatchCompleted, got.Status)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "MarkBatchRunning")
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "CompleteBatchWithResults")
}

func (suite *BatchServiceTestSuite) TestExecuteBatch_LostOptimisticTransition() {
	ctx := context.Background()
	batch := suite.queuedBatch()
	running := *batch
	running.Status = domain.BatchRunning

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()
	suite.mockBatchRepo.On("MarkBatchRunning", ctx, batch.BatchID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(&running, nil).Once()

	got, err := suite.service.ExecuteBatch(ctx, batch.BatchID)

	suite.Require().NoError(err)
	suite.Equal(domain.BatchRunning, got.Status)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "CompleteBatchWithResults")
}

func (suite *BatchServiceTestSuite) TestExecuteBatch_EvaluationFailureFailsBatch() {
	ctx := context.Background()
	batch := suite.queuedBatch()
	// A formula whose factor has no data: the whole batch fails, no partial
	// results are written.
	factorFormula := &domain.Formula{
		FormulaID: suite.formula.FormulaID,
		TenantID:  suite.tenantID,
		Type:      domain.Additive,
		Graph: domain.FormulaGraph{
			Nodes:  []domain.Node{{ID: "wti", Type: domain.NodeFactor, Config: domain.NodeConfig{SeriesCode: "WTI"}}},
			Output: "wti",
		},
	}
	items := []domain.ContractItem{
		{ItemID: uuid.NewString(), BasePrice: decimal.NewFromInt(100), CurrencyCode: "USD"},
	}
	failed := *batch
	failed.Status = domain.BatchFailed

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()
	suite.mockBatchRepo.On("MarkBatchRunning", ctx, batch.BatchID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(factorFormula, nil).Once()
	suite.mockContractRepo.On("FindItemsByFormulaID", ctx, suite.formula.FormulaID).Return(items, nil).Once()
	suite.mockResolver.On("Resolve", ctx, suite.tenantID, "WTI", day("2024-03-15"), mock.AnythingOfType("domain.ResolutionPolicy")).
		Return(nil, apperrors.ErrDataUnavailable).Once()
	suite.mockBatchRepo.On("FailBatch", ctx, batch.BatchID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(&failed, nil).Once()

	got, err := suite.service.ExecuteBatch(ctx, batch.BatchID)

	// The FAILED status is the outcome, not a service error.
	suite.Require().NoError(err)
	suite.Equal(domain.BatchFailed, got.Status)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "CompleteBatchWithResults")
	suite.mockBatchRepo.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestExecuteBatch_NoItems() {
	ctx := context.Background()
	batch := suite.queuedBatch()
	failed := *batch
	failed.Status = domain.BatchFailed

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()
	suite.mockBatchRepo.On("MarkBatchRunning", ctx, batch.BatchID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(suite.formula, nil).Once()
	suite.mockContractRepo.On("FindItemsByFormulaID", ctx, suite.formula.FormulaID).Return([]domain.ContractItem{}, nil).Once()
	suite.mockBatchRepo.On("FailBatch", ctx, batch.BatchID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(&failed, nil).Once()

	got, err := suite.service.ExecuteBatch(ctx, batch.BatchID)

	suite.Require().NoError(err)
	suite.Equal(domain.BatchFailed, got.Status)
}

// --- Revision runs ---

func (suite *BatchServiceTestSuite) TestRunRevision_AllocatesNextRevision() {
	ctx := context.Background()
	original := suite.queuedBatch()
	original.Status = domain.BatchCompleted
	items := []domain.ContractItem{
		{ItemID: uuid.NewString(), BasePrice: decimal.NewFromInt(100), CurrencyCode: "USD"},
	}

	suite.mockBatchRepo.On("FindBatchByID", ctx, original.BatchID).Return(original, nil).Once()
	suite.mockBatchRepo.On("MaxRevisionForKey", ctx, original.Key).Return(2, nil).Once()
	suite.mockBatchRepo.On("CreateBatch", ctx, mock.MatchedBy(func(b domain.CalcBatch) bool {
		return b.Key.Revision == 3 && b.Status == domain.BatchQueued
	})).Return(nil).Once()

	// The fresh revision batch is then executed synchronously.
	revKey := original.Key
	revKey.Revision = 3
	queuedRevision := &domain.CalcBatch{BatchID: uuid.NewString(), Key: revKey, Status: domain.BatchQueued}
	completedRevision := &domain.CalcBatch{BatchID: queuedRevision.BatchID, Key: revKey, Status: domain.BatchCompleted}

	suite.mockBatchRepo.On("FindBatchByID", ctx, mock.AnythingOfType("string")).Return(queuedRevision, nil).Once()
	suite.mockBatchRepo.On("MarkBatchRunning", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockFormulaRepo.On("FindFormulaByID", ctx, suite.formula.FormulaID).Return(suite.formula, nil).Once()
	suite.mockContractRepo.On("FindItemsByFormulaID", ctx, suite.formula.FormulaID).Return(items, nil).Once()
	suite.mockBatchRepo.On("CompleteBatchWithResults", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("[]domain.CalcResult"), mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockBatchRepo.On("FindBatchByID", ctx, mock.AnythingOfType("string")).Return(completedRevision, nil).Once()

	revision, err := suite.service.RunRevision(ctx, original.BatchID, uuid.NewString())

	suite.Require().NoError(err)
	suite.Equal(3, revision.Key.Revision)
	suite.Equal(domain.BatchCompleted, revision.Status)
	suite.NotEqual(original.BatchID, revision.BatchID)
	suite.mockBatchRepo.AssertExpectations(suite.T())
}

// --- Approval ---

func (suite *BatchServiceTestSuite) TestApproveBatchResults_OnlyCompleted() {
	ctx := context.Background()
	batch := suite.queuedBatch() // QUEUED

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()

	err := suite.service.ApproveBatchResults(ctx, suite.tenantID, batch.BatchID, uuid.NewString())

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockBatchRepo.AssertNotCalled(suite.T(), "ApproveResultsByBatchID")
}

func (suite *BatchServiceTestSuite) TestApproveBatchResults_Success() {
	ctx := context.Background()
	batch := suite.queuedBatch()
	batch.Status = domain.BatchCompleted
	approver := uuid.NewString()

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()
	suite.mockBatchRepo.On("ApproveResultsByBatchID", ctx, batch.BatchID, approver, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.ApproveBatchResults(ctx, suite.tenantID, batch.BatchID, approver)

	suite.Require().NoError(err)
	suite.mockBatchRepo.AssertExpectations(suite.T())
}

func (suite *BatchServiceTestSuite) TestGetBatchByID_WrongTenant() {
	ctx := context.Background()
	batch := suite.queuedBatch()

	suite.mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()

	got, results, err := suite.service.GetBatchByID(ctx, uuid.NewString(), batch.BatchID)

	suite.Require().Error(err)
	suite.Nil(got)
	suite.Nil(results)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// EffectiveDate rolls a weekend as-of-date forward to the next business day.
func TestExecuteBatchEffectiveDateRollsForward(t *testing.T) {
	ctx := context.Background()
	mockBatchRepo := new(MockBatchRepository)
	mockFormulaRepo := new(MockFormulaRepository)
	mockContractRepo := new(MockContractRepository)
	cal := calendar.New("TEST", nil)
	evaluator := services.NewEvaluator(new(MockResolver), cal)
	svc := services.NewBatchService(mockBatchRepo, mockFormulaRepo, mockContractRepo, evaluator, cal, domain.FallbackChain, nil)

	tenantID := uuid.NewString()
	formula := &domain.Formula{
		FormulaID: uuid.NewString(),
		TenantID:  tenantID,
		Type:      domain.Additive,
		Graph:     constantGraph("1"),
	}
	saturday := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
	batch := &domain.CalcBatch{
		BatchID: uuid.NewString(),
		Key: domain.BatchKey{
			TenantID:  tenantID,
			FormulaID: formula.FormulaID,
			AsOfDate:  saturday,
			Preferred: domain.Final,
		},
		Status: domain.BatchQueued,
	}
	items := []domain.ContractItem{{ItemID: uuid.NewString(), BasePrice: decimal.NewFromInt(10), CurrencyCode: "USD"}}
	completed := *batch
	completed.Status = domain.BatchCompleted

	mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(batch, nil).Once()
	mockBatchRepo.On("MarkBatchRunning", ctx, batch.BatchID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	mockFormulaRepo.On("FindFormulaByID", ctx, formula.FormulaID).Return(formula, nil).Once()
	mockContractRepo.On("FindItemsByFormulaID", ctx, formula.FormulaID).Return(items, nil).Once()
	mockBatchRepo.On("CompleteBatchWithResults", ctx, batch.BatchID, mock.MatchedBy(func(results []domain.CalcResult) bool {
		return len(results) == 1 && results[0].EffectiveDate.Equal(monday)
	}), mock.AnythingOfType("time.Time")).Return(nil).Once()
	mockBatchRepo.On("FindBatchByID", ctx, batch.BatchID).Return(&completed, nil).Once()

	if _, err := svc.ExecuteBatch(ctx, batch.BatchID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mockBatchRepo.AssertExpectations(t)
}

// --- Run Suite ---
func TestBatchService(t *testing.T) {
	suite.Run(t, new(BatchServiceTestSuite))
}
