package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
)

// --- Mock SeriesRepository ---

type MockSeriesRepository struct {
	mock.Mock
}

func (m *MockSeriesRepository) FindSeriesByID(ctx context.Context, seriesID string) (*domain.Series, error) {
	args := m.Called(ctx, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Series), args.Error(1)
}

func (m *MockSeriesRepository) FindSeriesByCode(ctx context.Context, tenantID string, code string) (*domain.Series, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Series), args.Error(1)
}

func (m *MockSeriesRepository) ListSeriesByTenant(ctx context.Context, tenantID string) ([]domain.Series, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Series), args.Error(1)
}

func (m *MockSeriesRepository) SaveSeries(ctx context.Context, series domain.Series) error {
	args := m.Called(ctx, series)
	return args.Error(0)
}

func (m *MockSeriesRepository) FindObservation(ctx context.Context, seriesID string, asOfDate time.Time, tag domain.VersionTag) (*domain.Observation, error) {
	args := m.Called(ctx, seriesID, asOfDate, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Observation), args.Error(1)
}

func (m *MockSeriesRepository) FindLatestObservationAtOrBefore(ctx context.Context, seriesID string, target time.Time, tag domain.VersionTag) (*domain.Observation, error) {
	args := m.Called(ctx, seriesID, target, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Observation), args.Error(1)
}

func (m *MockSeriesRepository) ListObservationsBySeries(ctx context.Context, seriesID string) ([]domain.Observation, error) {
	args := m.Called(ctx, seriesID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Observation), args.Error(1)
}

func (m *MockSeriesRepository) UpsertObservation(ctx context.Context, obs domain.Observation) (bool, error) {
	args := m.Called(ctx, obs)
	return args.Bool(0), args.Error(1)
}

// --- Mock FormulaRepository ---

type MockFormulaRepository struct {
	mock.Mock
}

func (m *MockFormulaRepository) FindFormulaByID(ctx context.Context, formulaID string) (*domain.Formula, error) {
	args := m.Called(ctx, formulaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Formula), args.Error(1)
}

func (m *MockFormulaRepository) ListFormulasByTenant(ctx context.Context, tenantID string) ([]domain.Formula, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Formula), args.Error(1)
}

func (m *MockFormulaRepository) SaveFormula(ctx context.Context, formula domain.Formula) error {
	args := m.Called(ctx, formula)
	return args.Error(0)
}

// --- Mock ContractRepository ---

type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindContractByID(ctx context.Context, contractID string) (*domain.Contract, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contract), args.Error(1)
}

func (m *MockContractRepository) FindItemsByContractID(ctx context.Context, contractID string) ([]domain.ContractItem, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContractItem), args.Error(1)
}

func (m *MockContractRepository) FindItemsByFormulaID(ctx context.Context, formulaID string) ([]domain.ContractItem, error) {
	args := m.Called(ctx, formulaID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ContractItem), args.Error(1)
}

func (m *MockContractRepository) ListContractsByTenant(ctx context.Context, tenantID string) ([]domain.Contract, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contract), args.Error(1)
}

func (m *MockContractRepository) SaveContract(ctx context.Context, contract domain.Contract, items []domain.ContractItem) error {
	args := m.Called(ctx, contract, items)
	return args.Error(0)
}

// --- Mock BatchRepository ---

type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindBatchByID(ctx context.Context, batchID string) (*domain.CalcBatch, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalcBatch), args.Error(1)
}

func (m *MockBatchRepository) FindBatchByKey(ctx context.Context, key domain.BatchKey) (*domain.CalcBatch, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalcBatch), args.Error(1)
}

func (m *MockBatchRepository) MaxRevisionForKey(ctx context.Context, key domain.BatchKey) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func (m *MockBatchRepository) ListBatchesByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.CalcBatch, *string, error) {
	args := m.Called(ctx, tenantID, limit, nextToken)
	var batches []domain.CalcBatch
	if args.Get(0) != nil {
		batches = args.Get(0).([]domain.CalcBatch)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return batches, token, args.Error(2)
}

func (m *MockBatchRepository) ListBatchIDsWithApprovedResults(ctx context.Context, tenantID string) ([]string, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBatchRepository) ListTenantsWithBatches(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBatchRepository) CreateBatch(ctx context.Context, batch domain.CalcBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepository) MarkBatchRunning(ctx context.Context, batchID string, startedAt time.Time) (bool, error) {
	args := m.Called(ctx, batchID, startedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockBatchRepository) CompleteBatchWithResults(ctx context.Context, batchID string, results []domain.CalcResult, completedAt time.Time) error {
	args := m.Called(ctx, batchID, results, completedAt)
	return args.Error(0)
}

func (m *MockBatchRepository) FailBatch(ctx context.Context, batchID string, cause string, failedAt time.Time) error {
	args := m.Called(ctx, batchID, cause, failedAt)
	return args.Error(0)
}

func (m *MockBatchRepository) FindResultsByBatchID(ctx context.Context, batchID string) ([]domain.CalcResult, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CalcResult), args.Error(1)
}

func (m *MockBatchRepository) ApproveResultsByBatchID(ctx context.Context, batchID string, approvedBy string, approvedAt time.Time) error {
	args := m.Called(ctx, batchID, approvedBy, approvedAt)
	return args.Error(0)
}

func (m *MockBatchRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockBatchRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBatchRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock ProposalRepository ---

type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) FindProposalByID(ctx context.Context, proposalID string) (*domain.Proposal, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *MockProposalRepository) ListProposalsByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.Proposal, *string, error) {
	args := m.Called(ctx, tenantID, limit, nextToken)
	var proposals []domain.Proposal
	if args.Get(0) != nil {
		proposals = args.Get(0).([]domain.Proposal)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return proposals, token, args.Error(2)
}

func (m *MockProposalRepository) FindOpenProposalByOriginalBatch(ctx context.Context, originalBatchID string) (*domain.Proposal, error) {
	args := m.Called(ctx, originalBatchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Proposal), args.Error(1)
}

func (m *MockProposalRepository) SaveProposal(ctx context.Context, proposal domain.Proposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *MockProposalRepository) UpdateProposalStatus(ctx context.Context, proposalID string, status domain.ProposalStatus, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, proposalID, status, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockProposalRepository) UpdateProposalReview(ctx context.Context, proposalID string, status domain.ProposalStatus, reviewedBy string, reviewedAt time.Time, comments string) error {
	args := m.Called(ctx, proposalID, status, reviewedBy, reviewedAt, comments)
	return args.Error(0)
}

// --- Mock RevisionRunner ---

type MockRevisionRunner struct {
	mock.Mock
}

func (m *MockRevisionRunner) RunRevision(ctx context.Context, originalBatchID string, creatorUserID string) (*domain.CalcBatch, error) {
	args := m.Called(ctx, originalBatchID, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CalcBatch), args.Error(1)
}

// --- Mock ObservationResolver ---

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, tenantID string, seriesCode string, asOfDate time.Time, policy domain.ResolutionPolicy) (*domain.Observation, error) {
	args := m.Called(ctx, tenantID, seriesCode, asOfDate, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Observation), args.Error(1)
}

func (m *MockResolver) ResolveLatestAtOrBefore(ctx context.Context, tenantID string, seriesCode string, target time.Time, policy domain.ResolutionPolicy) (*domain.Observation, error) {
	args := m.Called(ctx, tenantID, seriesCode, target, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Observation), args.Error(1)
}
