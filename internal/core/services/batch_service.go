package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/calendar"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portsrepo "github.com/Numraio/cpam-sub003/internal/core/ports/repositories"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/middleware"
	"github.com/Numraio/cpam-sub003/internal/worker"
)

var (
	ErrBatchNotExecutable = errors.New("batch is not in an executable state")
	ErrNoItems            = errors.New("batch has no contract items to evaluate")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	// revisionRetries bounds the race window when two revision runs pick
	// the same next revision number.
	revisionRetries = 3
)

// batchService owns the calculation batch lifecycle: idempotent creation,
// execution with all-or-nothing result persistence, and result approval.
type batchService struct {
	batchRepo    portsrepo.BatchRepositoryWithTx
	formulaRepo  portsrepo.FormulaReader
	contractRepo portsrepo.ContractReader
	evaluator    *Evaluator
	cal          *calendar.Calendar
	fallback     domain.FallbackMode
	pool         *worker.Pool
}

// NewBatchService creates a new batch service. The pool may be nil, in which
// case SubmitExecution is unavailable (synchronous callers and tests).
func NewBatchService(
	batchRepo portsrepo.BatchRepositoryWithTx,
	formulaRepo portsrepo.FormulaReader,
	contractRepo portsrepo.ContractReader,
	evaluator *Evaluator,
	cal *calendar.Calendar,
	fallback domain.FallbackMode,
	pool *worker.Pool,
) portssvc.BatchSvcFacade {
	return &batchService{
		batchRepo:    batchRepo,
		formulaRepo:  formulaRepo,
		contractRepo: contractRepo,
		evaluator:    evaluator,
		cal:          cal,
		fallback:     fallback,
		pool:         pool,
	}
}

// Ensure batchService implements the portssvc.BatchSvcFacade interface
var _ portssvc.BatchSvcFacade = (*batchService)(nil)

// CreateBatch computes the identity key and either returns the existing batch
// (isDuplicate=true) or inserts a new QUEUED one. Concurrent submissions on
// the same key serialize on the repository's unique constraint; losing the
// race is resolved by re-reading, never surfaced as a failure.
func (s *batchService) CreateBatch(ctx context.Context, tenantID string, req dto.CreateBatchRequest, creatorUserID string) (*domain.CalcBatch, bool, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	tag := domain.VersionTag(req.Preferred)
	if !tag.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown version preference %q", apperrors.ErrValidation, req.Preferred)
	}

	formula, err := s.formulaRepo.FindFormulaByID(ctx, req.FormulaID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve formula %s: %w", req.FormulaID, err)
	}
	if formula.TenantID != tenantID {
		return nil, false, fmt.Errorf("%w: formula %s", apperrors.ErrNotFound, req.FormulaID)
	}

	if req.ContractID != nil {
		contract, err := s.contractRepo.FindContractByID(ctx, *req.ContractID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resolve contract %s: %w", *req.ContractID, err)
		}
		if contract.TenantID != tenantID {
			return nil, false, fmt.Errorf("%w: contract %s", apperrors.ErrNotFound, *req.ContractID)
		}
		if contract.FormulaID != req.FormulaID {
			return nil, false, fmt.Errorf("%w: contract %s is not bound to formula %s", apperrors.ErrValidation, *req.ContractID, req.FormulaID)
		}
	}

	key := domain.BatchKey{
		TenantID:   tenantID,
		FormulaID:  req.FormulaID,
		ContractID: req.ContractID,
		AsOfDate:   normalizeDay(req.AsOfDate),
		Preferred:  tag,
		Revision:   0,
	}

	if existing, err := s.batchRepo.FindBatchByKey(ctx, key); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check for existing batch: %w", err)
	}

	now := time.Now().UTC()
	batch := domain.CalcBatch{
		BatchID: uuid.NewString(),
		Key:     key,
		Status:  domain.BatchQueued,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.batchRepo.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost the creation race; the winner's batch is the answer.
			existing, findErr := s.batchRepo.FindBatchByKey(ctx, key)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to re-read batch after duplicate key: %w", findErr)
			}
			return existing, true, nil
		}
		logger.Error("Failed to create batch", slog.String("formula_id", req.FormulaID), slog.String("error", err.Error()))
		return nil, false, fmt.Errorf("failed to create batch: %w", err)
	}

	return &batch, false, nil
}

// ExecuteBatch runs a QUEUED batch to COMPLETED or FAILED. Invoked on a
// non-QUEUED batch it is a no-op returning the current state. Evaluation
// failures are recorded on the batch rather than returned: the batch's FAILED
// status is the outcome, not a service error.
func (s *batchService) ExecuteBatch(ctx context.Context, batchID string) (*domain.CalcBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.batchRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	if batch.Status != domain.BatchQueued {
		return batch, nil
	}

	started := time.Now().UTC()
	ok, err := s.batchRepo.MarkBatchRunning(ctx, batchID, started)
	if err != nil {
		return nil, fmt.Errorf("failed to transition batch %s to RUNNING: %w", batchID, err)
	}
	if !ok {
		// Another worker won the optimistic state check.
		return s.batchRepo.FindBatchByID(ctx, batchID)
	}

	results, evalErr := s.evaluateAll(ctx, batch)
	if evalErr != nil {
		logger.Warn("Batch evaluation failed",
			slog.String("batch_id", batchID),
			slog.String("error", evalErr.Error()))
		if failErr := s.batchRepo.FailBatch(ctx, batchID, evalErr.Error(), time.Now().UTC()); failErr != nil {
			return nil, fmt.Errorf("failed to record batch failure: %w", failErr)
		}
		return s.batchRepo.FindBatchByID(ctx, batchID)
	}

	if err := s.batchRepo.CompleteBatchWithResults(ctx, batchID, results, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to persist batch results: %w", err)
	}

	logger.Info("Batch completed",
		slog.String("batch_id", batchID),
		slog.Int("result_count", len(results)))
	return s.batchRepo.FindBatchByID(ctx, batchID)
}

// evaluateAll evaluates the formula once per affected item. Any item-level or
// structural failure aborts the whole batch; partial result sets are never
// returned.
func (s *batchService) evaluateAll(ctx context.Context, batch *domain.CalcBatch) ([]domain.CalcResult, error) {
	formula, err := s.formulaRepo.FindFormulaByID(ctx, batch.Key.FormulaID)
	if err != nil {
		return nil, fmt.Errorf("failed to load formula %s: %w", batch.Key.FormulaID, err)
	}

	var items []domain.ContractItem
	if batch.Key.ContractID != nil {
		items, err = s.contractRepo.FindItemsByContractID(ctx, *batch.Key.ContractID)
	} else {
		items, err = s.contractRepo.FindItemsByFormulaID(ctx, batch.Key.FormulaID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	policy := domain.ResolutionPolicy{Preferred: batch.Key.Preferred, Fallback: s.fallback}
	effectiveDate := s.cal.RollForward(batch.Key.AsOfDate)
	now := time.Now().UTC()

	results := make([]domain.CalcResult, 0, len(items))
	for _, item := range items {
		evalResult, err := s.evaluator.Evaluate(ctx, EvalRequest{
			TenantID:     batch.Key.TenantID,
			Graph:        formula.Graph,
			FormulaType:  formula.Type,
			BasePrice:    item.BasePrice,
			BaseCurrency: item.CurrencyCode,
			AsOfDate:     batch.Key.AsOfDate,
			Policy:       policy,
		})
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", item.ItemID, err)
		}

		results = append(results, domain.CalcResult{
			ResultID:         uuid.NewString(),
			BatchID:          batch.BatchID,
			ItemID:           item.ItemID,
			AdjustedPrice:    evalResult.AdjustedPrice,
			AdjustedCurrency: item.CurrencyCode,
			EffectiveDate:    effectiveDate,
			Contributions:    evalResult.Contributions,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     batch.CreatedBy,
				LastUpdatedAt: now,
				LastUpdatedBy: batch.CreatedBy,
			},
		})
	}
	return results, nil
}

// SubmitExecution schedules ExecuteBatch on the worker pool. Each batch is
// picked up by exactly one worker; the optimistic RUNNING transition makes a
// duplicate submission a no-op.
func (s *batchService) SubmitExecution(ctx context.Context, batchID string) error {
	if s.pool == nil {
		return fmt.Errorf("no worker pool configured for asynchronous execution")
	}
	logger := middleware.GetLoggerFromCtx(ctx)
	return s.pool.Submit(func(taskCtx context.Context) {
		taskCtx = middleware.ContextWithLogger(taskCtx, logger)
		if _, err := s.ExecuteBatch(taskCtx, batchID); err != nil {
			logger.Error("Asynchronous batch execution failed",
				slog.String("batch_id", batchID),
				slog.String("error", err.Error()))
		}
	})
}

// RunRevision creates and synchronously executes a fresh batch carrying the
// same identity parameters as the original at the next free revision number.
func (s *batchService) RunRevision(ctx context.Context, originalBatchID string, creatorUserID string) (*domain.CalcBatch, error) {
	original, err := s.batchRepo.FindBatchByID(ctx, originalBatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load original batch %s: %w", originalBatchID, err)
	}

	now := time.Now().UTC()
	var batch domain.CalcBatch
	for attempt := 0; ; attempt++ {
		maxRev, err := s.batchRepo.MaxRevisionForKey(ctx, original.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to determine next revision: %w", err)
		}

		key := original.Key
		key.Revision = maxRev + 1
		batch = domain.CalcBatch{
			BatchID: uuid.NewString(),
			Key:     key,
			Status:  domain.BatchQueued,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}

		err = s.batchRepo.CreateBatch(ctx, batch)
		if err == nil {
			break
		}
		if !errors.Is(err, apperrors.ErrDuplicate) || attempt >= revisionRetries {
			return nil, fmt.Errorf("failed to create revision batch: %w", err)
		}
	}

	return s.ExecuteBatch(ctx, batch.BatchID)
}

// ApproveBatchResults marks every result of a COMPLETED batch approved.
func (s *batchService) ApproveBatchResults(ctx context.Context, tenantID string, batchID string, approverUserID string) error {
	batch, err := s.batchRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		return fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	if batch.Key.TenantID != tenantID {
		return fmt.Errorf("%w: batch %s", apperrors.ErrNotFound, batchID)
	}
	if batch.Status != domain.BatchCompleted {
		return fmt.Errorf("%w: batch %s is %s, only COMPLETED batches can be approved", apperrors.ErrConflict, batchID, batch.Status)
	}
	return s.batchRepo.ApproveResultsByBatchID(ctx, batchID, approverUserID, time.Now().UTC())
}

// GetBatchByID retrieves a tenant's batch and, when COMPLETED, its results.
func (s *batchService) GetBatchByID(ctx context.Context, tenantID string, batchID string) (*domain.CalcBatch, []domain.CalcResult, error) {
	batch, err := s.batchRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	if batch.Key.TenantID != tenantID {
		return nil, nil, fmt.Errorf("%w: batch %s", apperrors.ErrNotFound, batchID)
	}

	var results []domain.CalcResult
	if batch.Status == domain.BatchCompleted {
		results, err = s.batchRepo.FindResultsByBatchID(ctx, batchID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load batch results: %w", err)
		}
	}
	return batch, results, nil
}

// ListBatches retrieves a paginated list of a tenant's batches.
func (s *batchService) ListBatches(ctx context.Context, tenantID string, params dto.ListBatchesParams) (*dto.ListBatchesResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	batches, nextToken, err := s.batchRepo.ListBatchesByTenant(ctx, tenantID, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	resp := &dto.ListBatchesResponse{NextToken: nextToken}
	for i := range batches {
		resp.Batches = append(resp.Batches, dto.ToBatchResponse(&batches[i], nil))
	}
	return resp, nil
}
