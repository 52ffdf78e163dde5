package services

import (
	"context"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/dto"
)

// BatchReaderSvc defines read operations for calculation batches
type BatchReaderSvc interface {
	// GetBatchByID retrieves a tenant's batch and its results (empty unless
	// COMPLETED).
	GetBatchByID(ctx context.Context, tenantID string, batchID string) (*domain.CalcBatch, []domain.CalcResult, error)

	// ListBatches retrieves a paginated list of a tenant's batches.
	ListBatches(ctx context.Context, tenantID string, params dto.ListBatchesParams) (*dto.ListBatchesResponse, error)
}

// BatchWriterSvc defines write operations for calculation batches
type BatchWriterSvc interface {
	// CreateBatch computes the identity key and either returns the existing
	// batch (isDuplicate=true) or inserts a new QUEUED one.
	CreateBatch(ctx context.Context, tenantID string, req dto.CreateBatchRequest, creatorUserID string) (batch *domain.CalcBatch, isDuplicate bool, err error)

	// ExecuteBatch runs a QUEUED batch to COMPLETED or FAILED. Invoked on a
	// non-QUEUED batch it is a no-op returning the current state.
	ExecuteBatch(ctx context.Context, batchID string) (*domain.CalcBatch, error)

	// SubmitExecution schedules ExecuteBatch on the worker pool.
	SubmitExecution(ctx context.Context, batchID string) error

	// ApproveBatchResults marks every result of a COMPLETED batch approved.
	ApproveBatchResults(ctx context.Context, tenantID string, batchID string, approverUserID string) error
}

// RevisionRunnerSvc re-executes a batch's identity parameters against current
// data under a fresh revision number. Used by the proposal engine.
type RevisionRunnerSvc interface {
	// RunRevision creates and synchronously executes a new batch carrying
	// the same parameters as the original at the next free revision.
	RunRevision(ctx context.Context, originalBatchID string, creatorUserID string) (*domain.CalcBatch, error)
}

// BatchSvcFacade combines all batch-related service interfaces
type BatchSvcFacade interface {
	BatchReaderSvc
	BatchWriterSvc
	RevisionRunnerSvc
}
