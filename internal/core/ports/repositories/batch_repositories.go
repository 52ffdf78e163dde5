package repositories

import (
	"context"
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
)

// BatchReader defines read operations for calculation batches
type BatchReader interface {
	// FindBatchByID retrieves a batch by its unique identifier.
	FindBatchByID(ctx context.Context, batchID string) (*domain.CalcBatch, error)

	// FindBatchByKey retrieves the batch with the given identity key, if any.
	FindBatchByKey(ctx context.Context, key domain.BatchKey) (*domain.CalcBatch, error)

	// MaxRevisionForKey returns the highest revision present for the key's
	// identity parameters (ignoring key.Revision), or -1 when none exist.
	MaxRevisionForKey(ctx context.Context, key domain.BatchKey) (int, error)

	// ListBatchesByTenant retrieves a paginated list of a tenant's batches
	// using token-based pagination.
	ListBatchesByTenant(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.CalcBatch, *string, error)

	// ListBatchIDsWithApprovedResults returns the IDs of COMPLETED batches
	// whose result set is fully approved. Used by the revision scan.
	ListBatchIDsWithApprovedResults(ctx context.Context, tenantID string) ([]string, error)

	// ListTenantsWithBatches returns every tenant that has submitted at least
	// one batch. The revision scan iterates this set.
	ListTenantsWithBatches(ctx context.Context) ([]string, error)
}

// BatchWriter defines write operations for calculation batches
type BatchWriter interface {
	// CreateBatch inserts a new QUEUED batch. Returns apperrors.ErrDuplicate
	// when a batch with the same identity key already exists; the unique
	// constraint is what serializes concurrent submissions on the key.
	CreateBatch(ctx context.Context, batch domain.CalcBatch) error

	// MarkBatchRunning transitions QUEUED -> RUNNING with an optimistic
	// state check. Returns false when the batch was not QUEUED.
	MarkBatchRunning(ctx context.Context, batchID string, startedAt time.Time) (bool, error)

	// CompleteBatchWithResults persists all results and the COMPLETED
	// transition in a single database transaction. Nothing is written when
	// any part fails.
	CompleteBatchWithResults(ctx context.Context, batchID string, results []domain.CalcResult, completedAt time.Time) error

	// FailBatch transitions the batch to FAILED recording the triggering error.
	FailBatch(ctx context.Context, batchID string, cause string, failedAt time.Time) error
}

// ResultReader defines read operations for calculation results
type ResultReader interface {
	// FindResultsByBatchID retrieves all results of a batch ordered by item ID.
	FindResultsByBatchID(ctx context.Context, batchID string) ([]domain.CalcResult, error)
}

// ResultWriter defines write operations for calculation results
type ResultWriter interface {
	// ApproveResultsByBatchID marks every result of the batch approved.
	// This is the only mutation results ever receive.
	ApproveResultsByBatchID(ctx context.Context, batchID string, approvedBy string, approvedAt time.Time) error
}

// BatchRepositoryFacade combines all batch-related repository interfaces
type BatchRepositoryFacade interface {
	BatchReader
	BatchWriter
	ResultReader
	ResultWriter
}

// BatchRepositoryWithTx extends BatchRepositoryFacade with transaction capabilities
type BatchRepositoryWithTx interface {
	BatchRepositoryFacade
	TransactionManager
}
