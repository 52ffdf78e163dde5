package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of a calculation batch.
// QUEUED -> RUNNING -> {COMPLETED | FAILED}; terminal states are immutable.
type BatchStatus string

const (
	BatchQueued    BatchStatus = "QUEUED"
	BatchRunning   BatchStatus = "RUNNING"
	BatchCompleted BatchStatus = "COMPLETED"
	BatchFailed    BatchStatus = "FAILED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

// BatchKey is the identity of a calculation batch. At most one batch exists
// per key; re-submission returns the existing batch. Revision 0 is the user
// submission; the proposal engine allocates higher revisions when it re-runs
// the same parameters against current data.
type BatchKey struct {
	TenantID   string     `json:"tenantID"`
	FormulaID  string     `json:"formulaID"`
	ContractID *string    `json:"contractID,omitempty"`
	AsOfDate   time.Time  `json:"asOfDate"`
	Preferred  VersionTag `json:"preferred"`
	Revision   int        `json:"revision"`
}

// CalcBatch is one execution of a formula against an as-of-date and version
// preference, producing results for one or more contract items.
type CalcBatch struct {
	BatchID string      `json:"batchID"` // Primary Key (e.g., UUID)
	Key     BatchKey    `json:"key"`
	Status  BatchStatus `json:"status"`
	// Error holds the triggering failure for FAILED batches.
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	AuditFields
}

// NodeContribution is one row of the evaluation ledger: the value a node
// contributed and the running total up to and including that node, in
// topological order. The ledger is reproducible byte-for-byte from the same
// graph and inputs.
type NodeContribution struct {
	NodeID       string          `json:"nodeID"`
	Contribution decimal.Decimal `json:"contribution"`
	RunningTotal decimal.Decimal `json:"runningTotal"`
}

// CalcResult is the adjusted price of a single contract item, produced only
// by a successful batch run. Rows are mutated solely by the approval
// workflow; a revision creates a new batch and result set instead of
// overwriting approved rows.
type CalcResult struct {
	ResultID         string             `json:"resultID"` // Primary Key (e.g., UUID)
	BatchID          string             `json:"batchID"`
	ItemID           string             `json:"itemID"`
	AdjustedPrice    decimal.Decimal    `json:"adjustedPrice"`
	AdjustedCurrency string             `json:"adjustedCurrency"`
	EffectiveDate    time.Time          `json:"effectiveDate"`
	IsApproved       bool               `json:"isApproved"`
	Contributions    []NodeContribution `json:"contributions,omitempty"`
	AuditFields
}
