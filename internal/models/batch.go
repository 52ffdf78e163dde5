package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalcBatch represents one calculation batch row. The identity key columns
// carry a unique constraint; contract_id is nullable for formula-wide runs.
type CalcBatch struct {
	BatchID     string     `json:"batchID"` // Primary Key (e.g., UUID)
	TenantID    string     `json:"tenantID"`
	FormulaID   string     `json:"formulaID"`
	ContractID  *string    `json:"contractID,omitempty"`
	AsOfDate    time.Time  `json:"asOfDate"`
	Preferred   string     `json:"preferred"`
	Revision    int        `json:"revision"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	AuditFields
}

// CalcResult represents one adjusted-price row. Contributions hold the
// evaluation ledger as a JSONB document.
type CalcResult struct {
	ResultID         string          `json:"resultID"` // Primary Key (e.g., UUID)
	BatchID          string          `json:"batchID"`
	ItemID           string          `json:"itemID"`
	AdjustedPrice    decimal.Decimal `json:"adjustedPrice"`
	AdjustedCurrency string          `json:"adjustedCurrency"`
	EffectiveDate    time.Time       `json:"effectiveDate"`
	IsApproved       bool            `json:"isApproved"`
	Contributions    []byte          `json:"contributions"` // JSONB payload
	AuditFields
}
