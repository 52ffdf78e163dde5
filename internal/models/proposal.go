package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Proposal represents one revision proposal row.
type Proposal struct {
	ProposalID      string          `json:"proposalID"` // Primary Key (e.g., UUID)
	TenantID        string          `json:"tenantID"`
	OriginalBatchID string          `json:"originalBatchID"`
	ProposalBatchID string          `json:"proposalBatchID"`
	Type            string          `json:"type"`
	TotalDelta      decimal.Decimal `json:"totalDelta"`
	DeltaCurrency   string          `json:"deltaCurrency"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason"`
	RevisionNote    string          `json:"revisionNote"`
	ReviewedBy      *string         `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	ReviewComments  string          `json:"reviewComments"`
	AuditFields
}

// ProposalDelta represents one per-item price movement row of a proposal.
type ProposalDelta struct {
	ProposalID    string          `json:"proposalID"`
	ItemID        string          `json:"itemID"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	RevisedPrice  decimal.Decimal `json:"revisedPrice"`
	Delta         decimal.Decimal `json:"delta"`
}
