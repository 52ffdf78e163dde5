package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProposalType classifies the aggregate swing of a revision.
type ProposalType string

const (
	// Credit means the revised prices sum higher than the approved ones.
	Credit ProposalType = "CREDIT"
	// Debit means the revised prices sum lower than (or equal to) the approved ones.
	Debit ProposalType = "DEBIT"
)

// ProposalStatus is the review lifecycle of a proposed adjustment.
type ProposalStatus string

const (
	ProposalDraft         ProposalStatus = "DRAFT"
	ProposalPendingReview ProposalStatus = "PENDING_REVIEW"
	ProposalApproved      ProposalStatus = "APPROVED"
	ProposalRejected      ProposalStatus = "REJECTED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ProposalStatus) IsTerminal() bool {
	return s == ProposalApproved || s == ProposalRejected
}

// ItemDelta is the signed price movement of one contract item between the
// approved result set and its recomputation.
type ItemDelta struct {
	ItemID        string          `json:"itemID"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	RevisedPrice  decimal.Decimal `json:"revisedPrice"`
	Delta         decimal.Decimal `json:"delta"`
}

// Proposal links a previously approved batch to a fresh recalculation and
// quantifies the resulting credit/debit obligation. It is mutated only by the
// review operation, which is terminal.
type Proposal struct {
	ProposalID      string          `json:"proposalID"` // Primary Key (e.g., UUID)
	TenantID        string          `json:"tenantID"`
	OriginalBatchID string          `json:"originalBatchID"`
	ProposalBatchID string          `json:"proposalBatchID"`
	Type            ProposalType    `json:"type"`
	TotalDelta      decimal.Decimal `json:"totalDelta"`
	DeltaCurrency   string          `json:"deltaCurrency"`
	Deltas          []ItemDelta     `json:"deltas"`
	Status          ProposalStatus  `json:"status"`
	Reason          string          `json:"reason"`
	RevisionNote    string          `json:"revisionNote,omitempty"`
	ReviewedBy      *string         `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewedAt,omitempty"`
	ReviewComments  string          `json:"reviewComments,omitempty"`
	AuditFields
}
