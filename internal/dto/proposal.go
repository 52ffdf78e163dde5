package dto

import (
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateProposalRequest defines the structure for requesting a revision proposal.
type CreateProposalRequest struct {
	OriginalBatchID string `json:"originalBatchID" binding:"required"`
	Reason          string `json:"reason" binding:"required"`
	RevisionNote    string `json:"revisionDescription,omitempty"`
}

// ReviewProposalRequest defines the terminal review decision.
type ReviewProposalRequest struct {
	Approve  bool   `json:"approve"`
	Comments string `json:"comments,omitempty"`
}

// ItemDeltaResponse defines one signed per-item price movement.
type ItemDeltaResponse struct {
	ItemID        string          `json:"itemID"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	RevisedPrice  decimal.Decimal `json:"revisedPrice"`
	Delta         decimal.Decimal `json:"delta"`
}

// ProposalResponse defines the structure for API responses containing proposal details.
type ProposalResponse struct {
	ProposalID      string              `json:"proposalID"`
	OriginalBatchID string              `json:"originalBatchID"`
	ProposalBatchID string              `json:"proposalBatchID"`
	Type            string              `json:"type"`
	TotalDelta      decimal.Decimal     `json:"totalDelta"`
	DeltaCurrency   string              `json:"deltaCurrency"`
	Deltas          []ItemDeltaResponse `json:"deltas"`
	Status          string              `json:"status"`
	Reason          string              `json:"reason"`
	ReviewedBy      *string             `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time          `json:"reviewedAt,omitempty"`
	ReviewComments  string              `json:"reviewComments,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// ToProposalResponse converts a domain.Proposal to ProposalResponse DTO
func ToProposalResponse(p *domain.Proposal) ProposalResponse {
	resp := ProposalResponse{
		ProposalID:      p.ProposalID,
		OriginalBatchID: p.OriginalBatchID,
		ProposalBatchID: p.ProposalBatchID,
		Type:            string(p.Type),
		TotalDelta:      p.TotalDelta,
		DeltaCurrency:   p.DeltaCurrency,
		Status:          string(p.Status),
		Reason:          p.Reason,
		ReviewedBy:      p.ReviewedBy,
		ReviewedAt:      p.ReviewedAt,
		ReviewComments:  p.ReviewComments,
		CreatedAt:       p.CreatedAt,
	}
	for _, delta := range p.Deltas {
		resp.Deltas = append(resp.Deltas, ItemDeltaResponse{
			ItemID:        delta.ItemID,
			OriginalPrice: delta.OriginalPrice,
			RevisedPrice:  delta.RevisedPrice,
			Delta:         delta.Delta,
		})
	}
	return resp
}

// ListProposalsParams carries pagination parameters for proposal listing.
type ListProposalsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListProposalsResponse is a page of proposals plus the token for the next page.
type ListProposalsResponse struct {
	Proposals []ProposalResponse `json:"proposals"`
	NextToken *string            `json:"nextToken,omitempty"`
}
