package mapping

import (
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
)

// ToModelProposal converts a domain Proposal to a model Proposal. Deltas are
// mapped separately as they live in their own table.
func ToModelProposal(d domain.Proposal) models.Proposal {
	return models.Proposal{
		ProposalID:      d.ProposalID,
		TenantID:        d.TenantID,
		OriginalBatchID: d.OriginalBatchID,
		ProposalBatchID: d.ProposalBatchID,
		Type:            string(d.Type),
		TotalDelta:      d.TotalDelta,
		DeltaCurrency:   d.DeltaCurrency,
		Status:          string(d.Status),
		Reason:          d.Reason,
		RevisionNote:    d.RevisionNote,
		ReviewedBy:      d.ReviewedBy,
		ReviewedAt:      d.ReviewedAt,
		ReviewComments:  d.ReviewComments,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainProposal converts a model Proposal to a domain Proposal
func ToDomainProposal(m models.Proposal) domain.Proposal {
	return domain.Proposal{
		ProposalID:      m.ProposalID,
		TenantID:        m.TenantID,
		OriginalBatchID: m.OriginalBatchID,
		ProposalBatchID: m.ProposalBatchID,
		Type:            domain.ProposalType(m.Type),
		TotalDelta:      m.TotalDelta,
		DeltaCurrency:   m.DeltaCurrency,
		Status:          domain.ProposalStatus(m.Status),
		Reason:          m.Reason,
		RevisionNote:    m.RevisionNote,
		ReviewedBy:      m.ReviewedBy,
		ReviewedAt:      m.ReviewedAt,
		ReviewComments:  m.ReviewComments,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelProposalDelta converts a domain ItemDelta to a model ProposalDelta
func ToModelProposalDelta(proposalID string, d domain.ItemDelta) models.ProposalDelta {
	return models.ProposalDelta{
		ProposalID:    proposalID,
		ItemID:        d.ItemID,
		OriginalPrice: d.OriginalPrice,
		RevisedPrice:  d.RevisedPrice,
		Delta:         d.Delta,
	}
}

// ToDomainItemDelta converts a model ProposalDelta to a domain ItemDelta
func ToDomainItemDelta(m models.ProposalDelta) domain.ItemDelta {
	return domain.ItemDelta{
		ItemID:        m.ItemID,
		OriginalPrice: m.OriginalPrice,
		RevisedPrice:  m.RevisedPrice,
		Delta:         m.Delta,
	}
}
