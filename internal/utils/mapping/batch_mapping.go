package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
)

// ToModelCalcBatch converts a domain CalcBatch to a model CalcBatch,
// flattening the identity key into columns.
func ToModelCalcBatch(d domain.CalcBatch) models.CalcBatch {
	return models.CalcBatch{
		BatchID:     d.BatchID,
		TenantID:    d.Key.TenantID,
		FormulaID:   d.Key.FormulaID,
		ContractID:  d.Key.ContractID,
		AsOfDate:    d.Key.AsOfDate,
		Preferred:   string(d.Key.Preferred),
		Revision:    d.Key.Revision,
		Status:      string(d.Status),
		Error:       d.Error,
		StartedAt:   d.StartedAt,
		CompletedAt: d.CompletedAt,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainCalcBatch converts a model CalcBatch to a domain CalcBatch
func ToDomainCalcBatch(m models.CalcBatch) domain.CalcBatch {
	return domain.CalcBatch{
		BatchID: m.BatchID,
		Key: domain.BatchKey{
			TenantID:   m.TenantID,
			FormulaID:  m.FormulaID,
			ContractID: m.ContractID,
			AsOfDate:   m.AsOfDate,
			Preferred:  domain.VersionTag(m.Preferred),
			Revision:   m.Revision,
		},
		Status:      domain.BatchStatus(m.Status),
		Error:       m.Error,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelCalcResult converts a domain CalcResult to a model CalcResult,
// serializing the contribution ledger to its JSONB representation.
func ToModelCalcResult(d domain.CalcResult) (models.CalcResult, error) {
	contributions, err := json.Marshal(d.Contributions)
	if err != nil {
		return models.CalcResult{}, fmt.Errorf("failed to serialize contribution ledger: %w", err)
	}
	return models.CalcResult{
		ResultID:         d.ResultID,
		BatchID:          d.BatchID,
		ItemID:           d.ItemID,
		AdjustedPrice:    d.AdjustedPrice,
		AdjustedCurrency: d.AdjustedCurrency,
		EffectiveDate:    d.EffectiveDate,
		IsApproved:       d.IsApproved,
		Contributions:    contributions,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainCalcResult converts a model CalcResult to a domain CalcResult
func ToDomainCalcResult(m models.CalcResult) (domain.CalcResult, error) {
	var contributions []domain.NodeContribution
	if len(m.Contributions) > 0 {
		if err := json.Unmarshal(m.Contributions, &contributions); err != nil {
			return domain.CalcResult{}, fmt.Errorf("failed to deserialize contribution ledger: %w", err)
		}
	}
	return domain.CalcResult{
		ResultID:         m.ResultID,
		BatchID:          m.BatchID,
		ItemID:           m.ItemID,
		AdjustedPrice:    m.AdjustedPrice,
		AdjustedCurrency: m.AdjustedCurrency,
		EffectiveDate:    m.EffectiveDate,
		IsApproved:       m.IsApproved,
		Contributions:    contributions,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}, nil
}
