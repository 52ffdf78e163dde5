package mapping

import (
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
)

// ToModelContract converts a domain Contract to a model Contract
func ToModelContract(d domain.Contract) models.Contract {
	return models.Contract{
		ContractID:  d.ContractID,
		TenantID:    d.TenantID,
		FormulaID:   d.FormulaID,
		Name:        d.Name,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainContract converts a model Contract to a domain Contract
func ToDomainContract(m models.Contract) domain.Contract {
	return domain.Contract{
		ContractID:  m.ContractID,
		TenantID:    m.TenantID,
		FormulaID:   m.FormulaID,
		Name:        m.Name,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelContractItem converts a domain ContractItem to a model ContractItem
func ToModelContractItem(d domain.ContractItem) models.ContractItem {
	return models.ContractItem{
		ItemID:       d.ItemID,
		ContractID:   d.ContractID,
		Description:  d.Description,
		BasePrice:    d.BasePrice,
		CurrencyCode: d.CurrencyCode,
		Quantity:     d.Quantity,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainContractItem converts a model ContractItem to a domain ContractItem
func ToDomainContractItem(m models.ContractItem) domain.ContractItem {
	return domain.ContractItem{
		ItemID:       m.ItemID,
		ContractID:   m.ContractID,
		Description:  m.Description,
		BasePrice:    m.BasePrice,
		CurrencyCode: m.CurrencyCode,
		Quantity:     m.Quantity,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainContractItemSlice converts model ContractItems to domain ContractItems
func ToDomainContractItemSlice(ms []models.ContractItem) []domain.ContractItem {
	ds := make([]domain.ContractItem, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainContractItem(m)
	}
	return ds
}
