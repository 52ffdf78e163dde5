package dto

import (
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateContractItemRequest defines one priced line item of a new contract.
type CreateContractItemRequest struct {
	Description  string          `json:"description" binding:"required"`
	BasePrice    decimal.Decimal `json:"basePrice" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3,uppercase"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// CreateContractRequest defines the structure for creating a new contract.
type CreateContractRequest struct {
	FormulaID string                      `json:"formulaID" binding:"required"`
	Name      string                      `json:"name" binding:"required"`
	Items     []CreateContractItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ContractItemResponse defines one line item in API responses.
type ContractItemResponse struct {
	ItemID       string          `json:"itemID"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	CurrencyCode string          `json:"currencyCode"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// ContractResponse defines the structure for API responses containing contract details.
type ContractResponse struct {
	ContractID string                 `json:"contractID"`
	TenantID   string                 `json:"tenantID"`
	FormulaID  string                 `json:"formulaID"`
	Name       string                 `json:"name"`
	Items      []ContractItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
	CreatedBy  string                 `json:"createdBy"`
}

// ToContractResponse converts a domain.Contract and its items to a ContractResponse DTO
func ToContractResponse(c *domain.Contract, items []domain.ContractItem) ContractResponse {
	resp := ContractResponse{
		ContractID: c.ContractID,
		TenantID:   c.TenantID,
		FormulaID:  c.FormulaID,
		Name:       c.Name,
		CreatedAt:  c.CreatedAt,
		CreatedBy:  c.CreatedBy,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, ContractItemResponse{
			ItemID:       item.ItemID,
			Description:  item.Description,
			BasePrice:    item.BasePrice,
			CurrencyCode: item.CurrencyCode,
			Quantity:     item.Quantity,
		})
	}
	return resp
}
