package models

import "github.com/shopspring/decimal"

// Contract represents one contract header row.
type Contract struct {
	ContractID string `json:"contractID"` // Primary Key (e.g., UUID)
	TenantID   string `json:"tenantID"`
	FormulaID  string `json:"formulaID"`
	Name       string `json:"name"`
	AuditFields
}

// ContractItem represents one priced line item row.
type ContractItem struct {
	ItemID       string          `json:"itemID"` // Primary Key (e.g., UUID)
	ContractID   string          `json:"contractID"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	CurrencyCode string          `json:"currencyCode"`
	Quantity     decimal.Decimal `json:"quantity"`
	AuditFields
}
