package domain

import "github.com/shopspring/decimal"

// Contract groups the priced line items a formula adjusts.
type Contract struct {
	ContractID string `json:"contractID"` // Primary Key (e.g., UUID)
	TenantID   string `json:"tenantID"`
	FormulaID  string `json:"formulaID"` // FK -> Formula
	Name       string `json:"name"`
	AuditFields
}

// ContractItem is a single priced line of a contract. BasePrice is the
// pre-adjustment price the formula output is applied to.
type ContractItem struct {
	ItemID       string          `json:"itemID"` // Primary Key (e.g., UUID)
	ContractID   string          `json:"contractID"`
	Description  string          `json:"description"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	CurrencyCode string          `json:"currencyCode"`
	Quantity     decimal.Decimal `json:"quantity"`
	AuditFields
}
