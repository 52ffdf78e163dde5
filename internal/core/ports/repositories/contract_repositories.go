package repositories

import (
	"context"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
)

// ContractReader defines read operations for contract data
type ContractReader interface {
	// FindContractByID retrieves a contract by its unique identifier.
	FindContractByID(ctx context.Context, contractID string) (*domain.Contract, error)

	// FindItemsByContractID retrieves the line items of a contract.
	FindItemsByContractID(ctx context.Context, contractID string) ([]domain.ContractItem, error)

	// FindItemsByFormulaID retrieves the line items of every contract bound
	// to the formula.
	FindItemsByFormulaID(ctx context.Context, formulaID string) ([]domain.ContractItem, error)

	// ListContractsByTenant retrieves all contracts owned by a tenant.
	ListContractsByTenant(ctx context.Context, tenantID string) ([]domain.Contract, error)
}

// ContractWriter defines write operations for contract data
type ContractWriter interface {
	// SaveContract persists a contract together with its line items.
	SaveContract(ctx context.Context, contract domain.Contract, items []domain.ContractItem) error
}

// ContractRepositoryFacade combines all contract-related repository interfaces
type ContractRepositoryFacade interface {
	ContractReader
	ContractWriter
}
