package services

import (
	"context"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/dto"
)

// ContractReaderSvc defines read operations for contracts
type ContractReaderSvc interface {
	// GetContractByID retrieves a tenant's contract with its line items.
	GetContractByID(ctx context.Context, tenantID string, contractID string) (*domain.Contract, []domain.ContractItem, error)

	// ListContracts retrieves all contracts owned by a tenant.
	ListContracts(ctx context.Context, tenantID string) ([]domain.Contract, error)
}

// ContractWriterSvc defines write operations for contracts
type ContractWriterSvc interface {
	// CreateContract persists a contract and its line items.
	CreateContract(ctx context.Context, tenantID string, req dto.CreateContractRequest, creatorUserID string) (*domain.Contract, error)
}

// ContractSvcFacade combines all contract-related service interfaces
type ContractSvcFacade interface {
	ContractReaderSvc
	ContractWriterSvc
}
