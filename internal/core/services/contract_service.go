package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portsrepo "github.com/Numraio/cpam-sub003/internal/core/ports/repositories"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/middleware"
)

// contractService provides contract and line-item management.
type contractService struct {
	contractRepo portsrepo.ContractRepositoryFacade
	formulaRepo  portsrepo.FormulaReader
}

// NewContractService creates a new contract service.
func NewContractService(contractRepo portsrepo.ContractRepositoryFacade, formulaRepo portsrepo.FormulaReader) portssvc.ContractSvcFacade {
	return &contractService{
		contractRepo: contractRepo,
		formulaRepo:  formulaRepo,
	}
}

// Ensure contractService implements the portssvc.ContractSvcFacade interface
var _ portssvc.ContractSvcFacade = (*contractService)(nil)

// CreateContract persists a contract and its line items after validating the
// bound formula.
func (s *contractService) CreateContract(ctx context.Context, tenantID string, req dto.CreateContractRequest, creatorUserID string) (*domain.Contract, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	formula, err := s.formulaRepo.FindFormulaByID(ctx, req.FormulaID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve formula %s: %w", req.FormulaID, err)
	}
	if formula.TenantID != tenantID {
		return nil, fmt.Errorf("%w: formula %s", apperrors.ErrNotFound, req.FormulaID)
	}

	now := time.Now().UTC()
	contract := domain.Contract{
		ContractID: uuid.NewString(),
		TenantID:   tenantID,
		FormulaID:  req.FormulaID,
		Name:       req.Name,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	items := make([]domain.ContractItem, len(req.Items))
	for i, itemReq := range req.Items {
		if itemReq.BasePrice.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: base price must be positive for item %q", apperrors.ErrValidation, itemReq.Description)
		}
		quantity := itemReq.Quantity
		if quantity.IsZero() {
			quantity = decimal.NewFromInt(1)
		}
		items[i] = domain.ContractItem{
			ItemID:       uuid.NewString(),
			ContractID:   contract.ContractID,
			Description:  itemReq.Description,
			BasePrice:    itemReq.BasePrice,
			CurrencyCode: itemReq.CurrencyCode,
			Quantity:     quantity,
			AuditFields:  contract.AuditFields,
		}
	}

	if err := s.contractRepo.SaveContract(ctx, contract, items); err != nil {
		logger.Error("Failed to save contract", slog.String("name", req.Name), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	return &contract, nil
}

// GetContractByID retrieves a tenant's contract with its line items.
func (s *contractService) GetContractByID(ctx context.Context, tenantID string, contractID string) (*domain.Contract, []domain.ContractItem, error) {
	contract, err := s.contractRepo.FindContractByID(ctx, contractID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get contract %s: %w", contractID, err)
	}
	if contract.TenantID != tenantID {
		return nil, nil, fmt.Errorf("%w: contract %s", apperrors.ErrNotFound, contractID)
	}

	items, err := s.contractRepo.FindItemsByContractID(ctx, contractID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load contract items: %w", err)
	}
	return contract, items, nil
}

// ListContracts retrieves all contracts owned by the tenant.
func (s *contractService) ListContracts(ctx context.Context, tenantID string) ([]domain.Contract, error) {
	return s.contractRepo.ListContractsByTenant(ctx, tenantID)
}
