package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portsrepo "github.com/Numraio/cpam-sub003/internal/core/ports/repositories"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
	"github.com/Numraio/cpam-sub003/internal/dto"
	"github.com/Numraio/cpam-sub003/internal/middleware"
)

// formulaService provides formula authoring with load-time graph validation.
type formulaService struct {
	formulaRepo portsrepo.FormulaRepositoryFacade
	evaluator   *Evaluator
}

// NewFormulaService creates a new formula service.
func NewFormulaService(formulaRepo portsrepo.FormulaRepositoryFacade, evaluator *Evaluator) portssvc.FormulaSvcFacade {
	return &formulaService{
		formulaRepo: formulaRepo,
		evaluator:   evaluator,
	}
}

// Ensure formulaService implements the portssvc.FormulaSvcFacade interface
var _ portssvc.FormulaSvcFacade = (*formulaService)(nil)

// CreateFormula validates the submitted graph and persists it. Structural
// problems are rejected here so no batch can ever reference a broken graph.
func (s *formulaService) CreateFormula(ctx context.Context, tenantID string, req dto.CreateFormulaRequest, creatorUserID string) (*domain.Formula, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	graph := req.ToGraph()
	if err := s.evaluator.ValidateGraph(graph); err != nil {
		logger.Warn("Rejected structurally invalid formula graph",
			slog.String("name", req.Name),
			slog.String("error", err.Error()))
		return nil, err
	}

	now := time.Now().UTC()
	formula := domain.Formula{
		FormulaID: uuid.NewString(),
		TenantID:  tenantID,
		Name:      req.Name,
		Type:      domain.FormulaType(req.Type),
		Graph:     graph,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.formulaRepo.SaveFormula(ctx, formula); err != nil {
		logger.Error("Failed to save formula", slog.String("name", req.Name), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create formula: %w", err)
	}

	return &formula, nil
}

// GetFormulaByID retrieves a tenant's formula by ID.
func (s *formulaService) GetFormulaByID(ctx context.Context, tenantID string, formulaID string) (*domain.Formula, error) {
	formula, err := s.formulaRepo.FindFormulaByID(ctx, formulaID)
	if err != nil {
		return nil, fmt.Errorf("failed to get formula %s: %w", formulaID, err)
	}
	if formula.TenantID != tenantID {
		return nil, fmt.Errorf("%w: formula %s", apperrors.ErrNotFound, formulaID)
	}
	return formula, nil
}

// ListFormulas retrieves all formulas owned by the tenant.
func (s *formulaService) ListFormulas(ctx context.Context, tenantID string) ([]domain.Formula, error) {
	return s.formulaRepo.ListFormulasByTenant(ctx, tenantID)
}
