package services

import (
	"context"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/dto"
)

// FormulaReaderSvc defines read operations for formulas
type FormulaReaderSvc interface {
	// GetFormulaByID retrieves a tenant's formula by ID.
	GetFormulaByID(ctx context.Context, tenantID string, formulaID string) (*domain.Formula, error)

	// ListFormulas retrieves all formulas owned by a tenant.
	ListFormulas(ctx context.Context, tenantID string) ([]domain.Formula, error)
}

// FormulaWriterSvc defines write operations for formulas
type FormulaWriterSvc interface {
	// CreateFormula validates the graph structurally and persists it.
	// Structurally invalid graphs are rejected here, before any batch can
	// reference them.
	CreateFormula(ctx context.Context, tenantID string, req dto.CreateFormulaRequest, creatorUserID string) (*domain.Formula, error)
}

// FormulaSvcFacade combines all formula-related service interfaces
type FormulaSvcFacade interface {
	FormulaReaderSvc
	FormulaWriterSvc
}
