package repositories

import (
	"context"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
)

// FormulaReader defines read operations for formula data
type FormulaReader interface {
	// FindFormulaByID retrieves a formula by its unique identifier.
	FindFormulaByID(ctx context.Context, formulaID string) (*domain.Formula, error)

	// ListFormulasByTenant retrieves all formulas owned by a tenant.
	ListFormulasByTenant(ctx context.Context, tenantID string) ([]domain.Formula, error)
}

// FormulaWriter defines write operations for formula data
type FormulaWriter interface {
	// SaveFormula persists a new formula with its graph.
	SaveFormula(ctx context.Context, formula domain.Formula) error
}

// FormulaRepositoryFacade combines all formula-related repository interfaces
type FormulaRepositoryFacade interface {
	FormulaReader
	FormulaWriter
}
