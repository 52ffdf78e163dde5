package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/Numraio/cpam-sub003/internal/models"
)

// ToModelFormula converts a domain Formula to a model Formula, serializing the
// graph to its JSONB representation.
func ToModelFormula(d domain.Formula) (models.Formula, error) {
	graph, err := json.Marshal(d.Graph)
	if err != nil {
		return models.Formula{}, fmt.Errorf("failed to serialize formula graph: %w", err)
	}
	return models.Formula{
		FormulaID:   d.FormulaID,
		TenantID:    d.TenantID,
		Name:        d.Name,
		Type:        string(d.Type),
		Graph:       graph,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainFormula converts a model Formula to a domain Formula, deserializing
// the stored graph document.
func ToDomainFormula(m models.Formula) (domain.Formula, error) {
	var graph domain.FormulaGraph
	if err := json.Unmarshal(m.Graph, &graph); err != nil {
		return domain.Formula{}, fmt.Errorf("failed to deserialize formula graph: %w", err)
	}
	return domain.Formula{
		FormulaID:   m.FormulaID,
		TenantID:    m.TenantID,
		Name:        m.Name,
		Type:        domain.FormulaType(m.Type),
		Graph:       graph,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}, nil
}
