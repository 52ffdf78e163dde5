package dto

import (
	"time"

	"github.com/Numraio/cpam-sub003/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NodeConfigDTO mirrors domain.NodeConfig for request binding.
type NodeConfigDTO struct {
	Value        decimal.Decimal            `json:"value,omitempty"`
	SeriesCode   string                     `json:"seriesCode,omitempty"`
	LagDays      int                        `json:"lagDays,omitempty"`
	Normalize    string                     `json:"normalize,omitempty" binding:"omitempty,oneof=NONE RATIO PCT_CHANGE"`
	BaselineDate *time.Time                 `json:"baselineDate,omitempty"`
	Operation    string                     `json:"operation,omitempty" binding:"omitempty,oneof=SUM WEIGHTED_SUM PRODUCT"`
	Weights      map[string]decimal.Decimal `json:"weights,omitempty"`
}

// NodeDTO is one vertex of a submitted formula graph.
type NodeDTO struct {
	ID     string        `json:"id" binding:"required"`
	Type   string        `json:"type" binding:"required,oneof=CONSTANT FACTOR COMBINE"`
	Config NodeConfigDTO `json:"config"`
}

// EdgeDTO directs one node's value into another.
type EdgeDTO struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// CreateFormulaRequest defines the structure for authoring a new formula.
type CreateFormulaRequest struct {
	Name   string    `json:"name" binding:"required"`
	Type   string    `json:"type" binding:"required,oneof=ADDITIVE MULTIPLICATIVE"`
	Nodes  []NodeDTO `json:"nodes" binding:"required,min=1,dive"`
	Edges  []EdgeDTO `json:"edges" binding:"dive"`
	Output string    `json:"output" binding:"required"`
}

// ToGraph converts the request payload into a domain graph.
func (r CreateFormulaRequest) ToGraph() domain.FormulaGraph {
	nodes := make([]domain.Node, len(r.Nodes))
	for i, n := range r.Nodes {
		nodes[i] = domain.Node{
			ID:   n.ID,
			Type: domain.NodeType(n.Type),
			Config: domain.NodeConfig{
				Value:        n.Config.Value,
				SeriesCode:   n.Config.SeriesCode,
				LagDays:      n.Config.LagDays,
				Normalize:    domain.FactorNormalize(n.Config.Normalize),
				BaselineDate: n.Config.BaselineDate,
				Operation:    domain.CombineOp(n.Config.Operation),
				Weights:      n.Config.Weights,
			},
		}
	}
	edges := make([]domain.Edge, len(r.Edges))
	for i, e := range r.Edges {
		edges[i] = domain.Edge{From: e.From, To: e.To}
	}
	return domain.FormulaGraph{Nodes: nodes, Edges: edges, Output: r.Output}
}

// FormulaResponse defines the structure for API responses containing formula details.
type FormulaResponse struct {
	FormulaID string              `json:"formulaID"`
	TenantID  string              `json:"tenantID"`
	Name      string              `json:"name"`
	Type      string              `json:"type"`
	Graph     domain.FormulaGraph `json:"graph"`
	CreatedAt time.Time           `json:"createdAt"`
	CreatedBy string              `json:"createdBy"`
}

// ToFormulaResponse converts a domain.Formula to FormulaResponse DTO
func ToFormulaResponse(f *domain.Formula) FormulaResponse {
	return FormulaResponse{
		FormulaID: f.FormulaID,
		TenantID:  f.TenantID,
		Name:      f.Name,
		Type:      string(f.Type),
		Graph:     f.Graph,
		CreatedAt: f.CreatedAt,
		CreatedBy: f.CreatedBy,
	}
}

// ToListFormulaResponse converts domain formulas to DTOs.
func ToListFormulaResponse(formulas []domain.Formula) []FormulaResponse {
	responses := make([]FormulaResponse, len(formulas))
	for i := range formulas {
		responses[i] = ToFormulaResponse(&formulas[i])
	}
	return responses
}
