package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormulaType controls how the output node value is combined with an item's
// base price.
type FormulaType string

const (
	// Additive formulas produce basePrice + output.
	Additive FormulaType = "ADDITIVE"
	// Multiplicative formulas produce basePrice * (1 + output).
	Multiplicative FormulaType = "MULTIPLICATIVE"
)

// NodeType is the closed set of formula node variants.
type NodeType string

const (
	NodeConstant NodeType = "CONSTANT"
	NodeFactor   NodeType = "FACTOR"
	NodeCombine  NodeType = "COMBINE"
)

// CombineOp is the aggregation applied by a Combine node to its inputs.
type CombineOp string

const (
	OpSum         CombineOp = "SUM"
	OpWeightedSum CombineOp = "WEIGHTED_SUM"
	OpProduct     CombineOp = "PRODUCT"
)

// FactorNormalize controls how a factor node's resolved value is normalized
// against its baseline observation.
type FactorNormalize string

const (
	// NormalizeNone yields the resolved value unchanged.
	NormalizeNone FactorNormalize = "NONE"
	// NormalizeRatio yields value/baseline.
	NormalizeRatio FactorNormalize = "RATIO"
	// NormalizeChange yields (value-baseline)/baseline.
	NormalizeChange FactorNormalize = "PCT_CHANGE"
)

// NodeConfig is the per-variant payload of a formula node. Which fields apply
// depends on the node type; unused fields stay zero. Validation happens at
// graph-load time, not at evaluation time.
type NodeConfig struct {
	// Constant nodes.
	Value decimal.Decimal `json:"value,omitempty"`

	// Factor nodes.
	SeriesCode   string          `json:"seriesCode,omitempty"`
	LagDays      int             `json:"lagDays,omitempty"` // business days back from the evaluation date
	Normalize    FactorNormalize `json:"normalize,omitempty"`
	BaselineDate *time.Time      `json:"baselineDate,omitempty"` // required when Normalize != NONE

	// Combine nodes. Weights are percentages keyed by input node ID and are
	// applied as weight/100.
	Operation CombineOp                  `json:"operation,omitempty"`
	Weights   map[string]decimal.Decimal `json:"weights,omitempty"`
}

// Node is one vertex of a formula graph.
type Node struct {
	ID     string     `json:"id"`
	Type   NodeType   `json:"type"`
	Config NodeConfig `json:"config"`
}

// Edge directs the value of node From into node To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FormulaGraph is a tenant-authored price adjustment methodology: a directed
// node graph with one designated output node. The subgraph reachable backward
// from Output must be acyclic.
type FormulaGraph struct {
	Nodes  []Node `json:"nodes"`
	Edges  []Edge `json:"edges"`
	Output string `json:"output"`
}

// Formula is the persisted entity wrapping a graph.
type Formula struct {
	FormulaID string       `json:"formulaID"` // Primary Key (e.g., UUID)
	TenantID  string       `json:"tenantID"`
	Name      string       `json:"name"`
	Type      FormulaType  `json:"type"`
	Graph     FormulaGraph `json:"graph"`
	AuditFields
}

// NodeByID returns the node with the given ID, if present.
func (g FormulaGraph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Inputs returns the IDs of nodes feeding directly into the given node, in
// edge-declaration order.
func (g FormulaGraph) Inputs(id string) []string {
	var in []string
	for _, e := range g.Edges {
		if e.To == id {
			in = append(in, e.From)
		}
	}
	return in
}
