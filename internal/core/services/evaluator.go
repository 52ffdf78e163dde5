package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Numraio/cpam-sub003/internal/apperrors"
	"github.com/Numraio/cpam-sub003/internal/core/calendar"
	"github.com/Numraio/cpam-sub003/internal/core/domain"
	portssvc "github.com/Numraio/cpam-sub003/internal/core/ports/services"
)

var (
	ErrOutputMissing   = errors.New("formula graph has no output node")
	ErrGraphCycle      = errors.New("formula graph contains a cycle")
	ErrUnknownNode     = errors.New("edge references an unknown node")
	ErrBadNodeConfig   = errors.New("invalid node configuration")
	ErrZeroBaseline    = errors.New("factor baseline observation is zero")
	ErrUnknownNodeType = errors.New("unknown node type")
)

var oneHundred = decimal.NewFromInt(100)

// EvalRequest carries everything one graph evaluation needs. Evaluation is
// pure: all dependencies arrive as arguments, so the evaluator is safe for
// concurrent use.
type EvalRequest struct {
	TenantID     string
	Graph        domain.FormulaGraph
	FormulaType  domain.FormulaType
	BasePrice    decimal.Decimal
	BaseCurrency string
	AsOfDate     time.Time
	Policy       domain.ResolutionPolicy
}

// EvalResult is the adjusted price plus the per-node contribution ledger in
// topological order. The ledger is reproducible byte-for-byte from the same
// graph and inputs; all arithmetic is fixed-precision decimal.
type EvalResult struct {
	AdjustedPrice decimal.Decimal
	Contributions []domain.NodeContribution
}

// Evaluator executes tenant-authored formula graphs against resolved
// observations and a base price.
type Evaluator struct {
	resolver portssvc.ObservationResolverSvc
	cal      *calendar.Calendar
}

// NewEvaluator creates an Evaluator resolving factor series through the given
// resolver and lagging dates on the given business calendar.
func NewEvaluator(resolver portssvc.ObservationResolverSvc, cal *calendar.Calendar) *Evaluator {
	return &Evaluator{
		resolver: resolver,
		cal:      cal,
	}
}

// ValidateGraph checks a formula graph structurally: the output node exists,
// every edge endpoint is a known node, node configs match their variant, and
// the subgraph reachable backward from the output is acyclic. All violations
// wrap apperrors.ErrStructural.
func (e *Evaluator) ValidateGraph(g domain.FormulaGraph) error {
	if _, ok := g.NodeByID(g.Output); !ok {
		return fmt.Errorf("%w: %w: %q", apperrors.ErrStructural, ErrOutputMissing, g.Output)
	}

	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node ID %q", apperrors.ErrStructural, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, edge := range g.Edges {
		if _, ok := ids[edge.From]; !ok {
			return fmt.Errorf("%w: %w: %q", apperrors.ErrStructural, ErrUnknownNode, edge.From)
		}
		if _, ok := ids[edge.To]; !ok {
			return fmt.Errorf("%w: %w: %q", apperrors.ErrStructural, ErrUnknownNode, edge.To)
		}
	}

	for _, n := range g.Nodes {
		if err := validateNodeConfig(g, n); err != nil {
			return fmt.Errorf("%w: %w: node %q: %v", apperrors.ErrStructural, ErrBadNodeConfig, n.ID, err)
		}
	}

	if _, err := e.topoOrder(g); err != nil {
		return err
	}
	return nil
}

func validateNodeConfig(g domain.FormulaGraph, n domain.Node) error {
	inputs := g.Inputs(n.ID)
	switch n.Type {
	case domain.NodeConstant:
		if len(inputs) > 0 {
			return fmt.Errorf("constant node cannot have inputs")
		}
	case domain.NodeFactor:
		if len(inputs) > 0 {
			return fmt.Errorf("factor node cannot have inputs")
		}
		if n.Config.SeriesCode == "" {
			return fmt.Errorf("factor node requires a series code")
		}
		if n.Config.LagDays < 0 {
			return fmt.Errorf("factor lag must be non-negative")
		}
		switch n.Config.Normalize {
		case "", domain.NormalizeNone:
		case domain.NormalizeRatio, domain.NormalizeChange:
			if n.Config.BaselineDate == nil {
				return fmt.Errorf("normalization %s requires a baseline date", n.Config.Normalize)
			}
		default:
			return fmt.Errorf("unknown normalization %q", n.Config.Normalize)
		}
	case domain.NodeCombine:
		if len(inputs) == 0 {
			return fmt.Errorf("combine node requires at least one input")
		}
		switch n.Config.Operation {
		case domain.OpSum, domain.OpProduct:
		case domain.OpWeightedSum:
			for _, in := range inputs {
				if _, ok := n.Config.Weights[in]; !ok {
					return fmt.Errorf("weighted sum is missing a weight for input %q", in)
				}
			}
		default:
			return fmt.Errorf("unknown combine operation %q", n.Config.Operation)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
	}
	return nil
}

// topoOrder returns the ancestors of the output node (output included) in a
// deterministic topological order: nodes become ready once all their inputs
// are placed, ties broken by declaration order. A node that never becomes
// ready sits on a cycle.
func (e *Evaluator) topoOrder(g domain.FormulaGraph) ([]domain.Node, error) {
	relevant := map[string]bool{}
	stack := []string{g.Output}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if relevant[id] {
			continue
		}
		relevant[id] = true
		stack = append(stack, g.Inputs(id)...)
	}

	placed := map[string]bool{}
	order := make([]domain.Node, 0, len(relevant))
	for len(order) < len(relevant) {
		progressed := false
		for _, n := range g.Nodes {
			if !relevant[n.ID] || placed[n.ID] {
				continue
			}
			ready := true
			for _, in := range g.Inputs(n.ID) {
				if !placed[in] {
					ready = false
					break
				}
			}
			if ready {
				placed[n.ID] = true
				order = append(order, n)
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrStructural, ErrGraphCycle)
		}
	}
	return order, nil
}

// Evaluate runs the graph against resolved observations and combines the
// output node's value with the base price per the formula type. Missing
// factor data is a hard failure, never a zero-substitution.
func (e *Evaluator) Evaluate(ctx context.Context, req EvalRequest) (*EvalResult, error) {
	order, err := e.topoOrder(req.Graph)
	if err != nil {
		return nil, err
	}
	if _, ok := req.Graph.NodeByID(req.Graph.Output); !ok {
		return nil, fmt.Errorf("%w: %w: %q", apperrors.ErrStructural, ErrOutputMissing, req.Graph.Output)
	}

	values := make(map[string]decimal.Decimal, len(order))
	contributions := make([]domain.NodeContribution, 0, len(order))
	running := decimal.Zero

	for _, n := range order {
		value, err := e.evalNode(ctx, req, n, values)
		if err != nil {
			return nil, err
		}
		values[n.ID] = value
		running = running.Add(value)
		contributions = append(contributions, domain.NodeContribution{
			NodeID:       n.ID,
			Contribution: value,
			RunningTotal: running,
		})
	}

	output := values[req.Graph.Output]
	var adjusted decimal.Decimal
	switch req.FormulaType {
	case domain.Additive:
		adjusted = req.BasePrice.Add(output)
	case domain.Multiplicative:
		adjusted = req.BasePrice.Mul(decimal.NewFromInt(1).Add(output))
	default:
		return nil, fmt.Errorf("%w: unknown formula type %q", apperrors.ErrStructural, req.FormulaType)
	}

	return &EvalResult{
		AdjustedPrice: adjusted,
		Contributions: contributions,
	}, nil
}

func (e *Evaluator) evalNode(ctx context.Context, req EvalRequest, n domain.Node, values map[string]decimal.Decimal) (decimal.Decimal, error) {
	switch n.Type {
	case domain.NodeConstant:
		return n.Config.Value, nil

	case domain.NodeFactor:
		return e.evalFactor(ctx, req, n)

	case domain.NodeCombine:
		inputs := req.Graph.Inputs(n.ID)
		switch n.Config.Operation {
		case domain.OpSum:
			total := decimal.Zero
			for _, in := range inputs {
				total = total.Add(values[in])
			}
			return total, nil
		case domain.OpWeightedSum:
			total := decimal.Zero
			for _, in := range inputs {
				weight := n.Config.Weights[in]
				total = total.Add(values[in].Mul(weight).Div(oneHundred))
			}
			return total, nil
		case domain.OpProduct:
			total := decimal.NewFromInt(1)
			for _, in := range inputs {
				total = total.Mul(values[in])
			}
			return total, nil
		default:
			return decimal.Zero, fmt.Errorf("%w: %w: node %q", apperrors.ErrStructural, ErrBadNodeConfig, n.ID)
		}

	default:
		return decimal.Zero, fmt.Errorf("%w: %w: %q", apperrors.ErrStructural, ErrUnknownNodeType, n.Type)
	}
}

func (e *Evaluator) evalFactor(ctx context.Context, req EvalRequest, n domain.Node) (decimal.Decimal, error) {
	date := req.AsOfDate
	if n.Config.LagDays > 0 {
		date = e.cal.AddBusinessDays(date, -n.Config.LagDays)
	}

	obs, err := e.resolver.Resolve(ctx, req.TenantID, n.Config.SeriesCode, date, req.Policy)
	if err != nil {
		return decimal.Zero, fmt.Errorf("factor node %q (series %s, date %s): %w", n.ID, n.Config.SeriesCode, date.Format("2006-01-02"), err)
	}
	value := obs.Value

	if n.Config.Normalize == "" || n.Config.Normalize == domain.NormalizeNone {
		return value, nil
	}

	baseline, err := e.resolver.ResolveLatestAtOrBefore(ctx, req.TenantID, n.Config.SeriesCode, *n.Config.BaselineDate, req.Policy)
	if err != nil {
		return decimal.Zero, fmt.Errorf("factor node %q baseline (series %s, at or before %s): %w", n.ID, n.Config.SeriesCode, n.Config.BaselineDate.Format("2006-01-02"), err)
	}
	if baseline.Value.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %w: series %s", apperrors.ErrDataUnavailable, ErrZeroBaseline, n.Config.SeriesCode)
	}

	switch n.Config.Normalize {
	case domain.NormalizeRatio:
		return value.Div(baseline.Value), nil
	case domain.NormalizeChange:
		return value.Sub(baseline.Value).Div(baseline.Value), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %w: node %q", apperrors.ErrStructural, ErrBadNodeConfig, n.ID)
	}
}
