// Package graph builds the calculation dependency graph and assigns depth
// levels, detecting cycles along the way.
package graph

import (
	"github.com/wjsutton/tableau-public-mcp/internal/types"
	"github.com/wjsutton/tableau-public-mcp/internal/workbook"
)

// Graph is the in-memory dependency graph over calculation fields. It is
// built fresh per analysis call and holds no state beyond the nodes
// themselves.
type Graph struct {
	Calcs map[string]*types.CalculationField
	// Order preserves extraction order so traversal and reporting are
	// deterministic run to run.
	Order []string
}

// Build resolves every raw reference on every calculation and derives the
// reverse edges. Classification precedence: parameter first (cheapest and
// most specific), then calculation by caption or internal name, then
// source field as the conservative fallback. No reference is ever left
// unclassified.
func Build(ex *workbook.Extraction) *Graph {
	g := &Graph{Calcs: ex.Calculations, Order: ex.Order}

	// Calculations are referenced by caption or by internal name; index
	// both up front instead of scanning per reference.
	lookup := make(map[string]string, len(ex.Calculations)*2)
	for caption, c := range ex.Calculations {
		lookup[caption] = caption
		if c.Name != "" {
			lookup[c.Name] = caption
		}
	}

	for _, caption := range g.Order {
		c := g.Calcs[caption]
		for _, ref := range c.AllReferences {
			switch {
			case ex.HasParameter(ref):
				p := ex.ParameterIndex[ref]
				name := p.Caption
				if name == "" {
					name = ref
				}
				c.DependsOnParams = appendUnique(c.DependsOnParams, name)
			case lookup[ref] != "":
				// Self references stay in the graph; the cycle
				// detector reports them as one-node cycles.
				c.DependsOnCalcs = appendUnique(c.DependsOnCalcs, lookup[ref])
			default:
				c.DependsOnSource = appendUnique(c.DependsOnSource, ref)
			}
		}
	}

	g.buildReverseEdges()
	return g
}

// buildReverseEdges derives "used by" edges from the forward edges. Pure
// structural inversion.
func (g *Graph) buildReverseEdges() {
	for _, caption := range g.Order {
		c := g.Calcs[caption]
		for _, dep := range c.DependsOnCalcs {
			target := g.Calcs[dep]
			if target == nil {
				continue
			}
			target.UsedBy = appendUnique(target.UsedBy, caption)
		}
	}
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
