package graph

import (
	"github.com/wjsutton/tableau-public-mcp/internal/types"
	"github.com/wjsutton/tableau-public-mcp/internal/workbook"
)

// Summarize produces the headline counts for an analyzed graph. A node
// with no calc dependencies and no dependents counts as both root and
// leaf; intermediates are the nodes that are neither.
func Summarize(ex *workbook.Extraction, g *Graph, cycles *CycleResult) types.Summary {
	s := types.Summary{
		Calculations: len(g.Calcs),
		Parameters:   ex.ParameterCount(),
		SourceFields: len(ex.SourceFields),
		MaxDepth:     cycles.MaxDepth,
		Cycles:       len(cycles.Cycles),
	}
	for _, caption := range g.Order {
		c := g.Calcs[caption]
		if c.IsRoot() {
			s.Roots++
		}
		if c.IsLeaf() {
			s.Leaves++
		}
		if !c.IsRoot() && !c.IsLeaf() {
			s.Intermediates++
		}
	}
	return s
}
