// Package analyzer runs the full calculation-graph analysis pipeline:
// extraction, dependency resolution, cycle detection with depth
// assignment, scoped-aggregation parsing and tree rendering.
package analyzer

import (
	"github.com/wjsutton/tableau-public-mcp/internal/graph"
	"github.com/wjsutton/tableau-public-mcp/internal/lod"
	"github.com/wjsutton/tableau-public-mcp/internal/render"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
	"github.com/wjsutton/tableau-public-mcp/internal/workbook"
)

// Options configures one Analyzer.
type Options struct {
	Classifier lod.ClassifierOptions
	Render     render.Options
}

// Analyzer is a reusable, stateless pipeline. Every Analyze call builds a
// fresh graph from its input tree and discards it on return, so one
// Analyzer is safe for concurrent callers.
type Analyzer struct {
	classifier *lod.Classifier
	renderer   *render.Renderer
}

// New creates an analyzer with the given options.
func New(opts Options) *Analyzer {
	return &Analyzer{
		classifier: lod.NewClassifier(opts.Classifier),
		renderer:   render.NewRenderer(opts.Render),
	}
}

// Analyze is a pure function from workbook tree to report. It cannot fail
// on malformed content: ambiguous input falls back to the most
// conservative classification and an empty tree yields a valid empty
// report.
func (a *Analyzer) Analyze(wb *types.Workbook) *types.Report {
	ex := workbook.Extract(wb)
	g := graph.Build(ex)
	cycles := g.AssignDepths()

	summary := graph.Summarize(ex, g, cycles)
	if wb != nil {
		summary.Workbook = wb.Name
	}

	calcs := make([]*types.CalculationField, 0, len(g.Order))
	for _, caption := range g.Order {
		calcs = append(calcs, g.Calcs[caption])
	}

	return &types.Report{
		Summary:      summary,
		Calculations: calcs,
		Cycles:       cycles.Cycles,
		LOD:          lod.BuildReport(g.Calcs, g.Order, a.classifier),
		Tree:         a.renderer.Render(g),
		Warnings:     ex.Warnings,
		Fingerprint:  Fingerprint(wb),
	}
}

// ExtractFields runs extraction only, for callers that want the field
// listing without graph analysis. It needs no analyzer configuration.
func ExtractFields(wb *types.Workbook) *workbook.Extraction {
	return workbook.Extract(wb)
}
