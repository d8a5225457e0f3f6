package lod

import (
	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

// BuildReport parses and classifies every scoped-aggregation expression in
// the given calculations. The order slice fixes iteration order so reports
// are identical run to run.
func BuildReport(calcs map[string]*types.CalculationField, order []string, classifier *Classifier) *types.LODReport {
	if classifier == nil {
		classifier = NewClassifier(ClassifierOptions{})
	}

	report := &types.LODReport{
		ByScope:     make(map[types.ScopeType]int),
		Expressions: []*types.ScopedAggregation{},
		Patterns:    make(map[types.UsageCategory][]string),
	}

	for _, caption := range order {
		c := calcs[caption]
		for _, sa := range Parse(caption, c.Formula) {
			classifier.Classify(sa)
			report.Expressions = append(report.Expressions, sa)
			report.ByScope[sa.Scope]++
			if sa.Scope == types.ScopeFixed && len(sa.Dimensions) == 0 {
				report.FixedNoDims++
			}
			if sa.HasNestedScope {
				report.Nested++
			}
			addPattern(report, sa.Category, caption)
		}
	}
	report.Total = len(report.Expressions)
	return report
}

func addPattern(report *types.LODReport, category types.UsageCategory, caption string) {
	for _, existing := range report.Patterns[category] {
		if existing == caption {
			return
		}
	}
	report.Patterns[category] = append(report.Patterns[category], caption)
}
