package analyzer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

func superstoreTree() *types.Workbook {
	return &types.Workbook{
		Name: "Superstore",
		Datasources: []types.Datasource{
			{
				Name: "federated.1",
				Columns: []types.Column{
					{Name: "[Sales]", Caption: "Sales"},
					{Name: "[Profit]", Caption: "Profit"},
					{Name: "[Order Date]", Caption: "Order Date"},
					{Name: "[Customer Name]", Caption: "Customer"},
					{Name: "[Calc_1]", Caption: "Profit Ratio", Formula: "SUM([Profit]) / SUM([Sales])"},
					{Name: "[Calc_2]", Caption: "Ratio Flag", Formula: "IIF([Profit Ratio] > [Parameters].[Target], 1, 0)"},
					{Name: "[Calc_3]", Caption: "First Order", Formula: "{FIXED [Customer] : MIN([Order Date])}"},
					{Name: "[Calc_4]", Caption: "Pct of Total", Formula: "SUM([Sales]) / {FIXED : SUM([Sales])}"},
				},
			},
			{
				Name: "Parameters",
				Columns: []types.Column{
					{Name: "[Parameter 1]", Caption: "Target", Datatype: "real", Value: "0.1"},
				},
			},
		},
	}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	report := New(Options{}).Analyze(superstoreTree())

	assert.Equal(t, "Superstore", report.Summary.Workbook)
	assert.Equal(t, 4, report.Summary.Calculations)
	assert.Equal(t, 1, report.Summary.Parameters)
	assert.Equal(t, 4, report.Summary.SourceFields)
	assert.Equal(t, 1, report.Summary.MaxDepth)
	assert.Equal(t, 0, report.Summary.Cycles)
	assert.Empty(t, report.Cycles)

	require.Len(t, report.Calculations, 4)
	byCaption := map[string]*types.CalculationField{}
	for _, c := range report.Calculations {
		byCaption[c.Caption] = c
	}

	flag := byCaption["Ratio Flag"]
	require.NotNil(t, flag)
	assert.Equal(t, []string{"Profit Ratio"}, flag.DependsOnCalcs)
	assert.Equal(t, []string{"Target"}, flag.DependsOnParams)
	assert.Equal(t, 1, flag.Depth)

	require.NotNil(t, report.LOD)
	assert.Equal(t, 2, report.LOD.Total)
	assert.Equal(t, 1, report.LOD.FixedNoDims)
	assert.Equal(t, []string{"First Order"}, report.LOD.Patterns[types.CategoryEntityCohort])
	assert.Equal(t, []string{"Pct of Total"}, report.LOD.Patterns[types.CategoryScopeWideTotal])

	assert.NotEmpty(t, report.Tree)
	assert.NotEmpty(t, report.Fingerprint)
}

func TestAnalyzeIdempotent(t *testing.T) {
	a := New(Options{})
	first := a.Analyze(superstoreTree())
	second := a.Analyze(superstoreTree())

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Cycles, second.Cycles)
	assert.Equal(t, first.Tree, second.Tree)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	require.Equal(t, len(first.Calculations), len(second.Calculations))
	for i := range first.Calculations {
		assert.Equal(t, first.Calculations[i].Depth, second.Calculations[i].Depth)
		assert.Equal(t, first.Calculations[i].DependsOnCalcs, second.Calculations[i].DependsOnCalcs)
	}
}

func TestAnalyzeEmptyTreeIsValid(t *testing.T) {
	report := New(Options{}).Analyze(&types.Workbook{})
	assert.Equal(t, 0, report.Summary.Calculations)
	assert.Empty(t, report.Calculations)
	assert.Empty(t, report.Cycles)
	assert.Equal(t, 0, report.LOD.Total)

	report = New(Options{}).Analyze(nil)
	assert.Equal(t, 0, report.Summary.Calculations)
	assert.Empty(t, report.Fingerprint)
}

func TestAnalyzeConcurrentCallersAreIndependent(t *testing.T) {
	a := New(Options{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report := a.Analyze(superstoreTree())
			assert.Equal(t, 4, report.Summary.Calculations)
		}()
	}
	wg.Wait()
}

func TestExtractFieldsWithoutAnalyzer(t *testing.T) {
	ex := ExtractFields(superstoreTree())

	assert.Len(t, ex.Order, 4)
	assert.Len(t, ex.Parameters, 1)
	assert.Len(t, ex.SourceFields, 4)
	assert.Empty(t, ex.Warnings)
	require.Contains(t, ex.Calculations, "Profit Ratio")
	assert.Equal(t, "[Calc_1]", ex.Calculations["Profit Ratio"].Name)
}

func TestFingerprintStability(t *testing.T) {
	fp1 := Fingerprint(superstoreTree())
	fp2 := Fingerprint(superstoreTree())
	assert.Equal(t, fp1, fp2)

	changed := superstoreTree()
	changed.Datasources[0].Columns[0].Caption = "Revenue"
	assert.NotEqual(t, fp1, Fingerprint(changed))
}
