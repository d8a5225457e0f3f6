package workbook

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

func sampleWorkbook() *types.Workbook {
	return &types.Workbook{
		Name: "Superstore",
		Datasources: []types.Datasource{
			{
				Name:    "federated.0abc",
				Caption: "Orders",
				Columns: []types.Column{
					{Name: "[Sales]", Caption: "Sales", Datatype: "real"},
					{Name: "[Order Date]", Caption: "Order Date", Datatype: "date"},
					{Name: "[Calculation_1]", Caption: "Profit Ratio", Formula: "SUM([Profit]) / SUM([Sales])"},
					{Name: "[Calculation_2]", Caption: "Adjusted Ratio", Formula: "[Profit Ratio] * [Parameters].[Adjustment]", Hidden: true},
				},
			},
			{
				Name:    "Parameters",
				Caption: "Parameters",
				Columns: []types.Column{
					{Name: "[Parameter 1]", Caption: "Adjustment", Datatype: "real", Value: "1.5", Domain: []string{"1.0", "1.5", "2.0"}},
				},
			},
		},
	}
}

func TestExtractClassifiesColumns(t *testing.T) {
	ex := Extract(sampleWorkbook())

	require.Len(t, ex.Calculations, 2)
	assert.Equal(t, []string{"Profit Ratio", "Adjusted Ratio"}, ex.Order)

	ratio := ex.Calculations["Profit Ratio"]
	require.NotNil(t, ratio)
	assert.Equal(t, "[Calculation_1]", ratio.Name)
	assert.Equal(t, "federated.0abc", ratio.Datasource)
	assert.Equal(t, []string{"Profit", "Sales"}, ratio.AllReferences)
	assert.Equal(t, types.DepthUnresolved, ratio.Depth)

	adjusted := ex.Calculations["Adjusted Ratio"]
	require.NotNil(t, adjusted)
	assert.True(t, adjusted.Hidden)
	// Parameters sentinel excluded, parameter caption survives.
	assert.Equal(t, []string{"Profit Ratio", "Adjustment"}, adjusted.AllReferences)

	assert.Contains(t, ex.SourceFields, "Sales")
	assert.Contains(t, ex.SourceFields, "Order Date")
	assert.Len(t, ex.SourceFields, 2)
}

func TestExtractParametersKeyedByCaptionAndName(t *testing.T) {
	ex := Extract(sampleWorkbook())

	assert.Equal(t, 1, ex.ParameterCount())
	assert.True(t, ex.HasParameter("Adjustment"))
	assert.True(t, ex.HasParameter("[Parameter 1]"))
	assert.False(t, ex.HasParameter("Sales"))

	p := ex.ParameterIndex["Adjustment"]
	require.NotNil(t, p)
	assert.Equal(t, "real", p.Datatype)
	assert.Equal(t, "1.5", p.Value)
	assert.Equal(t, []string{"1.0", "1.5", "2.0"}, p.Domain)
}

func TestExtractDuplicateCaptionKeepsFirst(t *testing.T) {
	wb := &types.Workbook{
		Datasources: []types.Datasource{
			{
				Name: "ds1",
				Columns: []types.Column{
					{Name: "[Calc_A]", Caption: "Margin", Formula: "[Sales] - [Cost]"},
				},
			},
			{
				Name: "ds2",
				Columns: []types.Column{
					{Name: "[Calc_B]", Caption: "Margin", Formula: "[Revenue] * 0.5"},
				},
			},
		},
	}

	ex := Extract(wb)
	require.Len(t, ex.Calculations, 1)
	assert.Equal(t, "[Calc_A]", ex.Calculations["Margin"].Name)
	require.Len(t, ex.Warnings, 1)
	assert.True(t, strings.Contains(ex.Warnings[0], "Margin"))
}

func TestExtractEmptyWorkbook(t *testing.T) {
	ex := Extract(nil)
	assert.Empty(t, ex.Calculations)
	assert.Empty(t, ex.Parameters)
	assert.Empty(t, ex.SourceFields)

	ex = Extract(&types.Workbook{})
	assert.Empty(t, ex.Calculations)
	assert.Equal(t, 0, ex.ParameterCount())
}

func TestDecodeBytes(t *testing.T) {
	doc := []byte(`{
		"name": "wb",
		"datasources": [
			{"name": "ds", "columns": [
				{"name": "[Sales]", "caption": "Sales"},
				{"name": "[Calc_1]", "caption": "Double Sales", "formula": "[Sales] * 2"}
			]}
		]
	}`)

	wb, err := DecodeBytes(doc)
	require.NoError(t, err)
	require.Len(t, wb.Datasources, 1)
	assert.True(t, wb.Datasources[0].Columns[1].IsCalculation())
	assert.False(t, wb.Datasources[0].Columns[0].IsCalculation())
}

func TestDecodeBytesInvalid(t *testing.T) {
	_, err := DecodeBytes([]byte("{not json"))
	assert.Error(t, err)
}

func TestDecodeReader(t *testing.T) {
	wb, err := Decode(strings.NewReader(`{"datasources": []}`))
	require.NoError(t, err)
	assert.Empty(t, wb.Datasources)
}
