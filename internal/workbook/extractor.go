// Package workbook decodes workbook tree documents and separates their
// columns into calculated fields, source fields and named parameters.
package workbook

import (
	"fmt"

	"github.com/wjsutton/tableau-public-mcp/internal/formula"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

// Extraction is the classified view of a workbook's datasource tree.
type Extraction struct {
	// Calculations is keyed by display caption, the calculation identity
	// key. Order preserves first-seen caption order so downstream passes
	// iterate deterministically.
	Calculations map[string]*types.CalculationField
	Order        []string

	// Parameters holds one record per declared parameter. ParameterIndex
	// maps both the caption and the internal name onto the record, since
	// formulas may reference either spelling.
	Parameters     []*types.Parameter
	ParameterIndex map[string]*types.Parameter

	// SourceFields is keyed by display name.
	SourceFields map[string]*types.SourceField

	// Warnings records non-fatal oddities, e.g. duplicate captions.
	Warnings []string
}

// ParameterCount returns the number of distinct parameters.
func (e *Extraction) ParameterCount() int {
	return len(e.Parameters)
}

// HasParameter reports whether a reference token names a parameter, by
// caption or internal name.
func (e *Extraction) HasParameter(ref string) bool {
	_, ok := e.ParameterIndex[ref]
	return ok
}

// Extract walks the datasource tree once and classifies every column.
// Columns with a formula become calculations; columns inside the reserved
// Parameters datasource become parameters; everything else is a source
// field. Extraction never fails: an empty or nil workbook produces an
// empty, valid result.
func Extract(wb *types.Workbook) *Extraction {
	ex := &Extraction{
		Calculations:   make(map[string]*types.CalculationField),
		ParameterIndex: make(map[string]*types.Parameter),
		SourceFields:   make(map[string]*types.SourceField),
	}
	if wb == nil {
		return ex
	}

	for i := range wb.Datasources {
		ds := &wb.Datasources[i]
		if ds.Name == types.ParametersDatasource {
			ex.extractParameters(ds)
			continue
		}
		ex.extractFields(ds)
	}
	return ex
}

func (ex *Extraction) extractParameters(ds *types.Datasource) {
	for i := range ds.Columns {
		col := &ds.Columns[i]
		p := &types.Parameter{
			Name:     col.Name,
			Caption:  col.Caption,
			Datatype: col.Datatype,
			Value:    col.Value,
			Domain:   col.Domain,
		}
		ex.Parameters = append(ex.Parameters, p)
		if p.Caption != "" {
			ex.ParameterIndex[p.Caption] = p
		}
		if p.Name != "" {
			ex.ParameterIndex[p.Name] = p
		}
	}
}

func (ex *Extraction) extractFields(ds *types.Datasource) {
	for i := range ds.Columns {
		col := &ds.Columns[i]
		if !col.IsCalculation() {
			name := col.DisplayName()
			if _, ok := ex.SourceFields[name]; !ok {
				ex.SourceFields[name] = &types.SourceField{
					Name:       col.Name,
					Caption:    col.Caption,
					Datasource: ds.Name,
				}
			}
			continue
		}

		caption := col.DisplayName()
		if _, ok := ex.Calculations[caption]; ok {
			// Duplicate captions across datasources are kept
			// first-wins; the collision is reported instead of
			// silently replacing the earlier field.
			ex.Warnings = append(ex.Warnings,
				fmt.Sprintf("duplicate calculation caption %q in datasource %q; keeping the first occurrence", caption, ds.Name))
			continue
		}

		calc := &types.CalculationField{
			Name:          col.Name,
			Caption:       caption,
			Formula:       col.Formula,
			Datasource:    ds.Name,
			Hidden:        col.Hidden,
			AllReferences: formula.ExtractReferences(col.Formula),
			Depth:         types.DepthUnresolved,
		}
		ex.Calculations[caption] = calc
		ex.Order = append(ex.Order, caption)
	}
}
