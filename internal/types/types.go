// Package types defines the workbook input tree and the analysis data model
// shared by all analyzer components.
package types

// ParametersDatasource is the reserved datasource name that holds parameter
// columns instead of calculated fields.
const ParametersDatasource = "Parameters"

// Workbook is the decoded document tree handed over by the upstream
// deserialization layer. Retrieval, container unpacking and XML decoding
// happen before this point; the analyzer only ever sees this shape.
type Workbook struct {
	Name        string       `json:"name,omitempty"`
	Datasources []Datasource `json:"datasources"`
}

// Datasource is one data connection inside a workbook.
type Datasource struct {
	Name    string   `json:"name"`
	Caption string   `json:"caption,omitempty"`
	Columns []Column `json:"columns"`
}

// Column is a single field declaration. A column carrying a formula is a
// calculated field; one without is a source field. Parameter columns only
// appear inside the reserved Parameters datasource.
type Column struct {
	Name     string   `json:"name"`
	Caption  string   `json:"caption,omitempty"`
	Datatype string   `json:"datatype,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Formula  string   `json:"formula,omitempty"`
	Value    string   `json:"value,omitempty"`
	Domain   []string `json:"domain,omitempty"`
}

// IsCalculation reports whether the column declares a formula.
func (c *Column) IsCalculation() bool {
	return c.Formula != ""
}

// DisplayName returns the caption when present, falling back to the
// internal name.
func (c *Column) DisplayName() string {
	if c.Caption != "" {
		return c.Caption
	}
	return c.Name
}

// DepthUnresolved marks a calculation whose depth has not been assigned yet.
const DepthUnresolved = -1

// CalculationField is a formula-backed field plus everything the analyzer
// learns about it. Identity key is the display caption.
type CalculationField struct {
	Name       string `json:"name"`
	Caption    string `json:"caption"`
	Formula    string `json:"formula"`
	Datasource string `json:"datasource"`
	Hidden     bool   `json:"hidden,omitempty"`

	// AllReferences holds the raw bracket tokens extracted from the
	// formula, in first-seen order.
	AllReferences []string `json:"all_references"`

	// Resolved dependency sets. Calculations are recorded by caption,
	// parameters by caption, source fields by the token as written.
	DependsOnCalcs  []string `json:"depends_on_calcs"`
	DependsOnSource []string `json:"depends_on_source"`
	DependsOnParams []string `json:"depends_on_params"`

	// UsedBy lists the captions of calculations that depend on this one.
	UsedBy []string `json:"used_by"`

	// Depth is the longest calculation-to-calculation chain ending here.
	// -1 until assigned; circular nodes carry 0 as a sentinel.
	Depth      int  `json:"depth"`
	IsCircular bool `json:"is_circular"`
}

// IsRoot reports whether the calculation depends on no other calculation.
func (c *CalculationField) IsRoot() bool {
	return len(c.DependsOnCalcs) == 0
}

// IsLeaf reports whether no other calculation depends on this one.
func (c *CalculationField) IsLeaf() bool {
	return len(c.UsedBy) == 0
}

// Parameter is a user-settable input declared in the reserved Parameters
// datasource.
type Parameter struct {
	Name     string   `json:"name"`
	Caption  string   `json:"caption"`
	Datatype string   `json:"datatype,omitempty"`
	Value    string   `json:"value,omitempty"`
	Domain   []string `json:"domain,omitempty"`
}

// SourceField is a column backed directly by underlying data.
type SourceField struct {
	Name       string `json:"name"`
	Caption    string `json:"caption,omitempty"`
	Datasource string `json:"datasource"`
}

// ScopeType identifies the three scoped-aggregation kinds.
type ScopeType string

const (
	// ScopeFixed computes at a fixed set of dimensions, or the whole
	// table when none are given.
	ScopeFixed ScopeType = "FIXED"
	// ScopeInclude adds dimensions to the view grouping (finer grain).
	ScopeInclude ScopeType = "INCLUDE"
	// ScopeExclude removes dimensions from the view grouping (coarser grain).
	ScopeExclude ScopeType = "EXCLUDE"
)

// UsageCategory is the best-effort classification of a scoped-aggregation
// expression into a recognizable usage pattern.
type UsageCategory string

const (
	CategoryScopeWideTotal  UsageCategory = "scope_wide_total"
	CategoryEntityCohort    UsageCategory = "entity_cohort"
	CategoryCumulativeTotal UsageCategory = "cumulative_total"
	CategoryOther           UsageCategory = "other"
)

// ScopedAggregation is one parsed {FIXED|INCLUDE|EXCLUDE ...} block.
type ScopedAggregation struct {
	Calculation string    `json:"calculation"`
	Scope       ScopeType `json:"scope"`
	Dimensions  []string  `json:"dimensions"`
	// Aggregation is the recognized function name opening the aggregated
	// expression, or empty when none matched.
	Aggregation       string               `json:"aggregation,omitempty"`
	Expression        string               `json:"expression"`
	HasNestedScope    bool                 `json:"has_nested_scope"`
	NestedExpressions []*ScopedAggregation `json:"nested_expressions,omitempty"`
	Category          UsageCategory        `json:"category"`
	Explanation       string               `json:"explanation,omitempty"`
}

// LODReport summarizes every scoped-aggregation expression found in the
// workbook's calculations.
type LODReport struct {
	Total       int                        `json:"total"`
	ByScope     map[ScopeType]int          `json:"by_scope"`
	FixedNoDims int                        `json:"fixed_no_dimensions"`
	Nested      int                        `json:"nested"`
	Expressions []*ScopedAggregation       `json:"expressions"`
	Patterns    map[UsageCategory][]string `json:"patterns"`
}

// Summary is the headline record of one analysis run.
type Summary struct {
	Workbook      string `json:"workbook,omitempty"`
	Calculations  int    `json:"calculations"`
	Parameters    int    `json:"parameters"`
	SourceFields  int    `json:"source_fields"`
	MaxDepth      int    `json:"max_depth"`
	Roots         int    `json:"roots"`
	Leaves        int    `json:"leaves"`
	Intermediates int    `json:"intermediates"`
	Cycles        int    `json:"cycles"`
}

// Report is the complete output contract of one analysis call.
type Report struct {
	Summary      Summary             `json:"summary"`
	Calculations []*CalculationField `json:"calculations"`
	Cycles       [][]string          `json:"cycles,omitempty"`
	LOD          *LODReport          `json:"lod,omitempty"`
	Tree         string              `json:"tree,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
	Fingerprint  string              `json:"fingerprint,omitempty"`
}
