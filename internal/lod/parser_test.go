package lod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

func TestParseFixedWithDimensionAndAggregation(t *testing.T) {
	exprs := Parse("First Order", "{FIXED [Customer] : MIN([Order Date])}")
	require.Len(t, exprs, 1)

	sa := exprs[0]
	assert.Equal(t, "First Order", sa.Calculation)
	assert.Equal(t, types.ScopeFixed, sa.Scope)
	assert.Equal(t, []string{"Customer"}, sa.Dimensions)
	assert.Equal(t, "MIN", sa.Aggregation)
	assert.Equal(t, "MIN([Order Date])", sa.Expression)
	assert.False(t, sa.HasNestedScope)
}

func TestParseEmptyDimensionList(t *testing.T) {
	exprs := Parse("Total Sales", "{FIXED : SUM([Sales])}")
	require.Len(t, exprs, 1)

	sa := exprs[0]
	assert.Equal(t, types.ScopeFixed, sa.Scope)
	// An empty list means "the whole result set", not "one dimension".
	assert.Empty(t, sa.Dimensions)
	assert.Equal(t, "SUM", sa.Aggregation)
}

func TestParseNestedBlock(t *testing.T) {
	exprs := Parse("Nested", "{FIXED [Region] : SUM({FIXED [Customer] : SUM([Sales])})}")
	require.Len(t, exprs, 1)

	outer := exprs[0]
	assert.Equal(t, []string{"Region"}, outer.Dimensions)
	assert.True(t, outer.HasNestedScope)
	require.Len(t, outer.NestedExpressions, 1)

	inner := outer.NestedExpressions[0]
	assert.Equal(t, []string{"Customer"}, inner.Dimensions)
	assert.Equal(t, "SUM", inner.Aggregation)
	assert.False(t, inner.HasNestedScope)
}

func TestParseScopeKeywords(t *testing.T) {
	tests := []struct {
		formula string
		scope   types.ScopeType
	}{
		{"{FIXED [A] : SUM([S])}", types.ScopeFixed},
		{"{INCLUDE [A] : AVG([S])}", types.ScopeInclude},
		{"{EXCLUDE [A] : SUM([S])}", types.ScopeExclude},
		{"{ fixed [A] : SUM([S])}", types.ScopeFixed},
		{"{Include [A] : SUM([S])}", types.ScopeInclude},
	}
	for _, tt := range tests {
		exprs := Parse("c", tt.formula)
		require.Len(t, exprs, 1, tt.formula)
		assert.Equal(t, tt.scope, exprs[0].Scope, tt.formula)
	}
}

func TestParseMultipleTopLevelBlocks(t *testing.T) {
	formulaText := "{FIXED [A] : SUM([S])} / {EXCLUDE [B] : SUM([S])}"
	exprs := Parse("c", formulaText)
	require.Len(t, exprs, 2)
	assert.Equal(t, types.ScopeFixed, exprs[0].Scope)
	assert.Equal(t, types.ScopeExclude, exprs[1].Scope)
}

func TestParseMultipleDimensions(t *testing.T) {
	exprs := Parse("c", "{FIXED [Region], [Category]: SUM([Sales])}")
	require.Len(t, exprs, 1)
	assert.Equal(t, []string{"Region", "Category"}, exprs[0].Dimensions)
}

func TestParseQualifiedDimensionKeepsColonInsideBrackets(t *testing.T) {
	// Colons inside bracketed tokens must not split the block early.
	exprs := Parse("c", "{FIXED [none:Customer:nk] : SUM([Sales])}")
	require.Len(t, exprs, 1)
	assert.Equal(t, []string{"none:Customer:nk"}, exprs[0].Dimensions)
	assert.Equal(t, "SUM", exprs[0].Aggregation)
}

func TestParseUnknownAggregationIsAbsent(t *testing.T) {
	exprs := Parse("c", "{FIXED [A] : IIF([S] > 0, 1, 0)}")
	require.Len(t, exprs, 1)
	assert.Empty(t, exprs[0].Aggregation)
}

func TestParseAggregationRequiresParenthesis(t *testing.T) {
	exprs := Parse("c", "{FIXED [A] : SUM + 1}")
	require.Len(t, exprs, 1)
	assert.Empty(t, exprs[0].Aggregation)
}

func TestParseIgnoresNonScopeBraces(t *testing.T) {
	assert.Empty(t, Parse("c", "SUM([Sales])"))
	assert.Empty(t, Parse("c", "{SUM([Sales])}"))
	assert.Empty(t, Parse("c", ""))
}

func TestParseUnclosedBlockIsSkipped(t *testing.T) {
	assert.Empty(t, Parse("c", "{FIXED [A] : SUM([S])"))
}

func TestParseAggregationVocabulary(t *testing.T) {
	for _, fn := range []string{"SUM", "AVG", "COUNT", "COUNTD", "MIN", "MAX", "MEDIAN", "ATTR", "STDEV", "STDEVP", "VAR", "VARP"} {
		exprs := Parse("c", "{FIXED [A] : "+fn+"([S])}")
		require.Len(t, exprs, 1, fn)
		assert.Equal(t, fn, exprs[0].Aggregation, fn)
	}
}

func TestParseLowercaseAggregation(t *testing.T) {
	exprs := Parse("c", "{FIXED [A] : sum([S])}")
	require.Len(t, exprs, 1)
	assert.Equal(t, "SUM", exprs[0].Aggregation)
}

func TestParseDeeplyNestedBlocks(t *testing.T) {
	exprs := Parse("c", "{FIXED [A] : SUM({FIXED [B] : SUM({FIXED [C] : SUM([S])})})}")
	require.Len(t, exprs, 1)

	level1 := exprs[0]
	require.Len(t, level1.NestedExpressions, 1)
	level2 := level1.NestedExpressions[0]
	require.Len(t, level2.NestedExpressions, 1)
	level3 := level2.NestedExpressions[0]
	assert.Equal(t, []string{"C"}, level3.Dimensions)
	assert.False(t, level3.HasNestedScope)
}
