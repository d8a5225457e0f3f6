package lod

import (
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"

	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

// DefaultFuzzyThreshold is the Jaro-Winkler similarity a dimension word
// must reach to count as a vocabulary match.
const DefaultFuzzyThreshold = 0.85

// DefaultEntityVocabulary names the entity-identifier terms used by the
// entity-cohort heuristic.
var DefaultEntityVocabulary = []string{"customer", "user", "client", "account", "member"}

// DefaultTemporalVocabulary names the temporal terms used by the
// cumulative-total heuristic.
var DefaultTemporalVocabulary = []string{"date", "month", "year", "quarter", "week", "day"}

// Classifier maps parsed scoped-aggregation expressions onto usage
// categories. The mapping is a best-effort heuristic over surface tokens,
// not semantic analysis; false positives and negatives are expected.
type Classifier struct {
	threshold     float64
	entityVocab   []string
	temporalVocab []string
	entityStems   map[string]struct{}
	temporalStems map[string]struct{}
}

// ClassifierOptions tunes the fuzzy vocabulary matching.
type ClassifierOptions struct {
	FuzzyThreshold     float64
	EntityVocabulary   []string
	TemporalVocabulary []string
}

// NewClassifier creates a classifier, filling zero options with defaults.
func NewClassifier(opts ClassifierOptions) *Classifier {
	if opts.FuzzyThreshold <= 0 || opts.FuzzyThreshold > 1 {
		opts.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if len(opts.EntityVocabulary) == 0 {
		opts.EntityVocabulary = DefaultEntityVocabulary
	}
	if len(opts.TemporalVocabulary) == 0 {
		opts.TemporalVocabulary = DefaultTemporalVocabulary
	}

	c := &Classifier{
		threshold:     opts.FuzzyThreshold,
		entityVocab:   opts.EntityVocabulary,
		temporalVocab: opts.TemporalVocabulary,
		entityStems:   stemSet(opts.EntityVocabulary),
		temporalStems: stemSet(opts.TemporalVocabulary),
	}
	return c
}

func stemSet(vocab []string) map[string]struct{} {
	stems := make(map[string]struct{}, len(vocab))
	for _, term := range vocab {
		stems[porter2.Stem(strings.ToLower(term))] = struct{}{}
	}
	return stems
}

// Classify assigns the usage category for one expression and recurses into
// its nested expressions. First matching rule wins:
//
//  1. scope-wide total: FIXED with an empty dimension list
//  2. entity cohort: FIXED, an entity-like dimension, MIN/MAX aggregation
//  3. cumulative total: FIXED, SUM aggregation, a temporal dimension
//  4. other
func (c *Classifier) Classify(sa *types.ScopedAggregation) types.UsageCategory {
	sa.Category = c.classifyOne(sa)
	sa.Explanation = explain(sa)
	for _, nested := range sa.NestedExpressions {
		c.Classify(nested)
	}
	return sa.Category
}

func (c *Classifier) classifyOne(sa *types.ScopedAggregation) types.UsageCategory {
	if sa.Scope != types.ScopeFixed {
		return types.CategoryOther
	}
	if len(sa.Dimensions) == 0 {
		return types.CategoryScopeWideTotal
	}
	if (sa.Aggregation == "MIN" || sa.Aggregation == "MAX") && c.anyDimensionMatches(sa.Dimensions, c.entityVocab, c.entityStems) {
		return types.CategoryEntityCohort
	}
	if sa.Aggregation == "SUM" && c.anyDimensionMatches(sa.Dimensions, c.temporalVocab, c.temporalStems) {
		return types.CategoryCumulativeTotal
	}
	return types.CategoryOther
}

func (c *Classifier) anyDimensionMatches(dims, vocab []string, stems map[string]struct{}) bool {
	for _, dim := range dims {
		for _, word := range splitWords(dim) {
			if c.wordMatches(word, vocab, stems) {
				return true
			}
		}
	}
	return false
}

// wordMatches accepts a word when its stem equals a vocabulary stem, or
// when it is fuzzily similar to a vocabulary term. Stemming catches plural
// and inflected forms (customers, monthly); Jaro-Winkler catches typos and
// abbreviations close to a term.
func (c *Classifier) wordMatches(word string, vocab []string, stems map[string]struct{}) bool {
	if _, ok := stems[porter2.Stem(word)]; ok {
		return true
	}
	for _, term := range vocab {
		score, err := edlib.StringsSimilarity(word, term, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if float64(score) >= c.threshold {
			return true
		}
	}
	return false
}

// splitWords lowercases a dimension name and splits it into letter runs,
// so "Order Date" and "customer_id" both yield matchable words.
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	return words
}

// explain renders a plain-English description of what the expression
// computes.
func explain(sa *types.ScopedAggregation) string {
	var sb strings.Builder

	agg := sa.Aggregation
	if agg == "" {
		sb.WriteString("Evaluates ")
		sb.WriteString(truncateExpr(sa.Expression))
	} else {
		sb.WriteString("Computes ")
		sb.WriteString(agg)
		sb.WriteString(" of ")
		sb.WriteString(truncateExpr(sa.Expression))
	}

	switch sa.Scope {
	case types.ScopeFixed:
		if len(sa.Dimensions) == 0 {
			sb.WriteString(" across the entire result set, independent of the view's grouping")
		} else {
			sb.WriteString(" at a level fixed to ")
			sb.WriteString(joinDims(sa.Dimensions))
			sb.WriteString(", independent of the view's grouping")
		}
	case types.ScopeInclude:
		sb.WriteString(" at a finer granularity, adding ")
		sb.WriteString(joinDims(sa.Dimensions))
		sb.WriteString(" to the view's grouping")
	case types.ScopeExclude:
		sb.WriteString(" at a coarser granularity, removing ")
		sb.WriteString(joinDims(sa.Dimensions))
		sb.WriteString(" from the view's grouping")
	}

	switch sa.Category {
	case types.CategoryScopeWideTotal:
		sb.WriteString(". Typical use: percent-of-total denominators.")
	case types.CategoryEntityCohort:
		sb.WriteString(". Typical use: first/last event per entity, e.g. cohort start dates.")
	case types.CategoryCumulativeTotal:
		sb.WriteString(". Typical use: totals pinned to a time grain for running comparisons.")
	default:
		sb.WriteString(".")
	}

	if sa.HasNestedScope {
		sb.WriteString(" The aggregated expression itself contains another scoped aggregation.")
	}
	return sb.String()
}

func joinDims(dims []string) string {
	quoted := make([]string, len(dims))
	for i, d := range dims {
		quoted[i] = "[" + d + "]"
	}
	return strings.Join(quoted, ", ")
}

func truncateExpr(expr string) string {
	const max = 60
	if len(expr) <= max {
		return expr
	}
	return expr[:max-3] + "..."
}
