// Package lod finds and decomposes scoped-aggregation ("Level of Detail")
// blocks inside formula text and classifies them into recognizable usage
// patterns.
//
// Blocks have the shape { KIND dimension-list : aggregated-expression }
// where KIND is FIXED, INCLUDE or EXCLUDE. A regex cannot balance the
// arbitrarily nested braces these blocks allow, so extraction is a small
// hand-written scanner that tracks brace depth and recursively parses the
// captured inner text.
package lod

import (
	"strings"

	"github.com/wjsutton/tableau-public-mcp/internal/formula"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

// aggregationFunctions is the fixed vocabulary of aggregation names
// recognized at the start of the aggregated expression.
var aggregationFunctions = map[string]struct{}{
	"SUM":    {},
	"AVG":    {},
	"COUNT":  {},
	"COUNTD": {},
	"MIN":    {},
	"MAX":    {},
	"MEDIAN": {},
	"ATTR":   {},
	"STDEV":  {},
	"STDEVP": {},
	"VAR":    {},
	"VARP":   {},
}

var scopeKeywords = map[string]types.ScopeType{
	"FIXED":   types.ScopeFixed,
	"INCLUDE": types.ScopeInclude,
	"EXCLUDE": types.ScopeExclude,
}

// Parse extracts every top-level scoped-aggregation block from formula
// text. Blocks nested inside another block's aggregated expression surface
// only through NestedExpressions, never as separate top-level results.
// Malformed content never fails: an unclosed block is skipped, an
// unrecognized aggregation prefix reports no aggregation.
func Parse(calculation, text string) []*types.ScopedAggregation {
	var exprs []*types.ScopedAggregation

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		scope, bodyStart, ok := matchScopeKeyword(text, i+1)
		if !ok {
			continue
		}
		end, ok := matchingBrace(text, i)
		if !ok {
			break
		}
		body := text[bodyStart:end]
		exprs = append(exprs, parseBlock(calculation, scope, body))
		i = end
	}
	return exprs
}

// matchScopeKeyword matches one of the scope keywords, case-insensitively,
// right after an opening brace. It returns the keyword and the offset of
// the block body following it.
func matchScopeKeyword(text string, start int) (types.ScopeType, int, bool) {
	i := start
	for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
		i++
	}
	j := i
	for j < len(text) && isLetter(text[j]) {
		j++
	}
	word := strings.ToUpper(text[i:j])
	scope, ok := scopeKeywords[word]
	if !ok {
		return "", 0, false
	}
	// The keyword must stand alone: followed by whitespace, a dimension,
	// the expression separator or the closing brace.
	if j < len(text) {
		switch text[j] {
		case ' ', '\t', '\n', '\r', '[', ':', '}':
		default:
			return "", 0, false
		}
	}
	return scope, j, true
}

// matchingBrace returns the index of the brace closing the block opened at
// open, skipping brace characters inside bracketed field tokens.
func matchingBrace(text string, open int) (int, bool) {
	depth := 0
	inBracket := false
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '[':
			inBracket = true
		case ']':
			inBracket = false
		case '{':
			if !inBracket {
				depth++
			}
		case '}':
			if !inBracket {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}

// parseBlock decomposes a block body (everything between the keyword and
// the closing brace) into dimensions and the aggregated expression.
func parseBlock(calculation string, scope types.ScopeType, body string) *types.ScopedAggregation {
	dimsText, exprText := splitOnSeparator(body)

	dims := []string{}
	for _, tok := range formula.BracketTokens(dimsText) {
		dims = append(dims, tok)
	}

	expr := strings.TrimSpace(exprText)
	sa := &types.ScopedAggregation{
		Calculation: calculation,
		Scope:       scope,
		Dimensions:  dims,
		Aggregation: leadingAggregation(expr),
		Expression:  expr,
	}

	if nested := Parse(calculation, expr); len(nested) > 0 {
		sa.HasNestedScope = true
		sa.NestedExpressions = nested
	}
	return sa
}

// splitOnSeparator splits a block body at the first top-level colon. Colons
// inside bracketed tokens (qualified references carry them) and inside
// nested blocks do not separate. A body without a separator is all
// dimensions and no expression.
func splitOnSeparator(body string) (string, string) {
	depth := 0
	inBracket := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '[':
			inBracket = true
		case ']':
			inBracket = false
		case '{':
			if !inBracket {
				depth++
			}
		case '}':
			if !inBracket {
				depth--
			}
		case ':':
			if !inBracket && depth == 0 {
				return body[:i], body[i+1:]
			}
		}
	}
	return body, ""
}

// leadingAggregation reports the known aggregation function opening the
// expression, or empty when none matches. The name must be immediately
// followed by an opening parenthesis; anything else means "no aggregation",
// not an error.
func leadingAggregation(expr string) string {
	i := 0
	for i < len(expr) && isLetter(expr[i]) {
		i++
	}
	if i == 0 || i >= len(expr) || expr[i] != '(' {
		return ""
	}
	name := strings.ToUpper(expr[:i])
	if _, ok := aggregationFunctions[name]; !ok {
		return ""
	}
	return name
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
