// Package formula extracts field references from raw Tableau formula text.
//
// Formulas reference other fields with bracketed tokens like [Sales] or the
// qualified form [Datasource].[none:Sales:nk]. The tokenizer performs
// balanced single-level extraction only; it never validates the surrounding
// expression syntax.
package formula

import "strings"

// ParametersSentinel is the qualifying prefix used before parameter
// references ([Parameters].[Top N]). It only ever appears as a prefix and
// is never itself a field name, so extraction drops it.
const ParametersSentinel = "Parameters"

// BracketTokens returns every [...] token's inner text in left-to-right
// order, duplicates preserved. Malformed nesting does not fail: an
// unterminated opening bracket simply yields no further tokens.
func BracketTokens(text string) []string {
	var tokens []string
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		end := strings.IndexByte(text[i+1:], ']')
		if end < 0 {
			break
		}
		tokens = append(tokens, text[i+1:i+1+end])
		i += end + 1
	}
	return tokens
}

// ExtractReferences returns the ordered, de-duplicated reference tokens in
// a formula, excluding the Parameters sentinel. A formula without bracket
// tokens yields an empty list.
func ExtractReferences(text string) []string {
	raw := BracketTokens(text)
	refs := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tok := range raw {
		if tok == ParametersSentinel {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		refs = append(refs, tok)
	}
	return refs
}

// QualifiedReference is the decomposition of a fully qualified field token.
type QualifiedReference struct {
	Datasource string `json:"datasource,omitempty"`
	Prefix     string `json:"prefix,omitempty"`
	Field      string `json:"field"`
	Suffix     string `json:"suffix,omitempty"`
}

// ParseQualifiedReference decomposes a token of shape
// [Datasource].[prefix:FieldName:suffix] into its four logical parts. Any
// token not matching that shape is treated as a bare field name with the
// surrounding brackets stripped.
func ParseQualifiedReference(token string) QualifiedReference {
	if ds, rest, ok := splitQualified(token); ok {
		ref := QualifiedReference{Datasource: ds}
		parts := strings.Split(rest, ":")
		if len(parts) == 3 {
			ref.Prefix = parts[0]
			ref.Field = parts[1]
			ref.Suffix = parts[2]
		} else {
			ref.Field = rest
		}
		return ref
	}
	return QualifiedReference{Field: stripBrackets(token)}
}

// splitQualified matches the exact [A].[B] shape and returns the two inner
// texts.
func splitQualified(token string) (string, string, bool) {
	if len(token) == 0 || token[0] != '[' {
		return "", "", false
	}
	close1 := strings.IndexByte(token, ']')
	if close1 < 0 {
		return "", "", false
	}
	rest := token[close1+1:]
	if !strings.HasPrefix(rest, ".[") || !strings.HasSuffix(rest, "]") {
		return "", "", false
	}
	inner := rest[2 : len(rest)-1]
	if strings.ContainsAny(inner, "[]") {
		return "", "", false
	}
	return token[1:close1], inner, true
}

func stripBrackets(token string) string {
	token = strings.TrimPrefix(token, "[")
	token = strings.TrimSuffix(token, "]")
	return token
}
