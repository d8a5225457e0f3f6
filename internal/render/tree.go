// Package render produces the indented text visualization of dependency
// chains rooted at leaf calculations. Presentation only; it never mutates
// the graph it draws.
package render

import (
	"fmt"
	"strings"

	"github.com/wjsutton/tableau-public-mcp/internal/graph"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
)

// Options controls tree rendering
type Options struct {
	Indent           string // Indentation string
	SourceFieldLimit int    // Source-field names shown before truncating
	MaxNodes         int    // Rendered-node budget per full render
}

const (
	defaultSourceFieldLimit = 3
	defaultMaxNodes         = 10000
)

// Renderer draws dependency trees as ASCII art
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer, filling zero options with defaults
func NewRenderer(opts Options) *Renderer {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	if opts.SourceFieldLimit <= 0 {
		opts.SourceFieldLimit = defaultSourceFieldLimit
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = defaultMaxNodes
	}
	return &Renderer{opts: opts}
}

// renderState carries the budget across one full render. Shared subtrees
// reprint once per parent, so wide fan-in can blow up exponentially; the
// node budget bounds the output instead of memoizing it.
type renderState struct {
	nodesLeft int
}

// Render draws one tree per leaf calculation (no dependents), descending
// through calc dependencies. A node already visited on the current branch
// prints as a circular-reference leaf instead of recursing again.
func (r *Renderer) Render(g *graph.Graph) string {
	var sb strings.Builder

	leaves := make([]string, 0)
	for _, caption := range g.Order {
		if g.Calcs[caption].IsLeaf() {
			leaves = append(leaves, caption)
		}
	}

	sb.WriteString(fmt.Sprintf("Dependency trees: %d leaf calculation(s) of %d total\n", len(leaves), len(g.Calcs)))
	if len(leaves) == 0 {
		sb.WriteString("(no leaf calculations)\n")
		return sb.String()
	}

	state := &renderState{nodesLeft: r.opts.MaxNodes}
	for _, caption := range leaves {
		sb.WriteString("\n")
		onBranch := map[string]bool{}
		r.renderNode(&sb, g, state, caption, "", true, true, onBranch)
		if state.nodesLeft < 0 {
			break
		}
	}
	return sb.String()
}

func (r *Renderer) renderNode(sb *strings.Builder, g *graph.Graph, state *renderState, caption, prefix string, isLast, isRoot bool, onBranch map[string]bool) {
	if state.nodesLeft <= 0 {
		sb.WriteString(prefix)
		sb.WriteString("... (render budget reached)\n")
		state.nodesLeft = -1
		return
	}
	state.nodesLeft--

	c := g.Calcs[caption]
	if c == nil {
		return
	}

	var branch string
	switch {
	case isRoot:
		branch = "→ "
	case isLast:
		branch = "└─→ "
	default:
		branch = "├─→ "
	}

	sb.WriteString(prefix)
	sb.WriteString(branch)
	sb.WriteString(caption)
	sb.WriteString(fmt.Sprintf(" (depth=%d)", c.Depth))
	if c.IsCircular {
		sb.WriteString(" [circular]")
	}
	if src := r.sourceFieldSuffix(c); src != "" {
		sb.WriteString(src)
	}
	sb.WriteString("\n")

	onBranch[caption] = true
	defer delete(onBranch, caption)

	childCount := len(c.DependsOnCalcs)
	for i, dep := range c.DependsOnCalcs {
		isLastChild := i == childCount-1

		var childPrefix string
		if isRoot || isLast {
			childPrefix = prefix + r.opts.Indent
		} else {
			childPrefix = prefix + "│ "
		}

		if onBranch[dep] {
			// Already on this branch: terminate instead of recursing.
			sb.WriteString(childPrefix)
			if isLastChild {
				sb.WriteString("└─→ ")
			} else {
				sb.WriteString("├─→ ")
			}
			sb.WriteString(dep)
			sb.WriteString(" (circular reference)\n")
			continue
		}

		r.renderNode(sb, g, state, dep, childPrefix, isLastChild, false, onBranch)
		if state.nodesLeft < 0 {
			return
		}
	}
}

// sourceFieldSuffix renders a node's source-field dependencies as a short
// trailing list rather than tree branches.
func (r *Renderer) sourceFieldSuffix(c *types.CalculationField) string {
	if len(c.DependsOnSource) == 0 {
		return ""
	}
	limit := r.opts.SourceFieldLimit
	shown := c.DependsOnSource
	remainder := 0
	if len(shown) > limit {
		remainder = len(shown) - limit
		shown = shown[:limit]
	}
	suffix := " [src: " + strings.Join(shown, ", ")
	if remainder > 0 {
		suffix += fmt.Sprintf(" +%d more", remainder)
	}
	return suffix + "]"
}
