package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from a .tabmcp.kdl file in
// projectRoot. A missing file returns (nil, nil) so the caller can fall
// back to other sources.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".tabmcp.kdl")
	if !fileExists(kdlPath) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .tabmcp.kdl: %v", err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	resolveProjectRoot(cfg, projectRoot)
	return cfg, nil
}

// resolveProjectRoot makes cfg.Project.Root absolute, resolving relative
// paths against the directory the config file was found in.
func resolveProjectRoot(cfg *Config, projectRoot string) {
	if cfg == nil {
		return
	}
	if cfg.Project.Root != "" {
		if !filepath.IsAbs(cfg.Project.Root) {
			cfg.Project.Root = filepath.Join(projectRoot, cfg.Project.Root)
		}
		cfg.Project.Root = filepath.Clean(cfg.Project.Root)
		return
	}
	if abs, err := filepath.Abs(projectRoot); err == nil {
		cfg.Project.Root = abs
	} else {
		cfg.Project.Root = projectRoot
	}
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "name", func(s string) { cfg.Project.Name = s })
				assignSimpleString(cn, "root", func(s string) { cfg.Project.Root = s })
			}
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "fuzzy_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Analysis.FuzzyThreshold = v
					}
				case "entity_vocabulary":
					cfg.Analysis.EntityVocabulary = collectStringArgs(cn)
				case "temporal_vocabulary":
					cfg.Analysis.TemporalVocabulary = collectStringArgs(cn)
				}
			}
		case "render":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "indent":
					if s, ok := firstStringArg(cn); ok {
						cfg.Render.Indent = s
					}
				case "source_field_limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Render.SourceFieldLimit = v
					}
				case "max_nodes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Render.MaxNodes = v
					}
				}
			}
		case "batch":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_workers" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.MaxWorkers = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		}
	}

	return cfg, nil
}

// Helpers leveraging the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: each child node's name is the string value.
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
