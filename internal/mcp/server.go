// Package mcp exposes the workbook analyzer over the Model Context
// Protocol with a stdio transport. All diagnostics go to a log file;
// stdio carries only protocol traffic.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wjsutton/tableau-public-mcp/internal/analyzer"
	"github.com/wjsutton/tableau-public-mcp/internal/config"
	"github.com/wjsutton/tableau-public-mcp/internal/lod"
	"github.com/wjsutton/tableau-public-mcp/internal/version"
)

type Server struct {
	cfg              *config.Config
	server           *mcp.Server
	analyzer         *analyzer.Analyzer
	diagnosticLogger *DiagnosticLogger // File-based logging only (no stdout/stderr)
}

// AnalyzeParams is shared by every tool that takes a workbook. Callers
// pass either a file path or the workbook tree inline.
type AnalyzeParams struct {
	Path     string          `json:"path,omitempty"`
	Workbook json.RawMessage `json:"workbook,omitempty"`
}

type DependencyTreeParams struct {
	Path     string          `json:"path,omitempty"`
	Workbook json.RawMessage `json:"workbook,omitempty"`
	MaxNodes int             `json:"max_nodes,omitempty"`
}

type InfoParams struct {
	Tool string `json:"tool,omitempty"`
}

// NewServer creates a new MCP server around one reusable analyzer
func NewServer(cfg *config.Config) (*Server, error) {
	// CRITICAL: Use file-based logging for MCP to keep stdio clean
	diagnosticLogger := NewDiagnosticLogger(true)

	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:              cfg,
		diagnosticLogger: diagnosticLogger,
		analyzer:         analyzerFromConfig(cfg),
	}
	diagnosticLogger.Printf("MCP server initialized")

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "tableau-public-mcp",
		Version: version.Version,
	}, nil)
	s.registerTools()

	return s, nil
}

// analyzerFromConfig maps config knobs onto analyzer options.
func analyzerFromConfig(cfg *config.Config) *analyzer.Analyzer {
	return analyzer.New(analyzer.Options{
		Classifier: lod.ClassifierOptions{
			FuzzyThreshold:     cfg.Analysis.FuzzyThreshold,
			EntityVocabulary:   cfg.Analysis.EntityVocabulary,
			TemporalVocabulary: cfg.Analysis.TemporalVocabulary,
		},
		Render: renderOptionsFromConfig(cfg),
	})
}

func (s *Server) registerTools() {
	workbookProperties := map[string]*jsonschema.Schema{
		"path": {
			Type:        "string",
			Description: "Path to a workbook tree JSON file",
		},
		"workbook": {
			Type:        "object",
			Description: "Workbook tree passed inline (alternative to path)",
		},
	}

	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Get help and examples for any tool. Use 'info' for an overview, 'info <tool>' for specifics, or 'info version' for server version info.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name to get information about (e.g., 'analyze_workbook', 'version')",
				},
			},
		},
	}, s.handleInfo)

	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_workbook",
		Description: "Run the full calculation-graph analysis on a workbook tree: dependencies, depths, cycles, scoped aggregations and the rendered dependency tree.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: workbookProperties,
		},
	}, s.handleAnalyzeWorkbook)

	s.server.AddTool(&mcp.Tool{
		Name:        "dependency_tree",
		Description: "Render the calculation dependency trees of a workbook as indented text, one tree per leaf calculation.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": workbookProperties["path"],
				"workbook": workbookProperties["workbook"],
				"max_nodes": {
					Type:        "integer",
					Description: "Rendered-node budget; large fan-in trees are elided past it",
				},
			},
		},
	}, s.handleDependencyTree)

	s.server.AddTool(&mcp.Tool{
		Name:        "explain_lod",
		Description: "Parse and classify the scoped-aggregation (LOD) expressions of a workbook, with a plain-English explanation per expression.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: workbookProperties,
		},
	}, s.handleExplainLOD)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_fields",
		Description: "List the calculations, parameters and source fields of a workbook without running graph analysis.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: workbookProperties,
		},
	}, s.handleListFields)
}

func (s *Server) Start(ctx context.Context) error {
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Shutdown flushes and closes the diagnostic log.
func (s *Server) Shutdown(ctx context.Context) error {
	s.diagnosticLogger.Printf("MCP server shutdown complete")
	if s.diagnosticLogger != nil {
		return s.diagnosticLogger.Close()
	}
	return nil
}
