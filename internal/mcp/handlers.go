package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wjsutton/tableau-public-mcp/internal/analyzer"
	"github.com/wjsutton/tableau-public-mcp/internal/config"
	"github.com/wjsutton/tableau-public-mcp/internal/render"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
	"github.com/wjsutton/tableau-public-mcp/internal/version"
	"github.com/wjsutton/tableau-public-mcp/internal/workbook"
)

// loadWorkbook resolves the workbook argument shared by the analysis
// tools: inline tree first, file path second.
func loadWorkbook(path string, inline json.RawMessage) (*types.Workbook, error) {
	if len(inline) > 0 {
		return workbook.DecodeBytes(inline)
	}
	if path != "" {
		return workbook.Load(path)
	}
	return nil, errors.New("either 'path' or 'workbook' is required")
}

func (s *Server) handleAnalyzeWorkbook(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params AnalyzeParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("analyze_workbook", fmt.Errorf("invalid parameters: %w", err))
	}

	wb, err := loadWorkbook(params.Path, params.Workbook)
	if err != nil {
		s.diagnosticLogger.Errorf("analyze_workbook: %v", err)
		return createErrorResponse("analyze_workbook", err)
	}

	report := s.analyzer.Analyze(wb)
	s.diagnosticLogger.Printf("analyze_workbook: %d calculations, %d cycles", report.Summary.Calculations, report.Summary.Cycles)
	return createJSONResponse(report)
}

func (s *Server) handleDependencyTree(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params DependencyTreeParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("dependency_tree", fmt.Errorf("invalid parameters: %w", err))
	}

	wb, err := loadWorkbook(params.Path, params.Workbook)
	if err != nil {
		s.diagnosticLogger.Errorf("dependency_tree: %v", err)
		return createErrorResponse("dependency_tree", err)
	}

	a := s.analyzer
	if params.MaxNodes > 0 {
		opts := renderOptionsFromConfig(s.cfg)
		opts.MaxNodes = params.MaxNodes
		a = analyzer.New(analyzer.Options{Render: opts})
	}

	report := a.Analyze(wb)
	return createTextResponse(report.Tree)
}

func (s *Server) handleExplainLOD(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params AnalyzeParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("explain_lod", fmt.Errorf("invalid parameters: %w", err))
	}

	wb, err := loadWorkbook(params.Path, params.Workbook)
	if err != nil {
		s.diagnosticLogger.Errorf("explain_lod: %v", err)
		return createErrorResponse("explain_lod", err)
	}

	report := s.analyzer.Analyze(wb)
	return createJSONResponse(map[string]interface{}{
		"workbook": report.Summary.Workbook,
		"lod":      report.LOD,
	})
}

// fieldListing is the list_fields response shape.
type fieldListing struct {
	Workbook     string               `json:"workbook,omitempty"`
	Calculations []fieldEntry         `json:"calculations"`
	Parameters   []*types.Parameter   `json:"parameters"`
	SourceFields []*types.SourceField `json:"source_fields"`
	Warnings     []string             `json:"warnings,omitempty"`
}

type fieldEntry struct {
	Caption    string `json:"caption"`
	Name       string `json:"name"`
	Datasource string `json:"datasource"`
	Formula    string `json:"formula"`
	Hidden     bool   `json:"hidden,omitempty"`
}

func (s *Server) handleListFields(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params AnalyzeParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("list_fields", fmt.Errorf("invalid parameters: %w", err))
	}

	wb, err := loadWorkbook(params.Path, params.Workbook)
	if err != nil {
		s.diagnosticLogger.Errorf("list_fields: %v", err)
		return createErrorResponse("list_fields", err)
	}

	ex := analyzer.ExtractFields(wb)

	listing := fieldListing{
		Calculations: make([]fieldEntry, 0, len(ex.Order)),
		Parameters:   ex.Parameters,
		SourceFields: make([]*types.SourceField, 0, len(ex.SourceFields)),
		Warnings:     ex.Warnings,
	}
	if wb != nil {
		listing.Workbook = wb.Name
	}
	for _, caption := range ex.Order {
		c := ex.Calculations[caption]
		listing.Calculations = append(listing.Calculations, fieldEntry{
			Caption:    c.Caption,
			Name:       c.Name,
			Datasource: c.Datasource,
			Formula:    c.Formula,
			Hidden:     c.Hidden,
		})
	}
	for _, sf := range ex.SourceFields {
		listing.SourceFields = append(listing.SourceFields, sf)
	}
	sort.Slice(listing.SourceFields, func(i, j int) bool {
		return listing.SourceFields[i].Name < listing.SourceFields[j].Name
	})

	return createJSONResponse(listing)
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InfoParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("info", fmt.Errorf("invalid parameters: %w", err))
	}

	tool := strings.ToLower(strings.TrimSpace(params.Tool))

	switch tool {
	case "version":
		return createJSONResponse(map[string]interface{}{
			"name":           "version",
			"server_name":    "tableau-public-mcp",
			"server_version": version.FullInfo(),
			"go_version":     runtime.Version(),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
			"capabilities": []string{
				"stdio_transport",
				"calculation_graph",
				"cycle_detection",
				"scoped_aggregation_analysis",
				"dependency_tree_rendering",
			},
		})

	case "analyze_workbook":
		return createJSONResponse(map[string]interface{}{
			"name":        "analyze_workbook",
			"description": "Full analysis of a workbook tree: per-calculation dependencies, depths, cycles, scoped aggregations, rendered tree and warnings.",
			"examples": []string{
				`{"path": "superstore.json"}`,
				`{"workbook": {"name": "wb", "datasources": [...]}}`,
			},
		})

	case "dependency_tree":
		return createJSONResponse(map[string]interface{}{
			"name":        "dependency_tree",
			"description": "Indented text rendering of calculation dependency chains, one tree per leaf calculation.",
			"examples": []string{
				`{"path": "superstore.json"}`,
				`{"path": "superstore.json", "max_nodes": 200}`,
			},
		})

	case "explain_lod":
		return createJSONResponse(map[string]interface{}{
			"name":        "explain_lod",
			"description": "Scoped-aggregation ({FIXED|INCLUDE|EXCLUDE ...}) inventory with a usage-pattern classification and plain-English explanation per expression.",
			"examples": []string{
				`{"path": "superstore.json"}`,
			},
		})

	case "list_fields":
		return createJSONResponse(map[string]interface{}{
			"name":        "list_fields",
			"description": "Field inventory of a workbook: calculations, parameters and source fields, without graph analysis.",
			"examples": []string{
				`{"path": "superstore.json"}`,
			},
		})

	default:
		return createJSONResponse(map[string]interface{}{
			"server":  "tableau-public-mcp",
			"version": version.Version,
			"tools": []string{
				"analyze_workbook",
				"dependency_tree",
				"explain_lod",
				"list_fields",
				"info",
			},
			"hint": "Use info with a tool name for parameters and examples.",
		})
	}
}

// renderOptionsFromConfig maps the render section of the config onto
// renderer options.
func renderOptionsFromConfig(cfg *config.Config) render.Options {
	return render.Options{
		Indent:           cfg.Render.Indent,
		SourceFieldLimit: cfg.Render.SourceFieldLimit,
		MaxNodes:         cfg.Render.MaxNodes,
	}
}
