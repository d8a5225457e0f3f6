package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/wjsutton/tableau-public-mcp/internal/analyzer"
	"github.com/wjsutton/tableau-public-mcp/internal/config"
	"github.com/wjsutton/tableau-public-mcp/internal/lod"
	"github.com/wjsutton/tableau-public-mcp/internal/mcp"
	"github.com/wjsutton/tableau-public-mcp/internal/render"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
	"github.com/wjsutton/tableau-public-mcp/internal/version"
	"github.com/wjsutton/tableau-public-mcp/internal/workbook"
)

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", root, err)
	}

	if c.IsSet("fuzzy-threshold") {
		cfg.Analysis.FuzzyThreshold = c.Float64("fuzzy-threshold")
	}
	if c.IsSet("max-nodes") {
		cfg.Render.MaxNodes = c.Int("max-nodes")
	}
	if c.IsSet("workers") {
		// Overrides land after config validation resolved the zero
		// sentinel, so an explicit 0 must be resolved again here.
		cfg.Batch.MaxWorkers = c.Int("workers")
		if cfg.Batch.MaxWorkers < 1 {
			cfg.Batch.MaxWorkers = runtime.NumCPU()
		}
	}

	return cfg, nil
}

func newAnalyzer(cfg *config.Config) *analyzer.Analyzer {
	return analyzer.New(analyzer.Options{
		Classifier: lod.ClassifierOptions{
			FuzzyThreshold:     cfg.Analysis.FuzzyThreshold,
			EntityVocabulary:   cfg.Analysis.EntityVocabulary,
			TemporalVocabulary: cfg.Analysis.TemporalVocabulary,
		},
		Render: render.Options{
			Indent:           cfg.Render.Indent,
			SourceFieldLimit: cfg.Render.SourceFieldLimit,
			MaxNodes:         cfg.Render.MaxNodes,
		},
	})
}

func main() {
	app := &cli.App{
		Name:                   "tabmcp",
		Usage:                  "Calculation-graph and LOD analysis for Tableau Public workbook trees",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root holding .tabmcp.kdl or .tabmcp.toml",
			},
			&cli.Float64Flag{
				Name:  "fuzzy-threshold",
				Usage: "Similarity floor for dimension vocabulary matching (0.0-1.0)",
			},
			&cli.IntFlag{
				Name:  "max-nodes",
				Usage: "Rendered-node budget for dependency trees",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start MCP (Model Context Protocol) server with stdio transport",
				Action: serveCommand,
			},
			{
				Name:      "analyze",
				Aliases:   []string{"a"},
				Usage:     "Run the full analysis on one workbook tree file",
				ArgsUsage: "<workbook.json>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
					&cli.BoolFlag{
						Name:  "no-tree",
						Usage: "Skip the dependency tree in text output",
					},
				},
				Action: analyzeCommand,
			},
			{
				Name:      "lod",
				Usage:     "List and explain scoped-aggregation (LOD) expressions",
				ArgsUsage: "<workbook.json>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: lodCommand,
			},
			{
				Name:      "fields",
				Aliases:   []string{"f"},
				Usage:     "List calculations, parameters and source fields",
				ArgsUsage: "<workbook.json>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: fieldsCommand,
			},
			{
				Name:      "batch",
				Aliases:   []string{"b"},
				Usage:     "Analyze every workbook tree matching a glob pattern",
				ArgsUsage: "<glob>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Parallel analysis workers (0 = NumCPU)",
					},
				},
				Action: batchCommand,
			},
			{
				Name:      "watch",
				Usage:     "Re-analyze a workbook tree file whenever it changes",
				ArgsUsage: "<workbook.json>",
				Action:    watchCommand,
			},
		},
		Action: func(c *cli.Context) error {
			// Non-terminal stdin means an MCP client is on the other end.
			if isMCPMode() {
				return serveCommand(c)
			}
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// isMCPMode detects whether tabmcp should enter MCP mode without an
// explicit serve command.
func isMCPMode() bool {
	if os.Getenv("TABMCP_MCP_MODE") == "1" || os.Getenv("TABMCP_MCP_MODE") == "true" {
		return true
	}

	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		return true
	}

	return false
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	mcpServer, err := mcp.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- mcpServer.Start(ctx)
	}()

	select {
	case err := <-errChan:
		_ = mcpServer.Shutdown(context.Background())
		return err
	case <-sigChan:
		cancel()
		err := <-errChan
		_ = mcpServer.Shutdown(context.Background())
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

func analyzeCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: tabmcp analyze <workbook.json>")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	wb, err := workbook.Load(c.Args().First())
	if err != nil {
		return err
	}

	report := newAnalyzer(cfg).Analyze(wb)

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	printSummary(report)
	if !c.Bool("no-tree") {
		fmt.Println()
		fmt.Print(report.Tree)
	}
	return nil
}

func printSummary(report *types.Report) {
	if report.Summary.Workbook != "" {
		fmt.Printf("Workbook: %s\n", report.Summary.Workbook)
	}
	fmt.Printf("Calculations: %d (roots %d, leaves %d, intermediates %d)\n",
		report.Summary.Calculations,
		report.Summary.Roots,
		report.Summary.Leaves,
		report.Summary.Intermediates)
	fmt.Printf("Parameters: %d | Source fields: %d | Max depth: %d\n",
		report.Summary.Parameters,
		report.Summary.SourceFields,
		report.Summary.MaxDepth)

	if report.Summary.Cycles > 0 {
		fmt.Printf("Cycles: %d\n", report.Summary.Cycles)
		for _, cycle := range report.Cycles {
			fmt.Printf("  %v\n", cycle)
		}
	}
	if report.LOD != nil && report.LOD.Total > 0 {
		fmt.Printf("Scoped aggregations: %d (FIXED without dimensions: %d, nested: %d)\n",
			report.LOD.Total, report.LOD.FixedNoDims, report.LOD.Nested)
	}
	for _, warning := range report.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
}

func lodCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: tabmcp lod <workbook.json>")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	wb, err := workbook.Load(c.Args().First())
	if err != nil {
		return err
	}

	report := newAnalyzer(cfg).Analyze(wb)

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report.LOD)
	}

	if report.LOD == nil || report.LOD.Total == 0 {
		fmt.Println("No scoped-aggregation expressions found.")
		return nil
	}

	fmt.Printf("Scoped aggregations: %d\n\n", report.LOD.Total)
	for _, sa := range report.LOD.Expressions {
		fmt.Printf("%s [%s] %s\n", sa.Calculation, sa.Scope, sa.Category)
		fmt.Printf("  %s\n", sa.Explanation)
	}
	return nil
}

func fieldsCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: tabmcp fields <workbook.json>")
	}

	wb, err := workbook.Load(c.Args().First())
	if err != nil {
		return err
	}

	ex := analyzer.ExtractFields(wb)

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"calculations":  orderedCalcs(ex),
			"parameters":    ex.Parameters,
			"source_fields": sortedSourceFields(ex),
			"warnings":      ex.Warnings,
		})
	}

	fmt.Printf("Calculations (%d):\n", len(ex.Order))
	for _, caption := range ex.Order {
		calc := ex.Calculations[caption]
		fmt.Printf("  %s  [%s]\n", caption, calc.Datasource)
	}
	fmt.Printf("Parameters (%d):\n", len(ex.Parameters))
	for _, p := range ex.Parameters {
		fmt.Printf("  %s (%s)\n", p.Caption, p.Datatype)
	}
	fields := sortedSourceFields(ex)
	fmt.Printf("Source fields (%d):\n", len(fields))
	for _, sf := range fields {
		fmt.Printf("  %s  [%s]\n", sf.Name, sf.Datasource)
	}
	for _, warning := range ex.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
	return nil
}

func orderedCalcs(ex *workbook.Extraction) []*types.CalculationField {
	calcs := make([]*types.CalculationField, 0, len(ex.Order))
	for _, caption := range ex.Order {
		calcs = append(calcs, ex.Calculations[caption])
	}
	return calcs
}

func sortedSourceFields(ex *workbook.Extraction) []*types.SourceField {
	fields := make([]*types.SourceField, 0, len(ex.SourceFields))
	for _, sf := range ex.SourceFields {
		fields = append(fields, sf)
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Name < fields[j].Name
	})
	return fields
}

// shortPath trims the working directory prefix for display.
func shortPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}
