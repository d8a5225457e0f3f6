package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/wjsutton/tableau-public-mcp/internal/errors"
	"github.com/wjsutton/tableau-public-mcp/internal/types"
	"github.com/wjsutton/tableau-public-mcp/internal/workbook"
)

// batchResult pairs one analyzed file with its report.
type batchResult struct {
	Path   string        `json:"path"`
	Report *types.Report `json:"report"`
}

func batchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("usage: tabmcp batch <glob>")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	pattern := c.Args().First()
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no files match %q", pattern)
	}
	sort.Strings(matches)

	a := newAnalyzer(cfg)

	var (
		mu       sync.Mutex
		results  []batchResult
		failures []error
	)

	var g errgroup.Group
	g.SetLimit(cfg.Batch.MaxWorkers)
	for _, path := range matches {
		path := path
		g.Go(func() error {
			wb, err := workbook.Load(path)
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}

			report := a.Analyze(wb)
			mu.Lock()
			results = append(results, batchResult{Path: path, Report: report})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Printf("%s: %d calculations, %d cycles, %d scoped aggregations, max depth %d\n",
				shortPath(r.Path),
				r.Report.Summary.Calculations,
				r.Report.Summary.Cycles,
				r.Report.LOD.Total,
				r.Report.Summary.MaxDepth)
		}
		fmt.Printf("Analyzed %d of %d file(s)\n", len(results), len(matches))
	}

	if len(failures) > 0 {
		return apperrors.NewMultiError(failures)
	}
	return nil
}
