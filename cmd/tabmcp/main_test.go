package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/wjsutton/tableau-public-mcp/internal/config"
)

// newBatchApp mirrors the flag layout of the real batch command so
// override resolution runs through the same cli plumbing as production.
func newBatchApp(action cli.ActionFunc) *cli.App {
	return &cli.App{
		Name:  "tabmcp",
		Flags: []cli.Flag{&cli.StringFlag{Name: "root"}},
		Commands: []*cli.Command{
			{
				Name: "batch",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}},
				},
				Action: action,
			},
		},
	}
}

func loadBatchConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	var cfg *config.Config
	app := newBatchApp(func(c *cli.Context) error {
		var err error
		cfg, err = loadConfigWithOverrides(c)
		return err
	})
	argv := append([]string{"tabmcp", "--root", t.TempDir(), "batch"}, args...)
	require.NoError(t, app.Run(argv))
	require.NotNil(t, cfg)
	return cfg
}

func TestWorkersOverrideZeroResolvesToNumCPU(t *testing.T) {
	cfg := loadBatchConfig(t, "--workers", "0")
	assert.Equal(t, runtime.NumCPU(), cfg.Batch.MaxWorkers)
	assert.Positive(t, cfg.Batch.MaxWorkers)
}

func TestWorkersOverrideExplicitValueKept(t *testing.T) {
	cfg := loadBatchConfig(t, "--workers", "3")
	assert.Equal(t, 3, cfg.Batch.MaxWorkers)
}

func TestWorkersUnsetKeepsConfigDefault(t *testing.T) {
	cfg := loadBatchConfig(t)
	assert.Equal(t, runtime.NumCPU(), cfg.Batch.MaxWorkers)
}

func TestBatchCommandZeroWorkersCompletes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wb.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"mini","datasources":[]}`), 0o644))

	app := newBatchApp(batchCommand)

	done := make(chan error, 1)
	go func() {
		done <- app.Run([]string{
			"tabmcp", "--root", dir,
			"batch", "--workers", "0", "--json",
			filepath.Join(dir, "*.json"),
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("batch with zero workers did not finish")
	}
}
