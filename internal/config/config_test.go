package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDefaultsWhenNoConfigFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DefaultFuzzyThreshold, cfg.Analysis.FuzzyThreshold)
	assert.Equal(t, DefaultMaxNodes, cfg.Render.MaxNodes)
	assert.Equal(t, DefaultDebounceMs, cfg.Watch.DebounceMs)
	assert.Positive(t, cfg.Batch.MaxWorkers)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Project.Root)
}

func TestLoadKDLConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".tabmcp.kdl", `
version 1
project {
    name "superstore"
}
analysis {
    fuzzy_threshold 0.9
    entity_vocabulary "patient" "visitor"
}
render {
    indent "    "
    source_field_limit 5
    max_nodes 500
}
batch {
    max_workers 2
}
watch {
    debounce_ms 100
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "superstore", cfg.Project.Name)
	assert.Equal(t, 0.9, cfg.Analysis.FuzzyThreshold)
	assert.Equal(t, []string{"patient", "visitor"}, cfg.Analysis.EntityVocabulary)
	assert.Equal(t, "    ", cfg.Render.Indent)
	assert.Equal(t, 5, cfg.Render.SourceFieldLimit)
	assert.Equal(t, 500, cfg.Render.MaxNodes)
	assert.Equal(t, 2, cfg.Batch.MaxWorkers)
	assert.Equal(t, 100, cfg.Watch.DebounceMs)
}

func TestLoadKDLVocabularyBlockFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".tabmcp.kdl", `
analysis {
    temporal_vocabulary {
        "fiscal"
        "period"
    }
}
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"fiscal", "period"}, cfg.Analysis.TemporalVocabulary)
}

func TestLoadTOMLFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".tabmcp.toml", `
[project]
name = "superstore"

[analysis]
fuzzy_threshold = 0.8
entity_vocabulary = ["household"]

[render]
max_nodes = 250

[watch]
debounce_ms = 50
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "superstore", cfg.Project.Name)
	assert.Equal(t, 0.8, cfg.Analysis.FuzzyThreshold)
	assert.Equal(t, []string{"household"}, cfg.Analysis.EntityVocabulary)
	assert.Equal(t, 250, cfg.Render.MaxNodes)
	assert.Equal(t, 50, cfg.Watch.DebounceMs)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultSourceFieldLimit, cfg.Render.SourceFieldLimit)
}

func TestKDLTakesPrecedenceOverTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".tabmcp.kdl", "render {\n    max_nodes 111\n}\n")
	writeFile(t, dir, ".tabmcp.toml", "[render]\nmax_nodes = 222\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 111, cfg.Render.MaxNodes)
}

func TestLoadRelativeProjectRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "workbooks"), 0o755))
	writeFile(t, dir, ".tabmcp.kdl", "project {\n    root \"workbooks\"\n}\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "workbooks"), cfg.Project.Root)
}

func TestLoadMalformedKDL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".tabmcp.kdl", `render { max_nodes`)

	_, err := Load(dir)
	assert.Error(t, err)
}
