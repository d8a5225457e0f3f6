package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config with pointer fields so that absent keys fall
// through to defaults instead of zeroing them.
type tomlConfig struct {
	Version  *int `toml:"version"`
	Project  struct {
		Name *string `toml:"name"`
		Root *string `toml:"root"`
	} `toml:"project"`
	Analysis struct {
		FuzzyThreshold     *float64 `toml:"fuzzy_threshold"`
		EntityVocabulary   []string `toml:"entity_vocabulary"`
		TemporalVocabulary []string `toml:"temporal_vocabulary"`
	} `toml:"analysis"`
	Render struct {
		Indent           *string `toml:"indent"`
		SourceFieldLimit *int    `toml:"source_field_limit"`
		MaxNodes         *int    `toml:"max_nodes"`
	} `toml:"render"`
	Batch struct {
		MaxWorkers *int `toml:"max_workers"`
	} `toml:"batch"`
	Watch struct {
		DebounceMs *int `toml:"debounce_ms"`
	} `toml:"watch"`
}

// LoadTOML attempts to load configuration from a .tabmcp.toml file in
// projectRoot. A missing file returns (nil, nil).
func LoadTOML(projectRoot string) (*Config, error) {
	tomlPath := filepath.Join(projectRoot, ".tabmcp.toml")
	if !fileExists(tomlPath) {
		return nil, nil
	}

	content, err := os.ReadFile(tomlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .tabmcp.toml: %v", err)
	}

	var tc tomlConfig
	if err := toml.Unmarshal(content, &tc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := Default()
	if tc.Version != nil {
		cfg.Version = *tc.Version
	}
	if tc.Project.Name != nil {
		cfg.Project.Name = *tc.Project.Name
	}
	if tc.Project.Root != nil {
		cfg.Project.Root = *tc.Project.Root
	}
	if tc.Analysis.FuzzyThreshold != nil {
		cfg.Analysis.FuzzyThreshold = *tc.Analysis.FuzzyThreshold
	}
	if tc.Analysis.EntityVocabulary != nil {
		cfg.Analysis.EntityVocabulary = tc.Analysis.EntityVocabulary
	}
	if tc.Analysis.TemporalVocabulary != nil {
		cfg.Analysis.TemporalVocabulary = tc.Analysis.TemporalVocabulary
	}
	if tc.Render.Indent != nil {
		cfg.Render.Indent = *tc.Render.Indent
	}
	if tc.Render.SourceFieldLimit != nil {
		cfg.Render.SourceFieldLimit = *tc.Render.SourceFieldLimit
	}
	if tc.Render.MaxNodes != nil {
		cfg.Render.MaxNodes = *tc.Render.MaxNodes
	}
	if tc.Batch.MaxWorkers != nil {
		cfg.Batch.MaxWorkers = *tc.Batch.MaxWorkers
	}
	if tc.Watch.DebounceMs != nil {
		cfg.Watch.DebounceMs = *tc.Watch.DebounceMs
	}

	resolveProjectRoot(cfg, projectRoot)
	return cfg, nil
}
