// Package config loads analyzer configuration from a project-local
// .tabmcp.kdl file, with a .tabmcp.toml fallback for projects that
// prefer TOML. Missing files are not an error; every knob has a default.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	DefaultFuzzyThreshold   = 0.85
	DefaultSourceFieldLimit = 3
	DefaultMaxNodes         = 10000
	DefaultDebounceMs       = 250
)

type Config struct {
	Version  int
	Project  Project
	Analysis Analysis
	Render   Render
	Batch    Batch
	Watch    Watch
}

type Project struct {
	Root string
	Name string
}

// Analysis tunes scoped-aggregation classification.
type Analysis struct {
	FuzzyThreshold     float64  // Jaro-Winkler similarity floor for vocabulary matching
	EntityVocabulary   []string // Dimension words treated as entity identifiers
	TemporalVocabulary []string // Dimension words treated as temporal
}

// Render tunes the dependency-tree text output.
type Render struct {
	Indent           string
	SourceFieldLimit int
	MaxNodes         int // Rendered-node budget per tree render
}

type Batch struct {
	MaxWorkers int // 0 = auto-detect (NumCPU)
}

type Watch struct {
	DebounceMs int
}

// Default returns a configuration with every field at its default.
func Default() *Config {
	return &Config{
		Version: 1,
		Analysis: Analysis{
			FuzzyThreshold: DefaultFuzzyThreshold,
		},
		Render: Render{
			Indent:           "  ",
			SourceFieldLimit: DefaultSourceFieldLimit,
			MaxNodes:         DefaultMaxNodes,
		},
		Batch: Batch{
			MaxWorkers: runtime.NumCPU(),
		},
		Watch: Watch{
			DebounceMs: DefaultDebounceMs,
		},
	}
}

// Load reads configuration from projectRoot, preferring .tabmcp.kdl over
// .tabmcp.toml. When neither file exists it returns defaults. The result
// is always validated.
func Load(projectRoot string) (*Config, error) {
	cfg, err := LoadKDL(projectRoot)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg, err = LoadTOML(projectRoot)
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = Default()
		if abs, aerr := filepath.Abs(projectRoot); aerr == nil {
			cfg.Project.Root = abs
		} else {
			cfg.Project.Root = projectRoot
		}
	}

	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileExists reports whether path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
