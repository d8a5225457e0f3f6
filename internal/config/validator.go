package config

import (
	"errors"
	"fmt"
	"runtime"

	apperrors "github.com/wjsutton/tableau-public-mcp/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
// Returns an error if validation fails.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return apperrors.NewConfigError("project", "", err)
	}
	if err := v.validateAnalysis(&cfg.Analysis); err != nil {
		return apperrors.NewConfigError("analysis", "", err)
	}
	if err := v.validateRender(&cfg.Render); err != nil {
		return apperrors.NewConfigError("render", "", err)
	}
	if err := v.validateBatch(&cfg.Batch); err != nil {
		return apperrors.NewConfigError("batch", "", err)
	}
	if err := v.validateWatch(&cfg.Watch); err != nil {
		return apperrors.NewConfigError("watch", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateAnalysis(a *Analysis) error {
	if a.FuzzyThreshold < 0 || a.FuzzyThreshold > 1 {
		return fmt.Errorf("FuzzyThreshold must be in [0, 1], got %g", a.FuzzyThreshold)
	}
	return nil
}

func (v *Validator) validateRender(r *Render) error {
	if r.SourceFieldLimit < 0 {
		return fmt.Errorf("SourceFieldLimit must not be negative, got %d", r.SourceFieldLimit)
	}
	if r.MaxNodes < 0 {
		return fmt.Errorf("MaxNodes must not be negative, got %d", r.MaxNodes)
	}
	return nil
}

func (v *Validator) validateBatch(b *Batch) error {
	if b.MaxWorkers < 0 {
		return fmt.Errorf("MaxWorkers must not be negative, got %d", b.MaxWorkers)
	}
	if b.MaxWorkers > 256 {
		return fmt.Errorf("MaxWorkers should not exceed 256, got %d", b.MaxWorkers)
	}
	return nil
}

func (v *Validator) validateWatch(w *Watch) error {
	if w.DebounceMs < 0 {
		return fmt.Errorf("DebounceMs must not be negative, got %d", w.DebounceMs)
	}
	return nil
}

// setSmartDefaults fills zero values that validation allows but that the
// rest of the program expects to be concrete.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Analysis.FuzzyThreshold == 0 {
		cfg.Analysis.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if cfg.Render.Indent == "" {
		cfg.Render.Indent = "  "
	}
	if cfg.Render.SourceFieldLimit == 0 {
		cfg.Render.SourceFieldLimit = DefaultSourceFieldLimit
	}
	if cfg.Render.MaxNodes == 0 {
		cfg.Render.MaxNodes = DefaultMaxNodes
	}
	if cfg.Batch.MaxWorkers == 0 {
		cfg.Batch.MaxWorkers = runtime.NumCPU()
	}
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultDebounceMs
	}
}
