package errors

import (
	"fmt"
	"time"
)

// Error types for the workbook analyzer. The analysis core itself never
// fails on malformed content; these errors belong to the decode, config
// and tool boundaries around it.
type ErrorType string

const (
	// Input errors
	ErrorTypeDecode       ErrorType = "decode"
	ErrorTypeFileNotFound ErrorType = "file_not_found"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Tool/transport errors
	ErrorTypeTool ErrorType = "tool"
)

// DecodeError represents a failure to decode a workbook tree document
type DecodeError struct {
	Type       ErrorType
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewDecodeError creates a new decode error with context
func NewDecodeError(path string, err error) *DecodeError {
	return &DecodeError{
		Type:       ErrorTypeDecode,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Type, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s failed: %v", e.Type, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *DecodeError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// ToolError represents a failure inside an MCP tool handler
type ToolError struct {
	Type       ErrorType
	Tool       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewToolError creates a new tool error
func NewToolError(tool, op string, err error) *ToolError {
	return &ToolError{
		Type:       ErrorTypeTool,
		Tool:       tool,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("tool %s %s failed: %v", e.Tool, e.Operation, e.Underlying)
	}
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ToolError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors, e.g. from a batch run
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
