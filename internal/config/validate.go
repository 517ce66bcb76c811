package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MaxNameLength bounds the report display name.
const MaxNameLength = 256

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration for errors and returns warnings for
// non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if err := validateName(cfg.Name); err != nil {
		return nil, err
	}
	if err := validateResults(cfg.Results); err != nil {
		return nil, err
	}
	if cfg.Concurrency < 0 {
		return nil, &ValidationError{Field: "concurrency", Message: "must not be negative"}
	}

	if cfg.Report.ShowOnlyFailures && !cfg.Report.FlattenTapResult && cfg.Parser.EnableSubtests {
		warnings = append(warnings, "report.show_only_failures only filters top-level results unless report.flatten_tap_result is set")
	}
	if cfg.Report.ValidateNumberOfTests && !cfg.Parser.PlanRequired {
		warnings = append(warnings, "report.validate_number_of_tests has no effect on reports without a plan")
	}

	return warnings, nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must be %d characters or less", MaxNameLength)}
	}
	return nil
}

// ValidatePattern checks that pattern is a usable report file glob.
func ValidatePattern(pattern string) error {
	if msg := patternProblem(pattern); msg != "" {
		return &ValidationError{Field: "results", Message: msg}
	}
	return nil
}

func patternProblem(pattern string) string {
	if strings.TrimSpace(pattern) == "" {
		return "pattern must not be empty"
	}
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return fmt.Sprintf("invalid glob pattern %q", pattern)
	}
	return ""
}

func validateResults(patterns []string) error {
	for i, p := range patterns {
		if msg := patternProblem(p); msg != "" {
			return &ValidationError{Field: fmt.Sprintf("results[%d]", i), Message: msg}
		}
	}
	return nil
}
