package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/AndreyAkinshin/taptally/internal/report"
	"github.com/AndreyAkinshin/taptally/internal/reshape"
	"github.com/AndreyAkinshin/taptally/internal/schema"
	"github.com/AndreyAkinshin/taptally/internal/tap"
)

// Load reads and parses a .taptally.json configuration file. Keys absent
// from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults reads a config file and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadAndValidate reads a config file, checks it against the embedded JSON
// schema, applies defaults, validates, and returns warnings.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := schema.ValidateConfig(data); err != nil {
		return nil, nil, &ValidationError{Field: path, Message: err.Error()}
	}

	cfg, unknownWarnings, err := LoadWithWarnings(path, data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)

	validationWarnings, err := Validate(cfg)

	allWarnings := make([]string, 0, len(unknownWarnings)+len(validationWarnings))
	allWarnings = append(allWarnings, unknownWarnings...)
	allWarnings = append(allWarnings, validationWarnings...)

	if err != nil {
		return nil, allWarnings, err
	}

	return cfg, allWarnings, nil
}

func parse(data []byte) (*Config, error) {
	cfg := boolDefaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// TapOptions returns the reader options selected by the configuration.
func (c *Config) TapOptions() tap.Options {
	return tap.Options{
		EnableSubtests:        c.Parser.EnableSubtests,
		PlanRequired:          c.Parser.PlanRequired,
		RemoveYAMLIfCorrupted: c.Parser.RemoveYAMLIfCorrupted,
	}
}

// ReshapePolicy returns the tree transforms selected by the configuration.
func (c *Config) ReshapePolicy() reshape.Policy {
	return reshape.Policy{
		StripSingleParents: c.Report.StripSingleParents,
		Flatten:            c.Report.FlattenTapResult,
	}
}

// ReportPolicy returns the report flags selected by the configuration.
func (c *Config) ReportPolicy() report.Policy {
	return report.Policy{
		TodoIsFailure:             c.Report.TodoIsFailure,
		IncludeCommentDiagnostics: c.Report.IncludeCommentDiagnostics,
		ValidateNumberOfTests:     c.Report.ValidateNumberOfTests,
		ShowOnlyFailures:          c.Report.ShowOnlyFailures,
	}
}
