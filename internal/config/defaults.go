package config

import (
	"runtime"

	"github.com/AndreyAkinshin/taptally/internal/report"
)

// Default configuration values.
const (
	DefaultFileName = ".taptally.json"
	DefaultPattern  = "**/*.tap"
	DefaultRoot     = "."
)

// Default returns a configuration with every field at its default value.
func Default() *Config {
	cfg := boolDefaults()
	applyDefaults(cfg)
	return cfg
}

// boolDefaults returns a zero configuration with the boolean defaults set.
// Files are decoded on top of it so that absent keys keep their defaults.
func boolDefaults() *Config {
	return &Config{
		Verbose: true,
		Parser: ParserConfig{
			EnableSubtests: true,
			PlanRequired:   true,
		},
		Report: ReportConfig{
			TodoIsFailure:             true,
			IncludeCommentDiagnostics: true,
		},
	}
}

// applyDefaults fills in default values for unset non-boolean fields.
func applyDefaults(cfg *Config) {
	if cfg.Name == "" {
		cfg.Name = report.DefaultName
	}
	if len(cfg.Results) == 0 {
		cfg.Results = []string{DefaultPattern}
	}
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
}
