// Package config provides configuration loading and validation for
// .taptally.json.
package config

// Config represents the complete .taptally.json configuration.
type Config struct {
	Name        string       `json:"name,omitempty"`        // Report display name
	Results     []string     `json:"results,omitempty"`     // Report file globs, one publish step each
	Root        string       `json:"root,omitempty"`        // Directory patterns and report names are relative to
	Concurrency int          `json:"concurrency,omitempty"` // Files parsed in parallel (default: number of CPUs)
	Verbose     bool         `json:"verbose"`               // Log per-file progress (default: true)
	Parser      ParserConfig `json:"parser"`
	Report      ReportConfig `json:"report"`
	Build       BuildConfig  `json:"build"`
}

// ParserConfig configures how TAP text is read.
type ParserConfig struct {
	EnableSubtests        bool `json:"enable_subtests"`          // default: true
	PlanRequired          bool `json:"plan_required"`            // default: true
	RemoveYAMLIfCorrupted bool `json:"remove_yaml_if_corrupted"` // default: false
	OutputTapToConsole    bool `json:"output_tap_to_console"`    // default: false
}

// ReportConfig configures how results are reshaped and counted.
type ReportConfig struct {
	TodoIsFailure             bool `json:"todo_is_failure"`             // default: true
	IncludeCommentDiagnostics bool `json:"include_comment_diagnostics"` // default: true
	ValidateNumberOfTests     bool `json:"validate_number_of_tests"`    // default: false
	ShowOnlyFailures          bool `json:"show_only_failures"`          // default: false
	StripSingleParents        bool `json:"strip_single_parents"`        // default: false
	FlattenTapResult          bool `json:"flatten_tap_result"`          // default: false
}

// BuildConfig configures how the report is turned into a build outcome.
type BuildConfig struct {
	FailIfNoResults               bool `json:"fail_if_no_results"`                 // default: false
	FailedTestsMarkBuildAsFailure bool `json:"failed_tests_mark_build_as_failure"` // default: false
	DiscardOldReports             bool `json:"discard_old_reports"`                // default: false
}
