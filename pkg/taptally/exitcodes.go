// Package taptally provides public constants for tools that run taptally
// and inspect its result.
package taptally

// Exit codes returned by the taptally CLI.
// These constants allow CI scripts and wrappers to check exit codes
// symbolically rather than using magic numbers.
const (
	// ExitSuccess indicates the command completed and the build outcome is successful.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure or a failed build outcome.
	ExitFailure = 1

	// ExitConfigError indicates a configuration error (invalid config, bad arguments, etc.).
	ExitConfigError = 2

	// ExitUnstable indicates an unstable build outcome (failed tests, unreadable reports, plan mismatch).
	ExitUnstable = 3
)
