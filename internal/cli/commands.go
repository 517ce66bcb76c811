package cli

import (
	stderrors "errors"
	"fmt"
	"log/slog"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/AndreyAkinshin/taptally/internal/config"
	"github.com/AndreyAkinshin/taptally/internal/errors"
	"github.com/AndreyAkinshin/taptally/internal/logging"
	"github.com/AndreyAkinshin/taptally/internal/output"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// Help text alignment widths for consistent formatting.
const (
	widthCommand       = 24 // Width for commands like "attachment <file> <key>"
	widthExitCode      = 2
	widthFlagWithValue = 16 // Width for flags like "--config=<path>"
	widthFlagShort     = 10 // Width for short flags like "-h, --help"
)

var titleCaser = cases.Title(language.English)

// title returns s with its first letter of each word upper-cased.
func title(s string) string {
	return titleCaser.String(s)
}

// applyVerbosityToOutput configures the output writer based on verbosity settings.
func applyVerbosityToOutput(opts *GlobalOptions) {
	out.SetQuiet(opts.Quiet)
}

// newLogger returns the stderr logger for a command. --verbose enables
// debug records and --quiet keeps errors only.
func newLogger(opts *GlobalOptions) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.Verbose:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelError
	}
	return logging.Default(level)
}

// configPath returns the configuration file to load. Without --config the
// nearest .taptally.json in the working directory or its parents is used.
func configPath(opts *GlobalOptions) (string, error) {
	if opts.Config != "" {
		return opts.Config, nil
	}
	return config.Find()
}

// loadConfig loads the configuration for a command and handles errors uniformly.
// Without --config and without a .taptally.json, the default configuration
// is used. A relative root is resolved against the configuration file's
// directory. Returns the config and exit code 0 on success, or nil and the
// exit code on failure.
func loadConfig(opts *GlobalOptions) (*config.Config, int) {
	path, err := configPath(opts)
	if stderrors.Is(err, config.ErrNotFound) {
		cfg := config.Default()
		applyGlobalOverrides(cfg, opts)
		return cfg, 0
	}
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, errors.ExitRuntimeError
	}

	cfg, warnings, err := config.LoadAndValidate(path)
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, errors.ExitConfigError
	}
	config.ResolveRoot(cfg, path)
	applyGlobalOverrides(cfg, opts)
	return cfg, 0
}

func applyGlobalOverrides(cfg *config.Config, opts *GlobalOptions) {
	if opts.Root != "" {
		cfg.Root = opts.Root
	}
}

// cmdConfig handles configuration utilities.
func cmdConfig(args []string, opts *GlobalOptions) int {
	if len(args) == 0 {
		out.ErrorPrefix("config: subcommand required (validate)")
		return errors.ExitConfigError
	}

	switch args[0] {
	case "validate":
		return cmdConfigValidate(opts)
	case "-h", "--help":
		printConfigUsage()
		return 0
	default:
		out.ErrorPrefix("config: unknown subcommand %q", args[0])
		return errors.ExitConfigError
	}
}

func cmdConfigValidate(opts *GlobalOptions) int {
	path, err := configPath(opts)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}
	cfg, warnings, err := config.LoadAndValidate(path)
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	out.ValidationSuccess("Configuration is valid.")
	out.SummaryItem("File", path)
	out.SummaryItem("Name", cfg.Name)
	out.SummaryItem("Root", cfg.Root)
	out.SummaryItem("Results", fmt.Sprintf("%d pattern(s)", len(cfg.Results)))
	out.List(cfg.Results)
	if len(warnings) > 0 {
		out.SummaryItem("Warnings", fmt.Sprintf("%d", len(warnings)))
	}
	return 0
}

// printConfigUsage prints the help text for the config command.
func printConfigUsage() {
	w := output.New()

	w.HelpTitle("taptally config - configuration utilities")

	w.HelpSection("Usage:")
	w.HelpUsage("taptally config <subcommand>")

	w.HelpSection("Subcommands:")
	w.HelpCommand("validate", "Validate the configuration file against its schema", widthFlagShort)

	w.HelpSection("Options:")
	w.HelpFlag("-h, --help", "Show this help", widthFlagShort)

	w.HelpSection("Examples:")
	w.HelpExample("taptally config validate", "Validate .taptally.json")
	w.HelpExample("taptally --config=ci/tap.json config validate", "Validate another file")
	w.Println("")
}
