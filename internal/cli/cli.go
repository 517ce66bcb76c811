// Package cli provides command-line interface functionality for taptally.
package cli

import (
	"fmt"
	"strings"

	"github.com/AndreyAkinshin/taptally/internal/errors"
	"github.com/AndreyAkinshin/taptally/internal/output"
)

// Version is set at build time.
var Version = "dev"

// wantsHelp returns true if args contain -h or --help before any -- separator.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 0
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return 0
	case "--version", "version":
		out.Println("taptally %s", Version)
		return 0
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	if len(remaining) == 0 {
		printUsage()
		return 0
	}
	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "publish":
		return cmdPublish(cmdArgs, opts)
	case "show":
		return cmdShow(cmdArgs, opts)
	case "attachment":
		return cmdAttachment(cmdArgs, opts)
	case "config":
		return cmdConfig(cmdArgs, opts)
	case "completion":
		return cmdCompletion(cmdArgs)
	case "version":
		out.Println("taptally %s", Version)
		return 0
	default:
		out.ErrorPrefix("unknown command %q", cmd)
		out.Errorln("run 'taptally help' for usage")
		return errors.ExitConfigError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Quiet   bool
	Verbose bool
	Config  string // explicit configuration file
	Root    string // overrides the configured report root
}

// parseGlobalFlags manually parses global flags from arguments.
// Global flags may appear anywhere; arguments after -- are kept verbatim.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		switch {
		case arg == "-q" || arg == "--quiet":
			opts.Quiet = true
			i++
		case arg == "-v" || arg == "--verbose":
			opts.Verbose = true
			i++
		case arg == "--config" || arg == "--root":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%s requires a value", arg)
			}
			if arg == "--config" {
				opts.Config = args[i+1]
			} else {
				opts.Root = args[i+1]
			}
			i += 2
		case strings.HasPrefix(arg, "--config="):
			opts.Config = strings.TrimPrefix(arg, "--config=")
			if opts.Config == "" {
				return nil, nil, fmt.Errorf("--config requires a value")
			}
			i++
		case strings.HasPrefix(arg, "--root="):
			opts.Root = strings.TrimPrefix(arg, "--root=")
			if opts.Root == "" {
				return nil, nil, fmt.Errorf("--root requires a value")
			}
			i++
		case arg == "--":
			remaining = append(remaining, args[i:]...)
			i = len(args)
		default:
			remaining = append(remaining, arg)
			i++
		}
	}

	if err := validateGlobalOptions(opts); err != nil {
		return nil, nil, err
	}

	applyVerbosityToOutput(opts)

	return opts, remaining, nil
}

// validateGlobalOptions checks that global options are valid.
func validateGlobalOptions(opts *GlobalOptions) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	return nil
}

func printUsage() {
	w := output.New()

	w.HelpTitle("taptally - collect, reshape and summarize TAP test reports")

	w.HelpSection("Usage:")
	w.HelpUsage("taptally [flags] <command> [args]")

	w.HelpSection("Commands:")
	w.HelpCommand("publish [patterns]", "Discover TAP reports, tally them and decide the build outcome", widthCommand)
	w.HelpCommand("show <file>", "Print the classified results of one TAP report", widthCommand)
	w.HelpCommand("attachment <file> <key>", "Extract a base64 attachment from a TAP report", widthCommand)
	w.HelpCommand("config validate", "Validate the configuration file", widthCommand)
	w.HelpCommand("completion <shell>", "Generate shell completion (bash, zsh, fish)", widthCommand)
	w.HelpCommand("version", "Show version information", widthCommand)

	printGlobalFlags(w)

	w.HelpSection("Exit Codes:")
	w.HelpCommand("0", "Success", widthExitCode)
	w.HelpCommand("1", "Failure outcome or runtime error", widthExitCode)
	w.HelpCommand("2", "Configuration error", widthExitCode)
	w.HelpCommand("3", "Unstable outcome", widthExitCode)

	w.HelpSection("Examples:")
	w.HelpExample("taptally publish", "Publish every **/*.tap report below the current directory")
	w.HelpExample("taptally publish 'build/tap/*.tap' --flatten", "Publish one directory with flattened subtests")
	w.HelpExample("taptally show out/unit.tap", "List the results of one report")
	w.HelpExample("taptally attachment out/ui.tap screenshot", "Save the screenshot attachment")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("-q, --quiet", "Minimal output (summary and errors only)", widthFlagWithValue)
	w.HelpFlag("-v, --verbose", "Debug logging", widthFlagWithValue)
	w.HelpFlag("--config=<path>", "Configuration file (default .taptally.json)", widthFlagWithValue)
	w.HelpFlag("--root=<dir>", "Report root directory (default from config)", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)
	w.HelpFlag("--version", "Show version", widthFlagWithValue)
}
