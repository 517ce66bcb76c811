package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AndreyAkinshin/taptally/internal/config"
	"github.com/AndreyAkinshin/taptally/internal/errors"
	"github.com/AndreyAkinshin/taptally/internal/output"
	"github.com/AndreyAkinshin/taptally/internal/report"
	"github.com/AndreyAkinshin/taptally/internal/reshape"
	"github.com/AndreyAkinshin/taptally/internal/tap"
)

// cmdShow prints every classified result of a single TAP report together
// with its comments and diagnostics.
func cmdShow(args []string, globalOpts *GlobalOptions) int {
	if wantsHelp(args) {
		printShowUsage()
		return 0
	}

	var file string
	var flatten, onlyFailures bool
	for _, arg := range args {
		switch {
		case arg == "--flatten":
			flatten = true
		case arg == "--show-only-failures":
			onlyFailures = true
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("show: unknown flag %q", arg)
			return errors.ExitConfigError
		case file == "":
			file = arg
		default:
			out.ErrorPrefix("show: unexpected argument %q", arg)
			return errors.ExitConfigError
		}
	}
	if file == "" {
		out.ErrorPrefix("show: report file required")
		out.Errorln("usage: taptally show <file>")
		return errors.ExitConfigError
	}

	cfg, code := loadConfig(globalOpts)
	if cfg == nil {
		return code
	}
	if flatten {
		cfg.Report.FlattenTapResult = true
	}
	if onlyFailures {
		cfg.Report.ShowOnlyFailures = true
	}

	r, err := loadReport(cfg, file)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	printShow(out, cfg, r)
	if r.Counters().Failed > 0 {
		return errors.ExitRuntimeError
	}
	return 0
}

// loadReport parses one TAP file with the configured reader options and
// reshape policy and returns a tallied single-file report.
func loadReport(cfg *config.Config, file string) (*report.Report, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read report")
	}
	set, err := tap.NewParser(cfg.TapOptions()).Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Parse(file, err)
	}
	set = reshape.Apply(set, cfg.ReshapePolicy())

	sets := []report.TaggedSet{{File: file, Set: set}}
	r := report.New(cfg.Name, sets, filepath.Dir(file), cfg.ReportPolicy())
	r.Tally()
	return r, nil
}

func printShow(w *output.Writer, cfg *config.Config, r *report.Report) {
	for _, ts := range r.Sets() {
		w.SummaryHeader(ts.File)
		if p := ts.Set.Plan; p != nil {
			if p.SkipAll {
				w.SummaryItem("Plan", fmt.Sprintf("%d..%d (skip all: %s)", p.Initial, p.Last, p.Reason))
			} else {
				w.SummaryItem("Plan", fmt.Sprintf("%d..%d", p.Initial, p.Last))
			}
		}
		if ts.Set.BailOuts > 0 {
			w.SummaryWarning("Bail outs", fmt.Sprintf("%d", ts.Set.BailOuts))
		}
		w.Println("")
	}

	for _, e := range r.Results() {
		w.Result(e.Outcome.String(), e.Node.Number, e.Node.Description)
		if d := e.Node.Directive; d != nil && d.Reason != "" {
			w.Detail(fmt.Sprintf("%s: %s", d.Kind, d.Reason))
		}
		if cfg.Report.IncludeCommentDiagnostics {
			printComments(w, e.Node)
		}
		for _, entry := range e.Node.Diagnostic {
			w.Detail(fmt.Sprintf("%s: %s", entry.Key, abbreviate(entry.Value.String())))
		}
	}

	c := r.Counters()
	w.Println("")
	w.SummaryItem("Total", fmt.Sprintf("%d", c.Total))
	w.SummaryPassed("Passed", fmt.Sprintf("%d", c.Passed))
	if c.Failed > 0 {
		w.SummaryFailed("Failed", fmt.Sprintf("%d", c.Failed))
	}
	if c.Skipped > 0 {
		w.SummaryItem("Skipped", fmt.Sprintf("%d", c.Skipped))
	}
	if c.Todo > 0 {
		w.SummaryItem("Todo", fmt.Sprintf("%d", c.Todo))
	}
	if r.PlanMismatch() {
		w.SummaryWarning("Plan", "number of tests does not match the plan")
	}
}

const maxDetailLength = 120

// abbreviate shortens long diagnostic values such as embedded file content.
func abbreviate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxDetailLength {
		return s
	}
	return s[:maxDetailLength] + fmt.Sprintf("... (%d bytes)", len(s))
}

func printShowUsage() {
	w := output.New()

	w.HelpTitle("taptally show - print the results of one TAP report")

	w.HelpSection("Usage:")
	w.HelpUsage("taptally show <file> [flags]")

	w.HelpSection("Flags:")
	w.HelpFlag("--flatten", "Flatten subtests into a single level", widthCommand)
	w.HelpFlag("--show-only-failures", "List failed results only", widthCommand)
	w.HelpFlag("-h, --help", "Show this help", widthCommand)

	w.HelpSection("Examples:")
	w.HelpExample("taptally show out/unit.tap", "Show every result")
	w.HelpExample("taptally show out/unit.tap --show-only-failures", "Show failures with diagnostics")
	w.Println("")
}
