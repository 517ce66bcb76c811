package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/AndreyAkinshin/taptally/internal/config"
	"github.com/AndreyAkinshin/taptally/internal/errors"
	"github.com/AndreyAkinshin/taptally/internal/output"
	"github.com/AndreyAkinshin/taptally/internal/publish"
	"github.com/AndreyAkinshin/taptally/internal/tap"
)

// publishOptions holds the flags of the publish command.
type publishOptions struct {
	Patterns           []string
	Since              time.Time
	Flatten            bool
	StripSingleParents bool
	ShowOnlyFailures   bool
	FailIfNoResults    bool
	EchoTAP            bool
}

// parsePublishFlags parses publish arguments. Positional arguments are
// result patterns.
func parsePublishFlags(args []string, now time.Time) (*publishOptions, error) {
	opts := &publishOptions{}
	for _, arg := range args {
		switch {
		case arg == "--flatten":
			opts.Flatten = true
		case arg == "--strip-single-parents":
			opts.StripSingleParents = true
		case arg == "--show-only-failures":
			opts.ShowOnlyFailures = true
		case arg == "--fail-if-no-results":
			opts.FailIfNoResults = true
		case arg == "--tap":
			opts.EchoTAP = true
		case strings.HasPrefix(arg, "--since="):
			since, err := parseSince(strings.TrimPrefix(arg, "--since="), now)
			if err != nil {
				return nil, err
			}
			opts.Since = since
		case arg == "--":
			continue
		case strings.HasPrefix(arg, "-"):
			return nil, fmt.Errorf("publish: unknown flag %q", arg)
		default:
			if err := config.ValidatePattern(arg); err != nil {
				return nil, fmt.Errorf("publish: %w", err)
			}
			opts.Patterns = append(opts.Patterns, arg)
		}
	}
	return opts, nil
}

// parseSince accepts an RFC 3339 timestamp or a duration counted back from now.
func parseSince(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("--since requires a value")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("invalid --since value %q\n  expected an RFC 3339 time or a duration\n  example: --since=2h", value)
	}
	return now.Add(-d), nil
}

// applyPublishOverrides merges command-line flags into the configuration.
// Flags only ever enable behavior.
func applyPublishOverrides(cfg *config.Config, opts *publishOptions) {
	if opts.Flatten {
		cfg.Report.FlattenTapResult = true
	}
	if opts.StripSingleParents {
		cfg.Report.StripSingleParents = true
	}
	if opts.ShowOnlyFailures {
		cfg.Report.ShowOnlyFailures = true
	}
	if opts.FailIfNoResults {
		cfg.Build.FailIfNoResults = true
	}
	if opts.EchoTAP {
		cfg.Parser.OutputTapToConsole = true
	}
	if !opts.Since.IsZero() {
		cfg.Build.DiscardOldReports = true
	}
}

// cmdPublish discovers, parses and tallies TAP reports and exits with the
// code of the decided outcome.
func cmdPublish(args []string, globalOpts *GlobalOptions) int {
	if wantsHelp(args) {
		printPublishUsage()
		return 0
	}

	opts, err := parsePublishFlags(args, time.Now())
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	cfg, code := loadConfig(globalOpts)
	if cfg == nil {
		return code
	}
	applyPublishOverrides(cfg, opts)
	if cfg.Build.DiscardOldReports && opts.Since.IsZero() {
		out.Warning("build.discard_old_reports has no effect without --since")
		out.Hint("  pass --since=<time|duration> to ignore older reports")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := publish.Run(ctx, cfg, publish.Request{
		Patterns: opts.Patterns,
		Since:    opts.Since,
		Echo:     out.Out(),
	}, newLogger(globalOpts))
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	printPublishSummary(out, cfg, res)
	return res.Outcome.ExitCode()
}

// printPublishSummary prints the per-file status, the classified results
// and the counters of a publish run, followed by the outcome.
func printPublishSummary(w *output.Writer, cfg *config.Config, res *publish.Result) {
	w.SummaryHeader(res.Report.Name())

	failures := make(map[string]string)
	for _, f := range res.ParseFailures() {
		failures[f.File] = f.Err.Error()
	}

	if len(res.Files) > 0 && !w.Quiet() {
		w.SummarySectionLabel("Files:")
		for _, s := range res.Steps {
			for _, ts := range s.Report.Sets() {
				w.SummaryFile(ts.File, true, "")
			}
			for _, ts := range s.Report.ParseFailures() {
				w.SummaryFile(ts.File, false, failures[ts.File])
			}
		}
		w.Println("")
	}

	if !w.Quiet() {
		entries := res.Report.Results()
		if len(entries) > 0 {
			w.SummarySectionLabel("Results:")
			for _, e := range entries {
				w.Result(e.Outcome.String(), e.Node.Number, describe(e.File, e.Node))
				if e.Outcome == tap.Failed && cfg.Report.IncludeCommentDiagnostics {
					printComments(w, e.Node)
				}
			}
			w.Println("")
		}
	}

	if len(res.Files) == 0 && !w.Quiet() {
		w.Hint("  no reports matched %s under %s", stepPatterns(res), cfg.Root)
	}

	if len(res.Steps) > 1 && !w.Quiet() {
		w.Section("Steps")
		w.Table(stepTable(res))
		w.Println("")
	}

	c := res.Report.Counters()
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
	if c.BailOuts > 0 {
		w.SummaryWarning("Bail outs", fmt.Sprintf("%d", c.BailOuts))
	}
	if c.Duration > 0 {
		w.SummaryItem("Duration", formatDuration(c.Duration))
	}
	if n := len(failures); n > 0 {
		w.SummaryWarning("Unparsed", fmt.Sprintf("%d", n))
	}
	w.SummaryItem("Health", fmt.Sprintf("%d%%", res.Report.HealthScore()))

	msg := title(res.Outcome.String())
	if len(res.Reasons) > 0 {
		msg += ": " + strings.Join(res.Reasons, "; ")
	} else if c.Total > 0 {
		msg += ": no failed tests"
	}
	switch res.Outcome {
	case publish.Success:
		w.FinalSuccess("%s", msg)
	case publish.Unstable:
		w.FinalWarning("%s", msg)
	default:
		w.FinalFailure("%s", msg)
	}
}

func stepPatterns(res *publish.Result) string {
	patterns := make([]string, len(res.Steps))
	for i, s := range res.Steps {
		patterns[i] = s.Pattern
	}
	return strings.Join(patterns, ", ")
}

// stepTable returns the per-pattern counters of a multi-step run.
func stepTable(res *publish.Result) (headers []string, rows [][]string) {
	headers = []string{"Pattern", "Files", "Total", "Passed", "Failed", "Skipped"}
	for _, s := range res.Steps {
		c := s.Report.Counters()
		rows = append(rows, []string{
			s.Pattern,
			fmt.Sprintf("%d", len(s.Files)),
			fmt.Sprintf("%d", c.Total),
			fmt.Sprintf("%d", c.Passed),
			fmt.Sprintf("%d", c.Failed),
			fmt.Sprintf("%d", c.Skipped),
		})
	}
	return headers, rows
}

// describe returns the display text of a result: its file and description.
func describe(file string, n *tap.Node) string {
	if n.Description == "" {
		return file
	}
	return file + ": " + n.Description
}

func printComments(w *output.Writer, n *tap.Node) {
	for _, c := range n.Comments {
		if c.Text != "" {
			w.Detail("# " + c.Text)
		}
	}
}

// formatDuration renders a millisecond total with a readable unit.
func formatDuration(ms float64) string {
	return time.Duration(ms * float64(time.Millisecond)).Round(time.Millisecond).String()
}

func printPublishUsage() {
	w := output.New()

	w.HelpTitle("taptally publish - tally TAP reports and decide the build outcome")

	w.HelpSection("Usage:")
	w.HelpUsage("taptally publish [patterns] [flags]")

	w.HelpSection("Description:")
	w.Println("  Every pattern is published as one step; step reports are merged in")
	w.Println("  order. Without patterns the configured results patterns are used.")

	w.HelpSection("Flags:")
	w.HelpFlag("--flatten", "Flatten subtests into a single level", widthCommand)
	w.HelpFlag("--strip-single-parents", "Drop single-result wrapper levels", widthCommand)
	w.HelpFlag("--show-only-failures", "List failed results only", widthCommand)
	w.HelpFlag("--fail-if-no-results", "Fail when no report is found", widthCommand)
	w.HelpFlag("--since=<time>", "Ignore reports older than an RFC 3339 time or duration", widthCommand)
	w.HelpFlag("--tap", "Echo the raw TAP of every report", widthCommand)
	w.HelpFlag("-h, --help", "Show this help", widthCommand)

	w.HelpSection("Examples:")
	w.HelpExample("taptally publish", "Publish **/*.tap")
	w.HelpExample("taptally publish 'unit/**/*.tap' 'e2e/**/*.tap'", "Publish and merge two steps")
	w.HelpExample("taptally publish --since=30m --show-only-failures", "Recent reports, failures only")
	w.Println("")
}
