// Package publish runs the report pipeline: it discovers TAP files, parses
// them in parallel, reshapes and tallies the results, and decides a build
// outcome.
package publish

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/AndreyAkinshin/taptally/internal/config"
	"github.com/AndreyAkinshin/taptally/internal/discover"
	"github.com/AndreyAkinshin/taptally/internal/errors"
	"github.com/AndreyAkinshin/taptally/internal/logging"
	"github.com/AndreyAkinshin/taptally/internal/report"
	"github.com/AndreyAkinshin/taptally/internal/reshape"
	"github.com/AndreyAkinshin/taptally/internal/tap"
)

const (
	minWorkers = 1
	maxWorkers = 256
)

// Request holds the per-invocation inputs that are not part of the
// configuration file.
type Request struct {
	Root     string    // overrides the configured root when set
	Patterns []string  // overrides the configured result patterns when set
	Since    time.Time // with build.discard_old_reports, older files are ignored
	Echo     io.Writer // receives raw TAP with parser.output_tap_to_console
}

// Step is the outcome of publishing one result pattern.
type Step struct {
	Pattern string
	Files   []string
	Report  *report.Report
}

// Result is the merged outcome of every publish step.
type Result struct {
	Report  *report.Report
	Steps   []Step
	Files   []string
	Outcome Outcome
	Reasons []string
}

// ParseFailures returns the files that failed to parse across all steps.
func (r *Result) ParseFailures() []report.TaggedSet {
	var failures []report.TaggedSet
	for _, s := range r.Steps {
		failures = append(failures, s.Report.ParseFailures()...)
	}
	return failures
}

// Run publishes one step per result pattern and merges the step reports in
// order. Parse failures are recorded per file and never abort the run; an
// error is returned only for discovery failures or cancellation.
func Run(ctx context.Context, cfg *config.Config, req Request, logger *slog.Logger) (*Result, error) {
	logger = logging.OrDiscard(logger)

	root := cfg.Root
	if req.Root != "" {
		root = req.Root
	}
	root = filepath.Clean(root)

	patterns := cfg.Results
	if len(req.Patterns) > 0 {
		patterns = req.Patterns
	}

	var since time.Time
	if cfg.Build.DiscardOldReports {
		since = req.Since
	}

	res := &Result{}
	for _, pattern := range patterns {
		step, err := runStep(ctx, cfg, req, root, pattern, since, logger)
		if err != nil {
			return nil, err
		}
		res.Steps = append(res.Steps, step)
		res.Files = append(res.Files, step.Files...)
	}

	if len(res.Steps) == 0 {
		res.Report = report.New(cfg.Name, nil, root, cfg.ReportPolicy())
	} else {
		res.Report = res.Steps[0].Report
		for _, s := range res.Steps[1:] {
			res.Report = report.Merge(res.Report, s.Report)
		}
	}
	c := res.Report.Tally()

	res.Outcome, res.Reasons = Decide(res, cfg)
	logger.Debug("publish finished",
		"files", len(res.Files),
		"total", c.Total,
		"failed", c.Failed,
		"outcome", res.Outcome.String())

	return res, nil
}

func runStep(ctx context.Context, cfg *config.Config, req Request, root, pattern string, since time.Time, logger *slog.Logger) (Step, error) {
	files, err := discover.Find(root, []string{pattern}, since)
	if err != nil {
		return Step{}, errors.Wrap(err, "failed to discover TAP reports")
	}
	if cfg.Verbose {
		logger.Info("processing TAP reports", "pattern", pattern, "files", len(files))
	}

	parsed, err := parseFiles(ctx, cfg, files, logger)
	if err != nil {
		return Step{}, err
	}

	if cfg.Parser.OutputTapToConsole && req.Echo != nil {
		for _, p := range parsed {
			if _, err := req.Echo.Write(p.raw); err != nil {
				return Step{}, errors.Wrap(err, "failed to echo TAP")
			}
		}
	}

	sets := make([]report.TaggedSet, len(parsed))
	for i, p := range parsed {
		sets[i] = p.tagged
	}

	r := report.New(cfg.Name, sets, root, cfg.ReportPolicy())
	r.Tally()
	return Step{Pattern: pattern, Files: files, Report: r}, nil
}

type parsedFile struct {
	tagged report.TaggedSet
	raw    []byte
}

// parseFiles reads and parses files concurrently. Results keep the order
// of files. Each goroutine owns the tree it builds until Wait returns.
func parseFiles(ctx context.Context, cfg *config.Config, files []string, logger *slog.Logger) ([]parsedFile, error) {
	workers := cfg.Concurrency
	if workers < minWorkers {
		workers = minWorkers
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	parser := tap.NewParser(cfg.TapOptions())
	policy := cfg.ReshapePolicy()
	keepRaw := cfg.Parser.OutputTapToConsole

	results := make([]parsedFile, len(files))
	p := pool.New().WithMaxGoroutines(workers)
	for i, file := range files {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			results[i] = parseFile(parser, policy, file, keepRaw, logger)
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func parseFile(parser *tap.Parser, policy reshape.Policy, file string, keepRaw bool, logger *slog.Logger) parsedFile {
	data, err := os.ReadFile(file)
	if err != nil {
		logger.Warn("failed to read TAP report", "file", file, "error", err)
		return parsedFile{tagged: report.TaggedSet{File: file, Err: errors.Wrap(err, "failed to read file")}}
	}

	out := parsedFile{}
	if keepRaw {
		out.raw = data
	}

	set, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		logger.Warn("failed to parse TAP report", "file", file, "error", err)
		out.tagged = report.TaggedSet{File: file, Err: errors.Parse(file, err)}
		return out
	}

	logger.Debug("parsed TAP report", "file", file, "results", set.Len(), "bail_outs", set.BailOuts)
	out.tagged = report.TaggedSet{File: file, Set: reshape.Apply(set, policy)}
	return out
}
