// Package report groups parsed TAP result trees into a report, aggregates
// their counters, and answers attachment and outcome queries.
package report

import (
	"math"
	"strings"
	"sync"

	"github.com/AndreyAkinshin/taptally/internal/tap"
)

// DefaultName is the display name of a report.
const DefaultName = "TAP Test Results"

// TaggedSet ties a result tree to the file it was read from. A set that
// failed to parse carries Err instead of a tree.
type TaggedSet struct {
	File string
	Set  *tap.Set
	Err  error
}

// Failed reports whether the set failed to parse.
func (t TaggedSet) Failed() bool {
	return t.Err != nil
}

// Policy holds the report flags captured at construction time.
type Policy struct {
	TodoIsFailure             bool
	IncludeCommentDiagnostics bool
	ValidateNumberOfTests     bool
	ShowOnlyFailures          bool
}

// Report is the outcome of one publish step: successfully parsed sets,
// parse failures, and counters derived from them by Tally.
//
// Counters are only written by Tally. A Report must not be shared while
// one of its trees is being reshaped.
type Report struct {
	name     string
	root     string
	sets     []TaggedSet
	failures []TaggedSet
	policy   Policy

	mu       sync.RWMutex
	counters Counters
}

// New creates a report from a batch of tagged sets, splitting them into
// parsed and failed sets with file names made relative to root.
// Counters are zero until Tally is called.
func New(name string, sets []TaggedSet, root string, policy Policy) *Report {
	if name == "" {
		name = DefaultName
	}
	ok, failed := FilterParsed(sets, root)
	return &Report{
		name:     name,
		root:     root,
		sets:     ok,
		failures: failed,
		policy:   policy,
	}
}

// FilterParsed partitions sets into successfully parsed and failed ones,
// preserving relative order and normalizing file names against root.
func FilterParsed(sets []TaggedSet, root string) (parsed, failed []TaggedSet) {
	normalized := make([]TaggedSet, len(sets))
	for i, ts := range sets {
		ts.File = NormalizePath(root, ts.File)
		normalized[i] = ts
	}
	return partition(normalized)
}

// partition splits sets into parsed and failed ones, keeping file names
// as they are.
func partition(sets []TaggedSet) (parsed, failed []TaggedSet) {
	parsed = []TaggedSet{}
	failed = []TaggedSet{}
	for _, ts := range sets {
		if ts.Failed() {
			ts.Set = nil
			failed = append(failed, ts)
		} else {
			parsed = append(parsed, ts)
		}
	}
	return parsed, failed
}

// NormalizePath makes file relative to root when file lies below it.
// Backslashes are converted to forward slashes first.
func NormalizePath(root, file string) string {
	root = strings.ReplaceAll(root, `\`, "/")
	file = strings.ReplaceAll(file, `\`, "/")
	if root == "" || len(file) <= len(root) || !strings.HasPrefix(file, root) {
		return file
	}
	rel := file[len(root):]
	if !strings.HasSuffix(root, "/") && !strings.HasPrefix(rel, "/") {
		// file merely shares a name prefix with root
		return file
	}
	return strings.TrimPrefix(rel, "/")
}

// Name returns the report display name.
func (r *Report) Name() string { return r.name }

// Policy returns the report flags.
func (r *Report) Policy() Policy { return r.policy }

// Sets returns the successfully parsed sets.
func (r *Report) Sets() []TaggedSet { return r.sets }

// ParseFailures returns the sets that failed to parse.
func (r *Report) ParseFailures() []TaggedSet { return r.failures }

// Tally recomputes the counters from scratch and returns them.
func (r *Report) Tally() Counters {
	c := Tally(r.sets, r.policy.TodoIsFailure)
	r.mu.Lock()
	r.counters = c
	r.mu.Unlock()
	return c
}

// Counters returns the counters computed by the last Tally call.
func (r *Report) Counters() Counters {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters
}

// CopyWithExtraSets returns a new report holding r's parsed sets followed
// by extra, with r's name and policy. File names are kept as they are, so
// extra should come from another Report. The copy must be tallied again.
func (r *Report) CopyWithExtraSets(extra []TaggedSet) *Report {
	merged := make([]TaggedSet, 0, len(r.sets)+len(extra))
	merged = append(merged, r.sets...)
	merged = append(merged, extra...)

	ok, failed := partition(merged)
	return &Report{
		name:     r.name,
		root:     r.root,
		sets:     ok,
		failures: append(failed, r.failures...),
		policy:   r.policy,
	}
}

// Merge combines the parsed sets of a and b into a new report with a's
// policy. Parse failures of b are not carried over. When a is nil the
// result is a copy of b. The result must be tallied again.
func Merge(a, b *Report) *Report {
	switch {
	case a == nil && b == nil:
		return New("", nil, "", Policy{})
	case a == nil:
		return b.CopyWithExtraSets(nil)
	case b == nil:
		return a.CopyWithExtraSets(nil)
	}
	return a.CopyWithExtraSets(b.sets)
}

// IsEmpty reports whether the report holds no parsed sets.
func (r *Report) IsEmpty() bool {
	return len(r.sets) == 0
}

// HasParseErrors reports whether any file failed to parse.
func (r *Report) HasParseErrors() bool {
	return len(r.failures) > 0
}

// PlanMismatch reports whether any parsed set with a plan holds a number of
// results different from the plan's last test number.
func (r *Report) PlanMismatch() bool {
	for _, ts := range r.sets {
		if ts.Set == nil || ts.Set.Plan == nil {
			continue
		}
		if ts.Set.Plan.Last != len(ts.Set.Results) {
			return true
		}
	}
	return false
}

// HealthScore returns a 0-100 score derived from the failure ratio of the
// last tally. An empty report is fully healthy.
func (r *Report) HealthScore() int {
	c := r.Counters()
	if c.Total == 0 {
		return 100
	}
	ratio := 1.0 - float64(c.Failed)/float64(c.Total)
	return int(100.0 * math.Max(0.0, math.Min(1.0, ratio)))
}

// Lookup returns the parsed set read from file.
func (r *Report) Lookup(file string) (TaggedSet, bool) {
	file = NormalizePath(r.root, file)
	for _, ts := range r.sets {
		if ts.File == file {
			return ts, true
		}
	}
	return TaggedSet{}, false
}

// FindAttachment looks up the attachment identified by key in the set read
// from file.
func (r *Report) FindAttachment(file, key string) (*Attachment, bool) {
	ts, ok := r.Lookup(file)
	if !ok {
		return nil, false
	}
	return FindAttachment(ts.Set, key)
}

// ResultEntry is a leaf result together with its file and classification.
type ResultEntry struct {
	File    string
	Node    *tap.Node
	Outcome tap.Outcome
}

// Results lists every leaf result of the parsed sets in order, classified
// with the report policy. With ShowOnlyFailures set only failed results
// are returned. Results of skip-all sets are reported as skipped.
func (r *Report) Results() []ResultEntry {
	var entries []ResultEntry
	for _, ts := range r.sets {
		if ts.Set == nil {
			continue
		}
		skipAll := ts.Set.Plan != nil && ts.Set.Plan.SkipAll
		for _, n := range ts.Set.Results {
			outcome := tap.Skipped
			if !skipAll {
				outcome = tap.Classify(n, r.policy.TodoIsFailure)
			}
			if r.policy.ShowOnlyFailures && outcome != tap.Failed {
				continue
			}
			entries = append(entries, ResultEntry{File: ts.File, Node: n, Outcome: outcome})
		}
	}
	return entries
}
