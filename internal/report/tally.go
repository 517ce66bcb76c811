package report

import (
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/taptally/internal/tap"
)

// DurationKey is the diagnostic key holding a result's duration in
// milliseconds.
const DurationKey = "duration_ms"

// Counters holds aggregated result counts.
type Counters struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Todo     int
	BailOuts int
	Duration float64 // milliseconds
}

// Tally classifies every leaf of the successfully parsed sets and returns
// the aggregated counters. Sets carrying a parse error are ignored.
//
// A set whose plan is skip-all counts all of its results as skipped
// without inspecting them.
func Tally(sets []TaggedSet, todoIsFailure bool) Counters {
	var c Counters
	for _, ts := range sets {
		if ts.Failed() || ts.Set == nil {
			continue
		}
		set := ts.Set
		c.Total += len(set.Results)

		if set.Plan != nil && set.Plan.SkipAll {
			c.Skipped += len(set.Results)
		} else {
			for _, n := range set.Results {
				switch tap.Classify(n, todoIsFailure) {
				case tap.Skipped:
					c.Skipped++
				case tap.Failed:
					c.Failed++
				case tap.Todo:
					c.Todo++
				default:
					c.Passed++
				}
				if d, ok := duration(n); ok {
					c.Duration += d
				}
			}
		}

		c.BailOuts += set.BailOuts
	}
	return c
}

// duration extracts the duration_ms diagnostic of a result. Missing or
// unparseable values are reported as absent.
func duration(n *tap.Node) (float64, bool) {
	v, ok := n.Diagnostic.Get(DurationKey)
	if !ok {
		return 0, false
	}
	s, ok := v.AsScalar()
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}
