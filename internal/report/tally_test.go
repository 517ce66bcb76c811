package report

import (
	"testing"

	"github.com/AndreyAkinshin/taptally/internal/tap"
)

func parseSet(t testing.TB, input string) *tap.Set {
	t.Helper()
	set, err := tap.NewParser(tap.DefaultOptions()).ParseString(input)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return set
}

func TestTally_RoundTrip(t *testing.T) {
	t.Parallel()
	set := parseSet(t, "1..2\nok 1 sample First ok\nnot ok 2 sample Second failed\n")

	got := Tally([]TaggedSet{{File: "a.tap", Set: set}}, false)
	want := Counters{Total: 2, Passed: 1, Failed: 1}
	if got != want {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}
}

func TestTally_SkipAllPlan(t *testing.T) {
	t.Parallel()
	set := &tap.Set{
		Plan: &tap.Plan{Initial: 1, Last: 5, SkipAll: true},
		Results: []*tap.Node{
			{Number: 1, Status: tap.StatusOK},
			{Number: 2, Status: tap.StatusNotOK},
			{Number: 3, Status: tap.StatusNotOK, Directive: &tap.Directive{Kind: tap.DirectiveTodo}},
			{Number: 4, Status: tap.StatusOK},
			{Number: 5, Status: tap.StatusNotOK},
		},
		BailOuts: 1,
	}

	got := Tally([]TaggedSet{{Set: set}}, true)
	want := Counters{Total: 5, Skipped: 5, BailOuts: 1}
	if got != want {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}
}

func TestTally_Classification(t *testing.T) {
	t.Parallel()
	input := `1..6
ok 1 pass
not ok 2 fail
ok 3 skipped # SKIP later
not ok 4 pending # TODO later
ok 5 done early # TODO later
not ok 6 skipped failure # SKIP flaky
`
	set := parseSet(t, input)
	sets := []TaggedSet{{File: "a.tap", Set: set}}

	tests := []struct {
		name          string
		todoIsFailure bool
		want          Counters
	}{
		{"todo counted as todo", false, Counters{Total: 6, Passed: 1, Failed: 1, Skipped: 2, Todo: 2}},
		{"todo counted as failure", true, Counters{Total: 6, Passed: 1, Failed: 3, Skipped: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Tally(sets, tt.todoIsFailure); got != tt.want {
				t.Errorf("Tally() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTally_Durations(t *testing.T) {
	t.Parallel()
	input := `1..4
ok 1
  ---
  duration_ms: 12.5
  ...
ok 2
  ---
  duration_ms: not-a-number
  ...
ok 3
  ---
  duration_ms:
    nested: 1
  ...
ok 4
  ---
  duration_ms: " 7 "
  ...
`
	got := Tally([]TaggedSet{{Set: parseSet(t, input)}}, false)
	if got.Duration != 19.5 {
		t.Errorf("Duration = %v, want 19.5", got.Duration)
	}
	if got.Passed != 4 {
		t.Errorf("Passed = %d, want 4", got.Passed)
	}
}

func TestTally_IgnoresFailedSets(t *testing.T) {
	t.Parallel()
	sets := []TaggedSet{
		{File: "ok.tap", Set: parseSet(t, "1..1\nok 1\n")},
		{File: "bad.tap", Err: &tap.ParseError{Line: 1, Message: "boom"}},
		{File: "nil.tap"},
	}
	got := Tally(sets, false)
	if got.Total != 1 || got.Passed != 1 {
		t.Errorf("Tally() = %+v, want one passed result", got)
	}
}

func TestReportTally_Idempotent(t *testing.T) {
	t.Parallel()
	r := New("", []TaggedSet{
		{File: "a.tap", Set: parseSet(t, "1..3\nok 1\nnot ok 2\nok 3 # SKIP\nBail out!\n")},
	}, "", Policy{})

	first := r.Tally()
	second := r.Tally()
	if first != second {
		t.Errorf("Tally() changed between calls: %+v then %+v", first, second)
	}
	if r.Counters() != first {
		t.Errorf("Counters() = %+v, want %+v", r.Counters(), first)
	}
	if first.BailOuts != 1 {
		t.Errorf("BailOuts = %d, want 1", first.BailOuts)
	}
}

func BenchmarkTally(b *testing.B) {
	sets := make([]TaggedSet, 0, 50)
	for i := 0; i < 50; i++ {
		sets = append(sets, TaggedSet{Set: parseSet(b, "1..4\nok 1\n  ---\n  duration_ms: 3\n  ...\nnot ok 2\nok 3 # SKIP\nok 4 # TODO\n")})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Tally(sets, false)
	}
}
