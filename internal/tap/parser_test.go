package tap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustParse(t *testing.T, opts Options, input string) *Set {
	t.Helper()
	set, err := NewParser(opts).ParseString(input)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return set
}

func TestParse_Basic(t *testing.T) {
	t.Parallel()
	set := mustParse(t, DefaultOptions(), "1..2\nok 1 sample First ok\nnot ok 2 sample Second failed\n")

	if set.Plan == nil || set.Plan.Initial != 1 || set.Plan.Last != 2 {
		t.Fatalf("Plan = %+v, want 1..2", set.Plan)
	}
	if len(set.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(set.Results))
	}

	first, second := set.Results[0], set.Results[1]
	if first.Number != 1 || first.Status != StatusOK || first.Description != "sample First ok" {
		t.Errorf("Results[0] = %+v", first)
	}
	if second.Number != 2 || second.Status != StatusNotOK || second.Description != "sample Second failed" {
		t.Errorf("Results[1] = %+v", second)
	}
}

func TestParse_Directives(t *testing.T) {
	t.Parallel()
	input := `TAP version 13
1..5
ok 1 - install # SKIP no network
not ok 2 - feature # TODO not implemented
ok 3 - escaped \# hash
ok 4 - plain # just a note
ok - no number
`
	set := mustParse(t, DefaultOptions(), input)
	if len(set.Results) != 5 {
		t.Fatalf("len(Results) = %d, want 5", len(set.Results))
	}

	r := set.Results
	if r[0].Directive == nil || r[0].Directive.Kind != DirectiveSkip || r[0].Directive.Reason != "no network" {
		t.Errorf("Results[0].Directive = %+v, want SKIP no network", r[0].Directive)
	}
	if r[0].Description != "- install" {
		t.Errorf("Results[0].Description = %q, want %q", r[0].Description, "- install")
	}
	if r[1].Directive == nil || r[1].Directive.Kind != DirectiveTodo {
		t.Errorf("Results[1].Directive = %+v, want TODO", r[1].Directive)
	}
	if r[2].Description != "- escaped # hash" || r[2].Directive != nil {
		t.Errorf("Results[2] = %+v, want escaped hash and no directive", r[2])
	}
	if r[3].Directive != nil || len(r[3].Comments) != 1 || !r[3].Comments[0].Inline || r[3].Comments[0].Text != "just a note" {
		t.Errorf("Results[3] = %+v, want inline comment", r[3])
	}
	if r[4].Number != 5 {
		t.Errorf("Results[4].Number = %d, want 5", r[4].Number)
	}
}

func TestParse_SkipAllPlan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"zero plan", "1..0\n", ""},
		{"zero plan with reason", "1..0 # SKIP no database\n", "no database"},
		{"skip directive on plan", "1..2 # skip not on this platform\nok 1\nok 2\n", "not on this platform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			set := mustParse(t, DefaultOptions(), tt.input)
			if set.Plan == nil || !set.Plan.SkipAll {
				t.Fatalf("Plan = %+v, want skip-all", set.Plan)
			}
			if set.Plan.Reason != tt.reason {
				t.Errorf("Plan.Reason = %q, want %q", set.Plan.Reason, tt.reason)
			}
		})
	}
}

func TestParse_BailOutAndComments(t *testing.T) {
	t.Parallel()
	input := "# leading comment is dropped\n1..3\nok 1\n# block comment\nBail out! database down\nBail out!\n"
	set := mustParse(t, DefaultOptions(), input)

	if set.BailOuts != 2 {
		t.Errorf("BailOuts = %d, want 2", set.BailOuts)
	}
	if got := set.Results[0].Comments; len(got) != 1 || got[0].Inline || got[0].Text != "block comment" {
		t.Errorf("Comments = %+v, want one block comment", got)
	}
}

func TestParse_PlanRequired(t *testing.T) {
	t.Parallel()
	input := "ok 1\nok 2\n"

	_, err := NewParser(DefaultOptions()).ParseString(input)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("ParseString() error = %v, want *ParseError", err)
	}

	opts := DefaultOptions()
	opts.PlanRequired = false
	set := mustParse(t, opts, input)
	if set.Plan != nil || len(set.Results) != 2 {
		t.Errorf("set = %+v, want 2 results without plan", set)
	}
}

func TestParse_DuplicatePlan(t *testing.T) {
	t.Parallel()
	_, err := NewParser(DefaultOptions()).ParseString("1..1\nok 1\n1..1\n")
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 3 {
		t.Fatalf("ParseString() error = %v, want ParseError on line 3", err)
	}
}

func TestParse_YAMLDiagnostic(t *testing.T) {
	t.Parallel()
	input := `1..1
not ok 1 - compare
  ---
  message: values differ
  duration_ms: 12.5
  data:
    got: 1
    expected: 2
  tags: [a, b]
  empty:
  ...
`
	set := mustParse(t, DefaultOptions(), input)
	d := set.Results[0].Diagnostic

	if got := d.Keys(); len(got) != 5 || got[0] != "message" || got[4] != "empty" {
		t.Fatalf("Keys() = %v, want document order", got)
	}
	if v, _ := d.Get("duration_ms"); v.String() != "12.5" {
		t.Errorf("duration_ms = %q, want 12.5", v.String())
	}
	data, _ := d.Get("data")
	nested, ok := data.AsMap()
	if !ok {
		t.Fatalf("data is %v, want mapping", data.Kind())
	}
	if v, _ := nested.Get("expected"); v.String() != "2" {
		t.Errorf("data.expected = %q, want 2", v.String())
	}
	if v, _ := d.Get("tags"); v.Kind() != KindList {
		t.Errorf("tags kind = %v, want list", v.Kind())
	}
	if v, ok := d.Get("empty"); !ok || !v.IsNull() {
		t.Errorf("empty = %v (present %v), want null", v, ok)
	}
}

func TestParse_CorruptedYAML(t *testing.T) {
	t.Parallel()
	input := "1..1\nok 1\n  ---\n  key: [unclosed\n  ...\n"

	_, err := NewParser(DefaultOptions()).ParseString(input)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 3 {
		t.Fatalf("ParseString() error = %v, want ParseError on line 3", err)
	}

	opts := DefaultOptions()
	opts.RemoveYAMLIfCorrupted = true
	set := mustParse(t, opts, input)
	if set.Results[0].Diagnostic != nil {
		t.Errorf("Diagnostic = %v, want dropped", set.Results[0].Diagnostic)
	}
}

func TestParse_YAMLAliasCycle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
	}{
		{"nested mapping", "1..1\nok 1 x\n  ---\n  a: &x\n    b: *x\n  ...\n"},
		{"sequence", "1..1\nok 1 x\n  ---\n  a: &x [1, *x]\n  ...\n"},
		{"deeper alias", "1..1\nok 1 x\n  ---\n  a: &x\n    b:\n      c: [*x]\n  ...\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewParser(DefaultOptions()).ParseString(tt.input)
			var pe *ParseError
			if !errors.As(err, &pe) || pe.Line != 3 {
				t.Fatalf("ParseString() error = %v, want ParseError on line 3", err)
			}

			opts := DefaultOptions()
			opts.RemoveYAMLIfCorrupted = true
			set := mustParse(t, opts, tt.input)
			if set.Results[0].Diagnostic != nil {
				t.Errorf("Diagnostic = %v, want dropped", set.Results[0].Diagnostic)
			}
		})
	}
}

func TestParse_YAMLAliasExpansionLimit(t *testing.T) {
	t.Parallel()
	var b strings.Builder
	b.WriteString("1..1\nok 1 x\n  ---\n  l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= 7; i++ {
		ref := fmt.Sprintf("*l%d", i-1)
		fmt.Fprintf(&b, "  l%d: &l%d [%s]\n", i, i, strings.TrimSuffix(strings.Repeat(ref+", ", 10), ", "))
	}
	b.WriteString("  ...\n")

	_, err := NewParser(DefaultOptions()).ParseString(b.String())
	var pe *ParseError
	if !errors.As(err, &pe) || !strings.Contains(pe.Message, "expands to more than") {
		t.Fatalf("ParseString() error = %v, want expansion limit ParseError", err)
	}
}

func TestParse_YAMLAliasReuse(t *testing.T) {
	t.Parallel()
	input := "1..1\nok 1 x\n  ---\n  a: &x {k: v}\n  b: *x\n  c: [*x, *x]\n  ...\n"

	d := mustParse(t, DefaultOptions(), input).Results[0].Diagnostic
	v, ok := d.Get("b")
	if !ok {
		t.Fatal("b missing")
	}
	m, isMap := v.AsMap()
	if !isMap {
		t.Fatalf("b kind = %v, want map", v.Kind())
	}
	if k, _ := m.Get("k"); k.String() != "v" {
		t.Errorf("b.k = %v, want v", k)
	}
	if c, _ := d.Get("c"); c.Kind() != KindList {
		t.Errorf("c kind = %v, want list", c.Kind())
	}
}

func TestParse_UnterminatedYAML(t *testing.T) {
	t.Parallel()
	input := "1..1\nok 1\n  ---\n  key: value\n"
	if _, err := NewParser(DefaultOptions()).ParseString(input); err == nil {
		t.Fatal("ParseString() error = nil, want unterminated block error")
	}
	opts := DefaultOptions()
	opts.RemoveYAMLIfCorrupted = true
	if _, err := NewParser(opts).ParseString(input); err != nil {
		t.Fatalf("ParseString() error = %v, want nil with RemoveYAMLIfCorrupted", err)
	}
}

func TestParse_SubtestBeforeParent(t *testing.T) {
	t.Parallel()
	input := "1..2\n  1..3\n  ok 1 1.1\n  ok 2 1.2\n  ok 3 1.3\nok 1 1\nok 2 2\n"
	set := mustParse(t, DefaultOptions(), input)

	if len(set.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(set.Results))
	}
	sub := set.Results[0].Subtest
	if sub == nil || len(sub.Results) != 3 {
		t.Fatalf("Results[0].Subtest = %+v, want 3 results", sub)
	}
	if sub.Plan == nil || sub.Plan.Last != 3 {
		t.Errorf("Subtest.Plan = %+v, want 1..3", sub.Plan)
	}
	if set.Results[1].Subtest != nil {
		t.Errorf("Results[1].Subtest = %+v, want nil", set.Results[1].Subtest)
	}
}

func TestParse_TrailingSubtestAttachesToPreceding(t *testing.T) {
	t.Parallel()
	input := "1..1\nok 1 - 1\n  1..1\n  ok 1.1 - 1\n    1..3\n    ok 1 1.1.1\n    ok 2 1.1.2\n    ok 3 1.1.3\n"
	set := mustParse(t, DefaultOptions(), input)

	outer := set.Results[0].Subtest
	if outer == nil || len(outer.Results) != 1 {
		t.Fatalf("outer subtest = %+v, want 1 result", outer)
	}
	inner := outer.Results[0].Subtest
	if inner == nil || len(inner.Results) != 3 {
		t.Fatalf("inner subtest = %+v, want 3 results", inner)
	}
}

func TestParse_NestedSubtestWithYAML(t *testing.T) {
	t.Parallel()
	input := `TAP version 14
1..1
# Subtest: group
    1..1
    ok 1 - inner
      ---
      duration_ms: 3
      ...
ok 1 - group
  ---
  duration_ms: 5
  ...
`
	set := mustParse(t, DefaultOptions(), input)
	parent := set.Results[0]
	if v, _ := parent.Diagnostic.Get("duration_ms"); v.String() != "5" {
		t.Errorf("parent duration_ms = %q, want 5", v.String())
	}
	if !parent.HasSubtest() {
		t.Fatal("parent has no subtest")
	}
	if v, _ := parent.Subtest.Results[0].Diagnostic.Get("duration_ms"); v.String() != "3" {
		t.Errorf("inner duration_ms = %q, want 3", v.String())
	}
}

func TestParse_SubtestsDisabled(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	opts.EnableSubtests = false
	set := mustParse(t, opts, "1..1\n  1..2\n  ok 1 a\n  ok 2 b\nok 1 parent\n")

	if len(set.Results) != 1 || set.Results[0].Subtest != nil {
		t.Errorf("set = %+v, want one result without subtest", set)
	}
}

func TestParseFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "result.tap")
	if err := os.WriteFile(path, []byte("1..1\nok 1 from file\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	set, err := NewParser(DefaultOptions()).ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if set.Results[0].Description != "from file" {
		t.Errorf("Description = %q, want %q", set.Results[0].Description, "from file")
	}

	if _, err := NewParser(DefaultOptions()).ParseFile(filepath.Join(t.TempDir(), "missing.tap")); err == nil {
		t.Error("ParseFile(missing) error = nil, want error")
	}
}

func TestSetPlanMismatch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		set  *Set
		want bool
	}{
		{"nil", nil, false},
		{"no plan", &Set{Results: []*Node{{}}}, false},
		{"match", &Set{Plan: &Plan{Initial: 1, Last: 1}, Results: []*Node{{}}}, false},
		{"deficit", &Set{Plan: &Plan{Initial: 1, Last: 4}, Results: []*Node{{}, {}, {}}}, true},
		{"skip all", &Set{Plan: &Plan{Initial: 1, Last: 0, SkipAll: true}, Results: []*Node{{}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.set.PlanMismatch(); got != tt.want {
				t.Errorf("PlanMismatch() = %v, want %v", got, tt.want)
			}
		})
	}
}
