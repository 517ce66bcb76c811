// Package tap provides the TAP result tree model, the per-result classifier,
// and a reader that builds result trees from TAP text.
package tap

// Status is the ok/not ok state of a single test line.
type Status int

const (
	StatusOK Status = iota
	StatusNotOK
)

func (s Status) String() string {
	if s == StatusNotOK {
		return "not ok"
	}
	return "ok"
}

// DirectiveKind identifies a SKIP or TODO annotation.
type DirectiveKind int

const (
	DirectiveSkip DirectiveKind = iota + 1
	DirectiveTodo
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveSkip:
		return "SKIP"
	case DirectiveTodo:
		return "TODO"
	default:
		return ""
	}
}

// Directive is the "# SKIP reason" or "# TODO reason" part of a test line.
type Directive struct {
	Kind   DirectiveKind
	Reason string
}

// Comment is a TAP comment attached to a result. Inline comments come from
// the test line itself; block comments are standalone "#" lines following it.
type Comment struct {
	Text   string
	Inline bool
}

// Plan declares the expected numbering range of a Set.
type Plan struct {
	Initial int
	Last    int
	SkipAll bool
	Reason  string
}

// Expected returns the number of results the plan declares.
func (p *Plan) Expected() int {
	return p.Last - p.Initial + 1
}

// Node is a single TAP assertion line, optionally carrying an embedded
// subtest tree.
type Node struct {
	Number      int
	Description string
	Status      Status
	Directive   *Directive
	Comments    []Comment
	Diagnostic  Diagnostic
	Subtest     *Set
}

// HasSubtest reports whether the node embeds a non-empty subtest.
func (n *Node) HasSubtest() bool {
	return n.Subtest != nil && len(n.Subtest.Results) > 0
}

// Set is a TAP stream or subtree.
type Set struct {
	Results  []*Node
	Plan     *Plan
	BailOuts int
}

// Len returns the number of results, treating a nil set as empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Results)
}

// PlanMismatch reports whether the set declares a (non skip-all) plan whose
// span differs from the actual number of results.
func (s *Set) PlanMismatch() bool {
	if s == nil || s.Plan == nil || s.Plan.SkipAll {
		return false
	}
	return s.Plan.Expected() != len(s.Results)
}
