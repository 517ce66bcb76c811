package tap

// Outcome is the classification of a single leaf result.
type Outcome int

const (
	Passed Outcome = iota
	Failed
	Skipped
	Todo
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Todo:
		return "todo"
	default:
		return "passed"
	}
}

// IsSkipped reports whether the node carries a SKIP directive.
// The status of a skipped node is irrelevant.
func IsSkipped(n *Node) bool {
	return n.Directive != nil && n.Directive.Kind == DirectiveSkip
}

// IsTodo reports whether the node carries a TODO directive.
func IsTodo(n *Node) bool {
	return n.Directive != nil && n.Directive.Kind == DirectiveTodo
}

// IsFailure reports whether the node counts as a failure.
//
// A TODO node fails only when todoIsFailure is set. Any directive
// short-circuits the status check, so "not ok # TODO" is never a failure
// through its status alone.
func IsFailure(n *Node, todoIsFailure bool) bool {
	if n.Directive != nil {
		return n.Directive.Kind == DirectiveTodo && todoIsFailure
	}
	return n.Status == StatusNotOK
}

// Classify returns exactly one outcome for the node using the precedence
// SKIP > TODO-as-failure > NOT_OK > TODO > OK.
func Classify(n *Node, todoIsFailure bool) Outcome {
	switch {
	case IsSkipped(n):
		return Skipped
	case IsFailure(n, todoIsFailure):
		return Failed
	case IsTodo(n):
		return Todo
	default:
		return Passed
	}
}
