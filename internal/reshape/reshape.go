// Package reshape restructures TAP result trees: collapsing degenerate
// single-parent wrappers and flattening nested subtests into one sequential
// list of leaf results.
//
// Both transforms build fresh output and never modify their input tree.
package reshape

import (
	"fmt"

	"github.com/AndreyAkinshin/taptally/internal/tap"
)

// Policy selects which transforms Apply runs.
type Policy struct {
	StripSingleParents bool
	Flatten            bool
}

// Apply strips single parents and then flattens, as enabled by the policy.
// With both transforms disabled the input is returned as is.
func Apply(set *tap.Set, p Policy) *tap.Set {
	if p.StripSingleParents {
		set = StripSingleParents(set)
	}
	if p.Flatten {
		set = Flatten(set)
	}
	return set
}

// HasSingleParent reports whether set is a degenerate wrapper: exactly one
// result, no plan span beyond one test, and an embedded subtest.
func HasSingleParent(set *tap.Set) bool {
	if set == nil || len(set.Results) != 1 {
		return false
	}
	if set.Plan != nil && set.Plan.Last != set.Plan.Initial {
		return false
	}
	return set.Results[0].Subtest != nil
}

// StripSingleParents descends through degenerate wrappers until the set
// no longer has a single parent. A set that is not a wrapper is returned
// unchanged.
func StripSingleParents(set *tap.Set) *tap.Set {
	for HasSingleParent(set) {
		set = set.Results[0].Subtest
	}
	return set
}

// Flatten inlines every subtest into one list of leaf results numbered
// 1..N in depth-first, left-to-right order.
//
// Each inlined child's description is prefixed with its parent's
// description. When a subtest declares a plan whose span differs from its
// result count, a failing placeholder is emitted after the subtest's
// results. The output keeps the root plan and bail-out count.
func Flatten(set *tap.Set) *tap.Set {
	if set == nil {
		return nil
	}

	out := &tap.Set{
		Results:  make([]*tap.Node, 0, len(set.Results)),
		Plan:     copyPlan(set.Plan),
		BailOuts: set.BailOuts,
	}

	// stack holds pending nodes with the next one to process on top.
	stack := make([]*tap.Node, 0, len(set.Results))
	for i := len(set.Results) - 1; i >= 0; i-- {
		stack = append(stack, set.Results[i])
	}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.HasSubtest() {
			leaf := *node
			leaf.Number = len(out.Results) + 1
			out.Results = append(out.Results, &leaf)
			continue
		}

		sub := node.Subtest
		if sub.PlanMismatch() {
			stack = append(stack, missingSubtests(node, sub.Plan.Expected()-len(sub.Results)))
		}
		for i := len(sub.Results) - 1; i >= 0; i-- {
			child := *sub.Results[i]
			child.Description = node.Description + child.Description
			stack = append(stack, &child)
		}
	}

	return out
}

// missingSubtests builds the failing placeholder for a subtest whose plan
// does not match its results. A negative count means extra results.
func missingSubtests(parent *tap.Node, missing int) *tap.Node {
	return &tap.Node{
		Status:      tap.StatusNotOK,
		Description: fmt.Sprintf("%s failed: %d subtest(s) missing", parent.Description, missing),
	}
}

func copyPlan(p *tap.Plan) *tap.Plan {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
