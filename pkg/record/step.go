// Package record implements the recording primitives used inside a test
// body: named step scopes, soft assertions and attachments. Every primitive
// writes into the execution bound to the context and is a safe no-op when
// the context carries none, so the API can be called from fixtures and
// helpers without guards.
package record

import (
	"context"

	"github.com/ormasoftchile/qago/pkg/execution"
	"github.com/ormasoftchile/qago/pkg/report"
)

// Step runs fn inside a named step scope. Entries recorded by fn land in
// the step's children. The scope is released unconditionally, also when fn
// returns an error or panics, and the step's pass/fail state is recomputed
// from whatever children it accumulated. Without an active execution the
// body still runs, but no tree is built.
func Step(ctx context.Context, message string, fn func(ctx context.Context) error) error {
	exec := execution.FromContext(ctx)
	if exec == nil {
		return fn(ctx)
	}
	done := open(exec, message)
	defer done()
	return fn(ctx)
}

// BeginStep opens a step scope for callers that cannot wrap the body in a
// closure. The returned func closes the scope; calling it more than once is
// a no-op.
func BeginStep(ctx context.Context, message string) func() {
	exec := execution.FromContext(ctx)
	if exec == nil {
		return func() {}
	}
	done := open(exec, message)
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		done()
	}
}

func open(exec *execution.Execution, message string) func() {
	node := report.NewStep(message)
	exec.AddEntry(node)
	exec.PushContainer(&node.Children)
	return func() {
		exec.PopContainer()
		node.Passed = !report.HasFailures(node.Children)
	}
}
