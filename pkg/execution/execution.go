// Package execution owns the mutable recording state of a single test
// execution: the root log container, the stack of current insertion points,
// and the recording/finalized state machine. One execution is exclusively
// owned by the goroutine running the test body; concurrent executions never
// share a context.
package execution

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ormasoftchile/qago/pkg/report"
)

// State of an execution's recording lifecycle.
type State string

const (
	StateRecording State = "recording"
	StateFinalized State = "finalized"
)

// Execution holds the log tree being built for one test execution. The
// container stack starts at [&Root]; each open step pushes its children
// slice as the new insertion point.
type Execution struct {
	ID   string
	Root []*report.Entry

	stack []*[]*report.Entry
	state State
	diag  Diagnostics
}

// Diagnostics counts structural inconsistencies detected while recording.
// They are surfaced, never raised into the test body.
type Diagnostics struct {
	StackUnderflows int // PopContainer on a stack already at root
	LateWrites      int // recording API called after Finalize
	UnclosedScopes  int // containers still open at Finalize
}

// New creates an execution in the recording state.
func New() *Execution {
	e := &Execution{
		ID:    uuid.NewString(),
		state: StateRecording,
	}
	e.stack = []*[]*report.Entry{&e.Root}
	return e
}

type ctxKey struct{}

// Begin creates a fresh execution, registers it, and binds it to the
// returned context. Recorders retrieve it with FromContext; a context that
// carries no execution makes every recorder a no-op.
func Begin(ctx context.Context) (context.Context, *Execution) {
	e := New()
	register(e)
	return context.WithValue(ctx, ctxKey{}, e), e
}

// FromContext returns the execution bound to ctx, or nil.
func FromContext(ctx context.Context) *Execution {
	if ctx == nil {
		return nil
	}
	e, _ := ctx.Value(ctxKey{}).(*Execution)
	return e
}

// AddEntry appends an entry to the current insertion point. Nil-safe so
// recorders can call it unconditionally; writes after Finalize are dropped
// and counted.
func (e *Execution) AddEntry(entry *report.Entry) {
	if e == nil {
		return
	}
	if e.state != StateRecording {
		e.diag.LateWrites++
		return
	}
	top := e.stack[len(e.stack)-1]
	*top = append(*top, entry)
}

// PushContainer makes c the current insertion point for subsequent entries.
func (e *Execution) PushContainer(c *[]*report.Entry) {
	if e == nil {
		return
	}
	if e.state != StateRecording {
		e.diag.LateWrites++
		return
	}
	e.stack = append(e.stack, c)
}

// PopContainer restores the previous insertion point. The root container is
// never popped: an underflow is counted and ignored.
func (e *Execution) PopContainer() {
	if e == nil {
		return
	}
	if len(e.stack) <= 1 {
		e.diag.StackUnderflows++
		return
	}
	e.stack = e.stack[:len(e.stack)-1]
}

// Depth returns the current container stack depth (1 = just root).
func (e *Execution) Depth() int {
	if e == nil {
		return 0
	}
	return len(e.stack)
}

// CurrentState returns the execution's lifecycle state.
func (e *Execution) CurrentState() State {
	if e == nil {
		return ""
	}
	return e.state
}

// Diag returns a copy of the inconsistency counters.
func (e *Execution) Diag() Diagnostics {
	if e == nil {
		return Diagnostics{}
	}
	return e.diag
}

// Finalize freezes the tree, unwinds any scopes left open by an abnormal
// exit, and detaches the execution from the registry. The returned root is
// read-only from the caller's point of view; later recorder calls against
// this execution are dropped. Finalize is idempotent.
func (e *Execution) Finalize() []*report.Entry {
	if e == nil {
		return nil
	}
	if e.state == StateFinalized {
		return e.Root
	}
	if open := len(e.stack) - 1; open > 0 {
		e.diag.UnclosedScopes += open
	}
	e.stack = e.stack[:1]
	e.state = StateFinalized
	unregister(e)
	return e.Root
}

// registry tracks live executions by ID. Used for end-of-run diagnostics;
// recorders always go through the context binding, never the registry.
var (
	regMu    sync.Mutex
	registry = map[string]*Execution{}
)

func register(e *Execution) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[e.ID] = e
}

func unregister(e *Execution) {
	regMu.Lock()
	defer regMu.Unlock()
	delete(registry, e.ID)
}

// Lookup returns a live (recording) execution by ID.
func Lookup(id string) *Execution {
	regMu.Lock()
	defer regMu.Unlock()
	return registry[id]
}

// ActiveCount returns the number of executions currently recording.
func ActiveCount() int {
	regMu.Lock()
	defer regMu.Unlock()
	return len(registry)
}
