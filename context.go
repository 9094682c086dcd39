package sagaflow

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ExecutionContext is the mutable aggregate created once per run, per spec
// §3. It is shared across every node of a run but is only ever touched by
// the currently executing leaf — the runner guarantees at-most-one active
// leaf at a time — so, like the teacher's workflow.StateManager, there is no
// per-field locking; the single `running` flag below exists only to reject
// re-entrant or concurrent Run calls (see contract_violation in errors.go).
type ExecutionContext[T any] struct {
	RunID     string
	Data      T
	Metadata  map[string]interface{}
	StartedAt time.Time

	trace          []Event
	completed      []string
	completedIndex map[string]struct{}
	running        int32
}

// NewExecutionContext creates a fresh, per-run context. RunID is stamped the
// way the teacher's workflow.Manager.CreateWorkflow stamps uuid.New() on a
// freshly created Workflow.
func NewExecutionContext[T any](data T) *ExecutionContext[T] {
	return &ExecutionContext[T]{
		RunID:          uuid.New().String(),
		Data:           data,
		Metadata:       make(map[string]interface{}),
		StartedAt:      time.Now(),
		completedIndex: make(map[string]struct{}),
	}
}

// Emit appends an event to the trace. Timestamps are assigned by the caller
// (the retry loop / orchestrator) using time.Now(), which is always
// non-decreasing relative to the previous call within one goroutine.
func (ec *ExecutionContext[T]) Emit(ev Event) {
	ec.trace = append(ec.trace, ev)
}

// MarkCompleted records that the leaf with this name produced a successful
// end event. Idempotent: marking the same name twice (a leaf that somehow
// runs more than once) does not duplicate the set entry.
func (ec *ExecutionContext[T]) MarkCompleted(name string) {
	if _, ok := ec.completedIndex[name]; ok {
		return
	}
	ec.completedIndex[name] = struct{}{}
	ec.completed = append(ec.completed, name)
}

// WasCompleted reports whether name is in completed_steps.
func (ec *ExecutionContext[T]) WasCompleted(name string) bool {
	_, ok := ec.completedIndex[name]
	return ok
}

// CompletedSteps returns a snapshot of the completed-steps set in insertion
// (i.e. completion) order. Callers must not rely on mutating the returned
// slice to affect the context.
func (ec *ExecutionContext[T]) CompletedSteps() []string {
	out := make([]string, len(ec.completed))
	copy(out, ec.completed)
	return out
}

// Trace returns a snapshot of the event log in execution order.
func (ec *ExecutionContext[T]) Trace() []Event {
	out := make([]Event, len(ec.trace))
	copy(out, ec.trace)
	return out
}

// acquireRun marks the context as actively running a tree, rejecting both
// concurrent Run calls against the same context and a compensator
// re-entering the runner mid-run (§9's "Saga semantics open question").
func (ec *ExecutionContext[T]) acquireRun() {
	if !atomic.CompareAndSwapInt32(&ec.running, 0, 1) {
		panicContractViolation("re-entrant or concurrent Run on ExecutionContext %s", ec.RunID)
	}
}

func (ec *ExecutionContext[T]) releaseRun() {
	atomic.StoreInt32(&ec.running, 0)
}
