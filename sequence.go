package sagaflow

import "context"

// Sequence runs its children in order, stopping at the first failure. It is
// the non-top-level composite: an Orchestrator holds one by composition and
// layers failure-strategy and compensation semantics on top (spec §4.1, §9).
// Grounded on the ordered step loop in the teacher's
// Orchestrator.ExecuteWorkflow (internal/workflow/orchestrator.go).
type Sequence[T any] struct {
	name        string
	description string
	children    []Executable[T]
}

func NewSequence[T any](name string, children ...Executable[T]) *Sequence[T] {
	return &Sequence[T]{name: name, children: children}
}

func (s *Sequence[T]) WithDescription(d string) *Sequence[T] {
	s.description = d
	return s
}

func (s *Sequence[T]) Name() string        { return s.name }
func (s *Sequence[T]) Description() string { return s.description }
func (s *Sequence[T]) Children() []Executable[T] {
	out := make([]Executable[T], len(s.children))
	copy(out, s.children)
	return out
}

// IsAsync reports whether any descendant leaf is async; a sync runner
// rejects the whole tree up front if this is true (spec §4.1).
func (s *Sequence[T]) IsAsync() bool {
	for _, c := range s.children {
		if c.IsAsync() {
			return true
		}
	}
	return false
}

func (s *Sequence[T]) run(ctx context.Context, ec executionContext, mode runMode) *ExecutionError {
	for _, child := range s.children {
		if err := child.run(ctx, ec, mode); err != nil {
			return err
		}
	}
	return nil
}
