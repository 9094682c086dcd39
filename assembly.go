package sagaflow

import "fmt"

// Registry is a closed set of pre-registered leaves keyed by name. Dynamic
// assembly only ever resolves names against this set: it is the security
// boundary that lets a descriptor come from an untrusted planner (e.g. an
// LLM) without ever executing arbitrary code, per spec §4.3. Grounded on the
// teacher's templates.TemplateRegistry (internal/workflow/templates/registry.go),
// generalized from workflow templates to individual leaves.
type Registry[T any] struct {
	leaves map[string]*Leaf[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{leaves: make(map[string]*Leaf[T])}
}

// Register adds a leaf under its own Name(). Registering the same name
// twice overwrites the previous entry; callers that want to forbid that
// should check Lookup first.
func (r *Registry[T]) Register(leaf *Leaf[T]) *Registry[T] {
	r.leaves[leaf.Name()] = leaf
	return r
}

func (r *Registry[T]) Lookup(name string) (*Leaf[T], bool) {
	l, ok := r.leaves[name]
	return l, ok
}

func (r *Registry[T]) Names() []string {
	out := make([]string, 0, len(r.leaves))
	for name := range r.leaves {
		out = append(out, name)
	}
	return out
}

// AssemblyDescriptor is the wire-level instruction for dynamic assembly: an
// ordered list of leaf names to wire into a Sequence plus a failure
// strategy, per spec §4.3. It carries no function values — only data — so
// it can come from JSON produced anywhere, including outside the process.
type AssemblyDescriptor struct {
	Name     string          `json:"name"`
	Steps    []string        `json:"steps"`
	Strategy FailureStrategy `json:"strategy"`
}

// Assemble resolves every step name in d against reg and wires the result
// into a fresh Orchestrator. An unresolvable name fails closed as
// KindUnknownStep; it never falls back to constructing a step out of thin
// air. An unrecognized strategy fails as KindInvalidStrategy.
func Assemble[T any](d AssemblyDescriptor, reg *Registry[T]) (*Orchestrator[T], error) {
	switch d.Strategy {
	case FailureAbort, FailureContinue, FailureCompensate:
	default:
		return nil, newExecutionError(KindInvalidStrategy, "unknown failure strategy %q", d.Strategy)
	}

	children := make([]Executable[T], 0, len(d.Steps))
	for _, name := range d.Steps {
		leaf, ok := reg.Lookup(name)
		if !ok {
			return nil, newExecutionError(KindUnknownStep, "step %q is not registered", name)
		}
		children = append(children, leaf)
	}

	if len(children) == 0 {
		return nil, newExecutionError(KindUserError, fmt.Sprintf("assembly %q has no steps", d.Name))
	}

	return NewOrchestrator[T](d.Name, d.Strategy, children...), nil
}
