package sagaflow

import "context"

// runMode selects which of the two runners is driving execution; it governs
// how a leaf waits (plain sleep vs. cooperative timer+ctx.Done) and whether
// encountering async work is a runner_mismatch.
type runMode int

const (
	modeSync runMode = iota
	modeAsync
)

// Executable is the single contract shared by Leaf, Sequence, and
// Orchestrator, per spec §4 ("execute against a context, produce an
// Outcome, emit a trace"). The three variants are a tagged union
// implemented as three concrete types behind one interface, composed rather
// than inherited (§9): Orchestrator holds a Sequence by value, it does not
// extend one.
type Executable[T any] interface {
	Name() string
	Description() string
	IsAsync() bool

	// run executes this node as a step inside an enclosing composite (or as
	// the tree root, wrapped by a Runner). It returns nil on success and a
	// non-nil *ExecutionError on failure; it never panics except for
	// contract_violation.
	run(ctx context.Context, ec executionContext, mode runMode) *ExecutionError
}

// executionContext is the minimal, type-erased surface Leaf/Sequence/
// Orchestrator need from ExecutionContext[T]. Keeping it as an unexported
// interface lets walkLeaves and the runner share code across composite
// kinds without re-parameterizing every helper over T in places that don't
// touch Data.
type executionContext interface {
	Emit(ev Event)
	MarkCompleted(name string)
	WasCompleted(name string) bool
	CompletedSteps() []string
}

// leafNode is the subset of Leaf[T] that walkLeaves and validateTree need
// without re-parameterizing over T.
type leafNode interface {
	Name() string
	HasCompensator() bool
}

// walkLeaves returns every leaf in the tree in depth-first pre-order. It
// type-switches on the three concrete composite kinds since Executable
// itself exposes no generic "children" accessor (Leaf has none).
func walkLeaves[T any](e Executable[T]) []leafNode {
	switch n := e.(type) {
	case *Leaf[T]:
		return []leafNode{n}
	case *Sequence[T]:
		var out []leafNode
		for _, c := range n.children {
			out = append(out, walkLeaves[T](c)...)
		}
		return out
	case *Orchestrator[T]:
		return walkLeaves[T](&n.root)
	default:
		panicContractViolation("unknown Executable node type in tree")
		return nil
	}
}

// validateTree enforces the structural invariants every execution tree must
// satisfy before a Runner will touch it: no nil children, no duplicate leaf
// names (duplicate names would make completed_steps and compensation order
// ambiguous).
func validateTree[T any](e Executable[T]) {
	switch n := e.(type) {
	case *Leaf[T]:
		if n == nil {
			panicContractViolation("nil leaf in execution tree")
		}
	case *Sequence[T]:
		if n == nil {
			panicContractViolation("nil sequence in execution tree")
		}
		for _, c := range n.children {
			if c == nil {
				panicContractViolation("sequence %q has a nil child", n.name)
			}
			validateTree[T](c)
		}
	case *Orchestrator[T]:
		if n == nil {
			panicContractViolation("nil orchestrator in execution tree")
		}
		validateTree[T](&n.root)
	default:
		panicContractViolation("unknown Executable node type in tree")
	}

	seen := make(map[string]struct{})
	for _, leaf := range walkLeaves[T](e) {
		if _, ok := seen[leaf.Name()]; ok {
			panicContractViolation("duplicate leaf name %q in execution tree", leaf.Name())
		}
		seen[leaf.Name()] = struct{}{}
	}
}
