package sagaflow

import "context"

// Runner drives an Orchestrator[T] to completion against a mode, per spec
// §4.1's dual-runtime requirement. SyncRunner and AsyncRunner differ only in
// which runMode they pass down the tree; the tree-walking and compensation
// logic is identical either way.
type Runner[T any] interface {
	Run(ctx context.Context, o *Orchestrator[T], ec *ExecutionContext[T]) Outcome[T]
}

// SyncRunner executes strictly synchronously: any async leaf anywhere in the
// tree is rejected up front as runner_mismatch, and no suspendable value it
// might have produced is ever invoked (spec §4.1).
type SyncRunner[T any] struct{}

func (SyncRunner[T]) Run(ctx context.Context, o *Orchestrator[T], ec *ExecutionContext[T]) Outcome[T] {
	return o.Execute(ctx, ec, modeSync)
}

// AsyncRunner executes cooperatively: leaves (sync or async) suspend at
// retry waits and leaf boundaries via ctx, so cancelling ctx surfaces as
// KindCancelled rather than blocking to completion (spec §4.1).
type AsyncRunner[T any] struct{}

func (AsyncRunner[T]) Run(ctx context.Context, o *Orchestrator[T], ec *ExecutionContext[T]) Outcome[T] {
	return o.Execute(ctx, ec, modeAsync)
}
