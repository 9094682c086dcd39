package sagaflow

import (
	"context"
	"time"
)

// LeafFunc is a synchronous unit of work. It receives the live *ExecutionContext[T]
// so it can read prior Data/Metadata and mutate Data for downstream steps.
type LeafFunc[T any] func(ctx context.Context, ec *ExecutionContext[T]) error

// AsyncLeafFunc is a cooperative-asynchronous unit of work: it must itself
// honor ctx cancellation (selecting on ctx.Done()) since the async runner
// suspends at leaf boundaries rather than pre-empting them, per spec §4.1.
type AsyncLeafFunc[T any] func(ctx context.Context, ec *ExecutionContext[T]) error

// CompensatorFunc undoes the effect of a successfully completed leaf. It runs
// best-effort: a non-nil return is recorded but does not stop the rest of the
// compensation chain (spec §4.1 Saga semantics).
type CompensatorFunc[T any] func(ctx context.Context, ec *ExecutionContext[T]) error

// Leaf is the atomic unit of an execution tree: exactly one of fn or asyncFn
// is populated, per spec §4.1. Generalized from the teacher's WorkflowStep,
// with the compensation hook modeled on CompensationAction in
// internal/workflow/compensation.go.
type Leaf[T any] struct {
	name        string
	description string
	isAsync     bool
	fn          LeafFunc[T]
	asyncFn     AsyncLeafFunc[T]
	compensator CompensatorFunc[T]
	policy      RetryPolicy
	metadata    map[string]string
}

// NewLeaf builds a synchronous leaf with the default no-retry policy.
func NewLeaf[T any](name string, fn LeafFunc[T]) *Leaf[T] {
	return &Leaf[T]{name: name, fn: fn, policy: NoRetry()}
}

// NewAsyncLeaf builds a cooperative-asynchronous leaf.
func NewAsyncLeaf[T any](name string, fn AsyncLeafFunc[T]) *Leaf[T] {
	return &Leaf[T]{name: name, isAsync: true, asyncFn: fn, policy: NoRetry()}
}

func (l *Leaf[T]) WithDescription(d string) *Leaf[T] {
	l.description = d
	return l
}

func (l *Leaf[T]) WithRetryPolicy(p RetryPolicy) *Leaf[T] {
	l.policy = p
	return l
}

func (l *Leaf[T]) WithCompensator(c CompensatorFunc[T]) *Leaf[T] {
	l.compensator = c
	return l
}

// WithMetadata attaches arbitrary string tags to a leaf, surfaced in
// Manifest output and readable by a telemetry.TraceLogger that wants to
// annotate events with domain context (e.g. "team": "payments").
func (l *Leaf[T]) WithMetadata(tags map[string]string) *Leaf[T] {
	l.metadata = tags
	return l
}

func (l *Leaf[T]) Metadata() map[string]string { return l.metadata }

func (l *Leaf[T]) Name() string        { return l.name }
func (l *Leaf[T]) Description() string { return l.description }
func (l *Leaf[T]) IsAsync() bool       { return l.isAsync }
func (l *Leaf[T]) HasCompensator() bool { return l.compensator != nil }

func (l *Leaf[T]) run(ctx context.Context, ec executionContext, mode runMode) *ExecutionError {
	typedEC, ok := ec.(*ExecutionContext[T])
	if !ok {
		panicContractViolation("leaf %s: execution context type mismatch", l.name)
	}

	if mode == modeSync && l.isAsync {
		return newExecutionError(KindRunnerMismatch, "leaf %q is async but sync runner does not execute async leaves", l.name)
	}

	var lastErr *ExecutionError
	maxAttempts := l.policy.maxAttempts()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if mode == modeAsync {
			select {
			case <-ctx.Done():
				return newExecutionError(KindCancelled, "leaf %q cancelled: %v", l.name, ctx.Err())
			default:
			}
		}

		ec.Emit(Event{Kind: EventStart, Node: l.name, Timestamp: time.Now(), Attempt: attempt})

		var err error
		if l.isAsync {
			err = l.asyncFn(ctx, typedEC)
		} else {
			err = l.fn(ctx, typedEC)
		}

		if err == nil {
			ec.MarkCompleted(l.name)
			ec.Emit(Event{Kind: EventEnd, Node: l.name, Timestamp: time.Now(), Attempt: attempt})
			return nil
		}

		kind := classifyError(err)
		if kind == "" {
			kind = KindUserError
		}
		execErr := toExecutionError(kind, err)
		lastErr = execErr
		ec.Emit(Event{Kind: EventError, Node: l.name, Timestamp: time.Now(), Attempt: attempt, Err: &execErr.Summary})

		if !l.policy.shouldRetry(kind, attempt) {
			break
		}

		delay := l.policy.sampledDelay(attempt)
		if delay <= 0 {
			continue
		}
		ec.Emit(Event{Kind: EventRetry, Node: l.name, Timestamp: time.Now(), Attempt: attempt, Detail: delay.String()})

		if mode == modeSync {
			time.Sleep(delay)
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return toExecutionError(KindCancelled, newExecutionError(KindCancelled, "leaf %q cancelled during retry wait: %v", l.name, ctx.Err()))
		}
	}

	return lastErr
}

// compensate invokes this leaf's compensator, if any, swallowing the
// caller's need to stop on error: the orchestrator's compensation loop is
// always best-effort (spec §4.1).
func (l *Leaf[T]) compensate(ctx context.Context, ec executionContext) *ExecutionError {
	if l.compensator == nil {
		return nil
	}
	typedEC, ok := ec.(*ExecutionContext[T])
	if !ok {
		panicContractViolation("leaf %s: execution context type mismatch during compensation", l.name)
	}
	ec.Emit(Event{Kind: EventCompensateStart, Node: l.name, Timestamp: time.Now()})
	if err := l.compensator(ctx, typedEC); err != nil {
		kind := classifyError(err)
		if kind == "" {
			kind = KindUserError
		}
		execErr := toExecutionError(kind, err)
		ec.Emit(Event{Kind: EventCompensateError, Node: l.name, Timestamp: time.Now(), Err: &execErr.Summary})
		return execErr
	}
	ec.Emit(Event{Kind: EventCompensateEnd, Node: l.name, Timestamp: time.Now()})
	return nil
}
