package telemetry

import (
	"context"

	"github.com/sagaflow/sagaflow"
)

// TracedRunner decorates a sagaflow.Runner, replaying every event appended to
// the context's trace through a TraceLogger once the run completes. Replay
// (rather than a synchronous per-event hook) keeps the core engine free of
// any telemetry-shaped parameter on its hot path, at the cost of only seeing
// events after the run finishes rather than as they happen.
type TracedRunner[T any] struct {
	Runner sagaflow.Runner[T]
	Logger TraceLogger
}

func Wrap[T any](runner sagaflow.Runner[T], logger TraceLogger) TracedRunner[T] {
	if logger == nil {
		logger = NopTraceLogger{}
	}
	return TracedRunner[T]{Runner: runner, Logger: logger}
}

func (r TracedRunner[T]) Run(ctx context.Context, o *sagaflow.Orchestrator[T], ec *sagaflow.ExecutionContext[T]) sagaflow.Outcome[T] {
	outcome := r.Runner.Run(ctx, o, ec)

	metadataByNode := make(map[string]map[string]string)
	for _, step := range sagaflow.BuildManifest[T](o).Steps {
		if len(step.Metadata) > 0 {
			metadataByNode[step.Name] = step.Metadata
		}
	}

	for _, ev := range ec.Trace() {
		r.Logger.OnEvent(ec.RunID, ev, metadataByNode[ev.Node])
	}
	return outcome
}
