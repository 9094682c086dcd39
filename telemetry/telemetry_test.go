package telemetry

import (
	"context"
	"testing"

	"github.com/sagaflow/sagaflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	events   []sagaflow.Event
	metadata []map[string]string
}

func (r *recordingLogger) OnEvent(runID string, ev sagaflow.Event, metadata map[string]string) {
	r.events = append(r.events, ev)
	r.metadata = append(r.metadata, metadata)
}

func TestTracedRunnerReplaysTrace(t *testing.T) {
	leaf := sagaflow.NewLeaf("step", func(ctx context.Context, ec *sagaflow.ExecutionContext[int]) error {
		return nil
	})
	orch := sagaflow.NewOrchestrator[int]("demo", sagaflow.FailureAbort, leaf)
	ec := sagaflow.NewExecutionContext[int](0)

	rec := &recordingLogger{}
	runner := Wrap[int](sagaflow.SyncRunner[int]{}, rec)

	outcome := runner.Run(context.Background(), orch, ec)

	require.Equal(t, sagaflow.StatusSuccess, outcome.Status)
	require.NotEmpty(t, rec.events)
	assert.Equal(t, sagaflow.EventStart, rec.events[0].Kind)
}

func TestTracedRunnerForwardsLeafMetadata(t *testing.T) {
	leaf := sagaflow.NewLeaf("step", func(ctx context.Context, ec *sagaflow.ExecutionContext[int]) error {
		return nil
	}).WithMetadata(map[string]string{"team": "payments"})
	orch := sagaflow.NewOrchestrator[int]("demo", sagaflow.FailureAbort, leaf)
	ec := sagaflow.NewExecutionContext[int](0)

	rec := &recordingLogger{}
	runner := Wrap[int](sagaflow.SyncRunner[int]{}, rec)

	runner.Run(context.Background(), orch, ec)

	require.NotEmpty(t, rec.metadata)
	assert.Equal(t, "payments", rec.metadata[0]["team"])
}
