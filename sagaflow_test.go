package sagaflow

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderState struct {
	Paid     bool
	Shipped  bool
	Notified bool
}

func TestHappyPath(t *testing.T) {
	pay := NewLeaf("pay", func(ctx context.Context, ec *ExecutionContext[*orderState]) error {
		ec.Data.Paid = true
		return nil
	})
	ship := NewLeaf("ship", func(ctx context.Context, ec *ExecutionContext[*orderState]) error {
		ec.Data.Shipped = true
		return nil
	})
	notify := NewLeaf("notify", func(ctx context.Context, ec *ExecutionContext[*orderState]) error {
		ec.Data.Notified = true
		return nil
	})

	orch := NewOrchestrator[*orderState]("checkout", FailureAbort, pay, ship, notify)
	ec := NewExecutionContext[*orderState](&orderState{})

	outcome := SyncRunner[*orderState]{}.Run(context.Background(), orch, ec)

	require.Equal(t, StatusSuccess, outcome.Status)
	assert.Empty(t, outcome.Errors)
	assert.True(t, ec.Data.Paid)
	assert.True(t, ec.Data.Shipped)
	assert.True(t, ec.Data.Notified)
	assert.Equal(t, []string{"pay", "ship", "notify"}, ec.CompletedSteps())
}

func TestRetryThenSucceed(t *testing.T) {
	attempts := 0
	flaky := NewLeaf("flaky", func(ctx context.Context, ec *ExecutionContext[int]) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}).WithRetryPolicy(NewRetryPolicy(5, time.Millisecond, BackoffFixed).WithSampler(FixedSampler(0)))

	orch := NewOrchestrator[int]("retry-demo", FailureAbort, flaky)
	ec := NewExecutionContext[int](0)

	outcome := SyncRunner[int]{}.Run(context.Background(), orch, ec)

	require.Equal(t, StatusSuccess, outcome.Status)
	assert.Equal(t, 3, attempts)

	var retryEvents, errorEvents int
	for _, ev := range ec.Trace() {
		switch ev.Kind {
		case EventRetry:
			retryEvents++
		case EventError:
			errorEvents++
		}
	}
	assert.Equal(t, 2, retryEvents)
	assert.Equal(t, 2, errorEvents)
}

func TestCompensationLIFOWithOneUndoFailing(t *testing.T) {
	var order []string

	reserve := NewLeaf("reserve", func(ctx context.Context, ec *ExecutionContext[int]) error {
		order = append(order, "reserve")
		return nil
	}).WithCompensator(func(ctx context.Context, ec *ExecutionContext[int]) error {
		order = append(order, "undo-reserve")
		return nil
	})

	charge := NewLeaf("charge", func(ctx context.Context, ec *ExecutionContext[int]) error {
		order = append(order, "charge")
		return nil
	}).WithCompensator(func(ctx context.Context, ec *ExecutionContext[int]) error {
		order = append(order, "undo-charge")
		return errors.New("refund gateway down")
	})

	fail := NewLeaf("fail", func(ctx context.Context, ec *ExecutionContext[int]) error {
		return errors.New("boom")
	})

	orch := NewOrchestrator[int]("saga-demo", FailureCompensate, reserve, charge, fail)
	ec := NewExecutionContext[int](0)

	outcome := SyncRunner[int]{}.Run(context.Background(), orch, ec)

	require.Equal(t, StatusFailed, outcome.Status)
	require.Len(t, outcome.Errors, 2)
	assert.Equal(t, []string{"reserve", "charge", "undo-charge", "undo-reserve"}, order)
}

func TestContinueStrategyYieldsPartial(t *testing.T) {
	var ran []string
	step := func(name string, fail bool) *Leaf[int] {
		return NewLeaf(name, func(ctx context.Context, ec *ExecutionContext[int]) error {
			ran = append(ran, name)
			if fail {
				return errors.New("step failed")
			}
			return nil
		})
	}

	orch := NewOrchestrator[int]("continue-demo", FailureContinue,
		step("a", false), step("b", true), step("c", false))
	ec := NewExecutionContext[int](0)

	outcome := SyncRunner[int]{}.Run(context.Background(), orch, ec)

	require.Equal(t, StatusPartial, outcome.Status)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, []string{"a", "b", "c"}, ran)
	assert.Equal(t, []string{"a", "c"}, ec.CompletedSteps())
}

func TestSyncRunnerRejectsAsyncLeaf(t *testing.T) {
	invoked := false
	asyncLeaf := NewAsyncLeaf("asy", func(ctx context.Context, ec *ExecutionContext[int]) error {
		invoked = true
		return nil
	})

	orch := NewOrchestrator[int]("mismatch-demo", FailureAbort, asyncLeaf)
	ec := NewExecutionContext[int](0)

	outcome := SyncRunner[int]{}.Run(context.Background(), orch, ec)

	require.Equal(t, StatusFailed, outcome.Status)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, KindRunnerMismatch, outcome.Errors[0].Kind)
	assert.False(t, invoked, "sync runner must never invoke an async leaf's function")
}

func TestDynamicAssemblyUnknownStep(t *testing.T) {
	reg := NewRegistry[int]()
	reg.Register(NewLeaf("known", func(ctx context.Context, ec *ExecutionContext[int]) error { return nil }))

	_, err := Assemble[int](AssemblyDescriptor{
		Name:     "planner-output",
		Steps:    []string{"known", "ghost"},
		Strategy: FailureAbort,
	}, reg)

	require.Error(t, err)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, KindUnknownStep, execErr.Summary.Kind)
}

func TestDynamicAssemblySuccess(t *testing.T) {
	reg := NewRegistry[int]()
	reg.Register(NewLeaf("a", func(ctx context.Context, ec *ExecutionContext[int]) error { return nil }))
	reg.Register(NewLeaf("b", func(ctx context.Context, ec *ExecutionContext[int]) error { return nil }))

	orch, err := Assemble[int](AssemblyDescriptor{
		Name:     "planner-output",
		Steps:    []string{"a", "b"},
		Strategy: FailureAbort,
	}, reg)
	require.NoError(t, err)

	ec := NewExecutionContext[int](0)
	outcome := SyncRunner[int]{}.Run(context.Background(), orch, ec)
	require.Equal(t, StatusSuccess, outcome.Status)
}

func TestManifestIsDeterministic(t *testing.T) {
	a := NewLeaf("a", func(ctx context.Context, ec *ExecutionContext[int]) error { return nil }).
		WithRetryPolicy(NewRetryPolicy(3, time.Second, BackoffExponential))
	b := NewLeaf("b", func(ctx context.Context, ec *ExecutionContext[int]) error { return nil }).
		WithCompensator(func(ctx context.Context, ec *ExecutionContext[int]) error { return nil })

	orch := NewOrchestrator[int]("manifest-demo", FailureCompensate, a, b)

	m1 := BuildManifest[int](orch)
	m2 := BuildManifest[int](orch)

	assert.Equal(t, m1, m2)
	require.Len(t, m1.Steps, 2)
	assert.Equal(t, "a", m1.Steps[0].Name)
	assert.Equal(t, 3, m1.Steps[0].MaxAttempts)
	assert.False(t, m1.Steps[0].HasCompensator)
	assert.True(t, m1.Steps[1].HasCompensator)
}

func TestContextJSONRoundTrip(t *testing.T) {
	ec := NewExecutionContext[orderState](orderState{Paid: true})
	ec.Metadata["tenant"] = "acme"
	ec.MarkCompleted("pay")
	ec.Emit(Event{Kind: EventStart, Node: "pay", Timestamp: time.Now()})

	raw, err := ec.ToJSON()
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))
	completed, ok := generic["completed_steps"].(map[string]interface{})
	require.True(t, ok, "completed_steps must be a {\"__set__\": [...]} object")
	assert.ElementsMatch(t, []interface{}{"pay"}, completed["__set__"])

	restored, err := FromJSON[orderState](raw)
	require.NoError(t, err)

	assert.Equal(t, ec.RunID, restored.RunID)
	assert.True(t, restored.Data.Paid)
	assert.Equal(t, "acme", restored.Metadata["tenant"])
	assert.True(t, restored.WasCompleted("pay"))
	require.Len(t, restored.Trace(), 1)
}

func TestReentrantRunPanicsContractViolation(t *testing.T) {
	ec := NewExecutionContext[int](0)
	ec.acquireRun()
	defer ec.releaseRun()

	assert.PanicsWithValue(t, ContractViolation{Message: "re-entrant or concurrent Run on ExecutionContext " + ec.RunID}, func() {
		ec.acquireRun()
	})
}

func TestDuplicateLeafNameRejected(t *testing.T) {
	assert.Panics(t, func() {
		NewOrchestrator[int]("dup-demo", FailureAbort,
			NewLeaf("x", func(ctx context.Context, ec *ExecutionContext[int]) error { return nil }),
			NewLeaf("x", func(ctx context.Context, ec *ExecutionContext[int]) error { return nil }),
		)
	})
}
