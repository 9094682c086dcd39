// Package demoleaves provides a small built-in Registry of sample leaves for
// sagaflowctl's run/manifest/validate subcommands, standing in for the
// templates a real embedder would register (deploy pipelines, data
// pipelines, agent pipelines). Step names and shapes are carried over from
// the teacher's devops CI/CD template
// (internal/workflow/templates/devops.go's checkout/lint/test/build/deploy
// stage names), reimplemented as in-process functions instead of containers
// since sagaflow has no container runtime (see SPEC_FULL.md §9).
package demoleaves

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sagaflow/sagaflow"
)

// PipelineState is the shared Data type threaded through the demo pipeline.
type PipelineState struct {
	Repo       string
	Commit     string
	Artifacts  []string
	Deployed   bool
	flakyCalls int
}

// Registry returns a fresh *sagaflow.Registry[*PipelineState] populated with
// the demo CI/CD leaves, so each invocation of sagaflowctl gets an
// independent registry (no shared mutable flakyCalls counter across runs).
func Registry() *sagaflow.Registry[*PipelineState] {
	reg := sagaflow.NewRegistry[*PipelineState]()

	reg.Register(sagaflow.NewLeaf("checkout", func(ctx context.Context, ec *sagaflow.ExecutionContext[*PipelineState]) error {
		if ec.Data.Repo == "" {
			return errors.New("no repo configured")
		}
		ec.Data.Commit = "deadbeef"
		return nil
	}).WithDescription("clone the configured repo at HEAD"))

	reg.Register(sagaflow.NewLeaf("lint", func(ctx context.Context, ec *sagaflow.ExecutionContext[*PipelineState]) error {
		return nil
	}).WithDescription("run static analysis"))

	reg.Register(sagaflow.NewLeaf("test", func(ctx context.Context, ec *sagaflow.ExecutionContext[*PipelineState]) error {
		ec.Data.flakyCalls++
		if ec.Data.flakyCalls < 2 {
			return errors.New("test runner: connection reset")
		}
		return nil
	}).WithDescription("run the test suite, flaky on first attempt in this demo").
		WithRetryPolicy(sagaflow.NewRetryPolicy(3, 50*time.Millisecond, sagaflow.BackoffLinear).WithJitter(0.2)))

	reg.Register(sagaflow.NewLeaf("build", func(ctx context.Context, ec *sagaflow.ExecutionContext[*PipelineState]) error {
		ec.Data.Artifacts = append(ec.Data.Artifacts, fmt.Sprintf("%s-%s.tar.gz", ec.Data.Repo, ec.Data.Commit))
		return nil
	}).WithDescription("produce a release artifact").
		WithCompensator(func(ctx context.Context, ec *sagaflow.ExecutionContext[*PipelineState]) error {
			if n := len(ec.Data.Artifacts); n > 0 {
				ec.Data.Artifacts = ec.Data.Artifacts[:n-1]
			}
			return nil
		}))

	reg.Register(sagaflow.NewLeaf("deploy", func(ctx context.Context, ec *sagaflow.ExecutionContext[*PipelineState]) error {
		if len(ec.Data.Artifacts) == 0 {
			return errors.New("nothing to deploy")
		}
		ec.Data.Deployed = true
		return nil
	}).WithDescription("publish the artifact to the demo target").
		WithCompensator(func(ctx context.Context, ec *sagaflow.ExecutionContext[*PipelineState]) error {
			ec.Data.Deployed = false
			return nil
		}))

	return reg
}
