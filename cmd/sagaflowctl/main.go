// sagaflowctl is a demo CLI for assembling and running a sagaflow
// orchestrator from a JSON descriptor, modeled on the teacher's
// cmd/agentainer cobra root command (persistent config load in
// PersistentPreRun, one subcommand per verb).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sagaflow/sagaflow"
	"github.com/sagaflow/sagaflow/cmd/sagaflowctl/demoleaves"
	"github.com/sagaflow/sagaflow/config"
	"github.com/sagaflow/sagaflow/metrics"
	"github.com/sagaflow/sagaflow/store"
	"github.com/sagaflow/sagaflow/telemetry"
)

var (
	cfgFile      string
	cfg          *config.Config
	descriptorIn string
	asyncMode    bool
	persist      bool
	redisAddr    string
	metricsAddr  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sagaflowctl",
	Short: "sagaflowctl - run and inspect sagaflow orchestrators",
	Long: `sagaflowctl assembles orchestrators from a JSON descriptor against a
built-in demo leaf registry and runs, validates, or describes them.

Quick Start:
  1. Inspect the demo registry's manifest:  sagaflowctl manifest -f pipeline.json
  2. Validate a descriptor without running: sagaflowctl validate -f pipeline.json
  3. Run it:                                sagaflowctl run -f pipeline.json`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "ignored: configuration is always read from ./sagaflowctl.yaml or $HOME/.sagaflow/sagaflowctl.yaml")
	rootCmd.PersistentFlags().StringVarP(&descriptorIn, "file", "f", "", "path to a JSON AssemblyDescriptor")
	rootCmd.MarkPersistentFlagRequired("file")
	runCmd.Flags().BoolVar(&asyncMode, "async", false, "use the cooperative-asynchronous runner instead of the synchronous one")
	runCmd.Flags().BoolVar(&persist, "persist", false, "save the run's ExecutionContext to Redis via store.RedisStore after it finishes")
	runCmd.Flags().StringVar(&redisAddr, "redis-addr", "", "redis host:port for --persist (default: sagaflowctl.yaml's redis.host/redis.port)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve the run's Prometheus registry on this host:port until the run completes (e.g. :9090)")

	rootCmd.AddCommand(runCmd, manifestCmd, validateCmd)
}

// loadDescriptor accepts either JSON or YAML, the way the teacher accepts
// YAML deployment manifests (internal/config/deployment.go) alongside its
// JSON API payloads: a .yaml/.yml extension is decoded with yaml.v3 into a
// generic map and re-marshaled to JSON, since AssemblyDescriptor's struct
// tags are JSON-only and duplicating them as yaml tags would drift.
func loadDescriptor() (sagaflow.AssemblyDescriptor, error) {
	var d sagaflow.AssemblyDescriptor
	raw, err := os.ReadFile(descriptorIn)
	if err != nil {
		return d, fmt.Errorf("read descriptor: %w", err)
	}

	if ext := filepath.Ext(descriptorIn); ext == ".yaml" || ext == ".yml" {
		var generic map[string]interface{}
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return d, fmt.Errorf("parse yaml descriptor: %w", err)
		}
		raw, err = json.Marshal(generic)
		if err != nil {
			return d, fmt.Errorf("convert yaml descriptor: %w", err)
		}
	}

	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("parse descriptor: %w", err)
	}
	return d, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "assemble and run an orchestrator from a descriptor",
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptor, err := loadDescriptor()
		if err != nil {
			return err
		}

		orch, err := sagaflow.Assemble[*demoleaves.PipelineState](descriptor, demoleaves.Registry())
		if err != nil {
			return err
		}

		if !cmd.Flags().Changed("async") && cfg.Run.DefaultMode == "async" {
			asyncMode = true
		}

		var srv *http.Server
		reg := prometheus.NewRegistry()
		collector := metrics.NewCollector(reg)
		if metricsAddr != "" || cfg.Run.MetricsEnabled {
			addr := metricsAddr
			if addr == "" {
				addr = ":9090"
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv = &http.Server{Addr: addr, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					fmt.Fprintf(os.Stderr, "sagaflowctl: metrics server: %v\n", err)
				}
			}()
			defer srv.Close()
			fmt.Printf("metrics: serving %s/metrics\n", addr)
		}

		ec := sagaflow.NewExecutionContext[*demoleaves.PipelineState](&demoleaves.PipelineState{Repo: "demo/sagaflow"})
		logger := telemetry.NewStdTraceLogger()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		start := time.Now()
		var outcome sagaflow.Outcome[*demoleaves.PipelineState]
		if asyncMode {
			outcome = telemetry.Wrap[*demoleaves.PipelineState](sagaflow.AsyncRunner[*demoleaves.PipelineState]{}, logger).Run(ctx, orch, ec)
		} else {
			outcome = telemetry.Wrap[*demoleaves.PipelineState](sagaflow.SyncRunner[*demoleaves.PipelineState]{}, logger).Run(ctx, orch, ec)
		}
		collector.RecordRunComplete(orch.Name(), string(outcome.Status), time.Since(start))

		if persist {
			addr := redisAddr
			if addr == "" {
				addr = cfg.RedisAddr()
			}
			client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			defer client.Close()
			rs := store.NewRedisStore(client)
			raw, err := ec.ToJSON()
			if err != nil {
				return fmt.Errorf("persist: %w", err)
			}
			if err := rs.Save(ctx, ec.RunID, raw); err != nil {
				return fmt.Errorf("persist: %w", err)
			}
			fmt.Printf("persisted run %s to %s\n", ec.RunID, addr)
		}

		fmt.Printf("status: %s (%dms)\n", outcome.Status, outcome.DurationMs)
		for _, e := range outcome.Errors {
			fmt.Printf("  error: %s: %s\n", e.Kind, e.Message)
		}
		if outcome.Status == sagaflow.StatusFailed {
			os.Exit(1)
		}
		return nil
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "print the deterministic manifest of an assembled orchestrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptor, err := loadDescriptor()
		if err != nil {
			return err
		}
		orch, err := sagaflow.Assemble[*demoleaves.PipelineState](descriptor, demoleaves.Registry())
		if err != nil {
			return err
		}
		m := sagaflow.BuildManifest[*demoleaves.PipelineState](orch)
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "check that a descriptor resolves against the demo registry without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptor, err := loadDescriptor()
		if err != nil {
			return err
		}
		if _, err := sagaflow.Assemble[*demoleaves.PipelineState](descriptor, demoleaves.Registry()); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}
