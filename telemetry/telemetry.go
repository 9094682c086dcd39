// Package telemetry provides optional trace-event sinks for a run, so a host
// application can forward an ExecutionContext's Event stream to its own
// logging pipeline. TracedRunner replays the trace through the sink once the
// run has finished; events are not delivered while the run is in progress.
// Structured-logging shape and level naming follow the
// teacher's internal/logging.Logger (LogEntry's timestamp/level/component/
// message/details fields), trimmed of the redis/file-backed audit trail
// that logger carries, which is out of scope here.
package telemetry

import (
	"encoding/json"
	"log"
	"os"

	"github.com/sagaflow/sagaflow"
)

// TraceLogger receives one callback per emitted Event, plus whatever
// Metadata tags (sagaflow.Leaf.WithMetadata) the manifest carries for the
// event's node, so a sink can annotate lines with domain context (e.g.
// "team": "payments") without the core engine knowing sinks exist.
// Callbacks run on the goroutine that called TracedRunner.Run, after the
// wrapped run has returned, so a slow sink delays Run's return but never a
// leaf.
type TraceLogger interface {
	OnEvent(runID string, ev sagaflow.Event, metadata map[string]string)
}

// NopTraceLogger discards every event. It is the zero-cost default.
type NopTraceLogger struct{}

func (NopTraceLogger) OnEvent(runID string, ev sagaflow.Event, metadata map[string]string) {}

// StdTraceLogger writes one line per event through the standard library
// logger, the same idiom the teacher's Logger falls back to when console
// output is enabled.
type StdTraceLogger struct {
	logger *log.Logger
}

func NewStdTraceLogger() *StdTraceLogger {
	return &StdTraceLogger{logger: log.New(os.Stderr, "sagaflow: ", log.LstdFlags)}
}

func (t *StdTraceLogger) OnEvent(runID string, ev sagaflow.Event, metadata map[string]string) {
	t.logger.Printf("run=%s kind=%s node=%s attempt=%d detail=%q metadata=%v", runID, ev.Kind, ev.Node, ev.Attempt, ev.Detail, metadata)
}

// JSONTraceLogger writes each event as a single-line JSON object, for hosts
// that ship logs to a structured-log collector.
type JSONTraceLogger struct {
	logger *log.Logger
}

func NewJSONTraceLogger() *JSONTraceLogger {
	return &JSONTraceLogger{logger: log.New(os.Stderr, "", 0)}
}

type traceLine struct {
	RunID    string            `json:"run_id"`
	Event    sagaflow.Event    `json:"event"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (t *JSONTraceLogger) OnEvent(runID string, ev sagaflow.Event, metadata map[string]string) {
	line, err := json.Marshal(traceLine{RunID: runID, Event: ev, Metadata: metadata})
	if err != nil {
		t.logger.Printf(`{"run_id":%q,"error":"marshal trace event failed"}`, runID)
		return
	}
	t.logger.Println(string(line))
}
