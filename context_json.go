package sagaflow

import (
	"encoding/json"
	"time"
)

// contextWire is the spec §6 wire shape for ExecutionContext: data and
// metadata as raw JSON, trace as Event (which has its own Marshal/Unmarshal),
// and completed_steps nested under the "__set__" tag so a reader in another
// language knows membership, not array position, is the semantic content,
// while completion order is still preserved in the array.
type contextWire struct {
	RunID          string           `json:"run_id"`
	Data           json.RawMessage  `json:"data"`
	Metadata       json.RawMessage  `json:"metadata,omitempty"`
	StartedAt      int64            `json:"started_at"`
	Trace          []Event          `json:"trace,omitempty"`
	CompletedSteps completedStepSet `json:"completed_steps"`
}

// completedStepSet is the "{\"__set__\": [...]}" wrapper spec §6 requires
// around completed_steps.
type completedStepSet struct {
	Set []string `json:"__set__"`
}

// ToJSON serializes an ExecutionContext to the spec §6 wire format. A
// marshal failure (e.g. Data contains a channel or a function) surfaces as KindSerializationErr rather than propagating
// encoding/json's raw error type.
func (ec *ExecutionContext[T]) ToJSON() ([]byte, error) {
	data, err := json.Marshal(ec.Data)
	if err != nil {
		return nil, newExecutionError(KindSerializationErr, "marshal data: %v", err)
	}
	var meta json.RawMessage
	if len(ec.Metadata) > 0 {
		meta, err = json.Marshal(ec.Metadata)
		if err != nil {
			return nil, newExecutionError(KindSerializationErr, "marshal metadata: %v", err)
		}
	}
	w := contextWire{
		RunID:          ec.RunID,
		Data:           data,
		Metadata:       meta,
		StartedAt:      ec.StartedAt.UnixMilli(),
		Trace:          ec.trace,
		CompletedSteps: completedStepSet{Set: ec.CompletedSteps()},
	}
	out, err := json.Marshal(w)
	if err != nil {
		return nil, newExecutionError(KindSerializationErr, "marshal context: %v", err)
	}
	return out, nil
}

// FromJSON deserializes a wire-format ExecutionContext. It rebuilds the
// completed-steps index from the array so WasCompleted keeps working, and
// rejects malformed input as KindSerializationErr rather than a bare
// encoding/json error, matching ToJSON's error surface.
func FromJSON[T any](raw []byte) (*ExecutionContext[T], error) {
	var w contextWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, newExecutionError(KindSerializationErr, "unmarshal context: %v", err)
	}

	var data T
	if len(w.Data) > 0 {
		if err := json.Unmarshal(w.Data, &data); err != nil {
			return nil, newExecutionError(KindSerializationErr, "unmarshal data: %v", err)
		}
	}

	metadata := make(map[string]interface{})
	if len(w.Metadata) > 0 {
		if err := json.Unmarshal(w.Metadata, &metadata); err != nil {
			return nil, newExecutionError(KindSerializationErr, "unmarshal metadata: %v", err)
		}
	}

	ec := &ExecutionContext[T]{
		RunID:          w.RunID,
		Data:           data,
		Metadata:       metadata,
		StartedAt:      time.UnixMilli(w.StartedAt),
		trace:          w.Trace,
		completedIndex: make(map[string]struct{}, len(w.CompletedSteps.Set)),
	}
	for _, name := range w.CompletedSteps.Set {
		ec.MarkCompleted(name)
	}
	return ec, nil
}
