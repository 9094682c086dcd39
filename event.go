package sagaflow

import (
	"encoding/json"
	"time"
)

// EventKind is the kind tag on a trace Event, per spec §3.
type EventKind string

const (
	EventStart            EventKind = "start"
	EventEnd              EventKind = "end"
	EventError            EventKind = "error"
	EventRetry            EventKind = "retry"
	EventCompensateStart  EventKind = "compensate_start"
	EventCompensateEnd    EventKind = "compensate_end"
	EventCompensateError  EventKind = "compensate_error"
)

// Event is one entry in an ExecutionContext's append-only trace.
type Event struct {
	Kind      EventKind
	Node      string
	Timestamp time.Time
	Attempt   int
	Detail    string
	Err       *ErrorSummary
}

// eventWire is the JSON shape from spec §6: detail is either a plain string
// or a structured error object, so it is marshaled by hand rather than via
// struct tags.
type eventWire struct {
	Kind    EventKind       `json:"kind"`
	Node    string          `json:"node"`
	Ts      int64           `json:"ts"`
	Attempt int             `json:"attempt"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	w := eventWire{
		Kind:    e.Kind,
		Node:    e.Node,
		Ts:      e.Timestamp.UnixMilli(),
		Attempt: e.Attempt,
	}
	switch {
	case e.Err != nil:
		data, err := json.Marshal(e.Err)
		if err != nil {
			return nil, err
		}
		w.Detail = data
	case e.Detail != "":
		data, err := json.Marshal(e.Detail)
		if err != nil {
			return nil, err
		}
		w.Detail = data
	}
	return json.Marshal(w)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Kind = w.Kind
	e.Node = w.Node
	e.Timestamp = time.UnixMilli(w.Ts)
	e.Attempt = w.Attempt
	e.Err = nil
	e.Detail = ""
	if len(w.Detail) == 0 {
		return nil
	}
	var summary ErrorSummary
	if err := json.Unmarshal(w.Detail, &summary); err == nil && summary.Kind != "" {
		e.Err = &summary
		return nil
	}
	var s string
	if err := json.Unmarshal(w.Detail, &s); err == nil {
		e.Detail = s
		return nil
	}
	// Unrecognized detail shape: keep the raw text, never fail the round trip
	// over an opaque caller-supplied annotation.
	e.Detail = string(w.Detail)
	return nil
}
