package sagaflow

// ManifestStep is the flattened, deterministic description of one leaf in an
// execution tree, per spec §4.2 (manifest introspection: enough for an
// external caller — e.g. an LLM planner — to understand a tree without
// running it).
type ManifestStep struct {
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	IsAsync        bool              `json:"is_async"`
	HasCompensator bool              `json:"has_compensator"`
	MaxAttempts    int               `json:"max_attempts"`
	Backoff        string            `json:"backoff,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Manifest is the deterministic, serializable description of an
// Orchestrator: name, failure strategy, and its steps in tree order. Two
// calls to BuildManifest against the same orchestrator always produce an
// identical Manifest (spec §4.2's determinism requirement) since it reads
// only immutable tree structure, never ExecutionContext state.
type Manifest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Strategy    FailureStrategy `json:"strategy"`
	Steps       []ManifestStep  `json:"steps"`
}

// BuildManifest walks the tree in the same depth-first pre-order as
// walkLeaves, so manifest step order always matches execution order.
func BuildManifest[T any](o *Orchestrator[T]) Manifest {
	m := Manifest{
		Name:        o.name,
		Description: o.description,
		Strategy:    o.strategy,
	}
	for _, ln := range walkLeaves[T](o) {
		leaf, ok := ln.(*Leaf[T])
		if !ok || leaf == nil {
			continue
		}
		m.Steps = append(m.Steps, ManifestStep{
			Name:           leaf.name,
			Description:    leaf.description,
			IsAsync:        leaf.isAsync,
			HasCompensator: leaf.compensator != nil,
			MaxAttempts:    leaf.policy.maxAttempts(),
			Backoff:        string(leaf.policy.Backoff),
			Metadata:       leaf.metadata,
		})
	}
	return m
}
