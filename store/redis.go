package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// runUpdateChannel is the pub/sub channel a dashboard or CLI watcher
// subscribes to for live run state, mirroring the teacher's
// Manager.SaveWorkflow publishing to "workflow:updates"
// (internal/workflow/workflow.go).
const runUpdateChannel = "sagaflow:run:updates"

type runUpdate struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisStore persists contexts as a single string value per run, under
// "sagaflow:ctx:<run_id>", mirroring the teacher's StateManager key
// convention ("workflow:%s:state" in internal/workflow/state.go) adapted
// from a per-field hash to a single blob since ExecutionContext is
// serialized whole, not field-by-field.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "sagaflow:ctx:"}
}

func (s *RedisStore) key(runID string) string {
	return s.prefix + runID
}

func (s *RedisStore) Save(ctx context.Context, runID string, data []byte) error {
	if err := s.client.Set(ctx, s.key(runID), data, 0).Err(); err != nil {
		return fmt.Errorf("sagaflow/store: save %s: %w", runID, err)
	}

	// Best-effort: a dashboard missing one update is not worth failing the
	// save for, so a publish error is swallowed rather than returned.
	if update, err := json.Marshal(runUpdate{RunID: runID, Timestamp: time.Now()}); err == nil {
		s.client.Publish(ctx, runUpdateChannel, update)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, runID string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(runID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound{RunID: runID}
	}
	if err != nil {
		return nil, fmt.Errorf("sagaflow/store: load %s: %w", runID, err)
	}
	return data, nil
}

func (s *RedisStore) Delete(ctx context.Context, runID string) error {
	if err := s.client.Del(ctx, s.key(runID)).Err(); err != nil {
		return fmt.Errorf("sagaflow/store: delete %s: %w", runID, err)
	}
	return nil
}
