package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreSaveLoadDelete(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "missing")
	require.Error(t, err)
	require.IsType(t, ErrNotFound{}, err)

	require.NoError(t, s.Save(ctx, "run-1", []byte(`{"run_id":"run-1"}`)))
	data, err := s.Load(ctx, "run-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"run_id":"run-1"}`, string(data))

	require.NoError(t, s.Delete(ctx, "run-1"))
	_, err = s.Load(ctx, "run-1")
	require.Error(t, err)
}

func TestRedisStoreSavePublishesRunUpdate(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	s := NewRedisStore(client)

	ctx := context.Background()
	sub := client.Subscribe(ctx, runUpdateChannel)
	t.Cleanup(func() { sub.Close() })
	require.NoError(t, s.Save(ctx, "run-2", []byte(`{"run_id":"run-2"}`)))

	select {
	case msg := <-sub.Channel():
		var update runUpdate
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &update))
		require.Equal(t, "run-2", update.RunID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for run update publish")
	}
}
