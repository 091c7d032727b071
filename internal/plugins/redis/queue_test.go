package redis

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*MessageQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewMessageQueue(slog.New(slog.DiscardHandler), rdb), mr
}

func TestQueueRoundTrip(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received [][]byte
	done := make(chan struct{})
	err := q.SubscribeToStream(ctx, "alice_bob", "workers", func(ctx context.Context, messageID string, data []byte) error {
		mu.Lock()
		received = append(received, data)
		n := len(received)
		mu.Unlock()
		if n == 2 {
			close(done)
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, q.PublishToStream(ctx, "alice_bob", []byte(`{"body":"first"}`)))
	require.NoError(t, q.PublishToStream(ctx, "alice_bob", []byte(`{"body":"second"}`)))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream delivery")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, `{"body":"first"}`, string(received[0]), "entries arrive in publish order")
	assert.Equal(t, `{"body":"second"}`, string(received[1]))
}

func TestQueueStreamsAreIsolated(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []byte, 1)
	err := q.SubscribeToStream(ctx, "alice_bob", "workers", func(ctx context.Context, messageID string, data []byte) error {
		got <- data
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, q.PublishToStream(ctx, "carol_dave", []byte("other room")))
	require.NoError(t, q.PublishToStream(ctx, "alice_bob", []byte("this room")))

	select {
	case data := <-got:
		assert.Equal(t, "this room", string(data))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream delivery")
	}
	select {
	case data := <-got:
		t.Fatalf("leaked entry from another stream: %q", data)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestQueueDeleteStream(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.PublishToStream(ctx, "alice_bob", []byte("x")))
	assert.True(t, mr.Exists("stream:alice_bob"))

	require.NoError(t, q.DeleteStream(ctx, "alice_bob"))
	assert.False(t, mr.Exists("stream:alice_bob"))
}
