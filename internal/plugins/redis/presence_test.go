package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresence(t *testing.T) (*PresenceStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewPresenceStore(rdb), mr
}

func TestPresenceCheckInAndList(t *testing.T) {
	p, _ := newTestPresence(t)
	ctx := context.Background()

	require.NoError(t, p.CheckIn(ctx, "alice_bob", "alice", 45*time.Second))
	require.NoError(t, p.CheckIn(ctx, "alice_bob", "bob", 45*time.Second))

	online, err := p.OnlineUsers(ctx, "alice_bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, online)

	// Repeat check-in refreshes the score, not the member count
	require.NoError(t, p.CheckIn(ctx, "alice_bob", "alice", 45*time.Second))
	online, err = p.OnlineUsers(ctx, "alice_bob")
	require.NoError(t, err)
	assert.Len(t, online, 2)
}

func TestPresenceStaleMembersDrop(t *testing.T) {
	p, mr := newTestPresence(t)
	ctx := context.Background()

	// Score from well outside the online window
	stale := float64(time.Now().Add(-2 * time.Minute).Unix())
	mr.ZAdd("presence:alice_bob", stale, "ghost")
	require.NoError(t, p.CheckIn(ctx, "alice_bob", "alice", 45*time.Second))

	online, err := p.OnlineUsers(ctx, "alice_bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, online)
}

func TestPresenceCheckOut(t *testing.T) {
	p, _ := newTestPresence(t)
	ctx := context.Background()

	require.NoError(t, p.CheckIn(ctx, "alice_bob", "alice", 45*time.Second))
	require.NoError(t, p.CheckIn(ctx, "alice_bob", "bob", 45*time.Second))
	require.NoError(t, p.CheckOut(ctx, "alice_bob", "alice"))

	// Gone right away, not after the freshness window
	online, err := p.OnlineUsers(ctx, "alice_bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, online)

	// Checking out an absent member is a no-op
	require.NoError(t, p.CheckOut(ctx, "alice_bob", "ghost"))
}

func TestPresenceClearConversation(t *testing.T) {
	p, mr := newTestPresence(t)
	ctx := context.Background()

	require.NoError(t, p.CheckIn(ctx, "alice_bob", "alice", 45*time.Second))
	require.NoError(t, p.ClearConversation(ctx, "alice_bob"))
	assert.False(t, mr.Exists("presence:alice_bob"))

	online, err := p.OnlineUsers(ctx, "alice_bob")
	require.NoError(t, err)
	assert.Empty(t, online)
}
