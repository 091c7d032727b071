package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// onlineWindow is how long a check-in counts as "online".
const onlineWindow = 45 * time.Second

// PresenceStore keeps one ZSET per conversation scoring each user with
// their last check-in timestamp.
type PresenceStore struct {
	rdb *redis.Client
}

func NewPresenceStore(rdb *redis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

func presenceKey(conversationID string) string {
	return "presence:" + conversationID
}

func (p *PresenceStore) CheckIn(
	ctx context.Context,
	conversationID string,
	userID string,
	ttl time.Duration,
) error {
	key := presenceKey(conversationID)
	err := p.rdb.ZAdd(ctx, key, redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: userID,
	}).Err()
	if err != nil {
		return err
	}
	// Expire the whole ZSet so idle conversations don't leak memory.
	return p.rdb.Expire(ctx, key, ttl*2).Err()
}

func (p *PresenceStore) CheckOut(ctx context.Context, conversationID, userID string) error {
	return p.rdb.ZRem(ctx, presenceKey(conversationID), userID).Err()
}

func (p *PresenceStore) OnlineUsers(ctx context.Context, conversationID string) ([]string, error) {
	key := presenceKey(conversationID)
	threshold := time.Now().Add(-onlineWindow).Unix()
	// Drop stale members first, then return what's left.
	p.rdb.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(threshold, 10))
	return p.rdb.ZRange(ctx, key, 0, -1).Result()
}

func (p *PresenceStore) ClearConversation(ctx context.Context, conversationID string) error {
	return p.rdb.Del(ctx, presenceKey(conversationID)).Err()
}
