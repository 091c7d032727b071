package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MessageQueue parks pending messages on one Redis stream per
// conversation between ingest and the persistence worker.
type MessageQueue struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewMessageQueue(log *slog.Logger, rdb *redis.Client) *MessageQueue {
	return &MessageQueue{rdb: rdb, log: log}
}

func (q *MessageQueue) streamKey(conversationID string) string {
	return "stream:" + conversationID
}

func (q *MessageQueue) PublishToStream(ctx context.Context, conversationID string, payload []byte) error {
	return q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey(conversationID),
		MaxLen: 1000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": payload},
	}).Err()
}

func (q *MessageQueue) SubscribeToStream(
	ctx context.Context,
	conversationID string,
	group string,
	handler func(ctx context.Context, messageID string, data []byte) error,
) error {
	topic := q.streamKey(conversationID)
	err := q.rdb.XGroupCreateMkStream(ctx, topic, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	consumerName := uuid.NewString()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				// Read new entries (">") only
				res, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    group,
					Consumer: consumerName,
					Streams:  []string{topic, ">"},
					Count:    1,
					Block:    2 * time.Second,
				}).Result()
				if err != nil {
					if err != redis.Nil && ctx.Err() == nil {
						q.log.ErrorContext(ctx, "queue - subscribe - stream read failed", "stream", topic, "err", err)
					}
					continue
				}
				for _, stream := range res {
					for _, msg := range stream.Messages {
						raw, ok := msg.Values["data"].(string)
						if !ok {
							continue
						}
						if err := handler(ctx, msg.ID, []byte(raw)); err != nil {
							q.log.ErrorContext(ctx, "queue - subscribe - handler failed", "stream", topic, "message_id", msg.ID, "err", err)
						}
					}
				}
			}
		}
	}()
	return nil
}

func (q *MessageQueue) AcknowledgeMessage(ctx context.Context, conversationID, group, messageID string) error {
	return q.rdb.XAck(ctx, q.streamKey(conversationID), group, messageID).Err()
}

func (q *MessageQueue) DeleteMessage(ctx context.Context, conversationID, messageID string) error {
	return q.rdb.XDel(ctx, q.streamKey(conversationID), messageID).Err()
}

func (q *MessageQueue) DeleteStream(ctx context.Context, conversationID string) error {
	return q.rdb.Del(ctx, q.streamKey(conversationID)).Err()
}
