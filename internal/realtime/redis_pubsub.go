package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
)

const (
	channelPrefix    = "attendance:"
	publishTimeout   = 5 * time.Second
	subscribeTimeout = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance delivery.
type redisPayload struct {
	Change models.Change `json:"change"`
	At     int64         `json:"at"`
}

// RedisPubSub implements RedisPublisher and RedisSubscriber using Redis pub/sub.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for attendance changes.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// Channel returns the Redis channel for a scope.
func Channel(scope Scope) string {
	return channelPrefix + string(scope)
}

// PublishChange publishes a change to the scope's Redis channel.
func (r *RedisPubSub) PublishChange(ctx context.Context, scope Scope, change models.Change) error {
	body, err := json.Marshal(redisPayload{Change: change, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return r.client.Publish(ctx, Channel(scope), body).Err()
}

// SubscribeScope subscribes to a scope's Redis channel and calls handler for each message.
// Returns a cancel function to stop the subscription.
func (r *RedisPubSub) SubscribeScope(scope Scope, handler func(models.Change)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, Channel(scope))
	recvCtx, cancelRecv := context.WithTimeout(ctx, subscribeTimeout)
	_, err = pubsub.Receive(recvCtx)
	cancelRecv()
	if err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					r.logger.Warn("dropping malformed relay message",
						zap.String("channel", msg.Channel),
						zap.Error(err),
					)
					continue
				}
				handler(p.Change)
			}
		}
	}()
	return cancelCtx, nil
}
