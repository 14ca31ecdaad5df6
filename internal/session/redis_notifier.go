package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/models"
)

const (
	channelPrefix = "session:"
	publishTTL    = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance delivery.
type redisPayload struct {
	Type     EventType        `json:"type"`
	Identity *models.Identity `json:"identity"`
	At       int64            `json:"at"`
}

// RedisNotifier implements Notifier using Redis pub/sub, one channel per user.
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier creates a Redis pub/sub bridge for identity changes.
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisNotifier{client: client, logger: logger}
}

// Publish sends the event to the user's channel.
func (r *RedisNotifier) Publish(ctx context.Context, ev Event) error {
	if ev.UserKey == "" {
		return nil
	}
	body, err := json.Marshal(redisPayload{Type: ev.Type, Identity: ev.Identity, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTTL)
	defer cancel()
	return r.client.Publish(ctx, channelPrefix+ev.UserKey, body).Err()
}

// Subscribe follows the user's channel and calls handler for each message until cancel is called.
func (r *RedisNotifier) Subscribe(userKey string, handler func(Event)) (cancel func(), err error) {
	channel := channelPrefix + userKey
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, channel)
	if _, err = pubsub.Receive(ctx); err != nil {
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
					r.logger.Warn("invalid session event", zap.String("channel", channel), zap.Error(err))
					continue
				}
				handler(Event{Type: p.Type, UserKey: userKey, Identity: p.Identity})
			}
		}
	}()
	return cancelCtx, nil
}
