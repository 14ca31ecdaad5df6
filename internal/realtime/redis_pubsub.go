package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// userChannel is the Redis channel carrying hub events for one user.
func userChannel(userKey string) string { return "invisireel:ws:" + userKey }

// envelope is what travels over Redis between instances.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Sent  time.Time       `json:"sent"`
}

func encodeEnvelope(event string, payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		payload = []byte("null")
	}
	return json.Marshal(envelope{Event: event, Data: payload, Sent: time.Now().UTC()})
}

func decodeEnvelope(raw string) (envelope, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return env, err
	}
	if env.Event == "" {
		return env, fmt.Errorf("missing event name")
	}
	return env, nil
}

// RedisPubSub carries hub events between server instances.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates the bridge.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger}
}

// PublishUserEvent sends event to every instance holding a connection for userKey.
func (r *RedisPubSub) PublishUserEvent(userKey, event string, payload []byte) error {
	body, err := encodeEnvelope(event, payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, userChannel(userKey), body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

// SubscribeUser calls handler for each event published for userKey until cancel is called.
func (r *RedisPubSub) SubscribeUser(userKey string, handler func(event string, payload []byte)) (cancel func(), err error) {
	channel := userChannel(userKey)
	ctx, stop := context.WithCancel(context.Background())
	sub := r.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		stop()
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	go func() {
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				env, err := decodeEnvelope(msg.Payload)
				if err != nil {
					r.logger.Debug("dropping malformed hub event", zap.String("channel", channel), zap.Error(err))
					continue
				}
				handler(env.Event, env.Data)
			}
		}
	}()
	return stop, nil
}
