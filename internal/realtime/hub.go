// Package realtime pushes identity changes and creation progress to browser tabs over WebSocket.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Event names sent to clients.
const (
	EventAuthStateChange = "auth_state_change"
	EventFlowUpdated     = "flow_updated"
	EventPong            = "pong"
	EventError           = "error"
)

// Hub maintains user key -> set of connections. Anonymous connections are not registered.
// With Redis configured, user events are published so every instance delivers them.
type Hub struct {
	users    map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per user
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance delivery).
type RedisPublisher interface {
	PublishUserEvent(userKey, event string, payload []byte) error
}

// RedisSubscriber subscribes to user channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeUser(userKey string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		users:    make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register attaches c to userKey. Starts the Redis subscription for the user if first client.
func (h *Hub) Register(userKey string, c *Client) {
	if userKey == "" {
		return
	}
	h.mu.Lock()
	if h.users[userKey] == nil {
		h.users[userKey] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeUser(userKey, func(event string, payload []byte) {
				h.SendToUser(userKey, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("user channel subscription failed", zap.String("user", userKey), zap.Error(err))
			} else {
				h.subs[userKey] = cancel
			}
		}
	}
	h.users[userKey][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client registered", zap.String("client_id", c.ID), zap.String("user", userKey))
}

// Unregister detaches c from userKey. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(userKey string, c *Client) {
	if userKey == "" {
		return
	}
	h.mu.Lock()
	if m, ok := h.users[userKey]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, userKey)
			if cancel, ok := h.subs[userKey]; ok {
				cancel()
				delete(h.subs, userKey)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client unregistered", zap.String("client_id", c.ID), zap.String("user", userKey))
}

// SendToUser sends a message to all local connections of userKey.
func (h *Hub) SendToUser(userKey, event string, payload interface{}) {
	msg, err := newMessage(event, payload)
	if err != nil {
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.users[userKey]))
	for _, c := range h.users[userKey] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.deliver(msg)
	}
}

// PublishToUser delivers through Redis when configured (the subscriber performs the local send,
// once per instance), otherwise locally.
func (h *Hub) PublishToUser(userKey, event string, payload interface{}) {
	if userKey == "" {
		return
	}
	if h.redis != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		if err := h.redis.PublishUserEvent(userKey, event, data); err == nil {
			return
		}
	}
	h.SendToUser(userKey, event, payload)
}

// Connections returns the number of local connections for userKey.
func (h *Hub) Connections(userKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userKey])
}

func newMessage(event string, payload interface{}) (WSMessage, error) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return WSMessage{}, err
		}
	}
	return WSMessage{Event: event, Data: data}, nil
}
