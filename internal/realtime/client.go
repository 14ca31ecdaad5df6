package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/invisireel/backend/internal/middleware"
	"github.com/invisireel/backend/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // any origin; the token decides what a socket receives
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one browser tab. It owns a session store for its lifetime.
type Client struct {
	ID     string
	hub    *Hub
	store  *session.Store
	conn   *websocket.Conn
	send   chan WSMessage
	done   chan struct{}
	logger *zap.Logger

	mu      sync.Mutex
	userKey string
	closed  bool
}

// ServeWs upgrades GET /ws/session. The token (query "token" or bearer header) is optional;
// without one the tab runs in demo mode and only receives the initial null session.
func ServeWs(hub *Hub, provider session.Provider, notifier session.Notifier, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = middleware.BearerToken(c)
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			hub:    hub,
			conn:   conn,
			send:   make(chan WSMessage, 64),
			done:   make(chan struct{}),
			logger: logger,
		}
		client.store = session.NewStore(provider, notifier, token, logger)
		client.store.OnChange(client.onSessionEvent)

		go client.writePump()
		client.store.Start(c.Request.Context())
		client.readPump()
	}
}

// onSessionEvent forwards identity changes and keeps hub membership in step with the identity.
func (c *Client) onSessionEvent(ev session.Event) {
	var register, unregister string
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	switch {
	case ev.Identity != nil && c.userKey == "":
		c.userKey = ev.Identity.Key()
		register = c.userKey
	case ev.Identity == nil && c.userKey != "":
		unregister = c.userKey
		c.userKey = ""
	}
	c.mu.Unlock()

	if register != "" {
		c.hub.Register(register, c)
	}
	if unregister != "" {
		c.hub.Unregister(unregister, c)
	}
	if msg, err := newMessage(EventAuthStateChange, ev); err == nil {
		c.deliver(msg)
	}
}

func (c *Client) deliver(msg WSMessage) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		// buffer full, skip
	}
}

func (c *Client) readPump() {
	defer c.shutdown()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "ping":
			c.deliver(WSMessage{Event: EventPong})
		case "sign_out":
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := c.store.SignOut(ctx); err != nil {
				c.logger.Warn("sign out failed upstream", zap.String("client_id", c.ID), zap.Error(err))
			}
			cancel()
		default:
			// ignore
		}
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	key := c.userKey
	c.userKey = ""
	c.mu.Unlock()

	c.store.Close()
	c.hub.Unregister(key, c)
	close(c.done)
	_ = c.conn.Close()
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
