package notifications

import (
	"context"
	"errors"
	"sync"

	"factoryfeed/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

var (
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrHubClosed       = errors.New("hub is shut down")
)

// Hub tracks the websocket clients of this instance, grouped by user.
type Hub struct {
	mu     sync.RWMutex
	conns  map[uint]map[*Client]struct{}
	total  int
	closed bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID, enforcing per-user and global limits.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.total++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// Unregister removes the client and closes its send buffer. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.total--
	close(client.Send)
	observability.WebSocketConnections.Dec()
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// BroadcastAll queues message for every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.trySend(message)
		}
	}
}

// StartWiring forwards events received from other instances to local clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartFeedSubscriber(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown closes every client's send buffer; the write pumps then send a
// close frame and exit.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for _, clients := range h.conns {
		for c := range clients {
			close(c.Send)
			observability.WebSocketConnections.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.total = 0
	return nil
}
