// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"jobboard-service/internal/domain/auth"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const broadcastBuffer = 256

// Hub fans security events out to the connected admin consoles.
type Hub struct {
	// Registered clients by principal ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	broadcast chan *Message
	logger    *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:   make(map[int64]map[*Client]bool),
		broadcast: make(chan *Message, broadcastBuffer),
		logger:    logger.Named("event_stream"),
	}
}

// Run delivers published messages until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Serve attaches an upgraded connection for principal and starts its pumps.
func (h *Hub) Serve(conn *websocket.Conn, principal *auth.Principal) *Client {
	client := newClient(h, conn, principal)

	client.SendMessage(NewMessage(MessageConnected, map[string]interface{}{
		"user_id": principal.ID,
		"role":    principal.Role,
	}))
	h.registerClient(client)

	go client.writePump()
	go client.readPump()
	return client
}

// Publish queues msg for every client. It reports false when the queue is
// full and the message was dropped.
func (h *Hub) Publish(msg *Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		return false
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

// DisconnectUser closes every stream held by principal id.
func (h *Hub) DisconnectUser(id int64, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[id]
	if !ok {
		return
	}
	msg := NewMessage(MessageDisconnected, map[string]string{"reason": reason})
	for client := range clients {
		client.SendMessage(msg)
		client.Close()
	}
	delete(h.clients, id)
	h.logger.Info("event stream closed for user", zap.Int64("user_id", id), zap.String("reason", reason))
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.principalID] == nil {
		h.clients[client.principalID] = make(map[*Client]bool)
	}
	h.clients[client.principalID][client] = true

	h.logger.Info("event stream connected",
		zap.Int64("user_id", client.principalID),
		zap.Int("total", h.totalClientsLocked()),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.Close()
	clients, ok := h.clients[client.principalID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.principalID)
	}
	h.logger.Info("event stream disconnected",
		zap.Int64("user_id", client.principalID),
		zap.Int("total", h.totalClientsLocked()),
	)
}

func (h *Hub) deliver(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.SendMessage(msg)
		}
	}
}

func (h *Hub) totalClientsLocked() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}
