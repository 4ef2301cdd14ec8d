package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all connections by default for local development.
		return true
	},
}

// LocalHub is an in-process Publisher for local development: it owns
// the WebSocket connections directly instead of going through API
// Gateway. Mount its ServeHTTP on the /ws route.
type LocalHub struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewLocalHub creates an empty LocalHub.
func NewLocalHub() *LocalHub {
	return &LocalHub{conns: make(map[string]*websocket.Conn)}
}

// Make sure we conform to the interface
var _ Publisher = (*LocalHub)(nil)

// Publish sends a message to every connected local client.
func (h *LocalHub) Publish(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Error("failed to write to local connection", "connectionId", id, "error", err)
			conn.Close()
			delete(h.conns, id)
		}
	}
	return nil
}

// ServeHTTP upgrades the request and keeps the connection registered
// until the client disconnects.
func (h *LocalHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", "error", err)
		return
	}

	connectionID := uuid.New().String()
	slog.Info("client connected locally", "connectionId", connectionID)

	h.mu.Lock()
	h.conns[connectionID] = conn
	h.mu.Unlock()

	defer func() {
		slog.Info("client disconnected locally", "connectionId", connectionID)
		h.mu.Lock()
		delete(h.conns, connectionID)
		h.mu.Unlock()
		conn.Close()
	}()

	// Keep the connection alive, waiting for the client to disconnect.
	// Clients are not expected to send messages.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
