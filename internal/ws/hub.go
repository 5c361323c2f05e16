// Package ws is the WebSocket ingress: every extension context (popup,
// content relay) holds one connection and speaks the message protocol
// over it.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

// Role identifies the extension context behind a connection. Push frames
// only go to popup connections.
type Role string

const (
	RolePopup   Role = "popup"
	RoleContent Role = "content"
)

// client is one live connection. Gorilla allows a single concurrent
// writer, so all writes go through the mutex.
type client struct {
	conn *websocket.Conn
	role Role

	writeMu sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub tracks live connections and delivers best-effort push frames. It
// doubles as the approval surface and the lock notifier.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	// onCount is an optional gauge hook, fired with the new total.
	onCount func(n int)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// OnCount registers a connection-count hook.
func (h *Hub) OnCount(fn func(n int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onCount = fn
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n, hook := len(h.clients), h.onCount
	h.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	n, hook := len(h.clients), h.onCount
	h.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

// Summon pushes an approval prompt to every popup. Fails only when no
// popup is connected; the caller treats that as best effort.
func (h *Hub) Summon(requestID string) error {
	return h.pushToPopups(types.Message{
		Kind: types.KindApprovalRequired,
		Data: map[string]interface{}{"requestId": requestID},
	})
}

// NotifyLocked pushes the lock notification to every popup.
func (h *Hub) NotifyLocked() error {
	return h.pushToPopups(types.Message{Kind: types.KindWalletLocked})
}

func (h *Hub) pushToPopups(msg types.Message) error {
	h.mu.Lock()
	popups := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.role == RolePopup {
			popups = append(popups, c)
		}
	}
	h.mu.Unlock()

	if len(popups) == 0 {
		return types.NewError(types.FaultNotFound, "no popup connected")
	}
	for _, c := range popups {
		// A dead connection gets cleaned up by its own read loop.
		_ = c.writeJSON(msg)
	}
	return nil
}
