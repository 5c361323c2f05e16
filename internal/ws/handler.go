package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/router"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin trust is decided per message by the connection grant
		// model, not at upgrade time.
		return true
	},
}

// Handler upgrades extension connections and pumps messages through the
// router.
type Handler struct {
	router *router.Router
	hub    *Hub
	logger *logging.Logger
}

// NewHandler creates a WebSocket handler.
func NewHandler(r *router.Router, hub *Hub, logger *logging.Logger) *Handler {
	return &Handler{router: r, hub: hub, logger: logger}
}

// HandleConnection upgrades the request and serves the message loop until
// the peer disconnects. The role query parameter marks popup connections,
// which additionally receive push frames.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	role := RoleContent
	if c.Query("role") == string(RolePopup) {
		role = RolePopup
	}

	cl := &client{conn: conn, role: role}
	h.hub.register(cl)
	defer h.hub.unregister(cl)

	h.logger.Info("extension context connected", zap.String("role", string(role)))

	cl.writeJSON(types.Message{
		Kind: "CONNECTED",
		Data: map[string]interface{}{"message": "Connected to Hoosat wallet service"},
	})

	reqCtx := c.Request.Context()
	for {
		var msg types.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", zap.Error(err))
			}
			break
		}

		// Approval-gated calls can block for minutes awaiting a popup
		// decision; each message gets its own goroutine so the read
		// loop keeps draining decisions arriving on other connections.
		go func(msg types.Message) {
			result := h.router.Handle(reqCtx, msg)
			if err := cl.writeJSON(result); err != nil {
				h.logger.Warn("failed to write reply",
					zap.String("kind", string(msg.Kind)),
					zap.Error(err),
				)
			}
		}(msg)
	}

	h.logger.Info("extension context disconnected", zap.String("role", string(role)))
}
