// Package http holds the plain HTTP handlers: service identity and health.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/monitoring"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/pending"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/session"
)

// Handlers bundles the HTTP endpoint dependencies.
type Handlers struct {
	session *session.Session
	pending *pending.Registry
	metrics *monitoring.Metrics
	network string
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(sess *session.Session, reg *pending.Registry, metrics *monitoring.Metrics, network string) *Handlers {
	return &Handlers{
		session: sess,
		pending: reg,
		metrics: metrics,
		network: network,
	}
}

// Root handles the service identity check.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Hoosat Wallet Service",
		"network": h.network,
	})
}

// Health handles the detailed health check. Never includes addresses or
// any key material.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"unlocked":         h.session.IsUnlocked(),
		"pending_requests": h.pending.Active(),
		"uptime_seconds":   int64(h.metrics.Uptime().Seconds()),
	})
}
