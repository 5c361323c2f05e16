// Package server wires the coordinator together: storage, engine,
// session, pending registry, dispatcher, router, and the HTTP/WebSocket
// ingress.
package server

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/Namp88/hoosat-web-extension-sub000/internal/api/http"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/api/middleware"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/engine/hoosat"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/config"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/logging"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/monitoring"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/infrastructure/resilience"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/pending"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/router"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/rpc"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/session"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/store"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/types"
	"github.com/Namp88/hoosat-web-extension-sub000/internal/ws"
)

// Server wraps the HTTP server and dependencies.
type Server struct {
	gin     *gin.Engine
	session *session.Session
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a fully wired server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing Hoosat wallet service",
		zap.String("port", cfg.Server.Port),
		zap.String("network", cfg.Node.Network),
		zap.String("node_proxy", cfg.Node.ProxyURL),
	)

	metrics := monitoring.NewMetrics()

	kv, err := store.NewFileStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	wallets := store.NewWalletStore(kv)

	client := hoosat.NewClient(hoosat.ClientConfig{
		BaseURL: cfg.Node.ProxyURL,
		Timeout: cfg.Node.Timeout,
		OnBreakerChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	keystore := hoosat.NewKeystore(cfg.Node.Network)
	eng := hoosat.New(client, keystore, wallets, cfg.Node.Network, logger)

	hub := ws.NewHub()
	hub.OnCount(func(n int) { metrics.WSConnections.Set(float64(n)) })

	sess := session.New(eng, hub, cfg.Session.Timeout, cfg.Session.Grace, logger)
	sess.OnAutoLock(func() { metrics.AutoLocks.Inc() })

	// The persisted auto-lock policy wins over the config default.
	if settings, err := wallets.AutoLockSettings(context.Background()); err == nil {
		sess.SetTimeout(time.Duration(settings.TimeoutMinutes) * time.Minute)
	} else {
		logger.Warn("failed to load auto-lock settings", zap.Error(err))
	}

	reg := pending.NewRegistry(hub, logger)
	reg.OnEvent(
		func() {
			metrics.PendingCreated.Inc()
			metrics.PendingActive.Inc()
		},
		func(expired bool) {
			metrics.PendingActive.Dec()
			if expired {
				metrics.PendingExpired.Inc()
			}
		},
	)

	dispatcher := rpc.NewDispatcher(eng, sess, wallets, reg, cfg.Approval.Timeout, logger)
	dispatcher.OnCall(func(method string, err error) {
		if err == nil {
			metrics.RecordRPC(method, "ok")
			return
		}
		metrics.RecordRPC(method, "error")
		metrics.RPCErrors.WithLabelValues(method, strconv.Itoa(types.ToRPCError(err).Code)).Inc()
	})

	msgRouter := router.New(eng, keystore, sess, wallets, reg, dispatcher, logger)
	msgRouter.OnMessage(metrics.RecordMessage)
	msgRouter.OnUnlock(func() { metrics.Unlocks.Inc() })

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engineGin := gin.New()
	engineGin.Use(gin.Recovery())
	engineGin.Use(monitoring.Middleware(metrics))
	engineGin.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	engineGin.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	handlers := apihttp.NewHandlers(sess, reg, metrics, cfg.Node.Network)
	wsHandler := ws.NewHandler(msgRouter, hub, logger)

	engineGin.GET("/", handlers.Root)
	engineGin.GET("/health", handlers.Health)
	engineGin.GET("/stream", wsHandler.HandleConnection)
	engineGin.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		gin:     engineGin,
		session: sess,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.gin.Run(addr)
}

// Close locks the wallet and flushes the logger.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.session.Lock(session.ReasonExplicit)
	s.logger.Sync()
	return nil
}
