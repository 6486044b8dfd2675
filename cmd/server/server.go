package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"codeberg.org/codeagent/server/internal/config"
	"codeberg.org/codeagent/server/internal/logger"
	"codeberg.org/codeagent/server/internal/sessions"
	ws "codeberg.org/codeagent/server/internal/websocket"
)

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	services, err := InitializeServices(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return newServer(cfg, services)
}

func newServer(cfg *config.Config, services *Services) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	manager := sessions.NewManager(cfg.Server.SessionTTL, services.NewAgent)

	hub := ws.NewHub()
	ws.RegisterHandlers(hub, manager)

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	server := &Server{
		config:   cfg,
		services: services,
		sessions: manager,
		hub:      hub,
		router:   router,
	}

	if err := RegisterRoutes(router, server); err != nil {
		manager.Close()
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	logger.Info("server initialized",
		"model", cfg.LLM.Model,
		"base_url", cfg.LLM.BaseURL,
		"api_key", logger.MaskKey(cfg.LLM.APIKey),
		"session_ttl", cfg.Server.SessionTTL,
		"rate_limit", cfg.Server.RateLimit,
	)

	return server, nil
}

// logs each request once it completes
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}

// releases sessions, websocket clients and the probe agent
func (s *Server) Close() {
	s.hub.Shutdown()
	s.sessions.Close()

	if s.services.Probe != nil {
		s.services.Probe.Cleanup()
	}
}
