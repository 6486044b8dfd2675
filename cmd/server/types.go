package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/codeagent/server/internal/config"
	"codeberg.org/codeagent/server/internal/sessions"
	ws "codeberg.org/codeagent/server/internal/websocket"
)

// holds all dependencies and state for the API server
type Server struct {
	config   *config.Config
	services *Services
	sessions *sessions.Manager
	hub      *ws.Hub
	router   *gin.Engine
}

// holds the session agent factory and a probe agent for connection checks
type Services struct {
	NewAgent sessions.Factory
	Probe    Prober
}
