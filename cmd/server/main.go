package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/codeagent/server/internal/config"
	"codeberg.org/codeagent/server/internal/logger"
	"codeberg.org/codeagent/server/internal/version"
)

// @title Code Agent API
// @version 1.0
// @description Coding assistant backend for editor extensions
// @description
// @description Features:
// @description - Streaming chat over server-sent events
// @description - Agent actions (generate, analyze, stream_generate, generate_completion)
// @description - Websocket streaming of agent edits
// @description - Per-session editing context and chat history

// @BasePath /

const (
	// how long the startup connection test may take
	connectionTestTimeout = 30 * time.Second

	// graceful shutdown budget
	shutdownTimeout = 10 * time.Second
)

func main() {
	flags := config.ParseServerFlags()

	// load configuration from defaults, files and environment
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	cfg.ApplyFlags(flags)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	logger.SetDefault(logger.New(cfg.Environment, cfg.LogLevel))
	logger.Info("starting codeagent server", "version", version.Version)

	// create server with all dependencies
	srv, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	// bind first so the OS-chosen port can be published before serving
	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		logger.Fatal("failed to listen", "addr", cfg.ListenAddr(), "error", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port

	if err := writePortFile(cfg.Server.PortFile, port); err != nil {
		logger.Fatal("failed to write port file", "path", cfg.Server.PortFile, "error", err)
	}

	// no WriteTimeout: chat and websocket responses stream for as long as the model does
	httpServer := &http.Server{
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "addr", listener.Addr().String(), "port", port)
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", "error", err)
		}
	}()

	go testConnection(srv.services.Probe)

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// notify websocket clients and release session agents
	srv.Close()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// logs whether the model endpoint answers; the server keeps running either way
func testConnection(probe Prober) {
	ctx, cancel := context.WithTimeout(context.Background(), connectionTestTimeout)
	defer cancel()

	logger.Info("testing LLM connection")

	if probe.TestConnection(ctx) {
		logger.Info("LLM connection test successful")
		return
	}

	logger.Warn("LLM connection test failed, requests will fail until the endpoint is reachable")
}
