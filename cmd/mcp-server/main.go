package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/app"
	"github.com/hiufpe/hub-api/internal/mcpserver"
	"github.com/hiufpe/hub-api/pkg/config"
	"github.com/hiufpe/hub-api/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.MCP.StudentID == "" {
		log.Fatal("MCP_STUDENT_ID is required")
	}
	// zap writes to stderr; stdout carries the protocol.
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	cfg.Reconcile.Enabled = false
	cfg.Assistant.Enabled = false
	application, err := app.New(context.Background(), cfg, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer application.Close()

	s, err := mcpserver.New(application.Tools, cfg.MCP.StudentID, version, logr.Named("mcp"))
	if err != nil {
		logr.Fatal("failed to build mcp server", zap.Error(err))
	}
	logr.Info("mcp server listening on stdio", zap.String("student_id", cfg.MCP.StudentID))
	if err := mcpserver.Serve(s); err != nil {
		logr.Error("mcp server stopped", zap.Error(err))
	}
}
