package main

import (
	"context"
	"log"

	"gitlab_helper/internal/app"
	"gitlab_helper/internal/config"
	"gitlab_helper/internal/logger"
	mcpserver "gitlab_helper/internal/service/mcp-server"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// stdout is the MCP transport
	if err := logger.InitWithOutput(cfg.LogLevel, "stderr"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.GetLogger().Fatal("failed to assemble app", zap.Error(err))
	}

	logger.GetLogger().Info("starting gitlab helper MCP server", zap.String("version", app.Version))
	if err := mcpserver.Serve(a.MCPServer()); err != nil {
		logger.GetLogger().Fatal("server error", zap.Error(err))
	}
}
