package main

import (
	"context"
	"fmt"
	"os"

	"gitlab_helper/internal/app"
	"gitlab_helper/internal/config"
	"gitlab_helper/internal/logger"
)

func main() {
	root := newRootCmd(loadApp)
	err := root.ExecuteContext(context.Background())
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// loadApp assembles the application from the environment
func loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// stdout carries command output
	if err := logger.InitWithOutput(cfg.LogLevel, "stderr"); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return app.New(ctx, cfg)
}
