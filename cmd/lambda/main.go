package main

import (
	"context"
	"log"
	"os"

	"gitlab_helper/internal/app"
	"gitlab_helper/internal/config"
	"gitlab_helper/internal/logger"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		logger.GetLogger().Fatal("failed to assemble app", zap.Error(err))
	}

	// Outside of Lambda the router is served directly
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		serveLocal(a.Router(), cfg.HTTPAddr)
		return
	}

	gin.SetMode(gin.ReleaseMode)
	lambda.Start(newProxyHandler(a.Router()).handleRequest)
}

func serveLocal(router *gin.Engine, addr string) {
	logger.GetLogger().Info("starting http server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.GetLogger().Fatal("http server stopped", zap.Error(err))
	}
}
