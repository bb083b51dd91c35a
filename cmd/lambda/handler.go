package main

import (
	"context"

	"gitlab_helper/internal/logger"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// proxyHandler forwards API Gateway events to the gin router
type proxyHandler struct {
	adapter *ginadapter.GinLambda
}

func newProxyHandler(router *gin.Engine) *proxyHandler {
	return &proxyHandler{adapter: ginadapter.New(router)}
}

func (h *proxyHandler) handleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := h.adapter.ProxyWithContext(ctx, req)
	if err != nil {
		logger.GetLogger().Error("failed to proxy request",
			zap.String("method", req.HTTPMethod),
			zap.String("path", req.Path),
			zap.Error(err))
	}
	return resp, err
}
