package handler

import (
	"net/http"

	"gitlab_helper/internal/logger"

	"github.com/gin-gonic/gin"
)

// NewRouter registers the API routes of h
func NewRouter(h *ExchangeHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogMiddleware(), HandleErrors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/user", h.HandleCurrentUser)
	r.GET("/projects", h.HandleListProjects)
	r.GET("/projects/:id", h.HandleGetProject)
	r.GET("/projects/:id/statistics", h.HandleStatistics)
	r.GET("/projects/:id/export", h.HandleExport)
	r.POST("/projects/:id/import", h.HandleImport)
	return r
}
