package handler

import (
	"errors"
	"net/http"

	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/logger"
	"gitlab_helper/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleErrors is a middleware that turns the last error of a request into a JSON response
func HandleErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status := statusOf(err)
		if status >= http.StatusInternalServerError {
			logger.GetLogger().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		} else {
			logger.GetLogger().Warn("request rejected", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	}
	switch code := gitlab.StatusCode(err); {
	case code == http.StatusNotFound, code == http.StatusUnauthorized, code == http.StatusForbidden:
		return code
	case code != 0:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
