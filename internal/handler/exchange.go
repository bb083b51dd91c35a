package handler

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"

	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/logger"
	"gitlab_helper/internal/model"
	"gitlab_helper/internal/service/exchange"
	"gitlab_helper/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProjectService reads projects
type ProjectService interface {
	GetByID(ctx context.Context, id int) (model.Project, error)
	List(ctx context.Context, search string) iter.Seq2[gitlab.DataSet[model.Project], error]
}

// StatisticsService reads issue counters
type StatisticsService interface {
	Statistics(ctx context.Context, projectID int) (model.IssuesStatistics, error)
}

// UserService reads the token owner
type UserService interface {
	Current(ctx context.Context) (model.User, error)
}

// Exporter creates exchange models
type Exporter interface {
	Export(ctx context.Context, src exchange.Source) (*model.IssueExchangeModel, error)
}

// Importer writes exchange models into projects
type Importer interface {
	Import(ctx context.Context, project model.Project, data model.IssueExchangeModel, opts exchange.ImportOptions, obtainOrder bool) (*exchange.ImportResult, error)
}

// ExchangeHandler serves the export and import API
type ExchangeHandler struct {
	projects ProjectService
	stats    StatisticsService
	users    UserService
	exporter Exporter
	importer Importer
	store    storage.DocumentStore
}

func NewExchangeHandler(projects ProjectService, stats StatisticsService, users UserService,
	exporter Exporter, importer Importer, store storage.DocumentStore) *ExchangeHandler {
	return &ExchangeHandler{
		projects: projects,
		stats:    stats,
		users:    users,
		exporter: exporter,
		importer: importer,
		store:    store,
	}
}

// ImportRequest is the body of POST /projects/:id/import.
// The document is either inline in Data or loaded from the store by Key.
type ImportRequest struct {
	Key       string                    `json:"key"`
	Data      *model.IssueExchangeModel `json:"data"`
	Options   exchange.ImportOptions    `json:"options"`
	Unordered bool                      `json:"unordered"`
}

// errBadRequest marks errors caused by the client
var errBadRequest = errors.New("bad request")

func projectID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid project id %q", errBadRequest, c.Param("id"))
	}
	return id, nil
}

// HandleCurrentUser handles GET /user
func (h *ExchangeHandler) HandleCurrentUser(c *gin.Context) {
	user, err := h.users.Current(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleListProjects handles GET /projects?search=
func (h *ExchangeHandler) HandleListProjects(c *gin.Context) {
	projects, err := gitlab.Payloads(h.projects.List(c.Request.Context(), c.Query("search")))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// HandleGetProject handles GET /projects/:id
func (h *ExchangeHandler) HandleGetProject(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	project, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// HandleStatistics handles GET /projects/:id/statistics
func (h *ExchangeHandler) HandleStatistics(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	stats, err := h.stats.Statistics(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleExport handles GET /projects/:id/export. With ?key= the document is
// stored under that key instead of being returned.
func (h *ExchangeHandler) HandleExport(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	data, err := h.exporter.Export(c.Request.Context(), exchange.ProjectSource(id))
	if err != nil {
		_ = c.Error(err)
		return
	}

	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusOK, data)
		return
	}
	if err := h.store.Save(c.Request.Context(), key, data); err != nil {
		_ = c.Error(err)
		return
	}
	logger.GetLogger().Info("export stored",
		zap.Int("project", id),
		zap.String("key", key),
		zap.Int("issues", len(data.Issues)),
		zap.Int("labels", len(data.Labels)))
	c.JSON(http.StatusOK, gin.H{
		"key":    key,
		"issues": len(data.Issues),
		"labels": len(data.Labels),
	})
}

// HandleImport handles POST /projects/:id/import
func (h *ExchangeHandler) HandleImport(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	data := req.Data
	switch {
	case data != nil && req.Key != "":
		_ = c.Error(fmt.Errorf("%w: either key or data must be given, not both", errBadRequest))
		return
	case data == nil && req.Key == "":
		_ = c.Error(fmt.Errorf("%w: key or data is required", errBadRequest))
		return
	case data == nil:
		if data, err = h.store.Load(c.Request.Context(), req.Key); err != nil {
			_ = c.Error(err)
			return
		}
	}

	project, err := h.projects.GetByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	result, err := h.importer.Import(c.Request.Context(), project, *data, req.Options, !req.Unordered)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
