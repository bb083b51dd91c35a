package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/logger"
	"gitlab_helper/internal/model"
	"gitlab_helper/internal/service/exchange"
	"gitlab_helper/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ProjectService reads projects
type ProjectService interface {
	GetByID(ctx context.Context, id int) (model.Project, error)
	List(ctx context.Context, search string) iter.Seq2[gitlab.DataSet[model.Project], error]
}

type StatisticsService interface {
	Statistics(ctx context.Context, projectID int) (model.IssuesStatistics, error)
}

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

// Tools implements the GitLab tools of the MCP server
type Tools struct {
	projects ProjectService
	stats    StatisticsService
	users    UserService
	exporter Exporter
	importer Importer
	store    storage.DocumentStore
}

func NewTools(projects ProjectService, stats StatisticsService, users UserService,
	exporter Exporter, importer Importer, store storage.DocumentStore) *Tools {
	return &Tools{
		projects: projects,
		stats:    stats,
		users:    users,
		exporter: exporter,
		importer: importer,
		store:    store,
	}
}

// ServerTools returns the tool definitions together with their handlers
func (t *Tools) ServerTools() []server.ServerTool {
	listProjects := mcp.NewTool("list_projects",
		mcp.WithDescription("List the GitLab projects the token owner is member of"),
		mcp.WithString("search",
			mcp.Description("Only return projects whose name or namespace matches"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Return at most this many projects, all if 0"),
		),
	)

	currentUser := mcp.NewTool("current_user",
		mcp.WithDescription("Get the GitLab user owning the configured token"),
	)

	issuesStatistics := mcp.NewTool("issues_statistics",
		mcp.WithDescription("Count the opened and closed issues of a project"),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Numeric id of the project"),
		),
	)

	exportIssues := mcp.NewTool("export_issues",
		mcp.WithDescription("Export the issues of a project together with the labels they use"),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Numeric id of the project"),
		),
		mcp.WithString("key",
			mcp.Description("Store the export under this key (.json, .yaml or .yml) instead of returning it"),
		),
	)

	importIssues := mcp.NewTool("import_issues",
		mcp.WithDescription("Import a stored export into a project"),
		mcp.WithNumber("project_id",
			mcp.Required(),
			mcp.Description("Numeric id of the target project"),
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Key of the stored export"),
		),
		mcp.WithBoolean("delete_open_issues",
			mcp.Description("Delete the open issues of the project first"),
		),
		mcp.WithBoolean("delete_closed_issues",
			mcp.Description("Delete the closed issues of the project first"),
		),
		mcp.WithBoolean("delete_unused_labels",
			mcp.Description("Delete project labels no issue or merge request uses"),
		),
		mcp.WithBoolean("unordered",
			mcp.Description("Create issues concurrently; their iids will not follow the export order"),
		),
	)

	return []server.ServerTool{
		{Tool: listProjects, Handler: t.handleListProjects},
		{Tool: currentUser, Handler: t.handleCurrentUser},
		{Tool: issuesStatistics, Handler: t.handleIssuesStatistics},
		{Tool: exportIssues, Handler: t.handleExportIssues},
		{Tool: importIssues, Handler: t.handleImportIssues},
	}
}

// jsonResult converts v to a text result
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %v", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports a failed tool call to the client
func errorResult(tool string, err error) (*mcp.CallToolResult, error) {
	logger.Named("mcp").Error("tool call failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error()), nil
}

func requireProjectID(request mcp.CallToolRequest) (int, error) {
	id, err := request.RequireInt("project_id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid project_id %d", id)
	}
	return id, nil
}

func (t *Tools) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seq := t.projects.List(ctx, request.GetString("search", ""))
	projects := []model.Project{}
	if limit := request.GetInt("limit", 0); limit > 0 {
		sets, err := gitlab.Take(seq, limit)
		if err != nil {
			return errorResult("list_projects", err)
		}
		for _, set := range sets {
			projects = append(projects, set.Payload)
		}
		return jsonResult(projects)
	}
	all, err := gitlab.Payloads(seq)
	if err != nil {
		return errorResult("list_projects", err)
	}
	return jsonResult(append(projects, all...))
}

func (t *Tools) handleCurrentUser(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, err := t.users.Current(ctx)
	if err != nil {
		return errorResult("current_user", err)
	}
	return jsonResult(user)
}

func (t *Tools) handleIssuesStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireProjectID(request)
	if err != nil {
		return errorResult("issues_statistics", err)
	}
	stats, err := t.stats.Statistics(ctx, id)
	if err != nil {
		return errorResult("issues_statistics", err)
	}
	return jsonResult(stats)
}

func (t *Tools) handleExportIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireProjectID(request)
	if err != nil {
		return errorResult("export_issues", err)
	}
	data, err := t.exporter.Export(ctx, exchange.ProjectSource(id))
	if err != nil {
		return errorResult("export_issues", err)
	}

	key := request.GetString("key", "")
	if key == "" {
		return jsonResult(data)
	}
	if err := t.store.Save(ctx, key, data); err != nil {
		return errorResult("export_issues", err)
	}
	return jsonResult(map[string]any{
		"key":    key,
		"issues": len(data.Issues),
		"labels": len(data.Labels),
	})
}

func (t *Tools) handleImportIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireProjectID(request)
	if err != nil {
		return errorResult("import_issues", err)
	}
	key, err := request.RequireString("key")
	if err != nil {
		return errorResult("import_issues", err)
	}

	data, err := t.store.Load(ctx, key)
	if err != nil {
		return errorResult("import_issues", err)
	}
	project, err := t.projects.GetByID(ctx, id)
	if err != nil {
		return errorResult("import_issues", err)
	}
	opts := exchange.ImportOptions{
		DeleteOpenIssues:   request.GetBool("delete_open_issues", false),
		DeleteClosedIssues: request.GetBool("delete_closed_issues", false),
		DeleteUnusedLabels: request.GetBool("delete_unused_labels", false),
	}
	result, err := t.importer.Import(ctx, project, *data, opts, !request.GetBool("unordered", false))
	if err != nil {
		return errorResult("import_issues", err)
	}
	return jsonResult(result)
}
