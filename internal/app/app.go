// Package app assembles the services shared by the command line tool, the
// MCP server and the HTTP API.
package app

import (
	"context"
	"fmt"
	"net/http"

	"gitlab_helper/internal/config"
	"gitlab_helper/internal/gitlab"
	"gitlab_helper/internal/handler"
	"gitlab_helper/internal/logger"
	"gitlab_helper/internal/progress"
	"gitlab_helper/internal/service/exchange"
	mcpserver "gitlab_helper/internal/service/mcp-server"
	"gitlab_helper/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Version is reported by the MCP server and the CLI
var Version = "dev"

// App holds the assembled services
type App struct {
	Config   *config.Config
	Client   *gitlab.Client
	Tracker  *progress.Service
	Store    storage.DocumentStore
	Exporter *exchange.Exporter
	Importer *exchange.Importer
}

// Option overrides a part of the assembly
type Option func(*options)

type options struct {
	display     progress.Display
	store       storage.DocumentStore
	slackAPIURL string
}

// WithDisplay replaces the progress display chosen from the configuration
func WithDisplay(display progress.Display) Option {
	return func(o *options) {
		o.display = display
	}
}

// WithStore replaces the document store chosen from the configuration
func WithStore(store storage.DocumentStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithSlackAPIURL points the Slack client to another API endpoint
func WithSlackAPIURL(url string) Option {
	return func(o *options) {
		o.slackAPIURL = url
	}
}

// New assembles the application from cfg
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client, err := gitlab.NewClient(
		gitlab.StaticConfig(cfg.GitLabHost, cfg.GitLabToken),
		gitlab.WithPageSize(cfg.PageSize),
		gitlab.WithHTTPClient(&http.Client{Timeout: cfg.GitLabTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}
	logTelemetry(client)

	display := o.display
	if display == nil {
		display = newDisplay(cfg, o.slackAPIURL)
	}
	tracker := progress.NewService(display, progress.WithDelay(cfg.ProgressDelay))

	store := o.store
	if store == nil {
		if store, err = newStore(ctx, cfg); err != nil {
			return nil, err
		}
	}

	return &App{
		Config:   cfg,
		Client:   client,
		Tracker:  tracker,
		Store:    store,
		Exporter: exchange.NewExporter(client.Issues, client.Labels),
		Importer: exchange.NewImporter(client.Issues, client.Labels, tracker,
			exchange.WithConcurrency(cfg.MaxConcurrent)),
	}, nil
}

// logTelemetry writes the access and error events of client to the log
func logTelemetry(client *gitlab.Client) {
	client.OnAccess(func(a gitlab.Access) {
		logger.Named("gitlab").Debug("access",
			zap.String("method", a.Method),
			zap.String("resource", a.Resource),
			zap.Int("status", a.StatusCode))
	})
	client.OnError(func(e gitlab.AccessError) {
		logger.Named("gitlab").Warn("request failed",
			zap.String("method", e.Method),
			zap.String("resource", e.Resource),
			zap.Int("status", e.Status),
			zap.Error(e.Err))
	})
}

func newDisplay(cfg *config.Config, slackAPIURL string) progress.Display {
	if cfg.SlackBotToken == "" || cfg.SlackChannel == "" {
		return progress.NewLogDisplay(nil)
	}
	var slackOpts []slack.Option
	if slackAPIURL != "" {
		slackOpts = append(slackOpts, slack.OptionAPIURL(slackAPIURL))
	}
	return progress.NewSlackDisplay(slack.New(cfg.SlackBotToken, slackOpts...), cfg.SlackChannel)
}

func newStore(ctx context.Context, cfg *config.Config) (storage.DocumentStore, error) {
	if cfg.ExchangeBucket == "" {
		return storage.NewFileStore(cfg.ExchangeDir), nil
	}
	client, err := storage.NewS3Client(ctx, cfg.ExchangeEndpoint)
	if err != nil {
		return nil, err
	}
	return storage.NewS3Store(client, cfg.ExchangeBucket, cfg.ExchangePrefix), nil
}

// Router returns the HTTP API
func (a *App) Router() *gin.Engine {
	return handler.NewRouter(handler.NewExchangeHandler(
		a.Client.Projects, a.Client.Issues, a.Client.Users,
		a.Exporter, a.Importer, a.Store))
}

// MCPServer returns the MCP server exposing the GitLab tools
func (a *App) MCPServer() *server.MCPServer {
	return mcpserver.NewServer(mcpserver.NewTools(
		a.Client.Projects, a.Client.Issues, a.Client.Users,
		a.Exporter, a.Importer, a.Store), Version)
}
