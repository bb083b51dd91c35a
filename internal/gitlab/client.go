package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"gitlab_helper/internal/logger"

	"go.uber.org/zap"
)

const (
	apiPrefix   = "/api/v4/"
	tokenHeader = "PRIVATE-TOKEN"
)

// ErrNoConfigProvider is returned when a client is assembled without a configuration provider
var ErrNoConfigProvider = errors.New("gitlab: no configuration provider given, pass a ConfigProvider to NewClient")

// Config holds the connection settings of a GitLab instance
type Config struct {
	Host  string // e.g. https://gitlab.example.com
	Token string // personal access token, sent as PRIVATE-TOKEN header
}

// ConfigProvider resolves the connection settings. It is consulted on every request.
type ConfigProvider interface {
	Config() Config
}

// ConfigProviderFunc adapts a function to a ConfigProvider
type ConfigProviderFunc func() Config

func (f ConfigProviderFunc) Config() Config { return f() }

// StaticConfig returns a ConfigProvider that always yields the given settings
func StaticConfig(host, token string) ConfigProvider {
	return ConfigProviderFunc(func() Config {
		return Config{Host: host, Token: token}
	})
}

// Access is emitted after every successful request
type Access struct {
	Method     string
	Resource   string
	StatusCode int
}

// AccessError is emitted after every failed request.
// Status is 0 if no response was received.
type AccessError struct {
	Method   string
	Resource string
	Status   int
	Err      error
}

// Error is returned for non-2xx responses
type Error struct {
	Method     string
	Resource   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("gitlab: %s %s returned %d: %s", e.Method, e.Resource, e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a transport failure
func StatusCode(err error) int {
	var gitlabErr *Error
	if errors.As(err, &gitlabErr) {
		return gitlabErr.StatusCode
	}
	return 0
}

// CallOptions are the optional parts of a request
type CallOptions struct {
	Body    any // encoded as JSON unless it is a string or []byte
	Headers map[string]string
	Params  url.Values
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPageSize sets the page size used by the resource services
func WithPageSize(pageSize int) Option {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
	}
}

// Client talks to the GitLab REST API
type Client struct {
	provider   ConfigProvider
	httpClient *http.Client
	pageSize   int

	mu              sync.RWMutex
	accessObservers []func(Access)
	errorObservers  []func(AccessError)

	Projects *ProjectsService
	Issues   *IssuesService
	Labels   *LabelsService
	Users    *UsersService
}

// NewClient creates a new GitLab client
func NewClient(provider ConfigProvider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNoConfigProvider
	}
	c := &Client{
		provider:   provider,
		httpClient: http.DefaultClient,
		pageSize:   DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Projects = &ProjectsService{client: c}
	c.Issues = &IssuesService{client: c}
	c.Labels = &LabelsService{client: c}
	c.Users = &UsersService{client: c}
	return c, nil
}

// OnAccess registers an observer that is notified after every successful request
func (c *Client) OnAccess(fn func(Access)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessObservers = append(c.accessObservers, fn)
}

// OnError registers an observer that is notified after every failed request
func (c *Client) OnError(fn func(AccessError)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorObservers = append(c.errorObservers, fn)
}

func (c *Client) notifyAccess(a Access) {
	c.mu.RLock()
	observers := c.accessObservers
	c.mu.RUnlock()
	for _, fn := range observers {
		fn(a)
	}
}

func (c *Client) notifyError(e AccessError) {
	c.mu.RLock()
	observers := c.errorObservers
	c.mu.RUnlock()
	for _, fn := range observers {
		fn(e)
	}
}

// response is a fully read HTTP response
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// do executes one request and reports it to the telemetry observers
func (c *Client) do(ctx context.Context, method, resource string, opts *CallOptions) (*response, error) {
	resp, err := c.doOnce(ctx, method, resource, opts)
	if err != nil {
		c.notifyError(AccessError{
			Method:   method,
			Resource: resource,
			Status:   StatusCode(err),
			Err:      err,
		})
		return nil, err
	}
	c.notifyAccess(Access{Method: method, Resource: resource, StatusCode: resp.StatusCode})
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, method, resource string, opts *CallOptions) (*response, error) {
	if opts == nil {
		opts = &CallOptions{}
	}
	cfg := c.provider.Config()

	fullURL := strings.TrimSuffix(cfg.Host, "/") + apiPrefix + strings.TrimPrefix(resource, "/")
	if len(opts.Params) > 0 {
		fullURL += "?" + opts.Params.Encode()
	}

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(tokenHeader, cfg.Token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	logger.GetLogger().Debug("gitlab request", zap.String("method", method), zap.String("resource", resource))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request %s %s: %w", method, resource, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", method, resource, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Method:     method,
			Resource:   resource,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	return &response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(b), "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// Call performs a single, non-paginated request and decodes the response into T.
// An empty method means GET. An empty response body yields the zero value of T.
func Call[T any](ctx context.Context, c *Client, resource, method string, opts *CallOptions) (T, error) {
	var result T
	if method == "" {
		method = http.MethodGet
	}
	resp, err := c.do(ctx, method, resource, opts)
	if err != nil {
		return result, err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return result, fmt.Errorf("failed to decode response of %s %s: %w", method, resource, err)
	}
	return result, nil
}
