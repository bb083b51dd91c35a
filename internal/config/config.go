package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// GitLab configuration
	GitLabHost    string        // Required: base URL of the GitLab instance
	GitLabToken   string        // Required: personal access token
	PageSize      int           // items requested per page
	GitLabTimeout time.Duration // per request, 0 disables it

	// Import configuration
	MaxConcurrent int           // upper bound of concurrent requests per batch, 0 is unbounded
	ProgressDelay time.Duration // runs finishing earlier are never displayed

	// Slack configuration, progress is posted to Slack when both are set
	SlackBotToken string
	SlackChannel  string

	// Exchange document storage. S3 is used when a bucket is set, the local directory otherwise.
	ExchangeBucket   string
	ExchangePrefix   string
	ExchangeEndpoint string // custom S3 endpoint, e.g. localstack
	ExchangeDir      string

	// HTTP listen address outside of Lambda
	HTTPAddr string

	// Log level
	LogLevel string
}

// Load creates a new Config instance from environment variables.
// Variables found in a .env file of the working directory are loaded first
// without overriding the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PageSize:         getEnvAsIntWithDefault("GITLAB_PAGE_SIZE", 20),
		GitLabTimeout:    getEnvAsDurationWithDefault("GITLAB_TIMEOUT", 30*time.Second),
		MaxConcurrent:    getEnvAsIntWithDefault("MAX_CONCURRENT", 0),
		ProgressDelay:    getEnvAsDurationWithDefault("PROGRESS_DELAY", 500*time.Millisecond),
		SlackBotToken:    os.Getenv("SLACK_BOT_TOKEN"),
		SlackChannel:     os.Getenv("SLACK_CHANNEL"),
		ExchangeBucket:   os.Getenv("EXCHANGE_BUCKET"),
		ExchangePrefix:   os.Getenv("EXCHANGE_PREFIX"),
		ExchangeEndpoint: os.Getenv("EXCHANGE_ENDPOINT"),
		ExchangeDir:      getEnvWithDefault("EXCHANGE_DIR", "exports"),
		HTTPAddr:         getEnvWithDefault("HTTP_ADDR", ":8080"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
	}

	// Load required values
	requiredVars := map[string]*string{
		"GITLAB_HOST":  &cfg.GitLabHost,
		"GITLAB_TOKEN": &cfg.GitLabToken,
	}

	var missingVars []string
	for env, ptr := range requiredVars {
		*ptr = os.Getenv(env)
		if *ptr == "" {
			missingVars = append(missingVars, env)
		}
	}

	if len(missingVars) > 0 {
		sort.Strings(missingVars)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))
	}
	cfg.GitLabHost = strings.TrimRight(cfg.GitLabHost, "/")

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
