// Package config loads and validates environment configuration. Settings is
// created once at startup and treated as immutable by everything downstream.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrMissingEndpoint is returned when no project endpoint is configured.
var ErrMissingEndpoint = errors.New("AZURE_AI_PROJECT_ENDPOINT (or PROJECT_ENDPOINT) is required")

// Settings holds the full runtime configuration. Optional credentials are
// empty strings; callers degrade features instead of failing when one is
// absent (e.g. the GitHub tool is omitted without its token).
type Settings struct {
	ProjectEndpoint string `envconfig:"AZURE_AI_PROJECT_ENDPOINT"`
	ModelDeployment string `envconfig:"AZURE_AI_MODEL_DEPLOYMENT_NAME"`
	APIVersion      string `envconfig:"AZURE_AI_API_VERSION" default:"2025-04-01-preview"`

	// Provider selects the model backend: "azure" (default) or "anthropic".
	Provider        string `envconfig:"MODEL_PROVIDER" default:"azure"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	GitHubToken string `envconfig:"GITHUB_PERSONAL_ACCESS_TOKEN"`
	LearnMCPURL string `envconfig:"LEARN_MCP_URL" default:"https://learn.microsoft.com/api/mcp"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`

	APIAddr    string `envconfig:"API_ADDR" default:":8000"`
	A2AAddr    string `envconfig:"A2A_ADDR" default:":9000"`
	A2APeerURL string `envconfig:"A2A_PEER_URL" default:"http://localhost:9000"`

	PipelineTimeout time.Duration `envconfig:"PIPELINE_TIMEOUT" default:"5m"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads settings from the environment, honoring a .env file when present.
// The old PROJECT_ENDPOINT / MODEL_DEPLOYMENT_NAME variable names are accepted
// as fallbacks for compatibility with earlier deployments.
func Load() (Settings, error) {
	_ = godotenv.Load()

	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return Settings{}, fmt.Errorf("process environment: %w", err)
	}

	if s.ProjectEndpoint == "" {
		s.ProjectEndpoint = os.Getenv("PROJECT_ENDPOINT")
	}
	if s.ModelDeployment == "" {
		s.ModelDeployment = os.Getenv("MODEL_DEPLOYMENT_NAME")
	}
	if s.ModelDeployment == "" {
		s.ModelDeployment = "gpt-4o"
	}

	if s.ProjectEndpoint == "" && s.Provider != "anthropic" {
		return Settings{}, ErrMissingEndpoint
	}

	return s, nil
}

// ResourceEndpoint returns the resource-level endpoint for callers that need
// it (the evaluators), stripping the /api/projects/... project suffix.
func (s Settings) ResourceEndpoint() string {
	if i := strings.Index(s.ProjectEndpoint, "/api/projects/"); i >= 0 {
		return s.ProjectEndpoint[:i]
	}
	return s.ProjectEndpoint
}

// HasGitHubTool reports whether the GitHub MCP subprocess tool can be started.
func (s Settings) HasGitHubTool() bool { return s.GitHubToken != "" }
