package main

import (
	"context"
	"fmt"
	"io"

	"github.com/geektime/contentpipe/agent"
	"github.com/geektime/contentpipe/config"
	"github.com/geektime/contentpipe/logging"
	"github.com/geektime/contentpipe/model"
	"github.com/geektime/contentpipe/model/anthropic"
	"github.com/geektime/contentpipe/model/azure"
	"github.com/geektime/contentpipe/pipeline"
	"github.com/geektime/contentpipe/tool"
	"github.com/geektime/contentpipe/tool/mcp"
)

// buildModel constructs the model backend selected by the settings.
func buildModel(settings config.Settings) (model.Model, error) {
	switch settings.Provider {
	case "azure", "":
		llm, err := azure.NewModel(settings.ResourceEndpoint(), func(o *azure.Options) {
			o.Deployment = settings.ModelDeployment
			o.APIVersion = settings.APIVersion
		})
		if err != nil {
			return nil, fmt.Errorf("build azure model: %w", err)
		}
		return llm, nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if settings.AnthropicAPIKey != "" {
				o.APIKey = settings.AnthropicAPIKey
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", settings.Provider)
	}
}

// toolServer is the slice of an MCP server handle the assembly uses.
type toolServer interface {
	Tools() []tool.Tool
	io.Closer
}

// Factory seams for the MCP servers; tests swap these to avoid real
// connections.
var (
	newLearnServer = func(ctx context.Context, url string) (toolServer, error) {
		return mcp.NewLearnServer(ctx, url)
	}
	newGitHubServer = func(ctx context.Context, token string) (toolServer, error) {
		return mcp.NewGitHubServer(ctx, token)
	}
)

// buildResearcherTools connects the MCP servers the researcher uses. The
// Microsoft Learn server is required; the GitHub server is skipped with a
// log line when its token is absent. The returned cleanup closes every
// connected server.
func buildResearcherTools(ctx context.Context, settings config.Settings, logger logging.Logger) ([]tool.Tool, func(), error) {
	var servers []io.Closer

	cleanup := func() {
		if err := mcp.CloseAll(servers...); err != nil {
			logger.Warn("closing tool servers", "error", err)
		}
	}

	learn, err := newLearnServer(ctx, settings.LearnMCPURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect microsoft learn mcp server: %w", err)
	}
	servers = append(servers, learn)

	tools := append([]tool.Tool{}, learn.Tools()...)

	if settings.HasGitHubTool() {
		github, err := newGitHubServer(ctx, settings.GitHubToken)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("start github mcp server: %w", err)
		}
		servers = append(servers, github)
		tools = append(tools, github.Tools()...)
	} else {
		logger.Info("GITHUB_PERSONAL_ACCESS_TOKEN not set, researcher runs without the GitHub tool")
	}

	logger.Info("tool servers connected", "tools", len(tools))

	return tools, cleanup, nil
}

// buildPipeline assembles the researcher -> writer -> reviewer pipeline.
// The returned cleanup releases the researcher's tool servers.
func buildPipeline(ctx context.Context, settings config.Settings, logger logging.Logger) (*pipeline.Pipeline, func(), error) {
	llm, err := buildModel(settings)
	if err != nil {
		return nil, nil, err
	}

	tools, cleanup, err := buildResearcherTools(ctx, settings, logger)
	if err != nil {
		return nil, nil, err
	}

	agents := []agent.Agent{
		agent.NewResearcher(llm, tools, func(o *agent.ModelAgentOptions) { o.Logger = logger }),
		agent.NewWriter(llm, func(o *agent.ModelAgentOptions) { o.Logger = logger }),
		agent.NewReviewer(llm, func(o *agent.ModelAgentOptions) { o.Logger = logger }),
	}

	pipe, err := pipeline.New(agents, func(o *pipeline.Options) { o.Logger = logger })
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return pipe, cleanup, nil
}
