package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geektime/contentpipe/config"
	"github.com/geektime/contentpipe/logging"
	"github.com/geektime/contentpipe/tool"
)

type staticTool struct {
	name string
}

func (t *staticTool) Name() string               { return t.name }
func (t *staticTool) Description() string        { return t.name }
func (t *staticTool) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (t *staticTool) Call(context.Context, map[string]any) (any, error) {
	return "ok", nil
}

type fakeToolServer struct {
	tools  []tool.Tool
	closed bool
}

func (s *fakeToolServer) Tools() []tool.Tool { return s.tools }
func (s *fakeToolServer) Close() error {
	s.closed = true
	return nil
}

// swapToolFactories replaces the MCP factory seams for the test and restores
// them afterwards.
func swapToolFactories(t *testing.T, learn, github func() (toolServer, error)) (learnCalls, githubCalls *int) {
	t.Helper()

	origLearn, origGitHub := newLearnServer, newGitHubServer
	t.Cleanup(func() {
		newLearnServer, newGitHubServer = origLearn, origGitHub
	})

	learnCalls, githubCalls = new(int), new(int)
	newLearnServer = func(context.Context, string) (toolServer, error) {
		*learnCalls++
		return learn()
	}
	newGitHubServer = func(context.Context, string) (toolServer, error) {
		*githubCalls++
		return github()
	}

	return learnCalls, githubCalls
}

func TestBuildResearcherTools_MissingTokenOmitsGitHub(t *testing.T) {
	learn := &fakeToolServer{tools: []tool.Tool{&staticTool{name: "microsoft_docs_search"}}}
	github := &fakeToolServer{tools: []tool.Tool{&staticTool{name: "search_repositories"}}}

	_, githubCalls := swapToolFactories(t,
		func() (toolServer, error) { return learn, nil },
		func() (toolServer, error) { return github, nil },
	)

	settings := config.Settings{LearnMCPURL: "https://learn.example/api/mcp"}
	require.False(t, settings.HasGitHubTool())

	tools, cleanup, err := buildResearcherTools(context.Background(), settings, logging.NoOpLogger{})
	require.NoError(t, err)

	// Construction succeeds with only the Learn tools; the GitHub server
	// is never started.
	require.Len(t, tools, 1)
	assert.Equal(t, "microsoft_docs_search", tools[0].Name())
	assert.Zero(t, *githubCalls)

	cleanup()
	assert.True(t, learn.closed)
	assert.False(t, github.closed)
}

func TestBuildResearcherTools_TokenEnablesGitHub(t *testing.T) {
	learn := &fakeToolServer{tools: []tool.Tool{&staticTool{name: "microsoft_docs_search"}}}
	github := &fakeToolServer{tools: []tool.Tool{&staticTool{name: "search_repositories"}}}

	swapToolFactories(t,
		func() (toolServer, error) { return learn, nil },
		func() (toolServer, error) { return github, nil },
	)

	settings := config.Settings{LearnMCPURL: "https://learn.example/api/mcp", GitHubToken: "ghp_test"}

	tools, cleanup, err := buildResearcherTools(context.Background(), settings, logging.NoOpLogger{})
	require.NoError(t, err)

	require.Len(t, tools, 2)
	assert.Equal(t, "search_repositories", tools[1].Name())

	cleanup()
	assert.True(t, learn.closed)
	assert.True(t, github.closed)
}

func TestBuildResearcherTools_GitHubFailureClosesLearn(t *testing.T) {
	learn := &fakeToolServer{tools: []tool.Tool{&staticTool{name: "microsoft_docs_search"}}}

	swapToolFactories(t,
		func() (toolServer, error) { return learn, nil },
		func() (toolServer, error) { return nil, errors.New("npx not found") },
	)

	settings := config.Settings{LearnMCPURL: "https://learn.example/api/mcp", GitHubToken: "ghp_test"}

	_, _, err := buildResearcherTools(context.Background(), settings, logging.NoOpLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github mcp server")

	// The already-connected Learn server is released on the failure path.
	assert.True(t, learn.closed)
}

func TestBuildResearcherTools_LearnFailureIsFatal(t *testing.T) {
	swapToolFactories(t,
		func() (toolServer, error) { return nil, errors.New("connection refused") },
		func() (toolServer, error) { return &fakeToolServer{}, nil },
	)

	settings := config.Settings{LearnMCPURL: "https://learn.example/api/mcp"}

	_, _, err := buildResearcherTools(context.Background(), settings, logging.NoOpLogger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "microsoft learn mcp server")
}
