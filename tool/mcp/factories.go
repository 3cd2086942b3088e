package mcp

import (
	"context"
	"fmt"
	"io"
)

// NewLearnServer connects to the Microsoft Learn documentation search MCP
// endpoint over streamable HTTP.
func NewLearnServer(ctx context.Context, url string) (*Server, error) {
	return NewStreamableHTTP(ctx, "microsoft-learn", url)
}

// NewGitHubServer spawns the GitHub MCP server as a local subprocess. The
// personal access token is passed through the child environment, never argv.
func NewGitHubServer(ctx context.Context, token string) (*Server, error) {
	if token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	env := []string{"GITHUB_PERSONAL_ACCESS_TOKEN=" + token}
	return NewStdio(ctx, "github", "npx", env, "-y", "@modelcontextprotocol/server-github")
}

// CloseAll closes every non-nil server handle, returning the first error
// while still attempting the rest. Use with defer to guarantee release on
// all exit paths.
func CloseAll(servers ...io.Closer) error {
	var firstErr error
	for _, s := range servers {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
