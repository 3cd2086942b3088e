// Package mcp connects to Model Context Protocol tool servers and exposes
// their tools through the generic tool.Tool interface. Two transports are
// supported: streamable HTTP against a remote endpoint, and stdio against a
// locally spawned subprocess owned by the handle.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/geektime/contentpipe/tool"
)

// Server is a connected MCP tool server handle. It is a scoped resource:
// acquire it before agent construction and Close it after the run completes,
// on every exit path. For the stdio transport Close also terminates the
// subprocess.
type Server struct {
	name   string
	client *client.Client
	tools  []tool.Tool
}

// NewStreamableHTTP connects to a remote MCP server over streamable HTTP and
// discovers its tools.
func NewStreamableHTTP(ctx context.Context, name, url string) (*Server, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("create mcp http client for %s: %w", name, err)
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start mcp http client for %s: %w", name, err)
	}

	return initialize(ctx, name, c)
}

// NewStdio spawns command as a local MCP server speaking the stdio transport
// and discovers its tools. The child process lives until Close.
func NewStdio(ctx context.Context, name, command string, env []string, args ...string) (*Server, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("spawn mcp server %s: %w", name, err)
	}

	return initialize(ctx, name, c)
}

// initialize performs the MCP handshake and tool discovery. The client is
// closed on failure so callers never leak a half-connected handle.
func initialize(ctx context.Context, name string, c *client.Client) (*Server, error) {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "contentpipe", Version: "0.1.0"}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp server %s: %w", name, err)
	}

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("list tools from %s: %w", name, err)
	}

	s := &Server{name: name, client: c}
	for _, t := range listed.Tools {
		s.tools = append(s.tools, &remoteTool{server: s, def: t})
	}

	return s, nil
}

// Name returns the configured server name.
func (s *Server) Name() string { return s.name }

// Tools returns the tools discovered during the handshake.
func (s *Server) Tools() []tool.Tool { return s.tools }

// Close releases the connection and, for stdio servers, terminates the child
// process. It is safe to call on every exit path.
func (s *Server) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close mcp server %s: %w", s.name, err)
	}
	return nil
}

// remoteTool adapts one discovered MCP tool to the tool.Tool interface.
// Calls are stateless request/response, so a single handle is shared safely
// across concurrent runs.
type remoteTool struct {
	server *Server
	def    mcp.Tool
}

// Name implements tool.Tool.
func (t *remoteTool) Name() string { return t.def.Name }

// Description implements tool.Tool.
func (t *remoteTool) Description() string { return t.def.Description }

// Parameters implements tool.Tool.
func (t *remoteTool) Parameters() map[string]any {
	schema := map[string]any{"type": "object"}
	if t.def.InputSchema.Type != "" {
		schema["type"] = t.def.InputSchema.Type
	}
	if len(t.def.InputSchema.Properties) > 0 {
		schema["properties"] = t.def.InputSchema.Properties
	}
	if len(t.def.InputSchema.Required) > 0 {
		schema["required"] = t.def.InputSchema.Required
	}
	return schema
}

// Call implements tool.Tool by forwarding to the MCP server.
func (t *remoteTool) Call(ctx context.Context, args map[string]any) (any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = t.def.Name
	req.Params.Arguments = args

	result, err := t.server.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call mcp tool %s/%s: %w", t.server.name, t.def.Name, err)
	}

	text := flattenContent(result.Content)
	if result.IsError {
		return nil, fmt.Errorf("mcp tool %s/%s failed: %s", t.server.name, t.def.Name, text)
	}

	return text, nil
}

// flattenContent concatenates the text blocks of a tool result.
func flattenContent(contents []mcp.Content) string {
	var b strings.Builder
	for _, c := range contents {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
