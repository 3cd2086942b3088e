// Package tool defines the function / tool calling contract that lets agents
// invoke structured capabilities (documentation search, repository access)
// during a conversation.
package tool

import "context"

// Tool defines the interface for extending agent capabilities with external functions.
//
// Implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define a proper JSON schema for parameters
//   - Be safe for concurrent use; tools are shared read-only across runs
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	// It is provided to the model to help it decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with structured arguments. The result must be
	// JSON-serializable; errors are surfaced to the model as tool errors.
	Call(ctx context.Context, args map[string]any) (any, error)
}
