package a2a

import (
	"encoding/json"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
)

// WellKnownCardPath is the path where an agent publishes its card,
// relative to the agent's base URL.
const WellKnownCardPath = "/.well-known/agent-card.json"

// MethodMessageSend is the JSON-RPC method for a blocking message exchange.
const MethodMessageSend = "message/send"

// JSON-RPC 2.0 error codes used by the bridge.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError carries a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// textParts wraps each text in an a2a text part, skipping empty strings.
func textParts(texts ...string) []a2a.Part {
	parts := make([]a2a.Part, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			parts = append(parts, a2a.TextPart{Text: t})
		}
	}
	return parts
}

// partTexts collects the non-empty text parts in order.
func partTexts(parts []a2a.Part) []string {
	var texts []string
	for _, p := range parts {
		if tp, ok := p.(a2a.TextPart); ok && tp.Text != "" {
			texts = append(texts, tp.Text)
		}
	}
	return texts
}

// messageText joins the text parts of a message. Peers send conversation
// context and the instruction as separate parts; a blank line keeps them
// apart in the combined prompt.
func messageText(m a2a.Message) string {
	return strings.Join(partTexts(m.Parts), "\n\n")
}

// taskText concatenates the text parts of all artifacts on the task.
func taskText(t a2a.Task) string {
	var sb strings.Builder
	for _, art := range t.Artifacts {
		for _, text := range partTexts(art.Parts) {
			sb.WriteString(text)
		}
	}
	return sb.String()
}
