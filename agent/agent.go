// Package agent defines the conversational agent capability and its local
// model-backed implementation. The same Invoke contract is implemented by the
// network proxy in the a2a package, so callers cannot tell a local agent from
// a remote one.
package agent

import (
	"context"

	"github.com/geektime/contentpipe/core"
)

// Agent is a named conversational role. Invoke runs a single turn: the
// message plus the immutable prior-stage context, producing a lazy,
// forward-only sequence of text fragments.
//
// Semantics & guarantees:
//   - Fragments are delivered in generation order and never reordered.
//   - The fragment channel is closed when the turn completes (success or
//     failure); the error channel carries at most one terminal error then
//     closes.
//   - Agents are stateless between invocations: all context is passed in.
type Agent interface {
	Name() string
	Invoke(ctx context.Context, message string, history []core.Content) (<-chan string, <-chan error)
}
