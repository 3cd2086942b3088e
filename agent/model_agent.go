package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/logging"
	"github.com/geektime/contentpipe/model"
	"github.com/geektime/contentpipe/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instructions string
	Tools        []tool.Tool
	ToolTimeout  time.Duration
	MaxToolTurns int
	Logger       logging.Logger
}

// ModelAgent is the local Agent variant: a named role bound to a model
// endpoint, a system prompt, and zero or more tools. It streams text
// fragments as the model produces them and transparently runs the function
// calling loop when the model requests a tool.
type ModelAgent struct {
	name         string
	llm          model.Model
	instructions string
	tools        map[string]tool.Tool
	toolDefs     []model.ToolDefinition
	toolTimeout  time.Duration
	maxToolTurns int
	logger       logging.Logger
}

// NewModelAgent creates a model-backed agent with sensible defaults: no
// tools, a 30-second tool call timeout, and at most 8 tool turns per
// invocation.
func NewModelAgent(name string, llm model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instructions: fmt.Sprintf("You are %s, a helpful AI assistant.", name),
		ToolTimeout:  30 * time.Second,
		MaxToolTurns: 8,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	a := &ModelAgent{
		name:         name,
		llm:          llm,
		instructions: opts.Instructions,
		tools:        make(map[string]tool.Tool, len(opts.Tools)),
		toolTimeout:  opts.ToolTimeout,
		maxToolTurns: opts.MaxToolTurns,
		logger:       opts.Logger,
	}

	for _, t := range opts.Tools {
		a.tools[t.Name()] = t
		a.toolDefs = append(a.toolDefs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return a
}

// Name implements Agent.
func (a *ModelAgent) Name() string { return a.name }

// ToolNames returns the names of the tools bound to this agent, in
// registration order.
func (a *ModelAgent) ToolNames() []string {
	names := make([]string, 0, len(a.toolDefs))
	for _, d := range a.toolDefs {
		names = append(names, d.Function.Name)
	}
	return names
}

// Invoke implements Agent. It drives the model in streaming mode, relaying
// text deltas as they arrive. When the final response carries function calls
// the tools are executed and another model turn starts with their results
// appended; the loop ends at the first final response without calls.
func (a *ModelAgent) Invoke(ctx context.Context, message string, history []core.Content) (<-chan string, <-chan error) {
	out := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents := make([]core.Content, 0, len(history)+1)
		contents = append(contents, history...)
		contents = append(contents, core.NewUserContent(message))

		for turn := 0; ; turn++ {
			if turn > a.maxToolTurns {
				errCh <- fmt.Errorf("agent %s exceeded %d tool turns", a.name, a.maxToolTurns)
				return
			}

			final, err := a.generateTurn(ctx, contents, out)
			if err != nil {
				errCh <- err
				return
			}

			calls := final.Content.FunctionCalls()
			if len(calls) == 0 {
				return
			}

			a.logger.Debug("agent executing tool calls", "agent", a.name, "calls", len(calls))

			contents = append(contents, final.Content)
			contents = append(contents, a.executeCalls(ctx, calls))
		}
	}()

	return out, errCh
}

// generateTurn runs one streaming model call, forwarding partial text to out
// and returning the final response.
func (a *ModelAgent) generateTurn(ctx context.Context, contents []core.Content, out chan<- string) (model.Response, error) {
	req := model.Request{
		Instructions: a.instructions,
		Contents:     contents,
		Tools:        a.toolDefs,
		Stream:       true,
	}

	respCh, errs := a.llm.Generate(ctx, req)

	var final *model.Response
	for resp := range respCh {
		if resp.Partial {
			if text := resp.Content.Text(); text != "" {
				select {
				case <-ctx.Done():
					return model.Response{}, ctx.Err()
				case out <- text:
				}
			}
			continue
		}
		r := resp
		final = &r
	}

	if err := <-errs; err != nil {
		return model.Response{}, fmt.Errorf("agent %s model call: %w", a.name, err)
	}
	if final == nil {
		return model.Response{}, fmt.Errorf("agent %s: model returned no final response", a.name)
	}

	return *final, nil
}

// executeCalls runs the requested tools and collects their responses into a
// single tool-role content. Tool failures are reported back to the model
// rather than aborting the turn.
func (a *ModelAgent) executeCalls(ctx context.Context, calls []core.FunctionCall) core.Content {
	toolContent := core.Content{Role: "tool"}

	for _, call := range calls {
		result, err := a.callTool(ctx, call)

		fr := core.FunctionResponse{ID: call.ID, Name: call.Name}
		if err != nil {
			a.logger.Warn("tool call failed", "agent", a.name, "tool", call.Name, "error", err)
			fr.Error = err.Error()
		} else {
			fr.Response = result
		}

		toolContent.Parts = append(toolContent.Parts, core.FunctionResponsePart{FunctionResponse: fr})
	}

	return toolContent
}

func (a *ModelAgent) callTool(ctx context.Context, call core.FunctionCall) (any, error) {
	t, ok := a.tools[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return nil, fmt.Errorf("parse arguments for %s: %w", call.Name, err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.toolTimeout)
	defer cancel()

	return t.Call(callCtx, args)
}
