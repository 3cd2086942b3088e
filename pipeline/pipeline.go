// Package pipeline chains agents into a fixed-order sequential execution
// graph and streams typed progress events to its consumer.
//
// The hand-off rule is deliberately simple: each stage receives the original
// request plus an immutable list of the full outputs of strictly earlier
// stages, threaded as an argument. A stage never sees output of a later
// stage, so the graph has no cycles and needs no dependency resolution.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/geektime/contentpipe/agent"
	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/logging"
)

// Options holds configuration overrides passed to New.
type Options struct {
	// EventBufferSize sets channel buffering for emitted events.
	EventBufferSize int
	// Logger receives per-stage progress logs.
	Logger logging.Logger
}

// Pipeline executes agents strictly sequentially, relaying each stage's text
// fragments as they are generated. Public methods are safe for concurrent
// use: every Run owns its state, only the agents are shared (read-only).
type Pipeline struct {
	agents          []agent.Agent
	eventBufferSize int
	logger          logging.Logger
}

// New constructs a Pipeline over the given stage order.
func New(agents []agent.Agent, optFns ...func(o *Options)) (*Pipeline, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one agent")
	}

	opts := Options{
		EventBufferSize: 128,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Pipeline{
		agents:          agents,
		eventBufferSize: opts.EventBufferSize,
		logger:          opts.Logger,
	}, nil
}

// AgentNames returns the stage names in execution order.
func (p *Pipeline) AgentNames() []string {
	names := make([]string, len(p.agents))
	for i, a := range p.agents {
		names[i] = a.Name()
	}
	return names
}

// Agent returns the named stage agent, or nil when unknown. Lookup is
// case-insensitive to match the HTTP path parameter convention.
func (p *Pipeline) Agent(name string) agent.Agent {
	for _, a := range p.agents {
		if strings.EqualFold(a.Name(), name) {
			return a
		}
	}
	return nil
}

// Run executes all stages against message and returns the ordered event
// stream. Guarantees:
//   - an agent-started event precedes any text of its stage
//   - text deltas are relayed in generation order, attributed to the stage
//   - stage i+1 starts only after stage i's full output is available
//   - exactly one terminal event ends the stream: done on success, error on
//     the first stage failure (remaining stages are aborted, no retries)
//
// The channel is closed after the terminal event. Cancelling ctx stops
// emission and ends the run with an error event.
func (p *Pipeline) Run(ctx context.Context, message string) <-chan core.StreamEvent {
	events := make(chan core.StreamEvent, p.eventBufferSize)

	go func() {
		defer close(events)

		runID := core.NewID()
		prior := make([]core.Content, 0, len(p.agents))

		for _, ag := range p.agents {
			p.logger.Info("pipeline stage starting", "run_id", runID, "agent", ag.Name())

			output, err := runStage(ctx, ag, message, prior, events)
			if err != nil {
				p.logger.Error("pipeline stage failed", "run_id", runID, "agent", ag.Name(), "error", err)
				emit(ctx, events, core.ErrorEvent(fmt.Errorf("stage %s: %w", ag.Name(), err)))
				return
			}

			// Thread the full stage output forward as immutable context.
			prior = append(prior, core.NewAssistantContent(output))
		}

		p.logger.Info("pipeline complete", "run_id", runID)
		emit(ctx, events, core.Done())
	}()

	return events
}

// RunAgent executes a single agent with the same event contract as a full
// run: agent-started, text deltas, then one terminal event. Used by the
// per-agent API endpoints.
func RunAgent(ctx context.Context, ag agent.Agent, message string) <-chan core.StreamEvent {
	events := make(chan core.StreamEvent, 128)

	go func() {
		defer close(events)

		if _, err := runStage(ctx, ag, message, nil, events); err != nil {
			emit(ctx, events, core.ErrorEvent(fmt.Errorf("agent %s: %w", ag.Name(), err)))
			return
		}
		emit(ctx, events, core.Done())
	}()

	return events
}

// runStage invokes one agent, relays its fragments as text events and
// returns the accumulated full output.
func runStage(
	ctx context.Context,
	ag agent.Agent,
	message string,
	prior []core.Content,
	events chan<- core.StreamEvent,
) (string, error) {
	if !emit(ctx, events, core.AgentStarted(ag.Name())) {
		return "", ctx.Err()
	}

	frags, errs := ag.Invoke(ctx, message, prior)

	var output strings.Builder
	for f := range frags {
		output.WriteString(f)
		if !emit(ctx, events, core.TextDelta(ag.Name(), f)) {
			return "", ctx.Err()
		}
	}

	if err := <-errs; err != nil {
		return "", err
	}

	return output.String(), nil
}

// emit sends ev, giving up only when the context is done and the channel is
// full; it reports whether the event was delivered. The buffered send is
// attempted first so a terminal event still reaches the consumer when the run
// context is already cancelled.
func emit(ctx context.Context, events chan<- core.StreamEvent, ev core.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	default:
	}
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}
