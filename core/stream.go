package core

// EventKind discriminates the StreamEvent union.
type EventKind string

const (
	// EventAgentStarted announces that a pipeline stage began producing output.
	EventAgentStarted EventKind = "agent"
	// EventTextDelta carries one streamed text fragment from the named agent.
	EventTextDelta EventKind = "text"
	// EventDone terminates a successful run. Exactly one per run.
	EventDone EventKind = "done"
	// EventError terminates a failed run in place of EventDone.
	EventError EventKind = "error"
)

// StreamEvent is the tagged union produced by the pipeline runner in strict
// chronological order. Agent is set for agent/text events, Text only for text
// events, Status only for done events and Err only for error events.
type StreamEvent struct {
	Kind   EventKind
	Agent  string
	Text   string
	Status string
	Err    error
}

// AgentStarted builds the stage hand-off event.
func AgentStarted(agent string) StreamEvent {
	return StreamEvent{Kind: EventAgentStarted, Agent: agent}
}

// TextDelta builds a text fragment event attributed to agent.
func TextDelta(agent, text string) StreamEvent {
	return StreamEvent{Kind: EventTextDelta, Agent: agent, Text: text}
}

// Done builds the terminal success event.
func Done() StreamEvent {
	return StreamEvent{Kind: EventDone, Status: "complete"}
}

// ErrorEvent builds the terminal failure event.
func ErrorEvent(err error) StreamEvent {
	return StreamEvent{Kind: EventError, Err: err}
}

// Terminal reports whether the event ends the stream.
func (e StreamEvent) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}
