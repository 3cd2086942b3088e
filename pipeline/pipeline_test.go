package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geektime/contentpipe/agent"
	"github.com/geektime/contentpipe/core"
)

// fakeAgent emits scripted fragments and records the message and history it
// was invoked with.
type fakeAgent struct {
	name      string
	fragments []string
	err       error

	gotMessage string
	gotHistory []core.Content
}

func (a *fakeAgent) Name() string { return a.name }

func (a *fakeAgent) Invoke(ctx context.Context, message string, history []core.Content) (<-chan string, <-chan error) {
	a.gotMessage = message
	a.gotHistory = history

	out := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		for _, f := range a.fragments {
			select {
			case out <- f:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}
		if a.err != nil {
			errCh <- a.err
		}
	}()

	return out, errCh
}

func drain(events <-chan core.StreamEvent) []core.StreamEvent {
	var all []core.StreamEvent
	for ev := range events {
		all = append(all, ev)
	}
	return all
}

func threeStagePipeline(t *testing.T) (*Pipeline, []*fakeAgent) {
	t.Helper()

	agents := []*fakeAgent{
		{name: "Researcher", fragments: []string{"research ", "notes"}},
		{name: "Writer", fragments: []string{"article ", "draft"}},
		{name: "Reviewer", fragments: []string{"final ", "article"}},
	}

	pipe, err := New([]agent.Agent{agents[0], agents[1], agents[2]})
	require.NoError(t, err)

	return pipe, agents
}

func TestNew_RequiresAgents(t *testing.T) {
	_, err := New(nil)

	assert.Error(t, err)
}

func TestPipeline_AgentNames(t *testing.T) {
	pipe, _ := threeStagePipeline(t)

	assert.Equal(t, []string{"Researcher", "Writer", "Reviewer"}, pipe.AgentNames())
}

func TestPipeline_Agent_CaseInsensitive(t *testing.T) {
	pipe, _ := threeStagePipeline(t)

	require.NotNil(t, pipe.Agent("writer"))
	assert.Equal(t, "Writer", pipe.Agent("writer").Name())
	assert.Nil(t, pipe.Agent("unknown"))
}

func TestPipeline_Run_EventOrdering(t *testing.T) {
	pipe, _ := threeStagePipeline(t)

	events := drain(pipe.Run(context.Background(), "topic message"))

	// Stage starts appear in pipeline order, each before its own deltas,
	// and each after the previous stage's last delta.
	var startOrder []string
	currentAgent := ""
	for _, ev := range events[:len(events)-1] {
		switch ev.Kind {
		case core.EventAgentStarted:
			startOrder = append(startOrder, ev.Agent)
			currentAgent = ev.Agent
		case core.EventTextDelta:
			assert.Equal(t, currentAgent, ev.Agent, "delta attributed to the running stage")
		default:
			t.Fatalf("unexpected event kind %q before terminal", ev.Kind)
		}
	}
	assert.Equal(t, []string{"Researcher", "Writer", "Reviewer"}, startOrder)

	// Exactly one terminal event, last.
	last := events[len(events)-1]
	assert.Equal(t, core.EventDone, last.Kind)
	assert.Equal(t, "complete", last.Status)
	for _, ev := range events[:len(events)-1] {
		assert.False(t, ev.Terminal())
	}
}

func TestPipeline_Run_ReconstructsStageOutput(t *testing.T) {
	pipe, _ := threeStagePipeline(t)

	events := drain(pipe.Run(context.Background(), "topic message"))

	perAgent := map[string]*strings.Builder{}
	for _, ev := range events {
		if ev.Kind == core.EventTextDelta {
			if perAgent[ev.Agent] == nil {
				perAgent[ev.Agent] = &strings.Builder{}
			}
			perAgent[ev.Agent].WriteString(ev.Text)
		}
	}

	assert.Equal(t, "research notes", perAgent["Researcher"].String())
	assert.Equal(t, "article draft", perAgent["Writer"].String())
	assert.Equal(t, "final article", perAgent["Reviewer"].String())
}

func TestPipeline_Run_ThreadsPriorOutputs(t *testing.T) {
	pipe, agents := threeStagePipeline(t)

	drain(pipe.Run(context.Background(), "topic message"))

	// Every stage receives the original message plus the full outputs of
	// strictly earlier stages.
	assert.Equal(t, "topic message", agents[0].gotMessage)
	assert.Empty(t, agents[0].gotHistory)

	require.Len(t, agents[1].gotHistory, 1)
	assert.Equal(t, "research notes", agents[1].gotHistory[0].Text())

	require.Len(t, agents[2].gotHistory, 2)
	assert.Equal(t, "research notes", agents[2].gotHistory[0].Text())
	assert.Equal(t, "article draft", agents[2].gotHistory[1].Text())
}

func TestPipeline_Run_StageFailureAborts(t *testing.T) {
	researcher := &fakeAgent{name: "Researcher", fragments: []string{"notes"}}
	writer := &fakeAgent{name: "Writer", err: errors.New("model unavailable")}
	reviewer := &fakeAgent{name: "Reviewer", fragments: []string{"never runs"}}

	pipe, err := New([]agent.Agent{researcher, writer, reviewer})
	require.NoError(t, err)

	events := drain(pipe.Run(context.Background(), "go"))

	last := events[len(events)-1]
	assert.Equal(t, core.EventError, last.Kind)
	assert.ErrorContains(t, last.Err, "stage Writer")
	assert.ErrorContains(t, last.Err, "model unavailable")

	// The reviewer was never started.
	for _, ev := range events {
		assert.NotEqual(t, "Reviewer", ev.Agent)
	}
	assert.Empty(t, reviewer.gotMessage)
}

func TestPipeline_Run_CancelledContextStillEndsWithTerminalEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Repeat to cover both select orderings when the context is already
	// done: the stream must always close with exactly one terminal event.
	for i := 0; i < 200; i++ {
		pipe, _ := threeStagePipeline(t)

		events := drain(pipe.Run(ctx, "topic message"))

		require.NotEmpty(t, events, "run %d produced no events", i)
		last := events[len(events)-1]
		assert.True(t, last.Terminal(), "run %d ended with %q instead of a terminal event", i, last.Kind)
		for _, ev := range events[:len(events)-1] {
			assert.False(t, ev.Terminal(), "run %d emitted a terminal event before the last", i)
		}
	}
}

func TestRunAgent_SingleAgentContract(t *testing.T) {
	writer := &fakeAgent{name: "Writer", fragments: []string{"hello ", "there"}}

	events := drain(RunAgent(context.Background(), writer, "say hi"))

	require.Len(t, events, 4)
	assert.Equal(t, core.EventAgentStarted, events[0].Kind)
	assert.Equal(t, "Writer", events[0].Agent)
	assert.Equal(t, "hello ", events[1].Text)
	assert.Equal(t, "there", events[2].Text)
	assert.Equal(t, core.EventDone, events[3].Kind)
	assert.Equal(t, "say hi", writer.gotMessage)
}

func TestRunAgent_Error(t *testing.T) {
	writer := &fakeAgent{name: "Writer", err: errors.New("boom")}

	events := drain(RunAgent(context.Background(), writer, "go"))

	last := events[len(events)-1]
	assert.Equal(t, core.EventError, last.Kind)
	assert.ErrorContains(t, last.Err, "agent Writer")
}
