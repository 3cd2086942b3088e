package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geektime/contentpipe/agent"
	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/pipeline"
)

type fakeAgent struct {
	name      string
	fragments []string
	err       error

	gotMessage string
}

func (a *fakeAgent) Name() string { return a.name }

func (a *fakeAgent) Invoke(ctx context.Context, message string, history []core.Content) (<-chan string, <-chan error) {
	a.gotMessage = message

	out := make(chan string, len(a.fragments))
	errCh := make(chan error, 1)

	for _, f := range a.fragments {
		out <- f
	}
	if a.err != nil {
		errCh <- a.err
	}
	close(out)
	close(errCh)

	return out, errCh
}

// sseEvent is one parsed server-sent event.
type sseEvent struct {
	name string
	data map[string]string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()

	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev.data))
			}
		}
		require.NotEmpty(t, ev.name, "block without event name: %q", block)
		events = append(events, ev)
	}

	return events
}

func newTestServer(t *testing.T, agents ...agent.Agent) (*Server, []*fakeAgent) {
	t.Helper()

	fakes := []*fakeAgent{
		{name: "Researcher", fragments: []string{"research"}},
		{name: "Writer", fragments: []string{"draft ", "text"}},
		{name: "Reviewer", fragments: []string{"final"}},
	}
	if agents == nil {
		agents = []agent.Agent{fakes[0], fakes[1], fakes[2]}
	}

	pipe, err := pipeline.New(agents)
	require.NoError(t, err)

	return NewServer(pipe), fakes
}

func do(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	return rec
}

func TestHealth(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string   `json:"status"`
		Agents   []string `json:"agents"`
		Pipeline bool     `json:"pipeline"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"Researcher", "Writer", "Reviewer"}, resp.Agents)
	assert.True(t, resp.Pipeline)
}

func TestPipelineEndpoint_StreamsAllStages(t *testing.T) {
	server, fakes := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/pipeline", `{"topic":"Go concurrency"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())

	var agentStarts []string
	for _, ev := range events {
		if ev.name == "agent" {
			agentStarts = append(agentStarts, ev.data["agent"])
		}
	}
	assert.Equal(t, []string{"Researcher", "Writer", "Reviewer"}, agentStarts)

	last := events[len(events)-1]
	assert.Equal(t, "done", last.name)
	assert.Equal(t, "complete", last.data["status"])

	assert.Equal(t, "Write a technical article about: Go concurrency", fakes[0].gotMessage)
}

func TestPipelineEndpoint_DefaultTopic(t *testing.T) {
	server, fakes := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/pipeline", `{}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Write a technical article about: "+DefaultTopic, fakes[0].gotMessage)
}

func TestPipelineEndpoint_InvalidBody(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/pipeline", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPipelineEndpoint_StageError(t *testing.T) {
	researcher := &fakeAgent{name: "Researcher", err: errors.New("model unavailable")}
	server, _ := newTestServer(t, researcher)

	rec := do(t, server, http.MethodPost, "/api/pipeline", `{}`)

	events := parseSSE(t, rec.Body.String())
	last := events[len(events)-1]
	assert.Equal(t, "error", last.name)
	assert.Contains(t, last.data["error"], "model unavailable")
}

func TestAgentEndpoint_SingleAgentOnly(t *testing.T) {
	server, fakes := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/agents/writer", `{"message":"draft an intro"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	events := parseSSE(t, rec.Body.String())

	var starts, deltas int
	for _, ev := range events {
		switch ev.name {
		case "agent":
			starts++
			assert.Equal(t, "Writer", ev.data["agent"])
		case "text":
			deltas++
			assert.Equal(t, "Writer", ev.data["agent"])
		}
	}
	assert.Equal(t, 1, starts)
	assert.Equal(t, 2, deltas)
	assert.Equal(t, "done", events[len(events)-1].name)

	assert.Equal(t, "draft an intro", fakes[1].gotMessage)
	assert.Empty(t, fakes[0].gotMessage, "other agents must not run")
	assert.Empty(t, fakes[2].gotMessage, "other agents must not run")
}

func TestAgentEndpoint_UnknownAgent(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/agents/editor", `{"message":"hi"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "Researcher")
}

func TestAgentEndpoint_MissingMessage(t *testing.T) {
	server, _ := newTestServer(t)

	rec := do(t, server, http.MethodPost, "/api/agents/writer", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
