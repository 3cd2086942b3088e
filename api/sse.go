package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/geektime/contentpipe/core"
)

// sseWriter encodes stream events onto a server-sent-events response. It is
// bound to a single request and not safe for concurrent use.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// writeEvent serializes one named event with a JSON payload and flushes it so
// deltas reach the client as they are produced.
func (s *sseWriter) writeEvent(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeStreamEvent maps the runner's event union onto the wire format:
// agent {"agent"}, text {"agent","text"}, done {"status":"complete"},
// error {"error"}.
func (s *sseWriter) writeStreamEvent(ev core.StreamEvent) error {
	switch ev.Kind {
	case core.EventAgentStarted:
		return s.writeEvent("agent", map[string]string{"agent": ev.Agent})
	case core.EventTextDelta:
		return s.writeEvent("text", map[string]string{"agent": ev.Agent, "text": ev.Text})
	case core.EventDone:
		return s.writeEvent("done", map[string]string{"status": ev.Status})
	case core.EventError:
		return s.writeEvent("error", map[string]string{"error": ev.Err.Error()})
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}
