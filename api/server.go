// Package api exposes the content pipeline and its individual agents over
// HTTP with server-sent-event streaming.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/logging"
	"github.com/geektime/contentpipe/pipeline"
	"github.com/geektime/contentpipe/prompts"
)

// DefaultTopic is used when a pipeline request omits the topic.
const DefaultTopic = "Azure Functions serverless computing"

// Options holds configuration overrides passed to NewServer.
type Options struct {
	Logger logging.Logger
	// RunTimeout bounds a single pipeline or agent run. Zero disables it.
	RunTimeout time.Duration
}

// Server serves the HTTP surface: health, full pipeline runs, and per-agent
// runs. The pipeline and its agents are created once at startup and shared
// read-only across concurrent requests.
type Server struct {
	pipe       *pipeline.Pipeline
	logger     logging.Logger
	runTimeout time.Duration
}

// NewServer builds a Server around an assembled pipeline.
func NewServer(pipe *pipeline.Pipeline, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{pipe: pipe, logger: opts.Logger, runTimeout: opts.RunTimeout}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/pipeline", s.handlePipeline)
	mux.HandleFunc("POST /api/agents/{name}", s.handleAgent)
	return mux
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	s.logger.Info("api server listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type messageRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"agents":   s.pipe.AgentNames(),
		"pipeline": true,
	})
}

func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	var req topicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Topic == "" {
		req.Topic = DefaultTopic
	}

	message, err := prompts.Render("pipeline_message", map[string]string{"topic": req.Topic})
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := s.runContext(r.Context())
	defer cancel()

	s.streamEvents(ctx, w, s.pipe.Run(ctx, message))
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ag := s.pipe.Agent(name)
	if ag == nil {
		jsonError(w, fmt.Sprintf("agent %q not found, available: %v", name, s.pipe.AgentNames()), http.StatusNotFound)
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := s.runContext(r.Context())
	defer cancel()

	s.streamEvents(ctx, w, pipeline.RunAgent(ctx, ag, req.Message))
}

// streamEvents relays run events as SSE until the terminal event or a client
// disconnect. A disconnect stops relaying; the run context is cancelled with
// the request so per-run resources are released.
func (s *Server) streamEvents(ctx context.Context, w http.ResponseWriter, events <-chan core.StreamEvent) {
	sse, err := newSSEWriter(w)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sse.writeStreamEvent(ev); err != nil {
				s.logger.Warn("client write failed, dropping stream", "error", err)
				return
			}
			if ev.Terminal() {
				return
			}
		}
	}
}

func (s *Server) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.runTimeout > 0 {
		return context.WithTimeout(parent, s.runTimeout)
	}
	return context.WithCancel(parent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
