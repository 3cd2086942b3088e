package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/geektime/contentpipe/agent"
	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/logging"
)

// ReviewerArtifactName is the artifact name under which the reviewer
// returns its reviewed draft.
const ReviewerArtifactName = "reviewed-article"

// ReviewerCard describes the reviewer agent to remote peers. The card is
// served at WellKnownCardPath relative to baseURL.
func ReviewerCard(baseURL string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:        "Reviewer",
		Description: "Reviews technical article drafts for accuracy, clarity, and structure.",
		URL:         baseURL,
		Version:     "0.1.0",
		Capabilities: a2a.AgentCapabilities{
			// Streaming stays false: exchanges are single blocking
			// message/send calls that return a completed task.
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "review-article",
				Name:        "Review Article",
				Description: "Reviews an article draft and returns the revised version.",
				Tags:        []string{"review", "writing"},
			},
		},
	}
}

// ServerOptions configures an A2A server.
type ServerOptions struct {
	// Logger receives request and task lifecycle logs.
	Logger logging.Logger

	// ArtifactName names the artifact on completed tasks.
	ArtifactName string
}

// Server exposes a local agent to remote peers over the A2A protocol:
// a JSON-RPC endpoint for message/send plus the agent card at the
// well-known path.
type Server struct {
	agent        agent.Agent
	card         a2a.AgentCard
	logger       logging.Logger
	artifactName string
}

// NewServer creates an A2A server wrapping the given agent.
func NewServer(ag agent.Agent, card a2a.AgentCard, optFns ...func(o *ServerOptions)) *Server {
	opts := ServerOptions{
		Logger:       logging.NoOpLogger{},
		ArtifactName: ReviewerArtifactName,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Server{
		agent:        ag,
		card:         card,
		logger:       opts.Logger,
		artifactName: opts.ArtifactName,
	}
}

// Handler returns the HTTP handler serving the agent card and the
// JSON-RPC endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+WellKnownCardPath, s.handleCard)
	mux.HandleFunc("POST /", s.handleRPC)

	return mux
}

// ListenAndServe serves the A2A endpoints on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{Addr: addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	s.logger.Info("a2a server listening", "addr", addr, "agent", s.agent.Name())

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("a2a server: %w", err)
	}

	return nil
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.card)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, nil, codeParseError, "invalid JSON")
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeError(w, req.ID, codeInvalidRequest, "unsupported jsonrpc version")
		return
	}

	switch req.Method {
	case MethodMessageSend:
		s.handleSend(w, r, req)
	default:
		s.writeError(w, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method))
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	var params a2a.MessageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.writeError(w, req.ID, codeInvalidParams, "invalid message/send params")
		return
	}

	message := messageText(*params.Message)
	if message == "" {
		s.writeError(w, req.ID, codeInvalidParams, "message has no text parts")
		return
	}

	taskID := params.Message.TaskID
	if taskID == "" {
		taskID = a2a.TaskID(core.NewID())
	}
	contextID := params.Message.ContextID
	if contextID == "" {
		contextID = core.NewID()
	}

	s.logger.Info("a2a task started", "task_id", taskID, "agent", s.agent.Name(), "state", a2a.TaskStateWorking)

	output, err := s.runAgent(r.Context(), message)

	task := a2a.Task{
		ID:        taskID,
		ContextID: contextID,
	}

	if err != nil {
		s.logger.Error("a2a task failed", "task_id", taskID, "error", err)
		task.Status = a2a.TaskStatus{State: a2a.TaskStateFailed}
		s.writeResult(w, req.ID, task)
		return
	}

	task.Status = a2a.TaskStatus{State: a2a.TaskStateCompleted}
	task.Artifacts = []*a2a.Artifact{
		{
			ID:    a2a.ArtifactID(core.NewID()),
			Name:  s.artifactName,
			Parts: textParts(output),
		},
	}

	s.logger.Info("a2a task completed", "task_id", taskID, "artifact", s.artifactName)
	s.writeResult(w, req.ID, task)
}

// runAgent invokes the wrapped agent and collects its full output.
func (s *Server) runAgent(ctx context.Context, message string) (string, error) {
	out, errCh := s.agent.Invoke(ctx, message, nil)

	var sb strings.Builder
	for fragment := range out {
		sb.WriteString(fragment)
	}

	if err := <-errCh; err != nil {
		return "", err
	}

	return sb.String(), nil
}

func (s *Server) writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}
