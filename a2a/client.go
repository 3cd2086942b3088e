package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/geektime/contentpipe/core"
	"github.com/geektime/contentpipe/logging"
)

// RemoteAgentOptions configures a remote agent proxy.
type RemoteAgentOptions struct {
	// HTTPClient is used for all requests to the peer.
	HTTPClient *http.Client

	// Logger receives request logs.
	Logger logging.Logger
}

// RemoteAgent proxies an agent hosted by a remote A2A peer. It satisfies
// the same contract as a local agent, so a pipeline can mix local and
// remote stages without knowing the difference.
type RemoteAgent struct {
	baseURL string
	card    a2a.AgentCard
	client  *http.Client
	logger  logging.Logger
}

// NewRemoteAgent resolves the agent card at the peer's well-known path
// and returns a proxy for the agent it describes.
func NewRemoteAgent(ctx context.Context, baseURL string, optFns ...func(o *RemoteAgentOptions)) (*RemoteAgent, error) {
	opts := RemoteAgentOptions{
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	ra := &RemoteAgent{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  opts.HTTPClient,
		logger:  opts.Logger,
	}

	card, err := ra.fetchCard(ctx)
	if err != nil {
		return nil, err
	}
	ra.card = card

	ra.logger.Info("resolved remote agent", "name", card.Name, "url", ra.baseURL)

	return ra, nil
}

// Name returns the agent name advertised by the peer's card.
func (ra *RemoteAgent) Name() string {
	return ra.card.Name
}

// Card returns the agent card resolved from the peer.
func (ra *RemoteAgent) Card() a2a.AgentCard {
	return ra.card
}

// Invoke sends the message to the remote peer and yields the artifact
// text of the completed task. The exchange is a single blocking
// message/send call, so the whole output arrives as one fragment.
// History is folded into the outbound message as leading text parts.
func (ra *RemoteAgent) Invoke(ctx context.Context, message string, history []core.Content) (<-chan string, <-chan error) {
	out := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		texts := make([]string, 0, len(history)+1)
		for _, content := range history {
			texts = append(texts, content.Text())
		}
		texts = append(texts, message)

		task, err := ra.send(ctx, a2a.Message{
			ID:    core.NewID(),
			Role:  a2a.MessageRoleUser,
			Parts: textParts(texts...),
		})
		if err != nil {
			errCh <- err
			return
		}

		if task.Status.State != a2a.TaskStateCompleted {
			errCh <- fmt.Errorf("remote agent %s: task ended in state %q", ra.card.Name, task.Status.State)
			return
		}

		select {
		case out <- taskText(task):
		case <-ctx.Done():
			errCh <- ctx.Err()
		}
	}()

	return out, errCh
}

// send performs a message/send call and decodes the resulting task.
func (ra *RemoteAgent) send(ctx context.Context, message a2a.Message) (a2a.Task, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(fmt.Sprintf("%q", core.NewID())),
		Method:  MethodMessageSend,
	}

	params, err := json.Marshal(a2a.MessageSendParams{Message: &message})
	if err != nil {
		return a2a.Task{}, fmt.Errorf("marshal params: %w", err)
	}
	req.Params = params

	body, err := json.Marshal(req)
	if err != nil {
		return a2a.Task{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ra.baseURL+"/", bytes.NewReader(body))
	if err != nil {
		return a2a.Task{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := ra.client.Do(httpReq)
	if err != nil {
		return a2a.Task{}, fmt.Errorf("send message to %s: %w", ra.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return a2a.Task{}, fmt.Errorf("remote agent %s: unexpected status %d", ra.baseURL, resp.StatusCode)
	}

	var rpcResp struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return a2a.Task{}, fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return a2a.Task{}, fmt.Errorf("remote agent %s: rpc error %d: %s", ra.baseURL, rpcResp.Error.Code, rpcResp.Error.Message)
	}

	var task a2a.Task
	if err := json.Unmarshal(rpcResp.Result, &task); err != nil {
		return a2a.Task{}, fmt.Errorf("decode task: %w", err)
	}

	return task, nil
}

// fetchCard retrieves and decodes the peer's agent card.
func (ra *RemoteAgent) fetchCard(ctx context.Context) (a2a.AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ra.baseURL+WellKnownCardPath, nil)
	if err != nil {
		return a2a.AgentCard{}, fmt.Errorf("build card request: %w", err)
	}

	resp, err := ra.client.Do(req)
	if err != nil {
		return a2a.AgentCard{}, fmt.Errorf("fetch agent card from %s: %w", ra.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return a2a.AgentCard{}, fmt.Errorf("fetch agent card from %s: unexpected status %d", ra.baseURL, resp.StatusCode)
	}

	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return a2a.AgentCard{}, fmt.Errorf("decode agent card: %w", err)
	}

	return card, nil
}
