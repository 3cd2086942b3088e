package model

import (
	"context"
	"fmt"

	"github.com/geektime/contentpipe/core"
)

// MockModel is a lightweight in-memory Model useful for tests. Canned
// completions are matched against the text of the last request content; when
// streaming is requested the completion is emitted rune by rune.
type MockModel struct {
	info      Info
	responses map[string]string
	errors    map[string]error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
		errors:    make(map[string]error),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// AddError registers a failure for an input prompt, simulating an upstream
// call error (network, quota, malformed response).
func (m *MockModel) AddError(prompt string, err error) { m.errors[prompt] = err }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if len(req.Contents) == 0 {
			errCh <- fmt.Errorf("no contents provided")
			return
		}

		inputText := req.Contents[len(req.Contents)-1].Text()

		if err, ok := m.errors[inputText]; ok {
			errCh <- err
			return
		}

		full := m.responses[inputText]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}

		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: core.NewAssistantContent(string(r))}:
				}
			}
		}

		respCh <- Response{Content: core.NewAssistantContent(full), FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
