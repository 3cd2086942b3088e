package azure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geektime/contentpipe/core"
)

func TestFinalChunk_OrdersToolCallsByStreamIndex(t *testing.T) {
	toolAgg := map[int64]*aggCall{
		2: {id: "call_3", name: "third", args: `{"n":3}`},
		0: {id: "call_1", name: "first", args: `{"n":1}`},
		1: {id: "call_2", name: "second", args: `{"n":2}`},
	}

	for i := 0; i < 50; i++ {
		resp := finalChunk("tool_calls", &strings.Builder{}, toolAgg)

		require.Len(t, resp.Content.Parts, 3)
		var names []string
		for _, p := range resp.Content.Parts {
			fc, ok := p.(core.FunctionCallPart)
			require.True(t, ok)
			names = append(names, fc.FunctionCall.Name)
		}
		assert.Equal(t, []string{"first", "second", "third"}, names)
	}
}

func TestFinalChunk_TextPrecedesToolCalls(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("let me look that up")
	toolAgg := map[int64]*aggCall{0: {id: "call_1", name: "search", args: "{}"}}

	resp := finalChunk("tool_calls", &sb, toolAgg)

	require.Len(t, resp.Content.Parts, 2)
	text, ok := resp.Content.Parts[0].(core.TextPart)
	require.True(t, ok)
	assert.Equal(t, "let me look that up", text.Text)
	_, ok = resp.Content.Parts[1].(core.FunctionCallPart)
	assert.True(t, ok)
	assert.False(t, resp.Partial)
	assert.Equal(t, "tool_calls", resp.FinishReason)
}
