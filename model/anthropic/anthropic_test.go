package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geektime/contentpipe/core"
)

func TestBuildMessages_ToolResultsFollowInUserTurn(t *testing.T) {
	m := NewModel()

	contents := []core.Content{
		core.NewUserContent("look up the docs"),
		{
			Role: "assistant",
			Parts: []core.Part{
				core.FunctionCallPart{FunctionCall: core.FunctionCall{
					ID:        "call_1",
					Name:      "microsoft_docs_search",
					Arguments: `{"query":"azure functions"}`,
				}},
			},
		},
		{
			Role: "tool",
			Parts: []core.Part{
				core.FunctionResponsePart{FunctionResponse: core.FunctionResponse{
					ID:       "call_1",
					Response: "doc excerpt",
				}},
			},
		},
	}

	messages := m.buildMessages(contents)

	// user, assistant tool_use, then the tool_result in its own user turn.
	require.Len(t, messages, 3)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[2].Role)

	require.Len(t, messages[1].Content, 1)
	require.NotNil(t, messages[1].Content[0].OfToolUse)
	assert.Equal(t, "call_1", messages[1].Content[0].OfToolUse.ID)
	assert.Nil(t, messages[1].Content[0].OfToolResult)

	require.Len(t, messages[2].Content, 1)
	require.NotNil(t, messages[2].Content[0].OfToolResult)
	assert.Equal(t, "call_1", messages[2].Content[0].OfToolResult.ToolUseID)
}

func TestBuildMessages_PlainTurnsHaveNoToolResultMessage(t *testing.T) {
	m := NewModel()

	contents := []core.Content{
		core.NewUserContent("write an article"),
		core.NewAssistantContent("here is a draft"),
	}

	messages := m.buildMessages(contents)

	require.Len(t, messages, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
}
