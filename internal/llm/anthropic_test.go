package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestAnthropicProviderChat(t *testing.T) {
	srv, captured := fakeCompletions(t, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"stop_reason": "tool_use",
		"content": [
			{"type": "text", "text": "Let me look."},
			{"type": "tool_use", "id": "toolu_1", "name": "getSearchQuery", "input": {"query": "alpha"}}
		],
		"usage": {"input_tokens": 20, "output_tokens": 7}
	}`)

	p, err := NewAnthropicProvider("sk-ant-test", "", WithAnthropicBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), &ChatRequest{
		SystemPrompt: "be brief",
		Messages:     []Message{{Role: "user", Content: "find alpha"}},
		Tools:        NoteTools(),
	})
	require.NoError(t, err)

	assert.Equal(t, "/messages", captured.path)
	assert.Equal(t, "be brief", gjson.GetBytes(captured.body, "system").String())
	assert.Equal(t, "claude-sonnet-4-20250514", gjson.GetBytes(captured.body, "model").String())

	assert.Equal(t, "Let me look.", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"query":"alpha"}`, string(resp.ToolCalls[0].Input))
	assert.Equal(t, 20, resp.Usage.InputTokens)
}

func TestAnthropicToolChoice(t *testing.T) {
	assert.Nil(t, anthropicToolChoice(ToolChoice{}))
	assert.Equal(t, "any", anthropicToolChoice(ToolChoice{Mode: ToolChoiceForce}).Type)

	forced := anthropicToolChoice(ToolChoice{Mode: ToolChoiceForce, Name: "getSearchQuery"})
	assert.Equal(t, "tool", forced.Type)
	assert.Equal(t, "getSearchQuery", forced.Name)
}
