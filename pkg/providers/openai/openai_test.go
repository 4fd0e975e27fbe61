package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docentchat/docent/pkg/chats/chat"
	"github.com/docentchat/docent/pkg/chats/content"
	"github.com/docentchat/docent/pkg/chats/message"
	"github.com/docentchat/docent/pkg/chats/role"
	"github.com/docentchat/docent/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, captured *apiRequest, response string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
}

func TestCompleteTextReply(t *testing.T) {
	var captured apiRequest
	srv := newTestServer(t, &captured, `{
		"choices": [{"message": {"role": "assistant", "content": "the answer is 4"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 6}
	}`)
	defer srv.Close()

	a := New(srv.URL, "secret", "gpt-4o")
	c := chat.New(
		message.NewText(role.System, "be brief"),
		message.NewText(role.User, "what is 2+2?"),
	)

	reply, err := a.Complete(context.Background(), c, nil)
	require.NoError(t, err)

	assert.Equal(t, "the answer is 4", reply.TextContent())
	assert.Empty(t, reply.ToolCalls())

	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)

	assert.Equal(t, 12, a.Usage.InputTokens)
	assert.Equal(t, 6, a.Usage.OutputTokens)
}

func TestCompleteToolCallReply(t *testing.T) {
	var captured apiRequest
	srv := newTestServer(t, &captured, `{
		"choices": [{"message": {
			"role": "assistant",
			"content": null,
			"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "add", "arguments": "{\"a\":2,\"b\":2}"}}]
		}, "finish_reason": "tool_calls"}],
		"usage": {"prompt_tokens": 1, "completion_tokens": 1}
	}`)
	defer srv.Close()

	a := New(srv.URL, "secret", "gpt-4o")
	tools := []toolbox.Tool{{
		Name:        "add",
		Description: "Adds two numbers",
		InputSchema: json.RawMessage(`{"type":"object"}`),
	}}
	c := chat.New(message.NewText(role.User, "2+2?"))

	reply, err := a.Complete(context.Background(), c, tools)
	require.NoError(t, err)

	calls := reply.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "add", calls[0].Name)
	assert.JSONEq(t, `{"a":2,"b":2}`, calls[0].Arguments)

	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "function", captured.Tools[0].Type)
	assert.Equal(t, "add", captured.Tools[0].Function.Name)
}

func TestToolResultsBecomeToolMessages(t *testing.T) {
	var captured apiRequest
	srv := newTestServer(t, &captured, `{
		"choices": [{"message": {"role": "assistant", "content": "done"}}],
		"usage": {"prompt_tokens": 1, "completion_tokens": 1}
	}`)
	defer srv.Close()

	a := New(srv.URL, "secret", "gpt-4o")
	c := chat.New(
		message.NewText(role.User, "2+2?"),
		message.New(role.Assistant,
			content.ToolCall{ID: "call_1", Name: "add", Arguments: `{"a":2,"b":2}`},
		),
		message.New(role.Tool,
			content.ToolResult{ToolCallID: "call_1", Content: "4"},
		),
	)

	_, err := a.Complete(context.Background(), c, nil)
	require.NoError(t, err)

	require.Len(t, captured.Messages, 3)

	assistant := captured.Messages[1]
	assert.Equal(t, "assistant", assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)

	result := captured.Messages[2]
	assert.Equal(t, "tool", result.Role)
	assert.Equal(t, "call_1", result.ToolCallID)
	require.NotNil(t, result.Content)
	assert.Equal(t, "4", *result.Content)
}

func TestEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": [], "usage": {}}`))
	}))
	defer srv.Close()

	a := New(srv.URL, "secret", "gpt-4o")
	c := chat.New(message.NewText(role.User, "hi"))

	_, err := a.Complete(context.Background(), c, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}
