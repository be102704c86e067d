package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/providers/anthropic"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, handler func(t *testing.T, req map[string]any) any) *anthropic.Adapter {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handler(t, req))
	}))
	t.Cleanup(srv.Close)

	return anthropic.New(srv.URL, "test-key", "claude-test")
}

func textResponse(text string, in, out int) map[string]any {
	return map[string]any{
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": in, "output_tokens": out},
	}
}

func TestComplete_TextReplyCarriesUsage(t *testing.T) {
	a := newAdapter(t, func(t *testing.T, req map[string]any) any {
		assert.Equal(t, "claude-test", req["model"])
		assert.Equal(t, "You are helpful.", req["system"])
		assert.Len(t, req["messages"], 1)
		assert.NotContains(t, req, "tools")

		return textResponse("Hello there!", 10, 4)
	})

	c := chat.New(
		message.NewText("", role.System, "You are helpful."),
		message.NewText("", role.User, "Hi"),
	)

	msg, err := a.Complete(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, role.Assistant, msg.Role)
	assert.Equal(t, "Hello there!", msg.TextContent())
	require.NotNil(t, msg.Usage)
	assert.Equal(t, 10, msg.Usage.InputTokens)
	assert.Equal(t, 4, msg.Usage.OutputTokens)
	assert.Equal(t, 1, a.Usage.Count())
}

func TestComplete_MergesSameRoleTurns(t *testing.T) {
	a := newAdapter(t, func(t *testing.T, req map[string]any) any {
		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		require.Len(t, msgs, 2)

		first, _ := msgs[0].(map[string]any)
		assert.Equal(t, "user", first["role"])
		assert.Len(t, first["content"], 2)

		return textResponse("ok", 1, 1)
	})

	c := chat.New(
		message.NewText("", role.User, "one"),
		message.NewText("", role.User, "two"),
		message.NewText("", role.Assistant, "three"),
	)

	_, err := a.Complete(context.Background(), c)
	require.NoError(t, err)
}

func TestComplete_NativeToolRoundTrip(t *testing.T) {
	calls := 0
	a := newAdapter(t, func(t *testing.T, req map[string]any) any {
		calls++
		if calls == 1 {
			tools, ok := req["tools"].([]any)
			require.True(t, ok)
			tool, _ := tools[0].(map[string]any)
			assert.Equal(t, "generate_synthetic_prompt", tool["name"])

			return map[string]any{
				"content": []map[string]any{
					{"type": "tool_use", "id": "toolu_1", "name": "generate_synthetic_prompt", "input": map[string]any{"concept": "rain"}},
				},
				"stop_reason": "tool_use",
				"usage":       map[string]any{"input_tokens": 15, "output_tokens": 8},
			}
		}

		msgs, _ := req["messages"].([]any)
		last, _ := msgs[len(msgs)-1].(map[string]any)
		assert.Equal(t, "user", last["role"])
		blocks, _ := last["content"].([]any)
		block, _ := blocks[0].(map[string]any)
		assert.Equal(t, "tool_result", block["type"])
		assert.Equal(t, "toolu_1", block["tool_use_id"])

		return textResponse("Here is your prompt.", 25, 12)
	})

	a.SetTools([]toolbox.Tool{{
		Name:        "generate_synthetic_prompt",
		Description: "Expands a video concept",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"concept":{"type":"string"}}}`),
	}})

	c := chat.New(message.NewText("", role.User, "Make a prompt about rain"))

	reply, err := a.Complete(context.Background(), c)
	require.NoError(t, err)

	tcs := reply.ToolCalls()
	require.Len(t, tcs, 1)
	assert.JSONEq(t, `{"concept":"rain"}`, tcs[0].Arguments)

	c.Append(reply, message.New("", role.Tool, content.ToolResult{ToolCallID: "toolu_1", Content: "A rainy street"}))

	reply, err = a.Complete(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "Here is your prompt.", reply.TextContent())
	assert.Equal(t, 40, a.Usage.Total().InputTokens)
	assert.Equal(t, 20, a.Usage.Total().OutputTokens)
}

func TestComplete_EmptyContentIsNoText(t *testing.T) {
	a := newAdapter(t, func(*testing.T, map[string]any) any {
		return map[string]any{"content": []any{}, "stop_reason": "max_tokens", "usage": map[string]any{}}
	})

	_, err := a.Complete(context.Background(), chat.New(message.NewText("", role.User, "Hi")))
	assert.ErrorIs(t, err, modeladapter.ErrNoText)
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid x-api-key"}}`))
	}))
	t.Cleanup(srv.Close)

	a := anthropic.New(srv.URL, "bad", "claude-test")
	_, err := a.Complete(context.Background(), chat.New(message.NewText("", role.User, "Hi")))

	var se *modeladapter.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}
