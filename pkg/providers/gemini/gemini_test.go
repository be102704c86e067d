package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type stubGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
}

func (s *stubGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.model = model
	s.contents = contents
	return s.resp, s.err
}

func textResponse(text string, prompt, completion int32) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: roleModel, Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     prompt,
			CandidatesTokenCount: completion,
		},
	}
}

func roles(contents []*genai.Content) []string {
	out := make([]string, len(contents))
	for i, c := range contents {
		out[i] = c.Role
	}
	return out
}

func TestComplete_SingleAssistantReplyWithUsage(t *testing.T) {
	gen := &stubGenerator{resp: textResponse("Paris.", 10, 4)}
	a := NewWithGenerator(gen, "gemini-test")

	c := chat.New(
		message.NewText("", role.User, "Capital of France?"),
		message.NewText("", role.Assistant, "Thinking."),
		message.NewText("", role.User, "Answer please."),
	)

	reply, err := a.Complete(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, "gemini-test", gen.model)
	assert.Equal(t, []string{"user", "model", "user"}, roles(gen.contents))
	assert.Equal(t, role.Assistant, reply.Role)
	assert.Equal(t, "Paris.", reply.TextContent())
	require.NotNil(t, reply.Usage)
	assert.Equal(t, 10, reply.Usage.InputTokens)
	assert.Equal(t, 4, reply.Usage.OutputTokens)

	last, ok := a.UsageTracker().Last()
	require.True(t, ok)
	assert.Equal(t, 10, last.InputTokens)
}

func TestContents_SystemPrependedToFirstUserMessage(t *testing.T) {
	a := NewWithGenerator(nil, "m")

	contents := a.Contents([]message.Message{
		message.NewText("", role.System, "Be brief."),
		message.NewText("", role.User, "Hi"),
		message.NewText("", role.Assistant, "Hello"),
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "Be brief.\n\nHi", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
}

func TestContents_SystemWithoutUserTurnIsKept(t *testing.T) {
	a := NewWithGenerator(nil, "m")

	contents := a.Contents([]message.Message{
		message.NewText("", role.Assistant, "Earlier answer"),
		message.NewText("", role.System, "Be brief."),
	})

	require.Len(t, contents, 2)
	assert.Equal(t, []string{"user", "model"}, roles(contents))
	assert.Equal(t, "Be brief.", contents[0].Parts[0].Text)
}

func TestContents_CollapseSystem(t *testing.T) {
	a := NewWithGenerator(nil, "m")
	a.CollapseSystem = true

	contents := a.Contents([]message.Message{
		message.NewText("", role.System, "Be brief."),
		message.NewText("", role.User, "Hi"),
	})

	assert.Equal(t, []string{"model", "user"}, roles(contents))
}

func TestContents_FlattensNonTextAndMergesRoles(t *testing.T) {
	a := NewWithGenerator(nil, "m")

	contents := a.Contents([]message.Message{
		message.New("", role.User, content.Text{Text: "look"}, content.Image{URL: "http://x/cat.png"}),
		message.New("", role.Assistant, content.ToolCall{Name: "visit_webpage", Arguments: `{"url":"u"}`}),
		message.New("", role.Tool, content.ToolResult{Name: "visit_webpage", Content: "page"}),
		message.NewText("", role.User, ""),
	})

	require.Len(t, contents, 2)
	assert.Equal(t, "look\n[image: http://x/cat.png]", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	require.Len(t, contents[1].Parts, 2)
	assert.Equal(t, `[tool call visit_webpage: {"url":"u"}]`, contents[1].Parts[0].Text)
	assert.Equal(t, "[tool result visit_webpage]\npage", contents[1].Parts[1].Text)
}

func TestReply_MissingUsageIsNotAnError(t *testing.T) {
	a := NewWithGenerator(nil, "m")

	reply, err := a.Reply(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "a"}, {Text: "b"}}}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "ab", reply.TextContent())
	assert.Nil(t, reply.Usage)
	assert.Equal(t, 0, a.UsageTracker().Count())
}

func TestReply_SkipsThoughts(t *testing.T) {
	a := NewWithGenerator(nil, "m")

	reply, err := a.Reply(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "pondering", Thought: true},
			{Text: "answer"},
		}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", reply.TextContent())
}

func TestReply_NoText(t *testing.T) {
	a := NewWithGenerator(nil, "m")

	tests := map[string]*genai.GenerateContentResponse{
		"nil response":  nil,
		"no candidates": {},
		"empty content": {Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
	}
	for name, resp := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.Reply(resp)
			assert.ErrorIs(t, err, modeladapter.ErrNoText)
		})
	}
}

func TestComplete_ProviderError(t *testing.T) {
	a := NewWithGenerator(&stubGenerator{err: errors.New("quota exceeded")}, "m")

	_, err := a.Complete(context.Background(), chat.New(message.NewText("", role.User, "hi")))
	assert.ErrorContains(t, err, "gemini: quota exceeded")
}

func TestComplete_EmptyConversation(t *testing.T) {
	a := NewWithGenerator(&stubGenerator{}, "m")

	_, err := a.Complete(context.Background(), chat.New())
	assert.ErrorContains(t, err, "no text")
}

func TestNew_TalksToGeminiAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Len(t, req["contents"], 1)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "pong"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 4, "totalTokenCount": 14}
		}`))
	}))
	t.Cleanup(srv.Close)

	a, err := New(context.Background(), "test-key", "gemini-test", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	reply, err := a.Complete(context.Background(), chat.New(message.NewText("", role.User, "ping")))
	require.NoError(t, err)

	assert.Equal(t, "pong", reply.TextContent())
	require.NotNil(t, reply.Usage)
	assert.Equal(t, 10, reply.Usage.InputTokens)
	assert.Equal(t, 4, reply.Usage.OutputTokens)
}
