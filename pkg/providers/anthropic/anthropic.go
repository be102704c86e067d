// Package anthropic is the Claude handle. The Messages API already speaks
// roles and tool calls natively, so the handle passes the conversation
// through without flattening.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/modeladapter/usage"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
)

const (
	messagesPath = "/v1/messages"
	apiVersion   = "2023-06-01"
)

var (
	_ modeladapter.Completer = (*Adapter)(nil)
	_ modeladapter.ToolAware = (*Adapter)(nil)
)

// Adapter talks to the Anthropic Messages API.
type Adapter struct {
	modeladapter.ModelAdapter
	Tools []toolbox.Tool
}

// New creates an Adapter. baseURL has no trailing slash.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = baseURL
	a.Auth = modeladapter.Auth{Key: apiKey, Header: "x-api-key"}
	a.Name = model
	a.MaxTokens = 4096
	a.Headers = map[string]string{"anthropic-version": apiVersion}

	return a
}

// SetTools declares tools in every subsequent request.
func (a *Adapter) SetTools(tools []toolbox.Tool) {
	a.Tools = tools
}

// Complete sends the conversation and returns Claude's reply with the
// reported token usage attached.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	var resp apiResponse
	if err := a.PostJSON(ctx, messagesPath, a.buildRequest(c), &resp); err != nil {
		return message.Message{}, fmt.Errorf("anthropic: %w", err)
	}

	tc := usage.TokenCount{InputTokens: resp.Usage.InputTokens, OutputTokens: resp.Usage.OutputTokens}
	a.Usage.Add(tc)

	reply := parseResponse(resp)
	if len(reply.Parts) == 0 {
		return message.Message{}, fmt.Errorf("anthropic: stop reason %q: %w", resp.StopReason, modeladapter.ErrNoText)
	}

	return reply.WithUsage(tc), nil
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system,omitempty"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiToolDef `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string     `json:"role"`
	Content []apiBlock `json:"content"`
}

type apiBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type apiToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type apiResponse struct {
	Content    []apiBlock `json:"content"`
	StopReason string     `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *Adapter) buildRequest(c *chat.Chat) apiRequest {
	req := apiRequest{
		Model:     a.Name,
		MaxTokens: a.MaxTokens,
		System:    c.SystemPrompt(),
	}

	for _, t := range a.Tools {
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		req.Tools = append(req.Tools, apiToolDef{Name: t.Name, Description: t.Description, InputSchema: schema})
	}

	for _, m := range c.Messages() {
		if m.Role == role.System {
			continue
		}
		req.Messages = appendMessage(req.Messages, m)
	}

	return req
}

// appendMessage adds m's blocks, merging into the previous message when the
// roles match since the API requires alternating turns.
func appendMessage(msgs []apiMessage, m message.Message) []apiMessage {
	r := "user"
	if m.Role == role.Assistant {
		r = "assistant"
	}

	for _, p := range m.Parts {
		block, ok := toBlock(p)
		if !ok {
			continue
		}

		if n := len(msgs); n > 0 && msgs[n-1].Role == r {
			msgs[n-1].Content = append(msgs[n-1].Content, block)
			continue
		}
		msgs = append(msgs, apiMessage{Role: r, Content: []apiBlock{block}})
	}

	return msgs
}

func toBlock(p content.Part) (apiBlock, bool) {
	switch v := p.(type) {
	case content.Text:
		if v.Text == "" {
			return apiBlock{}, false
		}
		return apiBlock{Type: "text", Text: v.Text}, true
	case content.ToolCall:
		input := json.RawMessage(v.Arguments)
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return apiBlock{Type: "tool_use", ID: v.ID, Name: v.Name, Input: input}, true
	case content.ToolResult:
		return apiBlock{Type: "tool_result", ToolUseID: v.ToolCallID, Content: v.Content, IsError: v.IsError}, true
	default:
		if s := content.Flatten(p); s != "" {
			return apiBlock{Type: "text", Text: s}, true
		}
		return apiBlock{}, false
	}
}

func parseResponse(resp apiResponse) message.Message {
	var parts []content.Part

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				parts = append(parts, content.Text{Text: block.Text})
			}
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			parts = append(parts, content.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}

	return message.New("", role.Assistant, parts...)
}
