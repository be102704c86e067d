// Package qwen is the handle for Qwen models hosted on the Hugging Face Hub.
// The Hub inference router speaks the OpenAI chat completions protocol, so
// the handle is the official openai-go client pointed at the router.
package qwen

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/modeladapter/usage"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Options configures the router client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	MaxTokens  int
}

// Adapter sends chats to the Hub inference router.
type Adapter struct {
	client    openai.Client
	model     string
	maxTokens int
	usage     usage.Tracker
}

// New creates an Adapter authenticated with an HF token.
func New(token, model string, opts Options) *Adapter {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &Adapter{
		client:    openai.NewClient(reqOpts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// ModelName returns the Hub model id.
func (a *Adapter) ModelName() string { return a.model }

// UsageTracker returns the running token totals.
func (a *Adapter) UsageTracker() *usage.Tracker { return &a.usage }

// Complete sends the conversation and returns the model's reply.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(a.model),
		Messages:  toParams(c.Messages()),
		MaxTokens: openai.Int(int64(a.maxTokens)),
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return message.Message{}, fmt.Errorf("qwen: %w", err)
	}

	// Usage is optional on the router; only reported counts are tracked.
	var tc *usage.TokenCount
	if resp.JSON.Usage.Valid() {
		tc = &usage.TokenCount{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		}
		a.usage.Add(*tc)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return message.Message{}, fmt.Errorf("qwen: %w", modeladapter.ErrNoText)
	}

	reply := message.NewText("", role.Assistant, resp.Choices[0].Message.Content)
	if tc != nil {
		reply = reply.WithUsage(*tc)
	}

	return reply, nil
}

// toParams keeps system, user and assistant roles as they are. Tool results
// have no call id to attach to in the text protocol, so they become user
// turns.
func toParams(msgs []message.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))

	for _, m := range msgs {
		text := m.PlainText()
		if text == "" {
			continue
		}

		switch m.Role {
		case role.System:
			out = append(out, openai.SystemMessage(text))
		case role.Assistant:
			out = append(out, openai.AssistantMessage(text))
		case role.Tool:
			out = append(out, openai.UserMessage(observation(m)))
		default:
			out = append(out, openai.UserMessage(text))
		}
	}

	return out
}

func observation(m message.Message) string {
	var b strings.Builder
	for _, p := range m.Parts {
		if r, ok := p.(content.ToolResult); ok {
			fmt.Fprintf(&b, "Observation (%s): %s\n", r.Name, r.Content)
			continue
		}
		b.WriteString(content.Flatten(p))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
