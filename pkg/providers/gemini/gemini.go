// Package gemini is the message adapter in front of the Gemini API. It turns
// a chat into genai contents and a genai response back into one assistant
// message.
//
// Gemini only knows two roles. User messages map to "user" and every other
// role maps to "model". System messages are the exception: their text is
// prepended to the first user message so instructions are not replayed as
// if the model had said them. Set CollapseSystem to map them to "model" like
// any other non-user role.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/modeladapter/usage"
	"google.golang.org/genai"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

var _ modeladapter.Completer = (*Adapter)(nil)

// Generator is the slice of the genai client the adapter needs.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Options configures the underlying genai client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Adapter converts between the chat model and the Gemini API.
type Adapter struct {
	gen   Generator
	model string
	usage usage.Tracker

	// CollapseSystem maps system messages to "model" instead of folding
	// them into the first user message.
	CollapseSystem bool
}

// New creates an Adapter backed by a genai client for the Gemini API.
func New(ctx context.Context, apiKey, model string, opts Options) (*Adapter, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return NewWithGenerator(client.Models, model), nil
}

// NewWithGenerator creates an Adapter around any Generator.
func NewWithGenerator(gen Generator, model string) *Adapter {
	return &Adapter{gen: gen, model: model}
}

// ModelName returns the model identifier.
func (a *Adapter) ModelName() string { return a.model }

// UsageTracker returns the running token totals.
func (a *Adapter) UsageTracker() *usage.Tracker { return &a.usage }

// Complete sends the conversation and returns exactly one assistant message.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat) (message.Message, error) {
	contents := a.Contents(c.Messages())
	if len(contents) == 0 {
		return message.Message{}, errors.New("gemini: conversation has no text to send")
	}

	resp, err := a.gen.GenerateContent(ctx, a.model, contents, nil)
	if err != nil {
		return message.Message{}, fmt.Errorf("gemini: %w", err)
	}

	return a.Reply(resp)
}

// Contents converts messages into genai contents. Non-text parts are
// flattened to text and consecutive messages with the same target role are
// merged into one content.
func (a *Adapter) Contents(msgs []message.Message) []*genai.Content {
	var (
		contents []*genai.Content
		pending  []string
	)

	for _, m := range msgs {
		text := m.PlainText()
		if text == "" {
			continue
		}

		if m.Role == role.System && !a.CollapseSystem {
			pending = append(pending, text)
			continue
		}

		target := mapRole(m.Role)
		if target == roleUser && len(pending) > 0 {
			text = strings.Join(append(pending, text), "\n\n")
			pending = nil
		}

		if n := len(contents); n > 0 && contents[n-1].Role == target {
			contents[n-1].Parts = append(contents[n-1].Parts, &genai.Part{Text: text})
			continue
		}
		contents = append(contents, &genai.Content{Role: target, Parts: []*genai.Part{{Text: text}}})
	}

	// Instructions with no user turn to attach to still have to reach the model.
	if len(pending) > 0 {
		contents = append([]*genai.Content{{
			Role:  roleUser,
			Parts: []*genai.Part{{Text: strings.Join(pending, "\n\n")}},
		}}, contents...)
	}

	return contents
}

// Reply converts a genai response into one assistant message. Usage is
// attached when the response reports it. A response without text yields
// an error wrapping modeladapter.ErrNoText.
func (a *Adapter) Reply(resp *genai.GenerateContentResponse) (message.Message, error) {
	if resp == nil {
		return message.Message{}, fmt.Errorf("gemini: nil response: %w", modeladapter.ErrNoText)
	}

	var tc *usage.TokenCount
	if md := resp.UsageMetadata; md != nil {
		tc = &usage.TokenCount{
			InputTokens:  int(md.PromptTokenCount),
			OutputTokens: int(md.CandidatesTokenCount),
		}
		a.usage.Add(*tc)
	}

	if len(resp.Candidates) == 0 {
		return message.Message{}, fmt.Errorf("gemini: no candidates: %w", modeladapter.ErrNoText)
	}

	cand := resp.Candidates[0]
	var b strings.Builder
	if cand != nil && cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			b.WriteString(p.Text)
		}
	}

	if b.Len() == 0 {
		reason := "unknown"
		if cand != nil && cand.FinishReason != "" {
			reason = string(cand.FinishReason)
		}
		return message.Message{}, fmt.Errorf("gemini: finish reason %s: %w", reason, modeladapter.ErrNoText)
	}

	reply := message.New("", role.Assistant, content.Text{Text: b.String()})
	if tc != nil {
		reply = reply.WithUsage(*tc)
	}

	return reply, nil
}

func mapRole(r role.Role) string {
	if r == role.User {
		return roleUser
	}
	return roleModel
}
