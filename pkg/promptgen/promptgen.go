// Package promptgen turns a short video concept into a detailed prompt in
// the style LTX-Video responds to best.
package promptgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
)

// DefaultModel is the Hub model used for prompt generation.
const DefaultModel = "Qwen/Qwen2.5-72B-Instruct"

// ErrEmptyConcept is returned for a blank concept.
var ErrEmptyConcept = errors.New("promptgen: empty concept")

// SystemPrompt instructs the model how to expand a concept.
const SystemPrompt = `You write prompts for the LTX-Video text-to-video model.
Expand the user's concept into one detailed paragraph of at most 200 words.
Start directly with the main action. Describe specific movements and gestures,
then the appearance of characters and objects, then the background and
environment. Name the camera angle and camera movement, the lighting and the
colors. Keep events in chronological order and write like a cinematographer
describing a shot list. Do not use lists, headings or quotation marks.
Answer with the prompt only.`

// Generate asks c for an LTX-Video prompt describing concept.
func Generate(ctx context.Context, c modeladapter.Completer, concept string) (string, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return "", ErrEmptyConcept
	}

	conv := chat.New(
		message.NewText("promptgen", role.System, SystemPrompt),
		message.NewText("user", role.User, "Concept: "+concept),
	)

	reply, err := c.Complete(ctx, conv)
	if err != nil {
		return "", fmt.Errorf("promptgen: %w", err)
	}

	out := Clean(reply.TextContent())
	if out == "" {
		return "", fmt.Errorf("promptgen: %w", modeladapter.ErrNoText)
	}
	return out, nil
}

// Clean strips the wrapping models tend to add around the prompt: a
// "Prompt:" label, surrounding quotes and extra whitespace.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	for _, label := range []string{"Prompt:", "prompt:", "PROMPT:"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, label))
	}
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"') {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return strings.Join(strings.Fields(s), " ")
}
