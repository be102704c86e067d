// Package message defines ChatMessage, the unit exchanged with every provider.
package message

import (
	"strings"

	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/modeladapter/usage"
)

// Message is a single conversation entry. It is a value type; the helpers
// below return copies instead of mutating the receiver.
type Message struct {
	Sender string
	Role   role.Role
	Parts  []content.Part
	// Usage holds provider-reported token counts. Only completers set it.
	Usage    *usage.TokenCount
	Metadata map[string]any
}

// New creates a message from parts.
func New(sender string, r role.Role, parts ...content.Part) Message {
	return Message{
		Sender: sender,
		Role:   r,
		Parts:  parts,
	}
}

// NewText creates a message with a single Text part.
func NewText(sender string, r role.Role, text string) Message {
	return New(sender, r, content.Text{Text: text})
}

// WithUsage returns a copy of m carrying the given token counts.
func (m Message) WithUsage(tc usage.TokenCount) Message {
	m.Usage = &tc
	return m
}

// TextContent concatenates the Text parts of the message.
func (m Message) TextContent() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(content.Text); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// PlainText renders every part as text, joined by newlines. Non-text parts
// go through content.Flatten.
func (m Message) PlainText() string {
	lines := make([]string, 0, len(m.Parts))
	for _, p := range m.Parts {
		if s := content.Flatten(p); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// ToolCalls returns the ToolCall parts of the message.
func (m Message) ToolCalls() []content.ToolCall {
	var calls []content.ToolCall
	for _, p := range m.Parts {
		if tc, ok := p.(content.ToolCall); ok {
			calls = append(calls, tc)
		}
	}
	return calls
}

// GetMeta retrieves a metadata value by key.
func (m Message) GetMeta(key string) (any, bool) {
	if m.Metadata == nil {
		return nil, false
	}
	v, ok := m.Metadata[key]
	return v, ok
}
