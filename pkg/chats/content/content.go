// Package content defines the typed parts a chat message is made of.
package content

import "fmt"

// Part is a piece of message content.
type Part interface {
	PartKind() string
}

// Text is plain text.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// Image references an image by URL or carries it inline.
type Image struct {
	URL       string
	Data      []byte
	MediaType string
}

func (i Image) PartKind() string { return "image" }

// ToolCall is a model's request to run a tool. Arguments is raw JSON.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ToolResult carries the text a tool produced for a given call.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

func (tr ToolResult) PartKind() string { return "tool_result" }

// Flatten renders any part as plain text, for providers that only accept text.
func Flatten(p Part) string {
	switch v := p.(type) {
	case Text:
		return v.Text
	case ToolCall:
		return fmt.Sprintf("[tool call %s: %s]", v.Name, v.Arguments)
	case ToolResult:
		if v.Name != "" {
			return fmt.Sprintf("[tool result %s]\n%s", v.Name, v.Content)
		}
		return v.Content
	case Image:
		if v.URL != "" {
			return fmt.Sprintf("[image: %s]", v.URL)
		}
		return fmt.Sprintf("[image: %s, %d bytes]", v.MediaType, len(v.Data))
	case nil:
		return ""
	default:
		return fmt.Sprintf("[%s]", p.PartKind())
	}
}
