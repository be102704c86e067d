// Package chat provides the ordered conversation a completer reads from.
package chat

import (
	"strings"

	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
)

// Chat is an append-only conversation. The zero value is ready to use.
// It is not safe for concurrent use.
type Chat struct {
	messages []message.Message
}

// New creates a Chat holding msgs.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Append adds messages to the end of the conversation.
func (c *Chat) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages.
func (c *Chat) Len() int { return len(c.messages) }

// Last returns the most recent message, or false if the chat is empty.
func (c *Chat) Last() (message.Message, bool) {
	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of the conversation.
func (c *Chat) Messages() []message.Message {
	cp := make([]message.Message, len(c.messages))
	copy(cp, c.messages)
	return cp
}

// SystemPrompt joins the text of every system message with blank lines.
func (c *Chat) SystemPrompt() string {
	var parts []string
	for _, m := range c.messages {
		if m.Role == role.System {
			if s := m.TextContent(); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
