// Package toolbox is the registry mapping tool names to typed handlers.
// Tool calls are validated against the declared schema before dispatch.
package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/germanamz/skillbridge/pkg/chats/content"
)

// ToolBox is an ordered set of tools keyed by name.
type ToolBox struct {
	tools map[string]Tool
	order []string
}

// NewToolBox creates a ToolBox holding tools.
func NewToolBox(tools ...Tool) *ToolBox {
	tb := &ToolBox{tools: make(map[string]Tool)}
	tb.Register(tools...)
	return tb
}

// Register adds tools, replacing any tool with the same name.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		if _, exists := tb.tools[t.Name]; !exists {
			tb.order = append(tb.order, t.Name)
		}
		tb.tools[t.Name] = t
	}
}

// Get returns the tool registered under name.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Tools returns the registered tools in registration order.
func (tb *ToolBox) Tools() []Tool {
	out := make([]Tool, 0, len(tb.order))
	for _, name := range tb.order {
		out = append(out, tb.tools[name])
	}
	return out
}

// Names returns the sorted tool names.
func (tb *ToolBox) Names() []string {
	names := slices.Clone(tb.order)
	slices.Sort(names)
	return names
}

// Call validates and dispatches a tool call. Unknown tools, invalid
// arguments and handler errors all come back as a ToolResult with IsError
// set, so the model can read and react to them.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) content.ToolResult {
	res := content.ToolResult{ToolCallID: tc.ID, Name: tc.Name}

	t, ok := tb.tools[tc.Name]
	if !ok {
		res.Content = fmt.Sprintf("tool not found: %s (available: %s)", tc.Name, strings.Join(tb.Names(), ", "))
		res.IsError = true
		return res
	}

	args := json.RawMessage(tc.Arguments)
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	if err := t.Validate(args); err != nil {
		res.Content = fmt.Sprintf("invalid arguments for %s: %v", tc.Name, err)
		res.IsError = true
		return res
	}

	out, err := t.Handler(ctx, args)
	if err != nil {
		res.Content = err.Error()
		res.IsError = true
		return res
	}

	res.Content = out
	return res
}
