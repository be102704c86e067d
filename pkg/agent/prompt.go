package agent

import (
	"fmt"
	"strings"

	"github.com/germanamz/skillbridge/pkg/tools/basetools"
)

// systemPrompt describes the tools and, for text-protocol completers, the
// action format.
func (a *Agent) systemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an assistant that solves tasks step by step using tools.\n", a.name)

	if a.options.Instructions != "" {
		b.WriteString("\n## Instructions\n\n")
		b.WriteString(a.options.Instructions)
		b.WriteString("\n")
	}

	b.WriteString("\n## Tools\n\n")
	for _, t := range a.tools.Tools() {
		fmt.Fprintf(&b, "- **%s**: %s\n", t.Name, t.Description)
		if !a.native && len(t.InputSchema) > 0 {
			fmt.Fprintf(&b, "  Input schema: %s\n", t.InputSchema)
		}
	}

	if a.native {
		fmt.Fprintf(&b, "\nWhen you are done, call %s with your answer.\n", basetools.FinalAnswerName)
		return b.String()
	}

	b.WriteString("\n## Format\n\n")
	b.WriteString("Think about the next step, then call exactly one tool by ending your message with:\n\n")
	b.WriteString("Action:\n{\"tool\": \"<tool name>\", \"arguments\": {<arguments as JSON>}}\n\n")
	b.WriteString("The tool output comes back in a message starting with \"Observation:\".\n")
	fmt.Fprintf(&b, "When you know the answer, call %s with {\"answer\": \"...\"}.\n", basetools.FinalAnswerName)

	return b.String()
}
