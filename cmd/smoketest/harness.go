package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/germanamz/skillbridge/pkg/agent"
	"github.com/germanamz/skillbridge/pkg/config"
	"github.com/germanamz/skillbridge/pkg/engine"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/germanamz/skillbridge/pkg/skills"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1a7f37"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cf222e"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9a6700"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#656d76"))
)

type agentFactory func(ctx context.Context, kind provider.Kind, opts ...engine.Option) (*agent.Agent, error)

// check is one smoke request.
type check struct {
	title    string
	kind     provider.Kind
	task     string
	requires []provider.Kind // Credentials that must be present.
}

var checks = []check{
	{
		title:    "Gemini Agent",
		kind:     provider.Gemini,
		task:     "What is the current version of the smolagents library?",
		requires: []provider.Kind{provider.Gemini},
	},
	{
		title:    "Skills Integration (Synthetic Prompt)",
		kind:     provider.Gemini,
		task:     "Use the '" + skills.GeneratePromptName + "' tool to create a prompt for 'A futuristic cyberpunk city in the rain'.",
		requires: []provider.Kind{provider.Gemini, provider.Qwen},
	},
	{
		title:    "Claude Agent",
		kind:     provider.Claude,
		task:     "Explain the core philosophy of smolagents in one sentence.",
		requires: []provider.Kind{provider.Claude},
	},
	{
		title:    "Qwen Agent",
		kind:     provider.Qwen,
		task:     "In one sentence, what is a text-to-video model?",
		requires: []provider.Kind{provider.Qwen},
	},
}

type harness struct {
	out      io.Writer
	settings config.Settings
	newAgent agentFactory
	opts     []engine.Option
	render   bool
}

// run executes every check whose credentials are present and returns the
// number of failures.
func (h *harness) run(ctx context.Context) int {
	if missing := h.settings.Missing(); len(missing) > 0 {
		fmt.Fprintln(h.out, warnStyle.Render("Missing API keys: "+strings.Join(missing, ", ")))
		fmt.Fprintln(h.out, dimStyle.Render("Add them to the .env file to run the skipped checks."))
	}

	failed, ran := 0, 0
	for _, c := range checks {
		if !h.ready(c) {
			continue
		}
		ran++
		if !h.runCheck(ctx, c) {
			failed++
		}
	}

	fmt.Fprintf(h.out, "\n%s\n", titleStyle.Render(fmt.Sprintf("%d passed, %d failed, %d skipped", ran-failed, failed, len(checks)-ran)))

	return failed
}

func (h *harness) ready(c check) bool {
	for _, k := range c.requires {
		if !h.settings.Has(k) {
			return false
		}
	}
	return true
}

func (h *harness) runCheck(ctx context.Context, c check) bool {
	fmt.Fprintf(h.out, "\n%s\n", titleStyle.Render("--- Testing "+c.title+" ---"))

	start := time.Now()

	a, err := h.newAgent(ctx, c.kind, h.opts...)
	if err != nil {
		fmt.Fprintf(h.out, "%s %v\n", failStyle.Render("FAIL"), err)
		return false
	}

	msg, err := a.Run(ctx, c.task)
	if err != nil {
		fmt.Fprintf(h.out, "%s %v\n", failStyle.Render("FAIL"), err)
		return false
	}

	fmt.Fprintf(h.out, "%s %s\n", passStyle.Render("PASS"), dimStyle.Render(h.stats(a, time.Since(start))))
	fmt.Fprintln(h.out, h.format(msg.TextContent()))

	return true
}

func (h *harness) stats(a *agent.Agent, elapsed time.Duration) string {
	s := elapsed.Round(time.Millisecond).String()
	if r, ok := a.Completer().(modeladapter.UsageReporter); ok {
		u := r.UsageTracker()
		total := u.Total()
		s += fmt.Sprintf(", %d calls, %s tokens (%s in / %s out)",
			u.Count(),
			humanize.Comma(int64(total.Total())),
			humanize.Comma(int64(total.InputTokens)),
			humanize.Comma(int64(total.OutputTokens)),
		)
	}
	return s
}

func (h *harness) format(text string) string {
	if !h.render {
		return text
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
