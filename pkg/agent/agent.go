// Package agent runs a ReAct loop (reason + act) around a single completer.
// Completers that declare tools natively return ToolCall parts; all others
// are driven through a text protocol where the model writes an Action: JSON
// block and receives the tool output as an Observation.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/germanamz/skillbridge/pkg/agentctx"
	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/content"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/chats/role"
	"github.com/germanamz/skillbridge/pkg/metrics"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/tools/basetools"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
)

// DefaultMaxSteps bounds a run when Options.MaxSteps is zero.
const DefaultMaxSteps = 20

// ErrMaxSteps is returned when the loop runs out of steps before an answer.
var ErrMaxSteps = errors.New("agent: max steps reached")

// Options configures an Agent.
type Options struct {
	MaxSteps     int          // Completions per run; DefaultMaxSteps when zero.
	Instructions string       // Extra guidance appended to the system prompt.
	Provider     string       // Provider label for metrics.
	Middleware   []Middleware // Applied around Run, first is outermost.
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
}

// Agent owns one completer and its own tool registry. Runs do not share
// conversation state.
type Agent struct {
	name      string
	completer modeladapter.Completer
	tools     *toolbox.ToolBox
	native    bool
	options   Options
	log       *zap.Logger
}

// New creates an Agent. The tools are copied into a private registry and
// the built-in final_answer is added when missing. A caller tool named
// final_answer replaces the built-in one and its output becomes the answer.
func New(name string, completer modeladapter.Completer, tools []toolbox.Tool, opts Options) *Agent {
	tb := toolbox.NewToolBox(tools...)
	if _, ok := tb.Get(basetools.FinalAnswerName); !ok {
		tb.Register(basetools.FinalAnswer())
	}

	_, native := completer.(modeladapter.ToolAware)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}

	return &Agent{
		name:      name,
		completer: completer,
		tools:     tb,
		native:    native,
		options:   opts,
		log:       log.With(zap.String("agent", name)),
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Completer returns the model handle the agent talks to.
func (a *Agent) Completer() modeladapter.Completer { return a.completer }

// Tools returns the agent's tools in registration order.
func (a *Agent) Tools() []toolbox.Tool { return a.tools.Tools() }

// MaxSteps returns the step limit.
func (a *Agent) MaxSteps() int { return a.options.MaxSteps }

// Run solves task and returns the final answer as an assistant message.
func (a *Agent) Run(ctx context.Context, task string) (message.Message, error) {
	ctx = agentctx.WithAgentName(ctx, a.name)
	ctx = agentctx.WithRunID(ctx, uuid.NewString())

	var runner Runner = RunnerFunc(func(ctx context.Context) (message.Message, error) {
		return a.run(ctx, task)
	})

	for i := len(a.options.Middleware) - 1; i >= 0; i-- {
		runner = a.options.Middleware[i](runner)
	}

	return runner.Run(ctx)
}

func (a *Agent) run(ctx context.Context, task string) (message.Message, error) {
	if ta, ok := a.completer.(modeladapter.ToolAware); ok {
		ta.SetTools(a.tools.Tools())
	}

	conv := chat.New(
		message.NewText(a.name, role.System, a.systemPrompt()),
		message.NewText("user", role.User, task),
	)

	for step := 1; step <= a.options.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return message.Message{}, err
		}

		reply, err := a.completer.Complete(ctx, conv)
		a.options.Metrics.ObserveCompletion(a.options.Provider, modelName(a.completer), reply.Usage, err)
		if err != nil {
			return message.Message{}, fmt.Errorf("agent: step %d: %w", step, err)
		}

		reply.Sender = a.name
		conv.Append(reply)

		calls := reply.ToolCalls()
		native := len(calls) > 0
		if !native {
			call, found, perr := ParseAction(reply.TextContent())
			if perr != nil {
				a.log.Debug("malformed action", zap.Int("step", step), zap.Error(perr))
				conv.Append(message.NewText("user", role.User, observation(content.ToolResult{Content: perr.Error(), IsError: true})))
				continue
			}
			if !found {
				return reply, nil
			}
			calls = []content.ToolCall{call}
		}

		for _, tc := range calls {
			res := a.tools.Call(ctx, tc)
			a.options.Metrics.ObserveTool(tc.Name, res.IsError)
			a.log.Debug("tool called",
				zap.Int("step", step),
				zap.String("tool", tc.Name),
				zap.Bool("error", res.IsError),
			)

			if tc.Name == basetools.FinalAnswerName && !res.IsError {
				return message.NewText(a.name, role.Assistant, res.Content), nil
			}

			if native {
				conv.Append(message.New(a.name, role.Tool, res))
			} else {
				conv.Append(message.NewText("user", role.User, observation(res)))
			}
		}
	}

	return message.Message{}, fmt.Errorf("%w (%d)", ErrMaxSteps, a.options.MaxSteps)
}

func observation(res content.ToolResult) string {
	if res.IsError {
		return "Observation: Error: " + res.Content + "\nFix the problem and try again, or call " + basetools.FinalAnswerName + "."
	}
	return "Observation: " + res.Content
}

func modelName(c modeladapter.Completer) string {
	if n, ok := c.(modeladapter.Named); ok {
		return n.ModelName()
	}
	return ""
}
