package engine

import (
	"context"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/germanamz/skillbridge/pkg/agent"
	"github.com/germanamz/skillbridge/pkg/config"
	"github.com/germanamz/skillbridge/pkg/metrics"
	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/germanamz/skillbridge/pkg/skills"
	"github.com/germanamz/skillbridge/pkg/tools/basetools"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
)

// Option configures NewAgent.
type Option func(*options)

type options struct {
	tools        []toolbox.Tool
	toolsSet     bool
	model        string
	baseTools    bool
	settings     *config.Settings
	log          *zap.Logger
	metrics      *metrics.Metrics
	maxSteps     int
	instructions string
	timeout      time.Duration
	httpClient   *http.Client
}

// WithTools replaces the default tool surface.
func WithTools(tools ...toolbox.Tool) Option {
	return func(o *options) {
		o.tools = slices.Clone(tools)
		o.toolsSet = true
	}
}

// WithModel overrides the provider's default model id.
func WithModel(model string) Option {
	return func(o *options) { o.model = model }
}

// WithBaseTools adds the built-in web tools next to the agent's tools.
func WithBaseTools() Option {
	return func(o *options) { o.baseTools = true }
}

// WithCredentials supplies credentials instead of reading the environment.
func WithCredentials(c config.Credentials) Option {
	return func(o *options) {
		s := o.current()
		s.Credentials = c
		o.settings = &s
	}
}

// WithSettings supplies the full settings, including YAML overrides.
func WithSettings(s config.Settings) Option {
	return func(o *options) { o.settings = &s }
}

// WithLogger sets the logger used by the agent and its tools.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics records token and tool counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMaxSteps bounds the number of completions per run.
func WithMaxSteps(n int) Option {
	return func(o *options) { o.maxSteps = n }
}

// WithInstructions appends guidance to the agent's system prompt.
func WithInstructions(s string) Option {
	return func(o *options) { o.instructions = s }
}

// WithTimeout bounds every run.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithHTTPClient sets the transport for provider and tool calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func (o *options) current() config.Settings {
	if o.settings != nil {
		return *o.settings
	}
	return config.Settings{DatasetRepo: config.DefaultDatasetRepo}
}

// NewAgent builds a fresh agent for kind. Each call creates its own model
// handle and tool list; nothing is shared between agents. A missing
// credential or unknown kind fails here, before any run.
func NewAgent(ctx context.Context, kind provider.Kind, opts ...Option) (*agent.Agent, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.settings == nil {
		s, err := config.FromEnv()
		if err != nil {
			return nil, err
		}
		o.settings = &s
	}
	s := *o.settings

	log := o.log
	if log == nil {
		log = zap.NewNop()
	}

	override := s.Override(kind)
	model := o.model
	if model == "" {
		model = override.Model
	}

	completer, cfg, err := Select(ctx, kind, model, s.Credentials, SelectOptions{
		BaseURL:    override.BaseURL,
		HTTPClient: o.httpClient,
	})
	if err != nil {
		return nil, err
	}

	tools := o.tools
	if !o.toolsSet {
		tools = skills.New(skills.Options{
			HFToken:     s.HFToken,
			DatasetRepo: s.DatasetRepo,
			PromptModel: s.File.PromptModel,
			HubURL:      s.File.HubURL,
			HTTPClient:  o.httpClient,
			Logger:      log,
		}).Tools()
	}
	if o.baseTools {
		tools = append(slices.Clone(tools), basetools.VisitWebpage(basetools.WebOptions{}))
	}

	maxSteps := o.maxSteps
	if maxSteps == 0 {
		maxSteps = s.File.MaxSteps
	}

	name := string(cfg.Kind) + "-agent"
	mw := []agent.Middleware{agent.Recovery(), agent.Logger(log, name)}
	if o.timeout > 0 {
		mw = append(mw, agent.Timeout(o.timeout))
	}

	log.Debug("agent created",
		zap.String("agent", name),
		zap.String("model", cfg.Model),
		zap.Int("tools", len(tools)),
	)

	return agent.New(name, completer, tools, agent.Options{
		MaxSteps:     maxSteps,
		Instructions: o.instructions,
		Provider:     string(cfg.Kind),
		Middleware:   mw,
		Logger:       log,
		Metrics:      o.metrics,
	}), nil
}

// NewGeminiAgent is NewAgent for Gemini.
func NewGeminiAgent(ctx context.Context, opts ...Option) (*agent.Agent, error) {
	return NewAgent(ctx, provider.Gemini, opts...)
}

// NewClaudeAgent is NewAgent for Claude.
func NewClaudeAgent(ctx context.Context, opts ...Option) (*agent.Agent, error) {
	return NewAgent(ctx, provider.Claude, opts...)
}

// NewQwenAgent is NewAgent for the Hub-hosted Qwen model.
func NewQwenAgent(ctx context.Context, opts ...Option) (*agent.Agent, error) {
	return NewAgent(ctx, provider.Qwen, opts...)
}
