// Package skills is the tool surface attached to every agent by default:
// generate_synthetic_prompt and push_to_dataset. Both report failures as
// text for the model to read and never return an error.
package skills

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/germanamz/skillbridge/pkg/config"
	"github.com/germanamz/skillbridge/pkg/hub"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/promptgen"
	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/germanamz/skillbridge/pkg/providers/qwen"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
)

// Tool names.
const (
	GeneratePromptName = "generate_synthetic_prompt"
	PushToDatasetName  = "push_to_dataset"
)

// MissingTokenMessage is returned by generate_synthetic_prompt without a token.
const MissingTokenMessage = "Error: HF_TOKEN environment variable not set. Please add it to your .env file."

// Options configures the tool surface.
type Options struct {
	HFToken     string
	DatasetRepo string // Default for push_to_dataset; config.DefaultDatasetRepo when empty.
	PromptModel string // Defaults to promptgen.DefaultModel.
	RouterURL   string // Inference router; the Qwen default when empty.
	HubURL      string // Hub endpoint; hub.DefaultEndpoint when empty.
	HTTPClient  *http.Client
	Logger      *zap.Logger

	// NewPrompter replaces the inference client built from the token.
	NewPrompter func(token string) modeladapter.Completer
}

// Skills holds the resolved options. It is safe for concurrent use.
type Skills struct {
	opts Options
	log  *zap.Logger
}

// New builds the tool surface.
func New(opts Options) *Skills {
	if opts.DatasetRepo == "" {
		opts.DatasetRepo = config.DefaultDatasetRepo
	}
	if opts.PromptModel == "" {
		opts.PromptModel = promptgen.DefaultModel
	}
	if opts.RouterURL == "" {
		opts.RouterURL = provider.Qwen.DefaultBaseURL()
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Skills{opts: opts, log: log.Named("skills")}
}

func (s *Skills) token() (string, bool) {
	if config.IsPlaceholder(s.opts.HFToken) {
		return "", false
	}
	return strings.TrimSpace(s.opts.HFToken), true
}

// GenerateSyntheticPrompt converts a simple video concept into an
// LTX-Video formatted prompt.
func (s *Skills) GenerateSyntheticPrompt(ctx context.Context, concept string) string {
	token, ok := s.token()
	if !ok {
		s.log.Warn("prompt generation skipped", zap.String("reason", "missing HF_TOKEN"))
		return MissingTokenMessage
	}

	var prompter modeladapter.Completer
	if s.opts.NewPrompter != nil {
		prompter = s.opts.NewPrompter(token)
	} else {
		prompter = qwen.New(token, s.opts.PromptModel, qwen.Options{
			BaseURL:    s.opts.RouterURL,
			HTTPClient: s.opts.HTTPClient,
		})
	}

	out, err := promptgen.Generate(ctx, prompter, concept)
	if err != nil {
		s.log.Error("prompt generation failed", zap.String("concept", concept), zap.Error(err))
		return "Error: " + err.Error()
	}

	s.log.Debug("prompt generated", zap.String("concept", concept), zap.Int("chars", len(out)))
	return out
}

// PushToDataset appends data as one record to the dataset repo, creating
// the dataset when needed. An empty repo selects the default.
func (s *Skills) PushToDataset(ctx context.Context, data map[string]any, repo string) string {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		repo = s.opts.DatasetRepo
	}

	token, ok := s.token()
	if !ok {
		return "Error pushing record to " + repo + ": HF_TOKEN environment variable not set"
	}

	client := hub.New(token)
	if s.opts.HubURL != "" {
		client.Endpoint = s.opts.HubURL
	}
	if s.opts.HTTPClient != nil {
		client.HTTPClient = s.opts.HTTPClient
	}

	if err := client.AppendRecord(ctx, repo, data); err != nil {
		s.log.Error("push failed", zap.String("repo", repo), zap.Error(err))
		return "Error pushing record to " + repo + ": " + err.Error()
	}

	s.log.Info("record pushed", zap.String("repo", repo))
	return "Successfully pushed record to " + repo
}

type promptInput struct {
	Concept string `json:"concept" jsonschema:"A simple description of the video, e.g. 'A robot walking'."`
}

type pushInput struct {
	Data   map[string]any `json:"data" jsonschema:"The record to append, as a JSON object."`
	RepoID string         `json:"repo_id,omitempty" jsonschema:"Target dataset repository id (owner/name). Defaults to the configured dataset."`
}

// Tools returns the tool declarations backed by s.
func (s *Skills) Tools() []toolbox.Tool {
	return []toolbox.Tool{
		toolbox.MustTyped(GeneratePromptName,
			"Converts a simple video concept into a high-fidelity LTX-Video formatted prompt.",
			func(ctx context.Context, in promptInput) (string, error) {
				return s.GenerateSyntheticPrompt(ctx, in.Concept), nil
			}),
		toolbox.MustTyped(PushToDatasetName,
			"Appends one record to a Hugging Face dataset, creating the dataset if it does not exist.",
			func(ctx context.Context, in pushInput) (string, error) {
				return s.PushToDataset(ctx, in.Data, in.RepoID), nil
			}),
	}
}
