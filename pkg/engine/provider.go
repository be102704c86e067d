package engine

import (
	"context"
	"fmt"
	"net/http"

	"github.com/germanamz/skillbridge/pkg/config"
	"github.com/germanamz/skillbridge/pkg/modeladapter"
	"github.com/germanamz/skillbridge/pkg/providers/anthropic"
	"github.com/germanamz/skillbridge/pkg/providers/gemini"
	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/germanamz/skillbridge/pkg/providers/qwen"
)

// ProviderConfig is the resolved provider choice for one agent. It lives
// only as long as the construction call.
type ProviderConfig struct {
	Kind    provider.Kind
	Model   string
	APIKey  string //nolint:gosec // resolved credential, never persisted
	BaseURL string
}

// SelectOptions tunes the handle Select builds.
type SelectOptions struct {
	BaseURL    string       // Provider endpoint; the kind's default when empty.
	HTTPClient *http.Client // Transport for the provider API.
}

// Resolve validates kind, picks the model and looks up the credential.
func Resolve(kind provider.Kind, model string, creds config.Credentials, baseURL string) (ProviderConfig, error) {
	if !kind.Valid() {
		return ProviderConfig{}, config.UnsupportedProvider(string(kind))
	}

	key, err := creds.For(kind)
	if err != nil {
		return ProviderConfig{}, err
	}

	if baseURL == "" {
		baseURL = kind.DefaultBaseURL()
	}

	return ProviderConfig{
		Kind:    kind,
		Model:   kind.NormalizeModel(model),
		APIKey:  key,
		BaseURL: baseURL,
	}, nil
}

// Select resolves the provider and builds its handle. Gemini is wrapped in
// the message adapter; Claude and Qwen handles are used as they are.
func Select(ctx context.Context, kind provider.Kind, model string, creds config.Credentials, opts SelectOptions) (modeladapter.Completer, ProviderConfig, error) {
	cfg, err := Resolve(kind, model, creds, opts.BaseURL)
	if err != nil {
		return nil, ProviderConfig{}, err
	}

	c, err := build(ctx, cfg, opts.HTTPClient)
	if err != nil {
		return nil, ProviderConfig{}, err
	}

	return c, cfg, nil
}

func build(ctx context.Context, cfg ProviderConfig, client *http.Client) (modeladapter.Completer, error) {
	switch cfg.Kind {
	case provider.Gemini:
		a, err := gemini.New(ctx, cfg.APIKey, cfg.Model, gemini.Options{BaseURL: cfg.BaseURL, HTTPClient: client})
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		return a, nil

	case provider.Claude:
		a := anthropic.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
		a.Client = client
		return a, nil

	case provider.Qwen:
		return qwen.New(cfg.APIKey, cfg.Model, qwen.Options{BaseURL: cfg.BaseURL, HTTPClient: client}), nil

	default:
		return nil, config.UnsupportedProvider(string(cfg.Kind))
	}
}
