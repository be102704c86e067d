// Package config resolves credentials and settings. Values come from the
// process environment (optionally seeded from a .env file) and from an
// optional YAML file for model and endpoint overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultDatasetRepo is where push_to_dataset writes when no repo is given.
const DefaultDatasetRepo = "DeepLearningLab/synthetic-video-prompts"

// Credentials holds the secrets read from the environment.
type Credentials struct {
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	HFToken         string `envconfig:"HF_TOKEN"`
}

// For returns the credential of kind k, or a configuration error naming the
// environment variable when it is absent or a placeholder.
func (c Credentials) For(k provider.Kind) (string, error) {
	var v string
	switch k {
	case provider.Gemini:
		v = c.GeminiAPIKey
	case provider.Claude:
		v = c.AnthropicAPIKey
	case provider.Qwen:
		v = c.HFToken
	default:
		return "", UnsupportedProvider(string(k))
	}

	if IsPlaceholder(v) {
		return "", MissingCredential(k.CredentialVar())
	}

	return strings.TrimSpace(v), nil
}

// Has reports whether a usable credential for k is present.
func (c Credentials) Has(k provider.Kind) bool {
	_, err := c.For(k)
	return err == nil
}

// Missing lists the environment variables without a usable value, in the
// order GEMINI_API_KEY, ANTHROPIC_API_KEY, HF_TOKEN.
func (c Credentials) Missing() []string {
	var out []string
	for _, k := range provider.Kinds() {
		if !c.Has(k) {
			out = append(out, k.CredentialVar())
		}
	}
	return out
}

var placeholders = []string{
	"your_api_key_here", "your-api-key", "your_api_key", "your_token_here",
	"changeme", "change_me", "placeholder", "todo", "xxx", "none", "null",
}

// IsPlaceholder reports whether v is empty or an obvious template value.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return true
	}
	if strings.Trim(v, "x*.") == "" {
		return true
	}
	for _, p := range placeholders {
		if v == p {
			return true
		}
	}
	return strings.HasPrefix(v, "your_") && strings.HasSuffix(v, "_here")
}

// ProviderOverride replaces a provider's default model or endpoint.
type ProviderOverride struct {
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// File is the optional YAML configuration.
type File struct {
	Providers   map[provider.Kind]ProviderOverride `yaml:"providers"`
	DatasetRepo string                             `yaml:"dataset_repo"`
	HubURL      string                             `yaml:"hub_url"`
	PromptModel string                             `yaml:"prompt_model"`
	MaxSteps    int                                `yaml:"max_steps"`
}

// Settings is everything a process needs to build agents and tools.
type Settings struct {
	Credentials

	DatasetRepo string `envconfig:"SKILLBRIDGE_DATASET_REPO" default:"DeepLearningLab/synthetic-video-prompts"`
	LogLevel    string `envconfig:"SKILLBRIDGE_LOG_LEVEL" default:"info"`
	ConfigFile  string `envconfig:"SKILLBRIDGE_CONFIG"`

	File File `ignored:"true"`
}

// Override returns the YAML override for k, if any.
func (s Settings) Override(k provider.Kind) ProviderOverride {
	return s.File.Providers[k]
}

// LoadDotEnv loads variables from path into the environment without
// replacing ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// FromEnv reads Settings from the environment and, when SKILLBRIDGE_CONFIG
// points at a file, merges it in.
func FromEnv() (Settings, error) {
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return Settings{}, fmt.Errorf("config: read environment: %w", err)
	}

	if s.DatasetRepo == "" {
		s.DatasetRepo = DefaultDatasetRepo
	}

	if s.ConfigFile != "" {
		f, err := LoadFile(s.ConfigFile)
		if err != nil {
			return Settings{}, err
		}
		s.File = f
		if f.DatasetRepo != "" && os.Getenv("SKILLBRIDGE_DATASET_REPO") == "" {
			s.DatasetRepo = f.DatasetRepo
		}
	}

	return s, nil
}

// LoadFile parses a YAML configuration file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-provided path
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	for k := range f.Providers {
		if !k.Valid() {
			return File{}, UnsupportedProvider(string(k))
		}
	}

	return f, nil
}
