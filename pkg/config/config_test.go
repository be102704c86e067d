package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "ANTHROPIC_API_KEY", "HF_TOKEN", "SKILLBRIDGE_DATASET_REPO", "SKILLBRIDGE_LOG_LEVEL", "SKILLBRIDGE_CONFIG"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestCredentialsFor(t *testing.T) {
	c := Credentials{GeminiAPIKey: " g-key ", AnthropicAPIKey: "your_api_key_here"}

	v, err := c.For(provider.Gemini)
	require.NoError(t, err)
	assert.Equal(t, "g-key", v)

	_, err = c.For(provider.Claude)
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	_, err = c.For(provider.Qwen)
	require.ErrorIs(t, err, ErrMissingCredential)
	assert.Contains(t, err.Error(), "HF_TOKEN")

	_, err = c.For(provider.Kind("mistral"))
	require.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), `"mistral"`)
}

func TestCredentialsMissing(t *testing.T) {
	c := Credentials{AnthropicAPIKey: "sk-ant"}

	assert.Equal(t, []string{"GEMINI_API_KEY", "HF_TOKEN"}, c.Missing())
	assert.True(t, c.Has(provider.Claude))
}

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"", "  ", "your_api_key_here", "YOUR_HF_TOKEN_HERE", "<token>", "xxxx", "***", "changeme"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	for _, v := range []string{"AIzaSyA-123", "sk-ant-api03-abc", "hf_abcdef"} {
		assert.False(t, IsPlaceholder(v), v)
	}
}

func TestError(t *testing.T) {
	err := MissingCredential("GEMINI_API_KEY")
	assert.Equal(t, "config: GEMINI_API_KEY not found in environment (missing credential)", err.Error())

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "GEMINI_API_KEY", ce.Var)

	assert.Equal(t, `config: unsupported provider: "mistral"`, UnsupportedProvider("mistral").Error())
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g")

	s, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "g", s.GeminiAPIKey)
	assert.Equal(t, DefaultDatasetRepo, s.DatasetRepo)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.File.Providers)
}

func TestFromEnv_WithFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "skillbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  gemini:
    model: gemini-1.5-pro
  qwen:
    base_url: http://localhost:8080/v1
dataset_repo: me/prompts
max_steps: 4
`), 0o600))
	t.Setenv("SKILLBRIDGE_CONFIG", path)

	s, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-pro", s.Override(provider.Gemini).Model)
	assert.Equal(t, "http://localhost:8080/v1", s.Override(provider.Qwen).BaseURL)
	assert.Empty(t, s.Override(provider.Claude).Model)
	assert.Equal(t, "me/prompts", s.DatasetRepo)
	assert.Equal(t, 4, s.File.MaxSteps)
}

func TestLoadFile_UnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers:\n  mistral: {}\n"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HF_TOKEN=hf_fromfile\n"), 0o600))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hf_fromfile", os.Getenv("HF_TOKEN"))
}
