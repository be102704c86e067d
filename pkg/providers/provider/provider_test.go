package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds_AreFullyDescribed(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			assert.True(t, k.Valid())
			assert.NotEmpty(t, k.CredentialVar())
			assert.NotEmpty(t, k.DefaultModel())
			assert.NotEmpty(t, k.DefaultBaseURL())
		})
	}
}

func TestValid_Unknown(t *testing.T) {
	assert.False(t, Kind("mistral").Valid())
	assert.Empty(t, Kind("mistral").CredentialVar())
	assert.Empty(t, Kind("mistral").DefaultModel())
}

func TestCredentialVars(t *testing.T) {
	assert.Equal(t, "GEMINI_API_KEY", Gemini.CredentialVar())
	assert.Equal(t, "ANTHROPIC_API_KEY", Claude.CredentialVar())
	assert.Equal(t, "HF_TOKEN", Qwen.CredentialVar())
}

func TestNormalizeModel(t *testing.T) {
	tests := []struct {
		kind Kind
		in   string
		want string
	}{
		{Gemini, "", "gemini-1.5-flash"},
		{Gemini, "gemini/gemini-1.5-pro", "gemini-1.5-pro"},
		{Claude, "anthropic/claude-3-5-sonnet-20240620", "claude-3-5-sonnet-20240620"},
		{Claude, "  ", "claude-3-5-sonnet-20240620"},
		{Qwen, "Qwen/Qwen2.5-72B-Instruct", "Qwen/Qwen2.5-72B-Instruct"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.NormalizeModel(tt.in), "%s %q", tt.kind, tt.in)
	}
}
