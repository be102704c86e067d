package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/skillbridge/pkg/agent"
	"github.com/germanamz/skillbridge/pkg/config"
	"github.com/germanamz/skillbridge/pkg/metrics"
	"github.com/germanamz/skillbridge/pkg/providers/provider"
	"github.com/germanamz/skillbridge/pkg/skills"
	"github.com/germanamz/skillbridge/pkg/tools/basetools"
	"github.com/germanamz/skillbridge/pkg/tools/toolbox"
)

func toolNames(a *agent.Agent) []string {
	var names []string
	for _, t := range a.Tools() {
		names = append(names, t.Name)
	}
	return names
}

func TestNewAgent_DefaultTools(t *testing.T) {
	a, err := NewGeminiAgent(context.Background(), WithCredentials(allCreds))
	require.NoError(t, err)

	assert.Equal(t, "gemini-agent", a.Name())
	assert.Equal(t, []string{skills.GeneratePromptName, skills.PushToDatasetName, basetools.FinalAnswerName}, toolNames(a))
	assert.Equal(t, agent.DefaultMaxSteps, a.MaxSteps())
}

func TestNewAgent_Options(t *testing.T) {
	custom := toolbox.MustTyped("noop", "Does nothing", func(context.Context, struct{}) (string, error) { return "", nil })

	a, err := NewClaudeAgent(context.Background(),
		WithCredentials(allCreds),
		WithTools(custom),
		WithBaseTools(),
		WithMaxSteps(3),
	)
	require.NoError(t, err)

	assert.Equal(t, "claude-agent", a.Name())
	assert.Equal(t, []string{"noop", "visit_webpage", basetools.FinalAnswerName}, toolNames(a))
	assert.Equal(t, 3, a.MaxSteps())
}

func TestNewAgent_MissingCredential(t *testing.T) {
	_, err := NewClaudeAgent(context.Background(), WithCredentials(config.Credentials{GeminiAPIKey: "g"}))

	require.ErrorIs(t, err, config.ErrMissingCredential)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestNewAgent_Unsupported(t *testing.T) {
	_, err := NewAgent(context.Background(), provider.Kind("mistral"), WithCredentials(allCreds))

	require.ErrorIs(t, err, config.ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "mistral")
}

func TestNewAgent_FromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("HF_TOKEN", "hf_env")
	t.Setenv("SKILLBRIDGE_CONFIG", "")

	_, err := NewGeminiAgent(context.Background())
	require.ErrorIs(t, err, config.ErrMissingCredential)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	a, err := NewQwenAgent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "qwen-agent", a.Name())
}

func TestNewAgent_Independent(t *testing.T) {
	tools := []toolbox.Tool{basetools.FinalAnswer()}

	a1, err := NewQwenAgent(context.Background(), WithCredentials(allCreds), WithTools(tools...))
	require.NoError(t, err)
	a2, err := NewQwenAgent(context.Background(), WithCredentials(allCreds), WithTools(tools...))
	require.NoError(t, err)

	assert.NotSame(t, a1, a2)
	assert.NotSame(t, a1.Completer(), a2.Completer())

	tools[0] = basetools.VisitWebpage(basetools.WebOptions{})
	assert.Equal(t, []string{basetools.FinalAnswerName}, toolNames(a1))
	assert.Equal(t, []string{basetools.FinalAnswerName}, toolNames(a2))
}

func geminiServer(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()

	i := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		if i >= len(replies) {
			http.Error(w, "no more replies", http.StatusInternalServerError)
			return
		}

		body, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": replies[i]}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{"promptTokenCount": 10, "candidatesTokenCount": 4, "totalTokenCount": 14},
		})
		i++

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestNewAgent_RunAgainstGemini(t *testing.T) {
	srv := geminiServer(t,
		`Action: {"tool": "final_answer", "arguments": {"answer": "0.1.0"}}`,
	)
	m := metrics.New()

	settings := config.Settings{
		Credentials: allCreds,
		File: config.File{Providers: map[provider.Kind]config.ProviderOverride{
			provider.Gemini: {BaseURL: srv.URL, Model: "gemini/gemini-1.5-pro"},
		}},
	}

	a, err := NewGeminiAgent(context.Background(), WithSettings(settings), WithMetrics(m), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	msg, err := a.Run(context.Background(), "What is the current version?")
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", msg.TextContent())

	assert.InDelta(t, 10, testutil.ToFloat64(m.Tokens.WithLabelValues("gemini", "gemini-1.5-pro", "input")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.Tokens.WithLabelValues("gemini", "gemini-1.5-pro", "output")), 0)
}
