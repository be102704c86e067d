// Package metrics exposes Prometheus counters for model token usage and tool
// invocations. Each Metrics owns its registry so that separate agents and
// tests never collide on registration.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/germanamz/skillbridge/pkg/modeladapter/usage"
)

// Tool call outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the collectors.
type Metrics struct {
	Registry *prometheus.Registry

	Tokens      *prometheus.CounterVec
	Completions *prometheus.CounterVec
	ToolCalls   *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillbridge_tokens_total",
				Help: "Provider-reported tokens",
			},
			[]string{"provider", "model", "type"}, // type: input|output
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillbridge_completions_total",
				Help: "Model completions by outcome",
			},
			[]string{"provider", "outcome"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skillbridge_tool_calls_total",
				Help: "Tool invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
	}

	m.Registry.MustRegister(m.Tokens, m.Completions, m.ToolCalls)

	return m
}

// ObserveCompletion records one completion and, when known, its usage.
// A nil receiver is a no-op.
func (m *Metrics) ObserveCompletion(provider, model string, tc *usage.TokenCount, err error) {
	if m == nil {
		return
	}

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.Completions.WithLabelValues(provider, outcome).Inc()

	if tc == nil {
		return
	}
	m.Tokens.WithLabelValues(provider, model, "input").Add(float64(tc.InputTokens))
	m.Tokens.WithLabelValues(provider, model, "output").Add(float64(tc.OutputTokens))
}

// ObserveTool records one tool invocation. A nil receiver is a no-op.
func (m *Metrics) ObserveTool(tool string, isError bool) {
	if m == nil {
		return
	}

	outcome := OutcomeOK
	if isError {
		outcome = OutcomeError
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
