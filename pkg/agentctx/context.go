// Package agentctx carries the identity of the running agent through a
// context so that tools and loggers outside pkg/agent can read it.
package agentctx

import "context"

type (
	agentNameKey struct{}
	runIDKey     struct{}
)

// WithAgentName returns a context carrying the agent name.
func WithAgentName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, agentNameKey{}, name)
}

// AgentName returns the agent name, or "" when none is set.
func AgentName(ctx context.Context) string {
	v, _ := ctx.Value(agentNameKey{}).(string)
	return v
}

// WithRunID returns a context carrying the id of the current run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the id of the current run.
func RunID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey{}).(string)
	return v, ok && v != ""
}
