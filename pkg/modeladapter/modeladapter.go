package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/germanamz/skillbridge/pkg/chats/chat"
	"github.com/germanamz/skillbridge/pkg/chats/message"
	"github.com/germanamz/skillbridge/pkg/modeladapter/usage"
)

// ErrNoText is returned by a completer when the provider answered but the
// response carries no text that could be turned into a reply.
var ErrNoText = errors.New("modeladapter: response contains no text")

// Completer sends a conversation to a model and returns exactly one
// assistant message.
type Completer interface {
	Complete(ctx context.Context, c *chat.Chat) (message.Message, error)
}

// UsageReporter is implemented by completers that keep a running token total.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// Named is implemented by completers that know their model identifier.
type Named interface {
	ModelName() string
}

// StatusError reports a non-2xx answer from a provider API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Auth describes how the credential is attached to requests.
type Auth struct {
	Key    string // Credential value.
	Header string // Header name (default: "Authorization").
	Scheme string // Prefix such as "Bearer"; defaults to "Bearer" for Authorization.
}

// ModelAdapter carries what HTTP-speaking providers share: endpoint, auth,
// extra headers and token usage. Embed it and define Complete.
type ModelAdapter struct {
	Name      string            // Model identifier.
	MaxTokens int               // Maximum tokens per reply.
	Auth      Auth              // Credential settings.
	BaseURL   string            // API base URL, no trailing slash.
	Client    *http.Client      // Falls back to a client with a 10 minute timeout.
	Headers   map[string]string // Extra headers applied to every request.
	Usage     usage.Tracker
}

var defaultClient = &http.Client{Timeout: 10 * time.Minute}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

// ModelName returns the configured model identifier.
func (a *ModelAdapter) ModelName() string { return a.Name }

func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return defaultClient
}

// NewRequest builds a request against BaseURL+path with auth and custom
// headers applied.
func (a *ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if a.Auth.Key != "" {
		header := a.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		scheme := a.Auth.Scheme
		if scheme == "" && header == "Authorization" {
			scheme = "Bearer"
		}

		value := a.Auth.Key
		if scheme != "" {
			value = scheme + " " + value
		}
		req.Header.Set(header, value)
	}

	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// PostJSON posts payload as JSON to path and decodes a 2xx body into dest.
// A nil dest discards the body.
func (a *ModelAdapter) PostJSON(ctx context.Context, path string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient().Do(req) //nolint:gosec // URL comes from configuration.
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
