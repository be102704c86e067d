// Package provider enumerates the supported model providers. Adding a
// provider means adding a Kind constant and a case to every switch below;
// Kinds drives the exhaustiveness test.
package provider

import "strings"

// Kind identifies a model provider.
type Kind string

const (
	Gemini Kind = "gemini"
	Claude Kind = "claude"
	Qwen   Kind = "qwen"
)

// Kinds returns every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{Gemini, Claude, Qwen}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case Gemini, Claude, Qwen:
		return true
	}
	return false
}

// CredentialVar is the environment variable holding the provider's credential.
func (k Kind) CredentialVar() string {
	switch k {
	case Gemini:
		return "GEMINI_API_KEY"
	case Claude:
		return "ANTHROPIC_API_KEY"
	case Qwen:
		return "HF_TOKEN"
	}
	return ""
}

// DefaultModel is used when no model id is supplied.
func (k Kind) DefaultModel() string {
	switch k {
	case Gemini:
		return "gemini-1.5-flash"
	case Claude:
		return "claude-3-5-sonnet-20240620"
	case Qwen:
		return "Qwen/Qwen2.5-Coder-32B-Instruct"
	}
	return ""
}

// DefaultBaseURL is the API endpoint the provider's handle talks to.
func (k Kind) DefaultBaseURL() string {
	switch k {
	case Gemini:
		return "https://generativelanguage.googleapis.com"
	case Claude:
		return "https://api.anthropic.com"
	case Qwen:
		return "https://router.huggingface.co/v1"
	}
	return ""
}

// routerPrefixes are the "provider/" prefixes LiteLLM-style model ids carry.
var routerPrefixes = map[Kind][]string{
	Gemini: {"gemini/", "google/"},
	Claude: {"anthropic/", "claude/"},
}

// NormalizeModel returns the model id to send to the provider: the default
// when id is empty, otherwise id without a routing prefix.
func (k Kind) NormalizeModel(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return k.DefaultModel()
	}
	for _, p := range routerPrefixes[k] {
		if rest, ok := strings.CutPrefix(id, p); ok {
			return rest
		}
	}
	return id
}

func (k Kind) String() string { return string(k) }
