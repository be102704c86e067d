// Package providers holds the model handles the engine can select.
//
//   - [github.com/germanamz/skillbridge/pkg/providers/provider]: the closed set of provider kinds and their defaults
//   - [github.com/germanamz/skillbridge/pkg/providers/gemini]: message adapter in front of the genai client
//   - [github.com/germanamz/skillbridge/pkg/providers/anthropic]: Claude Messages API handle
//   - [github.com/germanamz/skillbridge/pkg/providers/qwen]: Hub-hosted Qwen over the OpenAI-compatible router
package providers
