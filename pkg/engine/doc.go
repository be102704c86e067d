// Package engine is the composition root. Select turns a provider name,
// an optional model id and credentials into a model handle; NewAgent wraps
// that handle in an agent carrying the tool surface.
package engine
