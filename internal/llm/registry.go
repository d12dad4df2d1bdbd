// Package llm adapts text-completion providers to the single-prompt,
// single-reply Completer used by the resume parser.
package llm

import (
	"context"

	"github.com/soochol/hydrahunt/internal/config"
)

// Completer returns the raw reply of a provider to one prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Factory creates a Completer for a given provider name and config.
type Factory func(providerName string, cfg config.ProviderConfig) Completer

var factories = map[string]Factory{}

// RegisterProvider registers a factory for the given provider type string.
// Called from init() in each provider file.
func RegisterProvider(typeName string, factory Factory) {
	factories[typeName] = factory
}

// Build looks up a registered factory for cfg.Type and calls it.
// If no factory is found but cfg.URL is set, falls back to OpenAI-compat.
// Returns (nil, false) if the type is unknown and no URL fallback is available.
func Build(providerName string, cfg config.ProviderConfig) (Completer, bool) {
	if factory, ok := factories[cfg.Type]; ok {
		return factory(providerName, cfg), true
	}
	if cfg.URL != "" {
		return NewOpenAICompleter(providerName, cfg), true
	}
	return nil, false
}
