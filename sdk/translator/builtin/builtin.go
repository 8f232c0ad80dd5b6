// Package builtin exposes the built-in translator registrations for SDK users.
package builtin

import (
	sdktranslator "github.com/streambridge/streambridge/sdk/translator"

	_ "github.com/streambridge/streambridge/internal/translator"
)

// Registry exposes the default registry populated with all built-in translators.
func Registry() *sdktranslator.Registry {
	return sdktranslator.Default()
}

// NewPipeline returns a provider-to-client pipeline on the populated default registry.
func NewPipeline(provider, client sdktranslator.Format, model string, collect bool) (*sdktranslator.Pipeline, error) {
	return sdktranslator.Default().NewPipeline(provider, client, model, collect)
}
