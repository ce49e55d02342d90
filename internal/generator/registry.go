package generator

import (
	"errors"
	"fmt"
)

// ErrModelNotSupported is returned when no adapter is registered for a
// kind and model combination. The HTTP layer reports it as 501.
var ErrModelNotSupported = errors.New("generator: model not supported")

// Registry maps kind+model to the adapter that serves it. It is populated
// once at startup and read-only afterwards, so no locking is needed.
type Registry struct {
	adapters map[string]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Generator)}
}

// Register binds an adapter to a kind and model name.
func (r *Registry) Register(kind, model string, g Generator) {
	r.adapters[kind+"/"+model] = g
}

// Lookup returns the adapter for the kind and model, or
// ErrModelNotSupported if none is registered.
func (r *Registry) Lookup(kind, model string) (Generator, error) {
	g, ok := r.adapters[kind+"/"+model]
	if !ok {
		return nil, fmt.Errorf("%w: %s model %q", ErrModelNotSupported, kind, model)
	}
	return g, nil
}
