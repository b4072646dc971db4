package provider

import (
	"fmt"

	"github.com/rios0rios0/repoatlas/config"
	"github.com/rios0rios0/repoatlas/domain"
)

// Registry manages all registered content provider implementations.
type Registry struct {
	providers map[string]Factory
}

// Factory is a constructor function that creates a Provider from its config.
type Factory func(cfg config.ProviderConfig) (domain.Provider, error)

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Factory),
	}
}

// Register adds a provider factory under the given name (e.g. "gitlab").
func (r *Registry) Register(name string, factory Factory) {
	r.providers[name] = factory
}

// Get returns a configured provider instance for the given config.
func (r *Registry) Get(cfg config.ProviderConfig) (domain.Provider, error) {
	factory, ok := r.providers[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %q", cfg.Type)
	}
	return factory(cfg)
}

// Names returns the list of registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
