package capability

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/gosuda/kairos/internal/capability/model"
)

// ProviderFactory builds a model for one provider.
type ProviderFactory func(ctx context.Context, cfg model.Config) (model.Model, error)

// Registry maps provider names to model factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ProviderFactory),
	}
}

// Register adds a factory for a provider, replacing any previous one.
func (r *Registry) Register(provider string, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[provider] = factory
}

// Create instantiates a model through the factory registered for
// cfg.Provider.
func (r *Registry) Create(ctx context.Context, cfg model.Config) (model.Model, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("capability.Registry.Create(%q): %w", cfg.Provider, ErrUnknownProvider)
	}

	m, err := factory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("capability.Registry.Create(%q): %w", cfg.Provider, err)
	}

	return m, nil
}

// Available returns registered provider names in sorted order.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := slices.Collect(func(yield func(string) bool) {
		for name := range r.factories {
			if !yield(name) {
				return
			}
		}
	})
	sort.Strings(names)

	return names
}
