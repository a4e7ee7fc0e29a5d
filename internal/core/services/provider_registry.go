package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docuchat/internal/core/domain"
	"github.com/custodia-labs/docuchat/internal/core/ports/driven"
)

// ProviderRegistry holds one LLM client per credentialed provider and
// resolves which provider serves a request.
type ProviderRegistry struct {
	mu       sync.RWMutex
	clients  map[domain.Provider]driven.LLMService
	fallback domain.Provider
}

// NewProviderRegistry creates a registry. fallback is the configured
// default provider used when a request names none.
func NewProviderRegistry(fallback domain.Provider, clients ...driven.LLMService) *ProviderRegistry {
	r := &ProviderRegistry{
		clients:  make(map[domain.Provider]driven.LLMService),
		fallback: fallback,
	}
	for _, c := range clients {
		r.Register(c)
	}
	return r
}

// Register adds or replaces the client for its provider. Nil clients are
// ignored so callers can pass optional providers straight through.
func (r *ProviderRegistry) Register(client driven.LLMService) {
	if client == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.Provider()] = client
}

// Default returns the configured fallback provider.
func (r *ProviderRegistry) Default() domain.Provider {
	return r.fallback
}

// Available reports which providers have a client.
func (r *ProviderRegistry) Available() map[domain.Provider]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.Provider]bool, len(r.clients))
	for p := range r.clients {
		out[p] = true
	}
	return out
}

// Providers returns the registered providers in preference order.
func (r *ProviderRegistry) Providers() []domain.Provider {
	available := r.Available()
	var out []domain.Provider
	for _, p := range domain.SupportedProviders() {
		if available[p] {
			out = append(out, p)
		}
	}
	return out
}

// Resolve picks the provider for a request.
func (r *ProviderRegistry) Resolve(requested domain.Provider) domain.Provider {
	return domain.ResolveProvider(requested, r.fallback, r.Available())
}

// Client returns the client for a provider.
func (r *ProviderRegistry) Client(p domain.Provider) (driven.LLMService, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no API key configured", domain.ErrProviderUnavailable, p)
	}
	return client, nil
}

// Close closes every client.
func (r *ProviderRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, c := range r.clients {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
