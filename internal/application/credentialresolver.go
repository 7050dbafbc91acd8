package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ericfisherdev/brainpanel/internal/domain/model"
	"github.com/ericfisherdev/brainpanel/internal/domain/port/driven"
)

// CredentialResolver returns the effective secret for a service: a stored
// credential takes priority over the configured fallback. Fallbacks can be
// replaced at runtime without restarting.
type CredentialResolver struct {
	store driven.CredentialStore

	mu        sync.RWMutex
	fallbacks map[model.ServiceID]string
}

// NewCredentialResolver creates a resolver with the given fallback secrets,
// keyed by display or normalized name.
func NewCredentialResolver(store driven.CredentialStore, fallbacks map[string]string) *CredentialResolver {
	r := &CredentialResolver{store: store}
	r.ReplaceFallbacks(fallbacks)
	return r
}

// Resolve returns the effective secret for name, or "" if neither a stored
// nor a fallback secret exists. A store without an encryption key falls
// through to the fallback.
func (r *CredentialResolver) Resolve(ctx context.Context, name string) (string, error) {
	service := model.NormalizeServiceID(name)

	stored, err := r.store.Get(ctx, service)
	if err != nil && !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return "", fmt.Errorf("resolve credential %s: %w", service, err)
	}
	if stored != "" {
		return stored, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallbacks[service], nil
}

// HasFallback reports whether a non-empty fallback is configured for name.
func (r *CredentialResolver) HasFallback(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallbacks[model.NormalizeServiceID(name)] != ""
}

// ReplaceFallbacks swaps the fallback table.
func (r *CredentialResolver) ReplaceFallbacks(fallbacks map[string]string) {
	normalized := make(map[model.ServiceID]string, len(fallbacks))
	for name, secret := range fallbacks {
		normalized[model.NormalizeServiceID(name)] = secret
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = normalized
}
