package favourites

import (
	"context"
	"sync"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/model"
)

// RemoteProvider models a third-party scrobbling-style favourites service
// (e.g. Last.fm "loved tracks"): it can be configured (enabled) while not
// yet authenticated (inactive), per spec.md §4.7's
// "Last.fm enabled but not-logged-in → active=false" example. It has no
// cheap count API, so Count always reports nil.
type RemoteProvider struct {
	name string

	mu            sync.RWMutex
	enabled       bool
	authenticated bool
	loved         map[string]struct{}
}

// NewRemoteProvider constructs a RemoteProvider identified by name, enabled
// per configuration but starting unauthenticated.
func NewRemoteProvider(name string, enabled bool) *RemoteProvider {
	return &RemoteProvider{name: name, enabled: enabled, loved: make(map[string]struct{})}
}

func (p *RemoteProvider) Name() string { return p.name }

func (p *RemoteProvider) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

func (p *RemoteProvider) IsActive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled && p.authenticated
}

// SetAuthenticated flips the provider's runtime login state; a real adapter
// would call this after completing the service's OAuth handshake.
func (p *RemoteProvider) SetAuthenticated(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.authenticated = ok
}

func (p *RemoteProvider) Add(ctx context.Context, key model.FavouriteKey) error {
	if !p.IsActive() {
		return acerr.New(acerr.NotSupported, "remote_favourites.add", p.name+" is not authenticated")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loved[key.String()] = struct{}{}
	return nil
}

func (p *RemoteProvider) Remove(ctx context.Context, key model.FavouriteKey) error {
	if !p.IsActive() {
		return acerr.New(acerr.NotSupported, "remote_favourites.remove", p.name+" is not authenticated")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.loved, key.String())
	return nil
}

func (p *RemoteProvider) IsFavourite(ctx context.Context, key model.FavouriteKey) (bool, error) {
	if !p.IsActive() {
		return false, nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.loved[key.String()]
	return ok, nil
}

// Count always reports nil: the modelled remote service has no cheap
// enumeration endpoint (spec.md §4.7).
func (p *RemoteProvider) Count(ctx context.Context) (*int, error) {
	return nil, nil
}
