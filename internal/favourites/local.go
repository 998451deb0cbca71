package favourites

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/audiocontrol/acrd/internal/model"
	"github.com/audiocontrol/acrd/internal/settings"
)

const localSettingsKey = "favourites.local"

// LocalProvider is the daemon's own favourites store, persisted through the
// shared Settings Store so favourites survive a restart without pulling in
// a dedicated storage engine of their own.
type LocalProvider struct {
	mu    sync.Mutex
	store *settings.Store
}

// NewLocalProvider constructs a LocalProvider backed by store.
func NewLocalProvider(store *settings.Store) *LocalProvider {
	return &LocalProvider{store: store}
}

func (p *LocalProvider) Name() string   { return "local" }
func (p *LocalProvider) IsEnabled() bool { return true }
func (p *LocalProvider) IsActive() bool  { return true }

func (p *LocalProvider) load() (map[string]bool, error) {
	raw, exists, err := p.store.Get(localSettingsKey)
	if err != nil {
		return nil, err
	}
	keys := make(map[string]bool)
	if !exists || len(raw) == 0 {
		return keys, nil
	}
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (p *LocalProvider) save(keys map[string]bool) error {
	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	_, _, err = p.store.Set(localSettingsKey, raw)
	return err
}

func (p *LocalProvider) Add(ctx context.Context, key model.FavouriteKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.load()
	if err != nil {
		return err
	}
	keys[key.String()] = true
	return p.save(keys)
}

func (p *LocalProvider) Remove(ctx context.Context, key model.FavouriteKey) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.load()
	if err != nil {
		return err
	}
	delete(keys, key.String())
	return p.save(keys)
}

func (p *LocalProvider) IsFavourite(ctx context.Context, key model.FavouriteKey) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.load()
	if err != nil {
		return false, err
	}
	return keys[key.String()], nil
}

func (p *LocalProvider) Count(ctx context.Context) (*int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.load()
	if err != nil {
		return nil, err
	}
	n := len(keys)
	return &n, nil
}
