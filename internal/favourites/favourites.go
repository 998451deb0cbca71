// Package favourites implements the multi-provider Favourites Layer from
// spec.md §4.7: a coordinator fans add/remove/is_favourite calls out to
// every active provider, isolating per-provider failures, grounded on the
// teacher's per-call failure-isolation idiom in
// internal/resilience/circuit_breaker.go (applied here without the
// trip/half-open state machine itself, since favourites has no call-rate
// concern to protect against).
package favourites

import (
	"context"
	"sort"
	"sync"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/alog"
	"github.com/audiocontrol/acrd/internal/model"
)

// Provider is a single favourites backend (spec.md §4.7).
type Provider interface {
	Name() string
	IsEnabled() bool
	IsActive() bool

	Add(ctx context.Context, key model.FavouriteKey) error
	Remove(ctx context.Context, key model.FavouriteKey) error
	IsFavourite(ctx context.Context, key model.FavouriteKey) (bool, error)
	// Count returns the provider's favourite count, or nil when the
	// provider cannot cheaply enumerate (spec.md §4.7).
	Count(ctx context.Context) (*int, error)
}

// Result is the coordinator's response shape for add/remove (spec.md §4.7).
type Result struct {
	Success             bool     `json:"success"`
	Message             string   `json:"message"`
	ProvidersConsidered []string `json:"providers_considered"`
	ProvidersUpdated    []string `json:"providers_updated"`
}

// ProviderStatus is one row of GET /favourites/providers.
type ProviderStatus struct {
	Name           string `json:"name"`
	Enabled        bool   `json:"enabled"`
	Active         bool   `json:"active"`
	FavouriteCount *int   `json:"favourite_count,omitempty"`
}

// Coordinator fans favourites operations out across every registered
// Provider.
type Coordinator struct {
	providers []Provider
}

// New constructs a Coordinator over providers. ProvidersConsidered and
// ProvidersStatus in results follow this order; the lists of updated and
// confirming providers are sorted by name.
func New(providers ...Provider) *Coordinator {
	return &Coordinator{providers: providers}
}

func (c *Coordinator) activeProviders() []Provider {
	out := make([]Provider, 0, len(c.providers))
	for _, p := range c.providers {
		if p.IsEnabled() && p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

func providerNames(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name()
	}
	return out
}

// Add broadcasts key to every active provider; success = at least one
// accepted it (spec.md §4.7). Empty artist/title fails InvalidArgument.
func (c *Coordinator) Add(ctx context.Context, artist, title string) (Result, error) {
	key := model.NewFavouriteKey(artist, title)
	if key.Empty() {
		return Result{}, acerr.New(acerr.InvalidArgument, "favourites.add", "artist and title must be non-empty")
	}
	return c.broadcast(ctx, key, func(ctx context.Context, p Provider) error {
		return p.Add(ctx, key)
	}, "added", "no provider accepted the favourite")
}

// Remove is the symmetric counterpart to Add.
func (c *Coordinator) Remove(ctx context.Context, artist, title string) (Result, error) {
	key := model.NewFavouriteKey(artist, title)
	if key.Empty() {
		return Result{}, acerr.New(acerr.InvalidArgument, "favourites.remove", "artist and title must be non-empty")
	}
	return c.broadcast(ctx, key, func(ctx context.Context, p Provider) error {
		return p.Remove(ctx, key)
	}, "removed", "no provider accepted the removal")
}

func (c *Coordinator) broadcast(ctx context.Context, key model.FavouriteKey, op func(context.Context, Provider) error, okMessage, failMessage string) (Result, error) {
	active := c.activeProviders()
	considered := providerNames(active)
	if len(active) == 0 {
		return Result{Success: false, Message: "no active favourites providers", ProvidersConsidered: considered}, nil
	}

	var mu sync.Mutex
	var updated []string
	var wg sync.WaitGroup
	for _, p := range active {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := op(ctx, p); err != nil {
				alog.L().Warn().Err(err).Str("provider", p.Name()).Str("key", key.String()).Msg("favourites provider call failed")
				return
			}
			mu.Lock()
			updated = append(updated, p.Name())
			mu.Unlock()
		}()
	}
	wg.Wait()
	sort.Strings(updated)

	message := okMessage
	success := len(updated) > 0
	if !success {
		message = failMessage
	}
	return Result{Success: success, Message: message, ProvidersConsidered: considered, ProvidersUpdated: updated}, nil
}

// IsFavourite reports whether key is a favourite in at least one active
// provider (logical OR, spec.md §4.7), along with the names of the
// providers that confirmed it.
func (c *Coordinator) IsFavourite(ctx context.Context, artist, title string) (isFavourite bool, confirmedBy []string, err error) {
	key := model.NewFavouriteKey(artist, title)
	if key.Empty() {
		return false, nil, nil
	}

	active := c.activeProviders()
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, p := range active {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := p.IsFavourite(ctx, key)
			if err != nil {
				alog.L().Warn().Err(err).Str("provider", p.Name()).Msg("favourites provider is_favourite failed")
				return
			}
			if ok {
				mu.Lock()
				confirmedBy = append(confirmedBy, p.Name())
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	sort.Strings(confirmedBy)
	return len(confirmedBy) > 0, confirmedBy, nil
}

// ProvidersStatus reports every registered provider's status, including
// disabled/inactive ones, in registration order.
func (c *Coordinator) ProvidersStatus(ctx context.Context) []ProviderStatus {
	out := make([]ProviderStatus, len(c.providers))
	for i, p := range c.providers {
		status := ProviderStatus{Name: p.Name(), Enabled: p.IsEnabled(), Active: p.IsActive()}
		if p.IsEnabled() && p.IsActive() {
			if count, err := p.Count(ctx); err == nil {
				status.FavouriteCount = count
			}
		}
		out[i] = status
	}
	return out
}
