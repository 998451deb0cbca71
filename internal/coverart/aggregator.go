// SPDX-License-Identifier: MIT

package coverart

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/alog"
	"github.com/audiocontrol/acrd/internal/cache"
	"github.com/audiocontrol/acrd/internal/jobs"
	"github.com/audiocontrol/acrd/internal/metrics"
	"github.com/audiocontrol/acrd/internal/model"
	"github.com/audiocontrol/acrd/internal/settings"
)

const (
	defaultProviderTimeout = 3 * time.Second
	defaultResultTTL       = time.Hour
	maxDownloadAttempts    = 5
	initialBackoff         = time.Second
)

// Downloader fetches the raw bytes of a custom cover-art URL. Implemented
// by internal/workers against net/http; tests substitute a stub.
type Downloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Aggregator is the Cover-Art Aggregator from spec.md §4.8.
type Aggregator struct {
	providers []Provider

	cache    *cache.Cache
	settings *settings.Store
	jobs     *jobs.Registry

	downloader     Downloader
	providerTimeout time.Duration
	resultTTL      time.Duration

	sf singleflight.Group

	artistLocksMu sync.Mutex
	artistLocks   map[string]*sync.Mutex
}

// New constructs an Aggregator. downloader may be nil if custom-override
// downloads are not wired (UpdateArtistOverride then only records the
// Settings key).
func New(providers []Provider, c *cache.Cache, st *settings.Store, jr *jobs.Registry, downloader Downloader) *Aggregator {
	return &Aggregator{
		providers:       providers,
		cache:           c,
		settings:        st,
		jobs:            jr,
		downloader:      downloader,
		providerTimeout: defaultProviderTimeout,
		resultTTL:       defaultResultTTL,
		artistLocks:     make(map[string]*sync.Mutex),
	}
}

func normalizeArg(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type cachedResult struct {
	ExpiresAt time.Time                      `json:"expires_at"`
	Results   []model.CoverArtProviderResult `json:"results"`
}

// Stats returns the statistics of the shared cache the aggregator stores
// images in, for GET
// /api/cache/stats' optional image_cache_stats field (spec.md §4.3/§6).
func (a *Aggregator) Stats() cache.Stats {
	return a.cache.Stats()
}

// ArtistImages fans artist name out to every active provider (spec.md §4.8).
func (a *Aggregator) ArtistImages(ctx context.Context, artist string) ([]model.CoverArtProviderResult, error) {
	key := "coverart:artist:" + normalizeArg(artist)
	return a.lookup(ctx, "artist_images", key, func(ctx context.Context, p Provider) ([]model.CoverArtImage, error) {
		return p.ArtistImages(ctx, artist)
	})
}

// AlbumImages fans (title, artist, year?) out to every active provider.
func (a *Aggregator) AlbumImages(ctx context.Context, title, artist string, year *int) ([]model.CoverArtProviderResult, error) {
	yearPart := ""
	if year != nil {
		yearPart = strconv.Itoa(*year)
	}
	key := fmt.Sprintf("coverart:album:%s:%s:%s", normalizeArg(title), normalizeArg(artist), yearPart)
	return a.lookup(ctx, "album_images", key, func(ctx context.Context, p Provider) ([]model.CoverArtImage, error) {
		return p.AlbumImages(ctx, title, artist, year)
	})
}

func (a *Aggregator) lookup(ctx context.Context, method, cacheKey string, call func(context.Context, Provider) ([]model.CoverArtImage, error)) ([]model.CoverArtProviderResult, error) {
	start := time.Now()

	if raw, ok := a.cache.Get(cacheKey); ok {
		var cached cachedResult
		if err := json.Unmarshal(raw, &cached); err == nil && time.Now().Before(cached.ExpiresAt) {
			metrics.CoverArtLookupDuration.WithLabelValues(method, "hit").Observe(time.Since(start).Seconds())
			return cached.Results, nil
		}
	}

	v, err, _ := a.sf.Do(cacheKey, func() (interface{}, error) {
		return a.fanOut(ctx, call)
	})
	if err != nil {
		return nil, err
	}
	results := v.([]model.CoverArtProviderResult)

	entry := cachedResult{ExpiresAt: time.Now().Add(a.resultTTL), Results: results}
	if raw, err := json.Marshal(entry); err == nil {
		a.cache.Put(cacheKey, raw)
	}

	metrics.CoverArtLookupDuration.WithLabelValues(method, "miss").Observe(time.Since(start).Seconds())
	return results, nil
}

// fanOut invokes call against every active provider in parallel, each under
// its own timeout. Provider failures are contained: a failing or timed-out
// provider contributes an empty result, never an error (spec.md §4.8/§7).
func (a *Aggregator) fanOut(ctx context.Context, call func(context.Context, Provider) ([]model.CoverArtImage, error)) ([]model.CoverArtProviderResult, error) {
	active := a.activeProviders()
	results := make([]model.CoverArtProviderResult, len(active))

	var g errgroup.Group
	for i, p := range active {
		i, p := i, p
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, a.providerTimeout)
			defer cancel()

			images, err := call(pctx, p)
			outcome := "ok"
			if err != nil {
				outcome = "error"
				alog.L().Warn().Err(err).Str("provider", p.Name()).Msg("coverart provider call failed")
				images = nil
			}
			metrics.CoverArtProviderCallsTotal.WithLabelValues(p.Name(), outcome).Inc()

			sortByGradeDescending(images)
			results[i] = model.CoverArtProviderResult{
				Provider: model.ProviderInfo{Name: p.Name(), DisplayName: p.DisplayName()},
				Images:   images,
			}
			return nil // isolation: never propagate to the group
		})
	}
	_ = g.Wait()
	return results, nil
}

// UpdateArtistOverride implements POST /coverart/artist/{name}/update
// (spec.md §4.8). An empty url clears the override; a non-empty url is
// recorded in Settings and a background download is enqueued.
func (a *Aggregator) UpdateArtistOverride(ctx context.Context, artist, url string) error {
	normalized := normalizeArg(artist)
	if normalized == "" {
		return acerr.New(acerr.InvalidArgument, "coverart.update_artist_override", "artist must be non-empty")
	}
	settingsKey := "coverart.artist.custom." + normalized

	if url == "" {
		_, _, err := a.settings.Set(settingsKey, json.RawMessage("null"))
		return err
	}

	raw, err := json.Marshal(url)
	if err != nil {
		return acerr.Wrap(acerr.Internal, "coverart.update_artist_override", err)
	}
	if _, _, err := a.settings.Set(settingsKey, raw); err != nil {
		return acerr.Wrap(acerr.Internal, "coverart.update_artist_override", err)
	}

	a.enqueueDownload(normalized, url)
	return nil
}

// artistLock returns the mutex serializing downloads for one normalized
// artist key, so two concurrent overrides for the same artist never
// interleave their cache writes (spec.md §9 open question, decided in
// DESIGN.md: last write to finish wins).
func (a *Aggregator) artistLock(normalized string) *sync.Mutex {
	a.artistLocksMu.Lock()
	defer a.artistLocksMu.Unlock()
	m, ok := a.artistLocks[normalized]
	if !ok {
		m = &sync.Mutex{}
		a.artistLocks[normalized] = m
	}
	return m
}

func (a *Aggregator) enqueueDownload(normalized, url string) {
	if a.downloader == nil {
		return
	}
	go func() {
		lock := a.artistLock(normalized)
		lock.Lock()
		defer lock.Unlock()

		jobID := a.jobs.Start("coverart_download:" + normalized)
		ctx := context.Background()
		backoff := initialBackoff

		for attempt := 1; attempt <= maxDownloadAttempts; attempt++ {
			data, err := a.downloader.Fetch(ctx, url)
			if err == nil {
				a.cache.Put(ArtistImageCacheKey(normalized), data)
				a.jobs.Finish(jobID)
				return
			}
			progress := fmt.Sprintf("attempt %d/%d failed: %v", attempt, maxDownloadAttempts, err)
			a.jobs.Update(jobID, &progress, nil, nil)
			time.Sleep(backoff)
			backoff *= 2
		}
		a.jobs.Finish(jobID)
	}()
}

// ArtistImageCacheKey is the disk-cache key an artist's custom-override
// image bytes are stored under (spec.md §4.8).
func ArtistImageCacheKey(normalizedArtist string) string {
	return "coverart:artist:" + normalizedArtist + ":image"
}

// ArtistImageBytes returns the cached override image bytes for artist, if
// any have been downloaded yet (spec.md §4.8 "Direct image serving").
func (a *Aggregator) ArtistImageBytes(artist string) ([]byte, bool) {
	return a.cache.Get(ArtistImageCacheKey(normalizeArg(artist)))
}
