package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/audiocontrol/acrd/internal/alog"
	"github.com/audiocontrol/acrd/internal/cache"
	"github.com/audiocontrol/acrd/internal/jobs"
	"github.com/audiocontrol/acrd/internal/settings"
)

const (
	playlistPollInterval  = 5 * time.Minute
	playlistMaxRetries    = 3
	playlistInitialBackoff = 2 * time.Second
)

// PlaylistSettingsKey is where a Generic player's optional M3U playlist URL
// is recorded in the Settings Store (SPEC_FULL.md §5.2).
func PlaylistSettingsKey(playerID string) string {
	return "generic." + playerID + ".playlist_url"
}

// PlaylistCacheKey is where the fetched playlist body is cached.
func PlaylistCacheKey(playerID string) string {
	return "playlist:" + playerID
}

// PlaylistFetcher periodically polls the M3U playlist URL configured for a
// Generic-controller player and caches its body, grounded on the teacher's
// fetchEPGWithRetry poll-with-backoff shape (internal/jobs/fetch.go),
// repurposed here from fetching IPTV playlists to fetching the .m3u
// playlist a Generic player advertises through Settings.
type PlaylistFetcher struct {
	playerID string
	client   *http.Client
	settings *settings.Store
	cache    *cache.Cache
	jobs     *jobs.Registry
	interval time.Duration
}

// NewPlaylistFetcher constructs a fetcher for one Generic player's playlist.
func NewPlaylistFetcher(playerID string, st *settings.Store, c *cache.Cache, jr *jobs.Registry) *PlaylistFetcher {
	return &PlaylistFetcher{
		playerID: playerID,
		client:   &http.Client{Timeout: 10 * time.Second},
		settings: st,
		cache:    c,
		jobs:     jr,
		interval: playlistPollInterval,
	}
}

// Run polls on f.interval until ctx is cancelled, fetching once immediately
// on entry.
func (f *PlaylistFetcher) Run(ctx context.Context) {
	f.pollOnce(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.pollOnce(ctx)
		}
	}
}

func (f *PlaylistFetcher) pollOnce(ctx context.Context) {
	raw, exists, err := f.settings.Get(PlaylistSettingsKey(f.playerID))
	if err != nil || !exists {
		return
	}
	var url string
	if err := json.Unmarshal(raw, &url); err != nil || url == "" {
		return
	}

	jobID := f.jobs.Start("playlist_fetch:" + f.playerID)
	body, err := f.fetchWithRetry(ctx, url)
	if err != nil {
		progress := fmt.Sprintf("failed after %d attempts: %v", playlistMaxRetries, err)
		f.jobs.Update(jobID, &progress, nil, nil)
		f.jobs.Finish(jobID)
		alog.L().Warn().Err(err).Str("player_id", f.playerID).Str("url", url).Msg("playlist fetch failed")
		return
	}

	f.cache.Put(PlaylistCacheKey(f.playerID), body)
	f.jobs.Finish(jobID)
}

func (f *PlaylistFetcher) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	backoff := playlistInitialBackoff
	var lastErr error

	for attempt := 1; attempt <= playlistMaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}

		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("playlist fetch failed after %d attempts: %w", playlistMaxRetries, lastErr)
}

func (f *PlaylistFetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}
