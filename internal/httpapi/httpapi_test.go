package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/audiocontrol/acrd/internal/cache"
	"github.com/audiocontrol/acrd/internal/controllers/generic"
	"github.com/audiocontrol/acrd/internal/coverart"
	"github.com/audiocontrol/acrd/internal/favourites"
	"github.com/audiocontrol/acrd/internal/httpmw"
	"github.com/audiocontrol/acrd/internal/jobs"
	"github.com/audiocontrol/acrd/internal/model"
	"github.com/audiocontrol/acrd/internal/pipeline"
	"github.com/audiocontrol/acrd/internal/settings"
	"github.com/audiocontrol/acrd/internal/volume"
)

type fakeCoverArtProvider struct{}

func (fakeCoverArtProvider) Name() string        { return "fake" }
func (fakeCoverArtProvider) DisplayName() string { return "Fake" }
func (fakeCoverArtProvider) IsEnabled() bool      { return true }
func (fakeCoverArtProvider) IsActive() bool       { return true }
func (fakeCoverArtProvider) ArtistImages(ctx context.Context, artist string) ([]model.CoverArtImage, error) {
	return []model.CoverArtImage{{URL: "https://example.com/a.jpg", Format: model.FormatJPEG}}, nil
}
func (fakeCoverArtProvider) AlbumImages(ctx context.Context, title, artist string, year *int) ([]model.CoverArtImage, error) {
	return []model.CoverArtImage{{URL: "https://example.com/b.jpg", Format: model.FormatJPEG}}, nil
}

type testServer struct {
	*httptest.Server
	pipeline *pipeline.Pipeline
	bus      *bus.Bus
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	b := bus.New(64)
	pl := pipeline.New(b, time.Minute)
	ctrl := generic.New("player1", "Player One", pl.NewSink("player1"))
	pl.Register(ctrl)

	store, err := settings.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	favCoord := favourites.New(favourites.NewLocalProvider(store))

	c := cache.New(1<<20, nil)
	jr := jobs.New(0)
	t.Cleanup(jr.Close)
	ca := coverart.New([]coverart.Provider{fakeCoverArtProvider{}}, c, store, jr, nil)

	vol := volume.New(b, volume.DefaultRange)

	srv := New("test-version", pl, b, favCoord, ca, vol, c, store, jr, httpmw.StackConfig{RateLimitPerMin: 0})

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, pipeline: pl, bus: b}
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestVersionEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodGet, ts.URL+"/api/version", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "test-version", out["version"])
}

func TestPlayerUpdateThenNowPlayingReflectsFusedState(t *testing.T) {
	ts := newTestServer(t)

	songEvent := map[string]any{
		"type": "song_changed",
		"song": map[string]any{"artist": "Tycho", "title": "Awake", "duration": 240},
	}
	resp, out := doJSON(t, http.MethodPost, ts.URL+"/api/player/player1/update", songEvent)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["success"])

	stateEvent := map[string]any{"type": "state_changed", "state": "playing"}
	_, out = doJSON(t, http.MethodPost, ts.URL+"/api/player/player1/update", stateEvent)
	require.Equal(t, true, out["success"])

	resp, out = doJSON(t, http.MethodGet, ts.URL+"/api/now-playing", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	player, ok := out["player"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "player1", player["id"])
	require.Equal(t, true, player["is_active"])
}

func TestPlayerUpdateUnknownPlayerReportsFailure(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodPost, ts.URL+"/api/player/nonexistent/update",
		map[string]any{"type": "state_changed", "state": "playing"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, false, out["success"])
}

func TestPlayerCommandAppliesAndEmits(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodPost, ts.URL+"/api/player/player1/command",
		map[string]any{"command": "play"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["success"])

	snap, ok := ts.pipeline.Snapshot("player1")
	require.True(t, ok)
	require.Equal(t, model.StatePlaying, snap.State)
}

func TestCoverArtArtistLookupByBase64Segment(t *testing.T) {
	ts := newTestServer(t)
	name := base64.RawURLEncoding.EncodeToString([]byte("Tycho"))

	resp, out := doJSON(t, http.MethodGet, ts.URL+"/api/coverart/artist/"+name, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results, ok := out["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)
}

func TestCoverArtArtistLookupBadBase64DegradesToEmptyResults(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodGet, ts.URL+"/api/coverart/artist/not-valid-base64!!", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results, ok := out["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 0)
}

func TestCoverArtImageBadBase64Returns400(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/coverart/artist/not-valid-base64!!/image", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCoverArtImageMissingReturns404(t *testing.T) {
	ts := newTestServer(t)
	name := base64.RawURLEncoding.EncodeToString([]byte("Tycho"))
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/coverart/artist/"+name+"/image", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFavouritesAddIsFavouriteRemove(t *testing.T) {
	ts := newTestServer(t)

	resp, out := doJSON(t, http.MethodPost, ts.URL+"/api/favourites/add",
		map[string]any{"artist": "Tycho", "title": "Awake"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ok, present := out["Ok"].(map[string]any)
	require.True(t, present)
	require.Equal(t, true, ok["success"])

	resp, out = doJSON(t, http.MethodGet, ts.URL+"/api/favourites/is_favourite?artist=Tycho&title=Awake", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ok, present = out["Ok"].(map[string]any)
	require.True(t, present)
	require.Equal(t, true, ok["is_favourite"])

	resp, out = doJSON(t, http.MethodDelete, ts.URL+"/api/favourites/remove",
		map[string]any{"artist": "Tycho", "title": "Awake"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ok, present = out["Ok"].(map[string]any)
	require.True(t, present)
	require.Equal(t, true, ok["success"])
}

func TestFavouritesAddEmptyArtistReturnsErrEnvelope(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodPost, ts.URL+"/api/favourites/add",
		map[string]any{"artist": "", "title": "Awake"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, present := out["Err"]
	require.True(t, present)
}

func TestSettingsSetThenGetRoundTrips(t *testing.T) {
	ts := newTestServer(t)

	resp, out := doJSON(t, http.MethodPost, ts.URL+"/api/settings/set",
		map[string]any{"key": "theme", "value": "dark"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["success"])
	require.Nil(t, out["previous_value"])

	resp, out = doJSON(t, http.MethodPost, ts.URL+"/api/settings/get",
		map[string]any{"key": "theme"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["exists"])
	require.Equal(t, "dark", out["value"])
}

func TestVolumeSetAndMute(t *testing.T) {
	ts := newTestServer(t)

	resp, out := doJSON(t, http.MethodPost, ts.URL+"/api/volume/set", map[string]any{"percentage": 40})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.InDelta(t, 40, out["percentage"], 0.001)

	resp, out = doJSON(t, http.MethodPost, ts.URL+"/api/volume/mute", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["muted"])

	resp, out = doJSON(t, http.MethodPost, ts.URL+"/api/volume/mute", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, false, out["muted"])
	require.InDelta(t, 40, out["percentage"], 0.001)
}

func TestCacheStatsIncludesImageCacheStats(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodGet, ts.URL+"/api/cache/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["success"])
	require.Nil(t, out["message"])
	stats, ok := out["stats"].(map[string]any)
	require.True(t, ok, "stats must be an object, got %#v", out["stats"])
	require.Contains(t, stats, "disk_entries")
	require.Contains(t, stats, "memory_entries")
	require.Contains(t, stats, "memory_bytes")
	require.Contains(t, stats, "memory_limit_bytes")
	require.Contains(t, out, "image_cache_stats")
}

func TestBackgroundJobsListAndGetUnknown(t *testing.T) {
	ts := newTestServer(t)
	resp, out := doJSON(t, http.MethodGet, ts.URL+"/api/background/jobs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, out["success"])
	require.Nil(t, out["message"])
	jobs, ok := out["jobs"].([]any)
	require.True(t, ok, "jobs must be an array, got %#v", out["jobs"])
	require.Empty(t, jobs)

	resp, out = doJSON(t, http.MethodGet, ts.URL+"/api/background/jobs/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, false, out["success"])
	require.Equal(t, "not found", out["message"])
}
