package coverart

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/audiocontrol/acrd/internal/cache"
	"github.com/audiocontrol/acrd/internal/jobs"
	"github.com/audiocontrol/acrd/internal/model"
	"github.com/audiocontrol/acrd/internal/settings"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name    string
	images  []model.CoverArtImage
	err     error
	delay   time.Duration
	calls   int32
}

func (p *fakeProvider) Name() string        { return p.name }
func (p *fakeProvider) DisplayName() string { return p.name }
func (p *fakeProvider) IsEnabled() bool     { return true }
func (p *fakeProvider) IsActive() bool      { return true }

func (p *fakeProvider) ArtistImages(ctx context.Context, artist string) ([]model.CoverArtImage, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.images, p.err
}

func (p *fakeProvider) AlbumImages(ctx context.Context, title, artist string, year *int) ([]model.CoverArtImage, error) {
	return p.images, p.err
}

func newTestAggregator(t *testing.T, providers ...Provider) *Aggregator {
	t.Helper()
	c := cache.New(1<<20, nil)
	store, err := settings.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	jr := jobs.New(0)
	t.Cleanup(jr.Close)
	return New(providers, c, store, jr, nil)
}

func intPtr(i int) *int { return &i }

func TestArtistImagesMergesAndGrades(t *testing.T) {
	small := intPtr(100)
	big := intPtr(3000)
	p := &fakeProvider{name: "p1", images: []model.CoverArtImage{
		{URL: "https://example.com/small.jpg", Format: model.FormatJPEG, Width: small, Height: small},
		{URL: "https://example.com/big.png", Format: model.FormatPNG, Width: big, Height: big},
	}}
	a := newTestAggregator(t, p)

	results, err := a.ArtistImages(context.Background(), "Some Artist")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "p1", results[0].Provider.Name)
	require.Len(t, results[0].Images, 2)
	require.GreaterOrEqual(t, results[0].Images[0].Grade, results[0].Images[1].Grade, "higher-resolution image should grade at least as high")
	require.Equal(t, "https://example.com/big.png", results[0].Images[0].URL)
}

func TestProviderErrorIsIsolated(t *testing.T) {
	good := &fakeProvider{name: "good", images: []model.CoverArtImage{{URL: "https://x/a.jpg", Format: model.FormatJPEG}}}
	bad := &fakeProvider{name: "bad", err: errors.New("boom")}
	a := newTestAggregator(t, good, bad)

	results, err := a.ArtistImages(context.Background(), "Artist")
	require.NoError(t, err)
	require.Len(t, results, 2)

	var sawBad, sawGood bool
	for _, r := range results {
		if r.Provider.Name == "bad" {
			sawBad = true
			require.Empty(t, r.Images)
		}
		if r.Provider.Name == "good" {
			sawGood = true
			require.NotEmpty(t, r.Images)
		}
	}
	require.True(t, sawBad)
	require.True(t, sawGood)
}

func TestSecondLookupIsServedFromCache(t *testing.T) {
	p := &fakeProvider{name: "p1", images: []model.CoverArtImage{{URL: "https://x/a.jpg", Format: model.FormatJPEG}}}
	a := newTestAggregator(t, p)

	_, err := a.ArtistImages(context.Background(), "Artist")
	require.NoError(t, err)
	_, err = a.ArtistImages(context.Background(), "Artist")
	require.NoError(t, err)

	require.Equal(t, int32(1), atomic.LoadInt32(&p.calls), "second lookup should be served from the memoized cache entry")
}

func TestNonexistentArtistReturnsEmptyResultsNotError(t *testing.T) {
	p := &fakeProvider{name: "p1", images: nil}
	a := newTestAggregator(t, p)

	results, err := a.ArtistImages(context.Background(), "NonExistentArtistXYZ123")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Empty(t, results[0].Images)
}

func TestGradingPenalizesUnrecognizedScheme(t *testing.T) {
	recognized := model.CoverArtImage{URL: "https://example.com/a.jpg", Format: model.FormatJPEG}
	unrecognized := model.CoverArtImage{URL: "ftp://example.com/a.jpg", Format: model.FormatJPEG}
	require.Greater(t, grade(recognized), grade(unrecognized))
}

func TestDetectMIME(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif87", []byte("GIF87a"), "image/gif"},
		{"gif89", []byte("GIF89a"), "image/gif"},
		{"webp", append([]byte("RIFF\x00\x00\x00\x00"), []byte("WEBP")...), "image/webp"},
		{"bmp", []byte{0x42, 0x4D}, "image/bmp"},
		{"unknown", []byte{0x00, 0x01, 0x02}, "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DetectMIME(tc.data))
		})
	}
}

type stubDownloader struct {
	attempts int32
	failN    int32
	data     []byte
}

func (d *stubDownloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	n := atomic.AddInt32(&d.attempts, 1)
	if n <= d.failN {
		return nil, errors.New("transient failure")
	}
	return d.data, nil
}

func TestUpdateArtistOverrideDownloadsAndRetries(t *testing.T) {
	c := cache.New(1<<20, nil)
	store, err := settings.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	jr := jobs.New(0)
	defer jr.Close()

	dl := &stubDownloader{failN: 1, data: []byte{0xFF, 0xD8, 0xFF}}
	a := New(nil, c, store, jr, dl)
	// shorten backoff for the test by constructing directly is not exposed;
	// the default 1s/2s backoff is short enough for a single retry here.

	require.NoError(t, a.UpdateArtistOverride(context.Background(), "Test Artist", "https://example.com/art.jpg"))

	require.Eventually(t, func() bool {
		data, ok := a.ArtistImageBytes("Test Artist")
		return ok && len(data) > 0
	}, 5*time.Second, 50*time.Millisecond)

	raw, exists, err := store.Get("coverart.artist.custom.test artist")
	require.NoError(t, err)
	require.True(t, exists)
	require.Contains(t, string(raw), "example.com")
}

func TestUpdateArtistOverrideClearsOnEmptyURL(t *testing.T) {
	a := newTestAggregator(t)
	require.NoError(t, a.UpdateArtistOverride(context.Background(), "Artist", "https://x/a.jpg"))
	require.NoError(t, a.UpdateArtistOverride(context.Background(), "Artist", ""))

	raw, exists, err := a.settings.Get("coverart.artist.custom.artist")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "null", string(raw))
}

func TestUpdateArtistOverrideEmptyArtistFails(t *testing.T) {
	a := newTestAggregator(t)
	err := a.UpdateArtistOverride(context.Background(), "   ", "https://x/a.jpg")
	require.Error(t, err)
}
