// SPDX-License-Identifier: MIT

package coverart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/audiocontrol/acrd/internal/model"
)

// ArchiveProvider is a concrete Cover-Art Aggregator Provider backed by
// MusicBrainz's search API (name -> release-group MBID) and the Cover Art
// Archive (MBID -> front cover images), the public read-only services most
// third-party music tools resolve cover art against. Grounded on the
// teacher's internal/openwebif.Client shape: a thin net/http JSON client
// with its own base URL and timeout, no retry/backoff since a single failed
// lookup here is just one fan-out result among several (isolated by the
// Aggregator, spec.md §4.8).
type ArchiveProvider struct {
	client         *http.Client
	musicBrainzURL string
	archiveURL     string
	enabled        bool
}

// NewArchiveProvider constructs an ArchiveProvider. enabled lets deployments
// without outbound internet access turn this provider off without removing
// it from the Aggregator's provider list.
func NewArchiveProvider(client *http.Client, enabled bool) *ArchiveProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &ArchiveProvider{
		client:         client,
		musicBrainzURL: "https://musicbrainz.org/ws/2",
		archiveURL:     "https://coverartarchive.org",
		enabled:        enabled,
	}
}

func (p *ArchiveProvider) Name() string        { return "coverartarchive" }
func (p *ArchiveProvider) DisplayName() string { return "Cover Art Archive" }
func (p *ArchiveProvider) IsEnabled() bool     { return p.enabled }
func (p *ArchiveProvider) IsActive() bool      { return p.enabled }

type mbSearchResponse struct {
	ReleaseGroups []struct {
		ID string `json:"id"`
	} `json:"release-groups"`
}

type archiveImagesResponse struct {
	Images []struct {
		Image    string `json:"image"`
		Front    bool   `json:"front"`
		Approved bool   `json:"approved"`
	} `json:"images"`
}

// ArtistImages searches MusicBrainz release groups by artist name and
// returns front-cover candidates from the first few matches.
func (p *ArchiveProvider) ArtistImages(ctx context.Context, artist string) ([]model.CoverArtImage, error) {
	query := fmt.Sprintf(`artist:"%s"`, artist)
	return p.lookupViaSearch(ctx, query)
}

// AlbumImages searches by title and artist (year is not sent to the search
// API, which doesn't support it as a distinguishing field).
func (p *ArchiveProvider) AlbumImages(ctx context.Context, title, artist string, year *int) ([]model.CoverArtImage, error) {
	query := fmt.Sprintf(`releasegroup:"%s" AND artist:"%s"`, title, artist)
	return p.lookupViaSearch(ctx, query)
}

func (p *ArchiveProvider) lookupViaSearch(ctx context.Context, query string) ([]model.CoverArtImage, error) {
	ids, err := p.searchReleaseGroups(ctx, query)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	var images []model.CoverArtImage
	for _, id := range ids {
		imgs, err := p.frontCoverImages(ctx, id)
		if err != nil {
			continue
		}
		images = append(images, imgs...)
	}
	return images, nil
}

func (p *ArchiveProvider) searchReleaseGroups(ctx context.Context, query string) ([]string, error) {
	u := fmt.Sprintf("%s/release-group?query=%s&fmt=json&limit=3", p.musicBrainzURL, url.QueryEscape(query))
	var parsed mbSearchResponse
	if err := p.getJSON(ctx, u, &parsed); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(parsed.ReleaseGroups))
	for _, rg := range parsed.ReleaseGroups {
		ids = append(ids, rg.ID)
	}
	return ids, nil
}

func (p *ArchiveProvider) frontCoverImages(ctx context.Context, releaseGroupMBID string) ([]model.CoverArtImage, error) {
	u := fmt.Sprintf("%s/release-group/%s", p.archiveURL, releaseGroupMBID)
	var parsed archiveImagesResponse
	if err := p.getJSON(ctx, u, &parsed); err != nil {
		return nil, err
	}

	var out []model.CoverArtImage
	for _, img := range parsed.Images {
		if !img.Front || !img.Approved || img.Image == "" {
			continue
		}
		out = append(out, model.CoverArtImage{URL: img.Image, Format: model.FormatJPEG})
	}
	return out, nil
}

func (p *ArchiveProvider) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "acrd/1.0 (+https://github.com/audiocontrol/acrd)")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coverartarchive: unexpected status %d from %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
