// SPDX-License-Identifier: MIT

// Package coverart implements the Cover-Art Aggregator from spec.md §4.8:
// parallel fan-out to independent image providers, grading, a memoized
// merged result, a custom per-artist override with background download,
// and magic-number MIME detection for direct image serving. Grounded on
// the teacher's internal/jobs/picons.go (job-reported, concurrency-bounded
// image fetch pool) and internal/openwebif/picon.go (per-item fetch +
// cache), generalized from Enigma2 picons to multi-provider cover art.
package coverart

import (
	"context"

	"github.com/audiocontrol/acrd/internal/model"
)

// Provider is a single cover-art source (spec.md §4.8). A provider need not
// implement both methods meaningfully; one returning 0 results for a method
// it doesn't support is indistinguishable from "found nothing" and that is
// by design — absence is never an error.
type Provider interface {
	Name() string
	DisplayName() string
	IsEnabled() bool
	IsActive() bool

	ArtistImages(ctx context.Context, artist string) ([]model.CoverArtImage, error)
	AlbumImages(ctx context.Context, title, artist string, year *int) ([]model.CoverArtImage, error)
}

func (a *Aggregator) activeProviders() []Provider {
	out := make([]Provider, 0, len(a.providers))
	for _, p := range a.providers {
		if p.IsEnabled() && p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// Methods enumerates providers grouped by method, for GET /coverart/methods.
func (a *Aggregator) Methods() map[string][]model.ProviderInfo {
	infos := make([]model.ProviderInfo, 0, len(a.providers))
	for _, p := range a.providers {
		infos = append(infos, model.ProviderInfo{Name: p.Name(), DisplayName: p.DisplayName()})
	}
	return map[string][]model.ProviderInfo{
		"artist_images": infos,
		"album_images":  infos,
	}
}
