package workers

import (
	"context"
	"fmt"

	"github.com/audiocontrol/acrd/internal/alog"
	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/audiocontrol/acrd/internal/coverart"
	"github.com/audiocontrol/acrd/internal/jobs"
	"github.com/audiocontrol/acrd/internal/model"
	"github.com/audiocontrol/acrd/internal/pipeline"
)

// ArtistImageUpdater subscribes to the Event Bus for SongChanged on the
// currently active player and pre-warms the Cover-Art Aggregator's cache for
// that song's artist, so a client polling GET /coverart/artist/{name}
// immediately after a song change finds a warm cache (SPEC_FULL.md §5.2).
type ArtistImageUpdater struct {
	bus      *bus.Bus
	pipeline *pipeline.Pipeline
	coverArt *coverart.Aggregator
	jobs     *jobs.Registry
}

// NewArtistImageUpdater constructs an ArtistImageUpdater. Call Run in its
// own goroutine; it returns when ctx is cancelled.
func NewArtistImageUpdater(b *bus.Bus, pl *pipeline.Pipeline, ca *coverart.Aggregator, jr *jobs.Registry) *ArtistImageUpdater {
	return &ArtistImageUpdater{bus: b, pipeline: pl, coverArt: ca, jobs: jr}
}

// Run drains SongChanged events and fires off a prefetch for the active
// player's new song, until ctx is cancelled.
func (u *ArtistImageUpdater) Run(ctx context.Context) {
	sub := u.bus.Subscribe(bus.Filter{
		EventTypes: map[model.EventType]struct{}{model.EventSongChanged: {}},
	})
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-sub.C():
			if !ok {
				return
			}
			env, ok := item.(bus.Envelope)
			if !ok {
				continue
			}
			u.handle(ctx, env)
		}
	}
}

func (u *ArtistImageUpdater) handle(ctx context.Context, env bus.Envelope) {
	activeID, hasActive := u.pipeline.ActivePlayerID()
	if !hasActive || env.PlayerID != activeID {
		return
	}
	song := env.Event.Song
	if song == nil || song.Artist == "" {
		return
	}

	jobID := u.jobs.Start("artist_image_prefetch:" + song.Artist)
	go func() {
		_, err := u.coverArt.ArtistImages(ctx, song.Artist)
		if err != nil {
			alog.L().Warn().Err(err).Str("artist", song.Artist).Msg("artist image prefetch failed")
			progress := fmt.Sprintf("failed: %v", err)
			u.jobs.Update(jobID, &progress, nil, nil)
		}
		u.jobs.Finish(jobID)
	}()
}
