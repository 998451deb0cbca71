// SPDX-License-Identifier: MIT

// Package pipeline implements the Player Event Pipeline from spec.md §4.6:
// per-controller state fusion, position interpolation, active-player
// election and the derived Now-Playing view. Grounded on the teacher's
// explicit state-transition-table idiom (internal/domain/session/lifecycle)
// and its registry+periodic-recompute orchestrator shape
// (internal/domain/session/manager/orchestrator.go), adapted from session
// lifecycle fusion to player fusion.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/audiocontrol/acrd/internal/controller"
	"github.com/audiocontrol/acrd/internal/metrics"
	"github.com/audiocontrol/acrd/internal/model"
)

// playerState is the Pipeline's internal, richer record for one
// controller; model.PlayerSnapshot is derived from it on read.
type playerState struct {
	id                string
	displayName       string
	capabilities      model.CapabilitySet
	supportsAPIEvents bool
	hasLibrary        bool

	state    model.PlaybackState
	shuffle  bool
	loopMode model.LoopMode
	song     *model.Song

	position     *float64   // stored/frozen position
	playingSince *time.Time // anchor for interpolation: real_now - position

	transitionToPlayingAt time.Time // wall-clock instant this controller last became Playing
	lastSeen              time.Time
	metadata              map[string]string
}

// Pipeline fuses per-controller PlayerEvents into a consistent global view.
type Pipeline struct {
	mu          sync.RWMutex
	controllers map[string]controller.Controller
	states      map[string]*playerState
	activeID    string // "" means no active player

	bus       *bus.Bus
	activeTTL time.Duration
	now       func() time.Time
}

// New constructs a Pipeline publishing fused events onto b and using
// activeTTL for the active-player fallback window (spec.md §4.6).
func New(b *bus.Bus, activeTTL time.Duration) *Pipeline {
	return &Pipeline{
		controllers: make(map[string]controller.Controller),
		states:      make(map[string]*playerState),
		bus:         b,
		activeTTL:   activeTTL,
		now:         time.Now,
	}
}

// pipelineSink stamps the owning controller's id onto every event before
// relaying it into the Pipeline (spec.md §4.6 "Registry").
type pipelineSink struct {
	id string
	p  *Pipeline
}

func (s pipelineSink) Emit(event model.PlayerEvent) {
	s.p.ingest(s.id, event)
}

// NewSink returns the Sink a controller constructor should be given so its
// outbound events are stamped with id and routed into this Pipeline.
func (p *Pipeline) NewSink(id string) controller.Sink {
	return pipelineSink{id: id, p: p}
}

// Register adds ctrl to the registry, seeding its initial snapshot.
func (p *Pipeline) Register(ctrl controller.Controller) {
	now := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.controllers[ctrl.ID()] = ctrl
	p.states[ctrl.ID()] = &playerState{
		id:                ctrl.ID(),
		displayName:       ctrl.DisplayName(),
		capabilities:      ctrl.Capabilities(),
		supportsAPIEvents: ctrl.SupportsAPIEvents(),
		hasLibrary:        ctrl.Capabilities().Has(model.CapLibrary),
		state:             model.StateUnknown,
		loopMode:          model.LoopNone,
		lastSeen:          now,
	}
}

// Controller returns the registered controller for id, if any.
func (p *Pipeline) Controller(id string) (controller.Controller, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.controllers[id]
	return c, ok
}

func (p *Pipeline) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// ingest applies one controller's event to the fused state, recomputes the
// active-player election, and republishes the event on the bus. A panic
// anywhere in fusion is contained here so one misbehaving adapter cannot
// bring the Pipeline down (spec.md §4.6 "Failure semantics"): the
// originating controller is marked Error, which the election skips from its
// next recompute on, until a later StateChanged from it sets a new state.
func (p *Pipeline) ingest(id string, event model.PlayerEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.markErrored(id)
		}
	}()

	event = event.Normalize()
	now := p.clock()

	var known, activeChanged bool
	var newActive, prevActive string
	func() {
		p.mu.Lock()
		defer p.mu.Unlock() // released before markErrored takes it again
		st, ok := p.states[id]
		if !ok {
			return // unknown controller id: drop (spec.md §7 "invariant violations ... dropped")
		}
		known = true
		applyEvent(st, event, now)
		st.lastSeen = now
		activeChanged, newActive, prevActive = p.recomputeActiveLocked(now)
	}()
	if !known {
		return
	}

	metrics.ControllerEventsTotal.WithLabelValues(id, string(event.Type)).Inc()
	p.bus.Publish(id, event)

	if activeChanged {
		metrics.ActivePlayerChangesTotal.Inc()
		var payload *string
		if newActive != "" {
			payload = &newActive
		}
		p.bus.Publish(newActive, model.PlayerEvent{Type: model.EventActivePlayerChanged, ActivePlayerID: payload})
		_ = prevActive
	}
}

func (p *Pipeline) markErrored(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.states[id]; ok {
		st.state = model.StateError
		st.position = nil
		st.playingSince = nil
	}
}

// applyEvent implements the state-fusion rules of spec.md §4.6.
func applyEvent(st *playerState, event model.PlayerEvent, now time.Time) {
	switch event.Type {
	case model.EventStateChanged:
		wasPlaying := st.state == model.StatePlaying
		st.state = event.State
		nowPlaying := st.state == model.StatePlaying
		switch {
		case wasPlaying && !nowPlaying:
			frozen := interpolatedPosition(st, now)
			st.position = frozen
			st.playingSince = nil
		case !wasPlaying && nowPlaying:
			anchor := now
			if st.position != nil {
				anchor = now.Add(-durationFromSeconds(*st.position))
			}
			st.playingSince = &anchor
			st.transitionToPlayingAt = now
		}

	case model.EventSongChanged:
		if event.Song != nil && st.song != nil && st.song.Equal(*event.Song) {
			return // idempotent per spec.md §4.6
		}
		st.song = event.Song
		zero := 0.0
		st.position = &zero
		if st.state == model.StatePlaying {
			anchor := now
			st.playingSince = &anchor
			st.transitionToPlayingAt = now
		}

	case model.EventPositionChanged:
		if event.Position == nil {
			// Permitted "clear" signal (spec.md §9 open question; decided
			// in DESIGN.md).
			st.position = nil
			st.playingSince = nil
			return
		}
		clamped := clampPosition(*event.Position, st.song)
		st.position = &clamped
		if st.state == model.StatePlaying {
			anchor := now.Add(-durationFromSeconds(clamped))
			st.playingSince = &anchor
		}

	case model.EventShuffleChanged:
		if event.Shuffle != nil {
			st.shuffle = *event.Shuffle
		}

	case model.EventLoopModeChanged:
		if event.Loop != "" {
			st.loopMode = event.Loop
		}

	case model.EventCapabilitiesChanged:
		if event.Capabilities != nil {
			st.capabilities = event.Capabilities
			st.hasLibrary = event.Capabilities.Has(model.CapLibrary)
		}
	}
}

func durationFromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func clampPosition(p float64, song *model.Song) float64 {
	if p < 0 {
		return 0
	}
	if song != nil && song.Duration != nil && p > *song.Duration {
		return *song.Duration
	}
	return p
}

// interpolatedPosition computes the read-time position per spec.md §4.6
// "Position interpolation".
func interpolatedPosition(st *playerState, now time.Time) *float64 {
	if st.state == model.StatePlaying && st.playingSince != nil {
		elapsed := now.Sub(*st.playingSince).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		if st.song != nil && st.song.Duration != nil && elapsed > *st.song.Duration {
			elapsed = *st.song.Duration
		}
		return &elapsed
	}
	if st.position == nil {
		return nil
	}
	v := *st.position
	return &v
}

func snapshotLocked(st *playerState, now time.Time, isActive bool) model.PlayerSnapshot {
	var song *model.Song
	if st.song != nil {
		s := *st.song
		song = &s
	}
	pos := interpolatedPosition(st, now)
	if song == nil {
		pos = nil // spec.md §3 invariant: no song => no position
	}
	return model.PlayerSnapshot{
		ID:                st.id,
		DisplayName:       st.displayName,
		State:             st.state,
		Shuffle:           st.shuffle,
		LoopMode:          st.loopMode,
		PositionSeconds:   pos,
		CurrentSong:       song,
		LastSeen:          st.lastSeen,
		Capabilities:      st.capabilities,
		SupportsAPIEvents: st.supportsAPIEvents,
		IsActive:          isActive,
		HasLibrary:        st.hasLibrary,
		Metadata:          st.metadata,
	}
}

// Snapshots returns every controller's current, read-time-consistent
// PlayerSnapshot (spec.md §6 GET /players).
func (p *Pipeline) Snapshots() []model.PlayerSnapshot {
	now := p.clock()
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]model.PlayerSnapshot, 0, len(p.states))
	for id, st := range p.states {
		out = append(out, snapshotLocked(st, now, id == p.activeID))
	}
	return out
}

// Snapshot returns a single controller's snapshot.
func (p *Pipeline) Snapshot(id string) (model.PlayerSnapshot, bool) {
	now := p.clock()
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.states[id]
	if !ok {
		return model.PlayerSnapshot{}, false
	}
	return snapshotLocked(st, now, id == p.activeID), true
}

// NowPlaying is the derived view from spec.md §4.6.
type NowPlaying struct {
	Player   *model.PlayerSnapshot `json:"player"`
	State    model.PlaybackState   `json:"state"`
	Song     *model.Song           `json:"song,omitempty"`
	Position *float64              `json:"position,omitempty"`
	Shuffle  bool                  `json:"shuffle"`
	LoopMode model.LoopMode        `json:"loop_mode"`
}

// NowPlaying derives the Now-Playing view from the currently active player,
// or a stopped/empty view when none is active (spec.md §4.6).
func (p *Pipeline) NowPlaying() NowPlaying {
	now := p.clock()
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.activeID == "" {
		return NowPlaying{State: model.StateStopped, LoopMode: model.LoopNone}
	}
	st := p.states[p.activeID]
	snap := snapshotLocked(st, now, true)
	return NowPlaying{
		Player:   &snap,
		State:    snap.State,
		Song:     snap.CurrentSong,
		Position: snap.PositionSeconds,
		Shuffle:  snap.Shuffle,
		LoopMode: snap.LoopMode,
	}
}

// ActivePlayerID returns the current active player id and whether one is
// elected.
func (p *Pipeline) ActivePlayerID() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeID, p.activeID != ""
}

// Command routes a mutation command to the addressed controller (spec.md
// §4.6 "Mutation path").
func (p *Pipeline) Command(ctx context.Context, playerID string, cmd model.Command) error {
	ctrl, ok := p.Controller(playerID)
	if !ok {
		return acerr.New(acerr.NotFound, "pipeline.command", "unknown player: "+playerID)
	}
	return ctrl.Command(ctx, cmd)
}

// PushEvent routes an externally-pushed PlayerEvent to the addressed
// controller's ProcessAPIEvent (spec.md §4.6 "Mutation path"). Controllers
// with SupportsAPIEvents()==false fail with acerr.NotSupported.
func (p *Pipeline) PushEvent(ctx context.Context, playerID string, event model.PlayerEvent) error {
	ctrl, ok := p.Controller(playerID)
	if !ok {
		return acerr.New(acerr.NotFound, "pipeline.push_event", "unknown player: "+playerID)
	}
	return ctrl.ProcessAPIEvent(ctx, event)
}
