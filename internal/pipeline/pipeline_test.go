package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/audiocontrol/acrd/internal/controllers/generic"
	"github.com/audiocontrol/acrd/internal/model"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward deterministically instead of
// sleeping.
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestPipeline(t *testing.T) (*Pipeline, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	p := New(bus.New(16), 30*time.Second)
	p.now = clock.now
	return p, clock
}

func registerGeneric(p *Pipeline, id string) *generic.Controller {
	ctrl := generic.New(id, id, p.NewSink(id))
	p.Register(ctrl)
	return ctrl
}

func TestSongChangeResetsPosition(t *testing.T) {
	p, clock := newTestPipeline(t)
	ctrl := registerGeneric(p, "p1")
	ctx := context.Background()

	song := model.Song{Artist: "A", Title: "T"}
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventSongChanged, Song: &song}))
	require.NoError(t, ctrl.Command(ctx, model.Command{Kind: model.CmdPlay}))

	clock.advance(10 * time.Second)
	snap, ok := p.Snapshot("p1")
	require.True(t, ok)
	require.NotNil(t, snap.PositionSeconds)
	require.InDelta(t, 10.0, *snap.PositionSeconds, 0.001)

	other := model.Song{Artist: "B", Title: "U"}
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventSongChanged, Song: &other}))

	snap, ok = p.Snapshot("p1")
	require.True(t, ok)
	require.InDelta(t, 0.0, *snap.PositionSeconds, 0.001)
}

func TestSongChangeIdempotentForSameSong(t *testing.T) {
	p, clock := newTestPipeline(t)
	ctrl := registerGeneric(p, "p1")
	ctx := context.Background()

	song := model.Song{Artist: "A", Title: "T"}
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventSongChanged, Song: &song}))
	require.NoError(t, ctrl.Command(ctx, model.Command{Kind: model.CmdPlay}))
	clock.advance(5 * time.Second)

	// Re-announcing the identical song must not reset position.
	same := model.Song{Artist: "A", Title: "T"}
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventSongChanged, Song: &same}))

	snap, ok := p.Snapshot("p1")
	require.True(t, ok)
	require.InDelta(t, 5.0, *snap.PositionSeconds, 0.001)
}

func TestPositionFreezesOnPause(t *testing.T) {
	p, clock := newTestPipeline(t)
	ctrl := registerGeneric(p, "p1")
	ctx := context.Background()

	song := model.Song{Artist: "A", Title: "T"}
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventSongChanged, Song: &song}))
	require.NoError(t, ctrl.Command(ctx, model.Command{Kind: model.CmdPlay}))
	clock.advance(7 * time.Second)
	require.NoError(t, ctrl.Command(ctx, model.Command{Kind: model.CmdPause}))

	clock.advance(100 * time.Second) // time passing while paused must not move position

	snap, ok := p.Snapshot("p1")
	require.True(t, ok)
	require.InDelta(t, 7.0, *snap.PositionSeconds, 0.001)
}

func TestNoSongMeansNoPosition(t *testing.T) {
	p, _ := newTestPipeline(t)
	registerGeneric(p, "p1")

	snap, ok := p.Snapshot("p1")
	require.True(t, ok)
	require.Nil(t, snap.CurrentSong)
	require.Nil(t, snap.PositionSeconds)
}

func TestActivePlayerElectionPrefersMostRecentlyPlaying(t *testing.T) {
	p, clock := newTestPipeline(t)
	c1 := registerGeneric(p, "p1")
	c2 := registerGeneric(p, "p2")
	ctx := context.Background()

	require.NoError(t, c1.Command(ctx, model.Command{Kind: model.CmdPlay}))
	id, ok := p.ActivePlayerID()
	require.True(t, ok)
	require.Equal(t, "p1", id)

	clock.advance(time.Second)
	require.NoError(t, c2.Command(ctx, model.Command{Kind: model.CmdPlay}))

	id, ok = p.ActivePlayerID()
	require.True(t, ok)
	require.Equal(t, "p2", id, "the controller that started playing most recently should win")
}

func TestActivePlayerFallsBackToRecentlyPausedWithinTTL(t *testing.T) {
	p, clock := newTestPipeline(t)
	c1 := registerGeneric(p, "p1")
	c2 := registerGeneric(p, "p2") // stays Unknown throughout, used only to trigger a recompute
	ctx := context.Background()

	require.NoError(t, c1.Command(ctx, model.Command{Kind: model.CmdPlay}))
	require.NoError(t, c1.Command(ctx, model.Command{Kind: model.CmdPause}))

	id, ok := p.ActivePlayerID()
	require.True(t, ok)
	require.Equal(t, "p1", id, "a recently paused player remains active within the fallback window")

	clock.advance(time.Minute) // beyond the 30s activeTTL; p1's last_seen is now stale
	require.NoError(t, c2.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventCapabilitiesChanged, Capabilities: c2.Capabilities()}))

	_, ok = p.ActivePlayerID()
	require.False(t, ok, "a stale paused player should fall out of election once past activeTTL")
}

func TestStoppedControllerIsNeverActive(t *testing.T) {
	p, _ := newTestPipeline(t)
	c1 := registerGeneric(p, "p1")
	ctx := context.Background()

	require.NoError(t, c1.Command(ctx, model.Command{Kind: model.CmdStop}))

	_, ok := p.ActivePlayerID()
	require.False(t, ok)
}

func TestNowPlayingReflectsActivePlayer(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctrl := registerGeneric(p, "p1")
	ctx := context.Background()

	np := p.NowPlaying()
	require.Equal(t, model.StateStopped, np.State)
	require.Nil(t, np.Player)

	song := model.Song{Artist: "A", Title: "T"}
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventSongChanged, Song: &song}))
	require.NoError(t, ctrl.Command(ctx, model.Command{Kind: model.CmdPlay}))

	np = p.NowPlaying()
	require.Equal(t, model.StatePlaying, np.State)
	require.NotNil(t, np.Song)
	require.Equal(t, "A", np.Song.Artist)
}

func TestPositionChangedNilClearsPosition(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctrl := registerGeneric(p, "p1")
	ctx := context.Background()

	song := model.Song{Artist: "A", Title: "T"}
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventSongChanged, Song: &song}))
	require.NoError(t, ctrl.ProcessAPIEvent(ctx, model.PlayerEvent{Type: model.EventPositionChanged, Position: nil}))

	snap, ok := p.Snapshot("p1")
	require.True(t, ok)
	require.Nil(t, snap.PositionSeconds)
}

func TestUnknownPlayerCommandFails(t *testing.T) {
	p, _ := newTestPipeline(t)
	err := p.Command(context.Background(), "ghost", model.Command{Kind: model.CmdPlay})
	require.Error(t, err)
}
