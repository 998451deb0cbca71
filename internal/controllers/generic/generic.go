// Package generic implements the protocol-agnostic, API-driven player
// controller (spec.md §2 row 5, §4.1): every mutation arrives as a pushed
// PlayerEvent or Command over HTTP rather than a native wire protocol.
// Grounded on ampli-pi4's internal/streams per-kind file shape, and on
// original_source/tests/test_generic_integration.py for the event/command
// vocabulary this controller must accept.
package generic

import (
	"context"
	"sync"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/controller"
	"github.com/audiocontrol/acrd/internal/model"
)

var capabilities = model.NewCapabilitySet(
	model.CapPlay, model.CapPause, model.CapStop,
	model.CapNext, model.CapPrevious, model.CapSeek,
	model.CapShuffle, model.CapLoop, model.CapAPIEvents,
)

// Controller is the Generic controller kind.
type Controller struct {
	controller.Base

	mu       sync.Mutex
	state    model.PlaybackState
	song     *model.Song
	shuffle  bool
	loopMode model.LoopMode
}

// New constructs a Generic controller identified by id, emitting through sink.
func New(id, displayName string, sink controller.Sink) *Controller {
	return &Controller{
		Base:     controller.NewBase(id, displayName, capabilities, true, sink),
		state:    model.StateUnknown,
		loopMode: model.LoopNone,
	}
}

func (c *Controller) Start(ctx context.Context) error { return nil }
func (c *Controller) Stop(ctx context.Context) error  { return nil }

// ProcessAPIEvent applies a pushed PlayerEvent to internal state and
// re-emits it through the sink, per spec.md §4.1's "on success, the
// controller must internally update and emit equivalent outbound events".
func (c *Controller) ProcessAPIEvent(ctx context.Context, event model.PlayerEvent) error {
	event = event.Normalize()

	c.mu.Lock()
	switch event.Type {
	case model.EventStateChanged:
		c.state = event.State
	case model.EventSongChanged:
		if event.Song == nil {
			c.mu.Unlock()
			return acerr.New(acerr.InvalidArgument, "generic.process_api_event", "song_changed requires a song")
		}
		c.song = event.Song
	case model.EventPositionChanged:
		// position may legitimately be nil (spec.md §9 open question,
		// decided as a permitted "clear" signal in DESIGN.md).
	case model.EventShuffleChanged:
		if event.Shuffle == nil {
			c.mu.Unlock()
			return acerr.New(acerr.InvalidArgument, "generic.process_api_event", "shuffle_changed requires a value")
		}
		c.shuffle = *event.Shuffle
	case model.EventLoopModeChanged:
		if event.Loop == "" {
			c.mu.Unlock()
			return acerr.New(acerr.InvalidArgument, "generic.process_api_event", "loop_mode_changed requires a mode")
		}
		c.loopMode = event.Loop
	case model.EventVolumeChanged, model.EventCapabilitiesChanged, model.EventActivePlayerChanged:
		// pass-through events: no local state to update before re-emitting.
	default:
		c.mu.Unlock()
		return acerr.New(acerr.InvalidArgument, "generic.process_api_event", "unrecognized event type: "+string(event.Type))
	}
	c.mu.Unlock()

	c.Emit(event)
	return nil
}

// Command applies a direct mutation command, emitting the equivalent
// PlayerEvent(s) the Pipeline would otherwise expect from a native adapter.
func (c *Controller) Command(ctx context.Context, cmd model.Command) error {
	if err := controller.HasCapability(c.Capabilities(), cmd); err != nil {
		return err
	}

	switch cmd.Kind {
	case model.CmdPlay:
		c.setState(model.StatePlaying)
	case model.CmdPause:
		c.setState(model.StatePaused)
	case model.CmdStop:
		c.setState(model.StateStopped)
	case model.CmdNext, model.CmdPrevious:
		// Generic has no native playlist; next/previous is a capability
		// the pushing client fulfils by following up with a song_changed
		// event of its own. We only acknowledge the command here.
	case model.CmdSeekTo:
		pos := cmd.SeekSeconds
		c.Emit(model.PlayerEvent{Type: model.EventPositionChanged, Position: &pos})
	case model.CmdSetShuffle:
		v := cmd.ShuffleValue
		c.mu.Lock()
		c.shuffle = v
		c.mu.Unlock()
		c.Emit(model.PlayerEvent{Type: model.EventShuffleChanged, Shuffle: &v})
	case model.CmdSetLoop:
		c.mu.Lock()
		c.loopMode = cmd.LoopValue
		c.mu.Unlock()
		c.Emit(model.PlayerEvent{Type: model.EventLoopModeChanged, Loop: cmd.LoopValue})
	default:
		return acerr.New(acerr.InvalidArgument, "generic.command", "unrecognized command")
	}
	return nil
}

func (c *Controller) setState(s model.PlaybackState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.Emit(model.PlayerEvent{Type: model.EventStateChanged, State: s})
}
