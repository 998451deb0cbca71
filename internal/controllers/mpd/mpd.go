// Package mpd is the MPD (Music Player Daemon) controller kind. MPD's text
// protocol is out of scope per spec.md §1; this package implements only
// the abstract contract. Unlike Librespot/RAAT, MPD exposes a queryable
// library, so this kind reports has_library=true via its full capability
// set.
package mpd

import (
	"context"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/controller"
	"github.com/audiocontrol/acrd/internal/model"
)

var capabilities = model.NewCapabilitySet(
	model.CapPlay, model.CapPause, model.CapStop,
	model.CapNext, model.CapPrevious, model.CapSeek,
	model.CapShuffle, model.CapLoop, model.CapLibrary,
)

// Controller is the MPD controller kind. supports_api_events is false:
// state changes are learned by polling/subscribing to MPD's own protocol.
type Controller struct {
	controller.Base
}

func New(id, displayName string, sink controller.Sink) *Controller {
	return &Controller{Base: controller.NewBase(id, displayName, capabilities, false, sink)}
}

func (c *Controller) Start(ctx context.Context) error { return nil }
func (c *Controller) Stop(ctx context.Context) error   { return nil }

func (c *Controller) ProcessAPIEvent(ctx context.Context, event model.PlayerEvent) error {
	return acerr.New(acerr.NotSupported, "mpd.process_api_event", "MPD controllers do not accept pushed events")
}

func (c *Controller) Command(ctx context.Context, cmd model.Command) error {
	if err := controller.HasCapability(c.Capabilities(), cmd); err != nil {
		return err
	}
	// Real adapter forwards to MPD's text protocol; out of scope (spec.md §1).
	return nil
}
