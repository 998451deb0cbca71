// Package librespot is the Spotify Connect controller kind. Its native
// wire format (the Librespot event envelope) is out of scope per spec.md
// §1; this package only implements the abstract contract so the Pipeline
// can hold a Librespot-kind controller alongside the others. A real
// deployment replaces the event source this stub would otherwise poll
// with the actual Librespot process's event pipe.
package librespot

import (
	"context"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/controller"
	"github.com/audiocontrol/acrd/internal/model"
)

var capabilities = model.NewCapabilitySet(
	model.CapPlay, model.CapPause, model.CapNext, model.CapPrevious,
	model.CapShuffle, model.CapLoop,
)

// Controller is the Librespot controller kind. supports_api_events is
// false: Spotify Connect state changes arrive from Spotify's own servers,
// not from a client pushing PlayerEvents.
type Controller struct {
	controller.Base
}

// New constructs a Librespot controller. sink is where the (future) native
// event translator would emit fused PlayerEvents.
func New(id, displayName string, sink controller.Sink) *Controller {
	return &Controller{Base: controller.NewBase(id, displayName, capabilities, false, sink)}
}

func (c *Controller) Start(ctx context.Context) error { return nil }
func (c *Controller) Stop(ctx context.Context) error   { return nil }

func (c *Controller) ProcessAPIEvent(ctx context.Context, event model.PlayerEvent) error {
	return acerr.New(acerr.NotSupported, "librespot.process_api_event", "librespot controllers do not accept pushed events")
}

func (c *Controller) Command(ctx context.Context, cmd model.Command) error {
	if err := controller.HasCapability(c.Capabilities(), cmd); err != nil {
		return err
	}
	// Real adapter would forward to the Librespot control socket; wire
	// format is out of scope (spec.md §1).
	return nil
}
