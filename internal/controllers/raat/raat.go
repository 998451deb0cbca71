// Package raat is the Roon RAAT controller kind. Its native control/metadata
// pipe protocol is out of scope per spec.md §1; this package implements
// only the abstract contract. Roon owns its own playlist/zone model
// server-side, so this kind's capability set intentionally omits
// shuffle/loop (Roon exposes those at the zone level, not per-stream).
package raat

import (
	"context"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/controller"
	"github.com/audiocontrol/acrd/internal/model"
)

var capabilities = model.NewCapabilitySet(
	model.CapPlay, model.CapPause, model.CapStop,
	model.CapNext, model.CapPrevious, model.CapSeek,
)

// Controller is the RAAT controller kind. supports_api_events is false:
// transport state is driven by Roon's server over the RAAT pipes.
type Controller struct {
	controller.Base
}

func New(id, displayName string, sink controller.Sink) *Controller {
	return &Controller{Base: controller.NewBase(id, displayName, capabilities, false, sink)}
}

func (c *Controller) Start(ctx context.Context) error { return nil }
func (c *Controller) Stop(ctx context.Context) error   { return nil }

func (c *Controller) ProcessAPIEvent(ctx context.Context, event model.PlayerEvent) error {
	return acerr.New(acerr.NotSupported, "raat.process_api_event", "RAAT controllers do not accept pushed events")
}

func (c *Controller) Command(ctx context.Context, cmd model.Command) error {
	if err := controller.HasCapability(c.Capabilities(), cmd); err != nil {
		return err
	}
	// Real adapter forwards to the RAAT control pipe; wire format is out
	// of scope (spec.md §1).
	return nil
}
