// Package controller defines the Controller contract every source adapter
// implements (spec.md §4.1), grounded on ampli-pi4's internal/streams/stream.go
// shared-base pattern and the teacher's internal/domain/session/ports
// interface-segregation style.
package controller

import (
	"context"

	"github.com/audiocontrol/acrd/internal/acerr"
	"github.com/audiocontrol/acrd/internal/model"
)

// Sink is how a Controller emits events to the outside world. The Pipeline
// hands every registered controller a Sink that stamps the controller's id
// onto each event before relaying it to the bus (spec.md §4.6 "Registry").
type Sink interface {
	Emit(event model.PlayerEvent)
}

// Controller is the uniform contract every source adapter implements
// (spec.md §4.1).
type Controller interface {
	ID() string
	DisplayName() string
	Capabilities() model.CapabilitySet
	SupportsAPIEvents() bool

	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// ProcessAPIEvent applies an externally-pushed PlayerEvent. It must
	// fail with acerr.NotSupported when SupportsAPIEvents() is false, and
	// with acerr.InvalidArgument when the event is inapplicable.
	ProcessAPIEvent(ctx context.Context, event model.PlayerEvent) error

	// Command applies a mutation command. It must fail with
	// acerr.NotSupported when the required capability is absent.
	Command(ctx context.Context, cmd model.Command) error
}

// HasCapability is a small helper every concrete controller uses to
// implement Command's capability check uniformly.
func HasCapability(caps model.CapabilitySet, cmd model.Command) error {
	needed := cmd.RequiredCapability()
	if needed == "" {
		return acerr.New(acerr.InvalidArgument, "controller.command", "unknown command")
	}
	if !caps.Has(needed) {
		return acerr.New(acerr.NotSupported, "controller.command", string(needed)+" not supported")
	}
	return nil
}

// Base provides the bookkeeping every concrete controller kind shares: id,
// display name, fixed capabilities/API-events flag, and a sink to emit
// through. Concrete controllers embed Base and add their own state and
// ProcessAPIEvent/Command logic, mirroring ampli-pi4's streams.BaseStream.
type Base struct {
	id                string
	displayName       string
	capabilities      model.CapabilitySet
	supportsAPIEvents bool
	sink              Sink
}

// NewBase constructs the shared bookkeeping. supportsAPIEvents is fixed at
// construction and never changes afterward (spec.md §3 invariants).
func NewBase(id, displayName string, caps model.CapabilitySet, supportsAPIEvents bool, sink Sink) Base {
	return Base{
		id:                id,
		displayName:       displayName,
		capabilities:      caps,
		supportsAPIEvents: supportsAPIEvents,
		sink:              sink,
	}
}

func (b Base) ID() string                        { return b.id }
func (b Base) DisplayName() string                { return b.displayName }
func (b Base) Capabilities() model.CapabilitySet  { return b.capabilities }
func (b Base) SupportsAPIEvents() bool            { return b.supportsAPIEvents }
func (b Base) Emit(event model.PlayerEvent)       { b.sink.Emit(event) }
