// Package volume implements the single global Volume Abstraction from
// spec.md §4.9: one logical control exposed through three equivalent
// views (percent/decibels/raw), with mute and a VolumeChanged broadcast.
// Grounded on ampli-pi4's internal/models/state.go volume fields and
// internal/controller/zones.go set/clamp pattern, collapsed here from
// per-zone controls to the single global control spec.md describes.
package volume

import (
	"sync"

	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/audiocontrol/acrd/internal/model"
)

// Range describes the underlying control's decibel and raw bounds.
type Range struct {
	MinDB  float64
	MaxDB  float64
	MinRaw int
	MaxRaw int
}

// DefaultRange matches spec.md §4.9's example dummy control.
var DefaultRange = Range{MinDB: -120, MaxDB: 0, MinRaw: 0, MaxRaw: 100}

// State is the three equivalent views of the current volume.
type State struct {
	Percentage float64 `json:"percentage"`
	Decibels   float64 `json:"decibels"`
	Raw        int     `json:"raw"`
	Muted      bool    `json:"muted"`
}

// Control is the process-wide volume singleton.
type Control struct {
	mu sync.Mutex

	rng Range
	bus *bus.Bus

	percentage    float64
	lastNonZero   float64
	muted         bool
}

// New constructs a Control at 100% over rng, publishing changes on b.
func New(b *bus.Bus, rng Range) *Control {
	return &Control{rng: rng, bus: b, percentage: 100, lastNonZero: 100}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (c *Control) percentToDB(pct float64) float64 {
	return c.rng.MinDB + (pct/100)*(c.rng.MaxDB-c.rng.MinDB)
}

func (c *Control) dbToPercent(db float64) float64 {
	span := c.rng.MaxDB - c.rng.MinDB
	if span == 0 {
		return 0
	}
	return (db - c.rng.MinDB) / span * 100
}

func (c *Control) percentToRaw(pct float64) int {
	span := float64(c.rng.MaxRaw - c.rng.MinRaw)
	return c.rng.MinRaw + int(pct/100*span+0.5)
}

func (c *Control) rawToPercent(raw int) float64 {
	span := c.rng.MaxRaw - c.rng.MinRaw
	if span == 0 {
		return 0
	}
	return float64(raw-c.rng.MinRaw) / float64(span) * 100
}

// State returns the current volume as all three views (spec.md §6
// GET /volume/state and GET /volume/info).
func (c *Control) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Control) stateLocked() State {
	return State{
		Percentage: c.percentage,
		Decibels:   c.percentToDB(c.percentage),
		Raw:        c.percentToRaw(c.percentage),
		Muted:      c.muted,
	}
}

// SetRequest carries at most one of the three views; Set applies exactly
// one, preferring percentage, then decibels, then raw (spec.md §4.9).
type SetRequest struct {
	Percentage *float64
	Decibels   *float64
	Raw        *int
}

// Set applies req's highest-precedence field, clamping silently, and
// publishes VolumeChanged on success.
func (c *Control) Set(req SetRequest) State {
	c.mu.Lock()
	switch {
	case req.Percentage != nil:
		c.percentage = clamp(*req.Percentage, 0, 100)
	case req.Decibels != nil:
		c.percentage = clamp(c.dbToPercent(*req.Decibels), 0, 100)
	case req.Raw != nil:
		c.percentage = clamp(c.rawToPercent(*req.Raw), 0, 100)
	}
	if c.percentage > 0 {
		c.lastNonZero = c.percentage
		c.muted = false
	}
	state := c.stateLocked()
	c.mu.Unlock()

	c.publish(state)
	return state
}

// Increase raises percent by step (clamped at 100).
func (c *Control) Increase(step float64) State {
	c.mu.Lock()
	c.percentage = clamp(c.percentage+step, 0, 100)
	if c.percentage > 0 {
		c.lastNonZero = c.percentage
		c.muted = false
	}
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return state
}

// Decrease lowers percent by step (clamped at 0).
func (c *Control) Decrease(step float64) State {
	c.mu.Lock()
	c.percentage = clamp(c.percentage-step, 0, 100)
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return state
}

// Mute toggles between 0 and the last non-zero value (spec.md §4.9).
func (c *Control) Mute() State {
	c.mu.Lock()
	if c.percentage > 0 {
		c.lastNonZero = c.percentage
		c.percentage = 0
		c.muted = true
	} else {
		c.percentage = c.lastNonZero
		c.muted = false
	}
	state := c.stateLocked()
	c.mu.Unlock()
	c.publish(state)
	return state
}

func (c *Control) publish(state State) {
	pct, db, raw := state.Percentage, state.Decibels, state.Raw
	c.bus.Publish("", model.PlayerEvent{
		Type:             model.EventVolumeChanged,
		VolumePercentage: &pct,
		VolumeDecibels:   &db,
		VolumeRaw:        &raw,
	})
}
