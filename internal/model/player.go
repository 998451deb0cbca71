package model

import (
	"encoding/json"
	"sort"
	"time"
)

// PlaybackState is the coarse state of a player.
type PlaybackState string

const (
	StateUnknown PlaybackState = "unknown"
	StateStopped PlaybackState = "stopped"
	StatePaused  PlaybackState = "paused"
	StatePlaying PlaybackState = "playing"
	StateError   PlaybackState = "error"
)

// LoopMode is the repeat mode of a player.
type LoopMode string

const (
	LoopNone     LoopMode = "none"
	LoopTrack    LoopMode = "track"
	LoopPlaylist LoopMode = "playlist"
)

// Capability is a single control a player supports.
type Capability string

const (
	CapPlay       Capability = "play"
	CapPause      Capability = "pause"
	CapStop       Capability = "stop"
	CapNext       Capability = "next"
	CapPrevious   Capability = "previous"
	CapSeek       Capability = "seek"
	CapShuffle    Capability = "shuffle"
	CapLoop       Capability = "loop"
	CapAPIEvents  Capability = "api_events"
	CapLibrary    Capability = "library"
)

// CapabilitySet is an unordered set of Capability.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from a variadic list.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Slice returns the set as a sorted-for-determinism slice for JSON output.
func (s CapabilitySet) Slice() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted JSON array of capability strings,
// not the default object encoding `map[Capability]struct{}` would produce.
func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	caps := s.Slice()
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a JSON array of capability strings, the inverse of
// MarshalJSON.
func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	set := make(CapabilitySet, len(names))
	for _, n := range names {
		set[Capability(n)] = struct{}{}
	}
	*s = set
	return nil
}

// PlayerSnapshot is the fused, read-only view the Pipeline derives and
// publishes for one controller.
type PlayerSnapshot struct {
	ID                string         `json:"id"`
	DisplayName       string         `json:"display_name"`
	State             PlaybackState  `json:"state"`
	Shuffle           bool           `json:"shuffle"`
	LoopMode          LoopMode       `json:"loop_mode"`
	PositionSeconds   *float64       `json:"position_seconds,omitempty"`
	CurrentSong       *Song          `json:"current_song,omitempty"`
	LastSeen          time.Time      `json:"last_seen"`
	Capabilities      CapabilitySet  `json:"capabilities"`
	SupportsAPIEvents bool           `json:"supports_api_events"`
	IsActive          bool           `json:"is_active"`
	HasLibrary        bool           `json:"has_library"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep-enough copy safe to hand to a caller outside the
// pipeline's lock.
func (p PlayerSnapshot) Clone() PlayerSnapshot {
	cp := p
	if p.PositionSeconds != nil {
		v := *p.PositionSeconds
		cp.PositionSeconds = &v
	}
	if p.CurrentSong != nil {
		s := *p.CurrentSong
		cp.CurrentSong = &s
	}
	if p.Capabilities != nil {
		caps := make(CapabilitySet, len(p.Capabilities))
		for k := range p.Capabilities {
			caps[k] = struct{}{}
		}
		cp.Capabilities = caps
	}
	if p.Metadata != nil {
		md := make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			md[k] = v
		}
		cp.Metadata = md
	}
	return cp
}
