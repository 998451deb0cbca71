// SPDX-License-Identifier: MIT

package pipeline

import (
	"time"

	"github.com/audiocontrol/acrd/internal/model"
)

// recomputeActiveLocked re-derives which controller is active and updates
// p.activeID in place. Caller must hold p.mu for writing. Returns whether
// the winner changed, the new winner id ("" for none) and the previous one.
//
// Election rule (spec.md §4.6 "Active-player election"):
//  1. Among controllers currently Playing, the one whose most recent
//     transition into Playing happened last wins.
//  2. If none are Playing, fall back to the controller that was most
//     recently seen in a non-Stopped, non-Unknown, non-Error state within
//     activeTTL of now (this is the decided Paused-eligibility policy:
//     see DESIGN.md's Open Question resolution).
//  3. Ties are broken by most recent last_seen, then lexicographic id.
func (p *Pipeline) recomputeActiveLocked(now time.Time) (changed bool, newActive, prevActive string) {
	prevActive = p.activeID

	var best *playerState
	for _, st := range p.states {
		if st.state != model.StatePlaying {
			continue
		}
		if best == nil || playingWinsOver(st, best) {
			best = st
		}
	}

	if best == nil {
		best = p.fallbackCandidateLocked(now)
	}

	newActive = ""
	if best != nil {
		newActive = best.id
	}

	if newActive != prevActive {
		p.activeID = newActive
		return true, newActive, prevActive
	}
	return false, newActive, prevActive
}

func playingWinsOver(candidate, current *playerState) bool {
	if candidate.transitionToPlayingAt.After(current.transitionToPlayingAt) {
		return true
	}
	if candidate.transitionToPlayingAt.Equal(current.transitionToPlayingAt) {
		return tieBreak(candidate, current)
	}
	return false
}

func tieBreak(candidate, current *playerState) bool {
	if candidate.lastSeen.After(current.lastSeen) {
		return true
	}
	if candidate.lastSeen.Equal(current.lastSeen) {
		return candidate.id < current.id
	}
	return false
}

func (p *Pipeline) fallbackCandidateLocked(now time.Time) *playerState {
	var best *playerState
	for _, st := range p.states {
		switch st.state {
		case model.StateStopped, model.StateUnknown, model.StateError:
			continue
		}
		if p.activeTTL > 0 && now.Sub(st.lastSeen) > p.activeTTL {
			continue
		}
		if best == nil || tieBreak(st, best) {
			best = st
		}
	}
	return best
}
