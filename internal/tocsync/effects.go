package tocsync

import (
	"sync"
	"time"
)

// EffectKind names a change the page must apply.
type EffectKind string

const (
	// EffectOpen sets the "open" marker on both the nav button and the panel
	// wrapper.
	EffectOpen EffectKind = "open"
	// EffectSpeed sets the reveal/hide animation speeds.
	EffectSpeed EffectKind = "speed"
	// EffectHighlight moves the highlight and sets the expanded entries.
	EffectHighlight EffectKind = "highlight"
	// EffectReplaceHash replaces the location hash without adding history.
	EffectReplaceHash EffectKind = "replace_hash"
	// EffectRecalculateHeights asks the page to re-measure anchor offsets and
	// report them back as a heights event.
	EffectRecalculateHeights EffectKind = "recalculate_heights"
)

// Effect is one instruction for the page.
type Effect struct {
	Kind EffectKind `json:"kind"`

	Open        bool     `json:"open,omitempty"`
	ShowSpeedMS int64    `json:"show_speed_ms"`
	HideSpeedMS int64    `json:"hide_speed_ms"`
	ActiveID    string   `json:"active_id,omitempty"`
	Expanded    []string `json:"expanded,omitempty"`
	Hash        string   `json:"hash,omitempty"`
}

func speedEffect(show, hide time.Duration) Effect {
	return Effect{Kind: EffectSpeed, ShowSpeedMS: show.Milliseconds(), HideSpeedMS: hide.Milliseconds()}
}

// Sink receives effects in the order the session produces them.
type Sink interface {
	Apply(Effect)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Effect)

// Apply calls f(e).
func (f SinkFunc) Apply(e Effect) { f(e) }

// Recorder is a Sink that keeps every effect. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	effects []Effect
}

// Apply records e.
func (r *Recorder) Apply(e Effect) {
	r.mu.Lock()
	r.effects = append(r.effects, e)
	r.mu.Unlock()
}

// Effects returns a copy of everything recorded so far.
func (r *Recorder) Effects() []Effect {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Count returns how many effects of kind k were recorded.
func (r *Recorder) Count(k EffectKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.effects {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Last returns the most recent effect of kind k.
func (r *Recorder) Last(k EffectKind) (Effect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.effects) - 1; i >= 0; i-- {
		if r.effects[i].Kind == k {
			return r.effects[i], true
		}
	}
	return Effect{}, false
}
