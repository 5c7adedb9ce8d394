package tocsync

import (
	"sync"
	"time"
)

// Clock schedules the grace-window timer.
type Clock interface {
	AfterFunc(d time.Duration, f func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// ManualClock is a Clock whose timers fire only when Fire is called.
type ManualClock struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

// AfterFunc queues f.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	c.pending = append(c.pending, f)
	c.delays = append(c.delays, d)
	c.mu.Unlock()
}

// Fire runs every queued timer and returns how many ran.
func (c *ManualClock) Fire() int {
	c.mu.Lock()
	fs := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range fs {
		f()
	}
	return len(fs)
}

// Delays returns the durations timers were scheduled with.
func (c *ManualClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.delays))
	copy(out, c.delays)
	return out
}
