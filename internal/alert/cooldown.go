package alert

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum time between repeated alerts of the
// same (severity, metric) kind.
const DefaultCooldown = 5 * time.Minute

// compactAbove bounds the registry. The metric space is small and
// static, so this triggers only when something generates unexpected keys.
const compactAbove = 64

// Cooldown rate-limits alerts to one per (severity, metric) key per
// window. It does not distinguish alert instances by value: two
// different readings violating the same threshold within the window
// collapse into one dispatch.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewCooldown creates a Cooldown with the given window.
// A non-positive window means DefaultCooldown.
func NewCooldown(window time.Duration) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}
	return &Cooldown{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// Allow reports whether the candidate may be dispatched at time now.
// When it returns true it records now as the key's last fire time, so
// the identical candidate is suppressed until the window elapses.
func (c *Cooldown) Allow(cand Candidate, now time.Time) bool {
	key := cand.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.last[key]; ok && now.Sub(ts) < c.window {
		return false
	}

	c.last[key] = now

	if len(c.last) > compactAbove {
		c.compact(now)
	}

	return true
}

// compact drops keys whose cooldown already elapsed. Caller holds mu.
func (c *Cooldown) compact(now time.Time) {
	for k, ts := range c.last {
		if now.Sub(ts) >= c.window {
			delete(c.last, k)
		}
	}
}

// Len returns the number of keys currently tracked.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}
