// Package timer implements TimeSpan and TimerCapability, the shared
// count-up/count-down primitive composed by every timer-bearing block.
package timer

import "github.com/ironloop/wrkt/engine/clock"

// Direction distinguishes a count-down (Down) timer, which tracks remaining
// time toward a fixed duration, from a count-up (Up) timer, which has no
// fixed endpoint.
type Direction int

const (
	// Up counts elapsed time with no fixed endpoint (e.g. a workout's overall
	// elapsed-time clock, or an effort's secondary rep timer).
	Up Direction = iota
	// Down counts down toward a fixed DurationMs (e.g. a countdown timer leaf).
	Down
)

// Role distinguishes the primary timer driving a block's own completion
// (Primary) from a secondary informational timer (Secondary) and an
// auto-managed timer a container opens on behalf of children (Auto).
type Role int

const (
	// Primary timers drive their owning block's own completion.
	Primary Role = iota
	// Secondary timers are informational only.
	Secondary
	// Auto timers are opened/closed automatically by container logic.
	Auto
)

// Span is a half-open time interval [Started, Ended). A span with no Ended
// value is open.
type Span struct {
	Started clock.Timestamp
	Ended   *clock.Timestamp
}

// Open reports whether the span has no Ended timestamp yet.
func (s Span) Open() bool { return s.Ended == nil }

// Duration returns Ended-Started if closed, or now-Started if open.
func (s Span) Duration(now clock.Timestamp) int64 {
	if s.Ended != nil {
		return s.Started.Since(*s.Ended)
	}
	return s.Started.Since(now)
}

// Capability is the timer state owned by a timer-bearing block: direction,
// optional fixed duration, display label, role, and the list of spans opened
// and closed over the block's lifetime.
//
// Invariant: at most one span is open at a time. ElapsedMs is monotonically
// non-decreasing while running, and constant while paused.
type Capability struct {
	Direction  Direction
	DurationMs uint32
	Label      string
	Role       Role
	Spans      []Span
}

// New constructs a Capability. durationMs is only meaningful for Down timers.
func New(dir Direction, durationMs uint32, label string, role Role) *Capability {
	return &Capability{Direction: dir, DurationMs: durationMs, Label: label, Role: role}
}

// OpenSpan opens a new span at now. If a span is already open, this is a
// no-op: callers must Pause before Resume to avoid overlapping spans.
func (c *Capability) OpenSpan(now clock.Timestamp) {
	if len(c.Spans) > 0 && c.Spans[len(c.Spans)-1].Open() {
		return
	}
	c.Spans = append(c.Spans, Span{Started: now})
}

// CloseSpan closes the currently open span at now, if any.
func (c *Capability) CloseSpan(now clock.Timestamp) {
	if len(c.Spans) == 0 {
		return
	}
	last := &c.Spans[len(c.Spans)-1]
	if last.Open() {
		t := now
		last.Ended = &t
	}
}

// Pause is an alias for CloseSpan.
func (c *Capability) Pause(now clock.Timestamp) { c.CloseSpan(now) }

// Resume is an alias for OpenSpan.
func (c *Capability) Resume(now clock.Timestamp) { c.OpenSpan(now) }

// ResetSpans discards all recorded spans (used by a container that resets
// its own interval timer between rounds, e.g. EMOM interval resets).
func (c *Capability) ResetSpans() { c.Spans = nil }

// IsRunning reports whether a span is currently open.
func (c *Capability) IsRunning() bool {
	return len(c.Spans) > 0 && c.Spans[len(c.Spans)-1].Open()
}

// ElapsedMs returns the sum of all closed span durations plus, if a span is
// open, the duration from its start to now.
func (c *Capability) ElapsedMs(now clock.Timestamp) int64 {
	var total int64
	for _, s := range c.Spans {
		if s.Ended != nil {
			total += s.Started.Since(*s.Ended)
		} else {
			total += s.Started.Since(now)
		}
	}
	return total
}

// RemainingMs returns DurationMs-ElapsedMs for a Down timer. Up timers return
// 0 always.
func (c *Capability) RemainingMs(now clock.Timestamp) int64 {
	if c.Direction != Down {
		return 0
	}
	remaining := int64(c.DurationMs) - c.ElapsedMs(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether a Down timer has consumed its full duration.
// A zero-duration timer is expired immediately upon opening.
func (c *Capability) IsExpired(now clock.Timestamp) bool {
	if c.Direction != Down {
		return false
	}
	return c.ElapsedMs(now) >= int64(c.DurationMs)
}
