// Package clock provides the injectable time source used throughout the
// workout runtime. No component reads wall-clock time directly: every
// timestamp stamped on a block, a timer span, or an output statement passes
// through a Clock so that execution stays deterministic and replayable in
// tests.
package clock

import "time"

// Timestamp is a monotonic millisecond timestamp. The runtime never
// interprets it as calendar time; it only compares and subtracts values
// produced by the same Clock.
type Timestamp int64

// Since returns the number of milliseconds between t and the later timestamp
// other. The result is negative if other precedes t.
func (t Timestamp) Since(other Timestamp) int64 {
	return int64(other - t)
}

// Add returns t advanced by delta.
func (t Timestamp) Add(delta int64) Timestamp {
	return t + Timestamp(delta)
}

type (
	// Clock is the injectable time source. Production code uses SystemClock;
	// tests use MockClock. A SnapshotClock wraps either to freeze `now` for the
	// duration of a single action batch.
	Clock interface {
		// Now returns the current timestamp.
		Now() Timestamp
		// IsRunning reports whether the clock is actively advancing. When it
		// reports false, PushBlock leaves a block's StartTime unset; timer
		// capabilities do not consult it and only pause on an explicit Pause.
		IsRunning() bool
	}

	// SystemClock is the production clock: it reads real wall-clock time and is
	// always running.
	SystemClock struct{}

	// MockClock is a controllable clock for tests. It never advances on its
	// own; call Advance to move time forward deterministically.
	MockClock struct {
		now     Timestamp
		running bool
	}

	// SnapshotClock freezes the wrapped clock's Now() at construction time so
	// every read within a single action batch observes the same instant, per
	// the runtime's snapshot-clock design rule.
	SnapshotClock struct {
		now     Timestamp
		running bool
	}
)

// NewSystemClock constructs a Clock backed by real wall-clock time.
func NewSystemClock() *SystemClock { return &SystemClock{} }

// Now returns the current wall-clock time in milliseconds.
func (SystemClock) Now() Timestamp { return Timestamp(time.Now().UnixMilli()) }

// IsRunning always reports true for the system clock.
func (SystemClock) IsRunning() bool { return true }

// NewMockClock constructs a MockClock starting at the given timestamp and
// running state. Tests typically start it running at 0.
func NewMockClock(start Timestamp, running bool) *MockClock {
	return &MockClock{now: start, running: running}
}

// Now returns the clock's current, test-controlled timestamp.
func (c *MockClock) Now() Timestamp { return c.now }

// IsRunning reports the test-controlled running state.
func (c *MockClock) IsRunning() bool { return c.running }

// Advance moves the clock forward by ms milliseconds. Negative values are
// ignored; time never moves backward.
func (c *MockClock) Advance(ms int64) {
	if ms <= 0 {
		return
	}
	c.now = c.now.Add(ms)
}

// Pause stops the clock from being reported as running, without changing Now.
func (c *MockClock) Pause() { c.running = false }

// Resume reports the clock as running again, without changing Now.
func (c *MockClock) Resume() { c.running = true }

// Snapshot freezes the clock's current reading into a SnapshotClock.
func Snapshot(c Clock) *SnapshotClock {
	return &SnapshotClock{now: c.Now(), running: c.IsRunning()}
}

// Now returns the frozen timestamp captured at construction.
func (s *SnapshotClock) Now() Timestamp { return s.now }

// IsRunning returns the frozen running state captured at construction.
func (s *SnapshotClock) IsRunning() bool { return s.running }
