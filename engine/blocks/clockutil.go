package blocks

import "github.com/ironloop/wrkt/engine/clock"

// fixedClock adapts a single timestamp into a clock.Clock, so that a tick
// event's timestamp can be threaded through LifecycleOptions.Clock and keep
// a cascade of mounts/pops inside the same handler agreeing on "now".
type fixedClock struct {
	at clock.Timestamp
}

func (f fixedClock) Now() clock.Timestamp { return f.at }
func (f fixedClock) IsRunning() bool      { return true }

// snapshotAt wraps a timestamp so it can be passed as a LifecycleOptions
// clock override.
func snapshotAt(at clock.Timestamp) clock.Clock { return fixedClock{at: at} }
