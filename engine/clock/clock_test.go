package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironloop/wrkt/engine/clock"
)

func TestMockClockAdvance(t *testing.T) {
	c := clock.NewMockClock(0, true)
	assert.EqualValues(t, 0, c.Now())
	c.Advance(1000)
	assert.EqualValues(t, 1000, c.Now())
	c.Advance(-500)
	assert.EqualValues(t, 1000, c.Now(), "negative advance is a no-op")
}

func TestMockClockPauseResume(t *testing.T) {
	c := clock.NewMockClock(0, true)
	assert.True(t, c.IsRunning())
	c.Pause()
	assert.False(t, c.IsRunning())
	c.Advance(10)
	assert.EqualValues(t, 10, c.Now(), "pausing does not stop Advance from moving time")
	c.Resume()
	assert.True(t, c.IsRunning())
}

func TestSnapshotClockFreezesNow(t *testing.T) {
	c := clock.NewMockClock(500, true)
	snap := clock.Snapshot(c)
	c.Advance(1000)
	assert.EqualValues(t, 500, snap.Now(), "snapshot must not observe later advances")
	assert.EqualValues(t, 1500, c.Now())
}
