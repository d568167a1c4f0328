package blocks

import (
	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/timer"
)

// AmrapBlock is a container whose countdown timer, not its loop decision,
// drives completion: rounds are unbounded (LoopAlways) and the tick handler
// is the sole authority that marks the block complete once the timer
// expires. This resolves the spec's open question about overlapping AMRAP
// completion signals: ShouldLoop is never consulted for completion, only for
// whether to dispatch another round while the clock still has time left.
type AmrapBlock struct {
	*ContainerCore
	Timer *timer.Capability

	unsubTick    block.Unsubscribe
	unsubPause   block.Unsubscribe
	unsubResume  block.Unsubscribe
}

// NewAmrap constructs an AmrapBlock with a fixed duration and unbounded
// rounds.
func NewAmrap(label string, durationMs uint32, sourceIDs []uint32, childGroups [][]uint32) *AmrapBlock {
	a := &AmrapBlock{
		ContainerCore: NewContainerCore("amrap", label, sourceIDs, childGroups, LoopAlways, nil),
		Timer:         timer.New(timer.Down, durationMs, label, timer.Primary),
	}
	a.Fragments().Add(fragment.Fragment{Type: fragment.Duration, Origin: fragment.OriginParser, Behavior: fragment.Defined, Value: durationMs})
	return a
}

// Mount implements block.Block: opens the timer, subscribes to tick and
// pause/resume, and dispatches the first child.
func (a *AmrapBlock) Mount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	a.Timer.OpenSpan(opts.Now(rt))
	a.unsubTick = rt.Events().Subscribe("tick", a.Key(), block.Capture, a.onTick)
	a.unsubPause = rt.Events().Subscribe("timer:pause", a.Key(), block.Bubble, func(rt block.Runtime, evt block.Event) []block.Action {
		a.Timer.Pause(evt.Timestamp)
		a.syncSpans()
		return nil
	})
	a.unsubResume = rt.Events().Subscribe("timer:resume", a.Key(), block.Bubble, func(rt block.Runtime, evt block.Event) []block.Action {
		a.Timer.Resume(evt.Timestamp)
		a.syncSpans()
		return nil
	})
	a.syncSpans()
	return a.MountFirstChild(opts)
}

func (a *AmrapBlock) onTick(rt block.Runtime, evt block.Event) []block.Action {
	if a.IsComplete() {
		return nil
	}
	now := evt.Timestamp
	a.syncSpans()
	if !a.Timer.IsExpired(now) {
		return nil
	}
	a.MarkComplete(block.TimerExpired)
	opts := block.LifecycleOptions{Clock: snapshotAt(now)}
	return []block.Action{
		actions.ClearChildrenAction{ParentKey: a.Key(), Opts: opts},
		actions.PopBlockAction{Opts: opts},
	}
}

func (a *AmrapBlock) syncSpans() {
	a.Fragments().ReplaceByType(fragment.Spans, fragment.Fragment{
		Type: fragment.Spans, Origin: fragment.OriginRuntime, Behavior: fragment.Recorded, Value: a.Timer.Spans,
	})
}

// Unmount implements block.Block: closes the timer span.
func (a *AmrapBlock) Unmount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	a.Timer.CloseSpan(opts.Now(rt))
	a.syncSpans()
	return nil
}

// Dispose implements block.Block.
func (a *AmrapBlock) Dispose(rt block.Runtime) {
	for _, unsub := range []block.Unsubscribe{a.unsubTick, a.unsubPause, a.unsubResume} {
		if unsub != nil {
			unsub()
		}
	}
	rt.Events().UnsubscribeOwner(a.Key())
	rt.Memory().ReleaseByOwner(string(a.Key()))
}

var _ block.Block = (*AmrapBlock)(nil)
