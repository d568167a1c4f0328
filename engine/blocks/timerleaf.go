package blocks

import (
	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/timer"
)

// TimerLeafBlock is a countdown leaf with a fixed duration. It completes
// with TimerExpired when its timer runs out, or with UserAdvance on "next"
// if AllowSkip is set.
type TimerLeafBlock struct {
	block.BaseBlock
	Timer     *timer.Capability
	AllowSkip bool

	unsubTick block.Unsubscribe
	unsubNext block.Unsubscribe
}

// NewTimerLeaf constructs a TimerLeafBlock.
func NewTimerLeaf(label string, durationMs uint32, allowSkip bool, sourceIDs []uint32) *TimerLeafBlock {
	t := &TimerLeafBlock{
		BaseBlock: block.NewBaseBlock("timer_leaf", label, sourceIDs, fragment.NewBucket()),
		Timer:     timer.New(timer.Down, durationMs, label, timer.Primary),
		AllowSkip: allowSkip,
	}
	t.Fragments().Add(fragment.Fragment{Type: fragment.Duration, Origin: fragment.OriginParser, Behavior: fragment.Defined, Value: durationMs})
	return t
}

// Mount implements block.Block: opens the timer span and subscribes to tick.
func (t *TimerLeafBlock) Mount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	t.Timer.OpenSpan(opts.Now(rt))
	t.unsubTick = rt.Events().Subscribe("tick", t.Key(), block.Capture, t.onTick)
	if t.AllowSkip {
		t.unsubNext = rt.Events().Subscribe("next", t.Key(), block.Bubble, func(rt block.Runtime, _ block.Event) []block.Action {
			return t.Next(rt, block.LifecycleOptions{})
		})
	}
	t.syncSpans()
	return nil
}

func (t *TimerLeafBlock) onTick(rt block.Runtime, evt block.Event) []block.Action {
	if t.IsComplete() {
		return nil
	}
	now := evt.Timestamp
	t.syncSpans()
	if t.Timer.IsExpired(now) {
		t.MarkComplete(block.TimerExpired)
		return []block.Action{actions.PopBlockAction{Opts: block.LifecycleOptions{Clock: snapshotAt(now)}}}
	}
	return nil
}

// Next implements block.Block: ignored unless AllowSkip.
func (t *TimerLeafBlock) Next(_ block.Runtime, opts block.LifecycleOptions) []block.Action {
	if t.IsComplete() || !t.AllowSkip {
		return nil
	}
	t.MarkComplete(block.UserAdvance)
	return []block.Action{actions.PopBlockAction{Opts: opts}}
}

// Unmount implements block.Block: closes the span and writes final spans.
func (t *TimerLeafBlock) Unmount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	t.Timer.CloseSpan(opts.Now(rt))
	t.syncSpans()
	return nil
}

// Dispose implements block.Block.
func (t *TimerLeafBlock) Dispose(rt block.Runtime) {
	if t.unsubTick != nil {
		t.unsubTick()
	}
	if t.unsubNext != nil {
		t.unsubNext()
	}
	rt.Events().UnsubscribeOwner(t.Key())
	rt.Memory().ReleaseByOwner(string(t.Key()))
}

func (t *TimerLeafBlock) syncSpans() {
	t.Fragments().ReplaceByType(fragment.Spans, fragment.Fragment{
		Type:     fragment.Spans,
		Origin:   fragment.OriginRuntime,
		Behavior: fragment.Recorded,
		Value:    t.Timer.Spans,
	})
}

var _ block.Block = (*TimerLeafBlock)(nil)
