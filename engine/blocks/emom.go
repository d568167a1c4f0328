package blocks

import (
	"fmt"

	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/timer"
)

// EmomBlock is an interval timer bounded to a fixed number of rounds. Round
// advance is driven entirely by tick: the interval timer resets, the round
// counter advances, any child still running at the boundary is torn down
// via ClearChildrenAction, and the next round's child is re-dispatched. A
// child that completes early simply waits for the next interval boundary —
// Next is a no-op, unlike the generic container loop.
type EmomBlock struct {
	*ContainerCore
	ChildGroup []uint32
	IntervalMs uint32
	Timer      *timer.Capability

	unsubTick block.Unsubscribe
}

// NewEmom constructs an EmomBlock with totalRounds fixed intervals.
func NewEmom(label string, intervalMs uint32, totalRounds int, sourceIDs []uint32, childGroup []uint32) *EmomBlock {
	e := &EmomBlock{
		ContainerCore: NewContainerCore("emom", label, sourceIDs, [][]uint32{childGroup}, LoopNever, &totalRounds),
		ChildGroup:    childGroup,
		IntervalMs:    intervalMs,
		Timer:         timer.New(timer.Down, intervalMs, label, timer.Primary),
	}
	e.Fragments().Add(fragment.Fragment{Type: fragment.Duration, Origin: fragment.OriginParser, Behavior: fragment.Defined, Value: intervalMs})
	e.Fragments().Add(fragment.Fragment{Type: fragment.Rounds, Origin: fragment.OriginParser, Behavior: fragment.Defined, Value: totalRounds})
	return e
}

// Mount implements block.Block: opens the interval timer, subscribes to
// tick, and dispatches round 1's child.
func (e *EmomBlock) Mount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	e.Timer.OpenSpan(opts.Now(rt))
	e.unsubTick = rt.Events().Subscribe("tick", e.Key(), block.Capture, e.onTick)
	e.syncRound()
	return e.MountFirstChild(opts)
}

// Next implements block.Block: a child that pops before the interval
// boundary does not trigger an early round advance; EMOM waits for tick.
func (e *EmomBlock) Next(block.Runtime, block.LifecycleOptions) []block.Action { return nil }

func (e *EmomBlock) onTick(rt block.Runtime, evt block.Event) []block.Action {
	if e.IsComplete() {
		return nil
	}
	now := evt.Timestamp
	e.syncSpans()
	if !e.Timer.IsExpired(now) {
		return nil
	}

	opts := block.LifecycleOptions{Clock: snapshotAt(now)}
	wasFinalRound := e.CurrentRound+1 >= *e.TotalRounds
	if wasFinalRound {
		e.MarkComplete(block.RoundsExhausted)
		return []block.Action{
			actions.ClearChildrenAction{ParentKey: e.Key(), Opts: opts},
			actions.PopBlockAction{Opts: opts},
		}
	}

	e.CurrentRound++
	e.Timer.ResetSpans()
	e.Timer.OpenSpan(now)
	e.syncRound()
	e.syncSpans()
	return []block.Action{
		actions.ClearChildrenAction{ParentKey: e.Key(), Opts: opts},
		actions.CompileAndPushBlockAction{StatementIDs: e.ChildGroup, Opts: opts},
	}
}

func (e *EmomBlock) syncRound() {
	total := 0
	if e.TotalRounds != nil {
		total = *e.TotalRounds
	}
	e.Fragments().ReplaceByType(fragment.CurrentRound, fragment.Fragment{
		Type: fragment.CurrentRound, Origin: fragment.OriginRuntime, Behavior: fragment.Defined,
		Value: fmt.Sprintf("Round %d/%d", e.CurrentRound+1, total),
	})
	e.Fragments().ReplaceByType("is_final_round", fragment.Fragment{
		Type: "is_final_round", Origin: fragment.OriginAnalyzed, Behavior: fragment.Calculated,
		Value: e.CurrentRound+1 >= total,
	})
}

func (e *EmomBlock) syncSpans() {
	e.Fragments().ReplaceByType(fragment.Spans, fragment.Fragment{
		Type: fragment.Spans, Origin: fragment.OriginRuntime, Behavior: fragment.Recorded, Value: e.Timer.Spans,
	})
}

// Unmount implements block.Block: closes the interval timer's open span.
func (e *EmomBlock) Unmount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	e.Timer.CloseSpan(opts.Now(rt))
	e.syncSpans()
	return nil
}

// Dispose implements block.Block.
func (e *EmomBlock) Dispose(rt block.Runtime) {
	if e.unsubTick != nil {
		e.unsubTick()
	}
	rt.Events().UnsubscribeOwner(e.Key())
	rt.Memory().ReleaseByOwner(string(e.Key()))
}

var _ block.Block = (*EmomBlock)(nil)
