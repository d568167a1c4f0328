// Package blocks implements the eight typed block variants: GateBlock,
// TimerLeafBlock, EffortLeafBlock, SequentialContainerBlock, RoundLoopBlock,
// AmrapBlock, EmomBlock, and WorkoutRootBlock. The JIT factory produces the
// six other than GateBlock and WorkoutRootBlock, which are constructed
// directly (a root by its host, a gate by a root's Mount). All share the block.BaseBlock bookkeeping; containers
// additionally share ContainerCore's child-dispatch and loop-decision logic.
package blocks

import (
	"fmt"

	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/fragment"
)

// LoopCondition is the predicate a container evaluates on child exhaustion
// to decide whether to dispatch another round.
type LoopCondition int

const (
	// LoopNever never restarts: one pass through childGroups completes the
	// container.
	LoopNever LoopCondition = iota
	// LoopAlways restarts unconditionally.
	LoopAlways
	// LoopRoundsRemaining restarts while the count of completed rounds
	// (CurrentRound, just incremented) is below totalRounds, or totalRounds is
	// unbounded.
	LoopRoundsRemaining
	// LoopTimerActive restarts while the container's own completion has not
	// otherwise been triggered. No current variant uses it: AmrapBlock loops
	// with LoopAlways and EmomBlock replaces Next, since both complete via
	// their tick handler rather than via the loop decision.
	LoopTimerActive
)

// ContainerCore implements the dispatch-next-child and loop-decision logic
// shared by every container variant. Concrete containers embed *ContainerCore
// and may supply a ShouldLoop closure when the loop decision needs
// variant-specific state; none of the current variants sets one.
type ContainerCore struct {
	block.BaseBlock

	ChildGroups    [][]uint32
	ChildIndex     int
	CurrentRound   int
	TotalRounds    *int // nil = unbounded
	Condition      LoopCondition
	SkipFirstChild bool

	// ShouldLoop, when set, overrides Condition's default evaluation.
	ShouldLoop func(rt block.Runtime, opts block.LifecycleOptions) bool

	// OnRoundAdvance, when set, fires after CurrentRound is incremented but
	// before the next round's first child is dispatched, letting a variant
	// like RoundLoopBlock's rep scheme update a public memory entry the new
	// child will read on mount.
	OnRoundAdvance func(round int)
}

// NewContainerCore constructs a ContainerCore. totalRounds of nil means
// unbounded (AMRAP).
func NewContainerCore(blockType, label string, sourceIDs []uint32, childGroups [][]uint32, condition LoopCondition, totalRounds *int) *ContainerCore {
	return &ContainerCore{
		BaseBlock:    block.NewBaseBlock(blockType, label, sourceIDs, fragment.NewBucket()),
		ChildGroups:  childGroups,
		Condition:    condition,
		TotalRounds:  totalRounds,
		CurrentRound: 0,
	}
}

// DispatchNextChild returns a CompileAndPushBlockAction for the child group
// at ChildIndex and advances the cursor. It writes a runtime-origin
// CurrentRound fragment the first time a round begins.
func (c *ContainerCore) DispatchNextChild(opts block.LifecycleOptions) []block.Action {
	if c.ChildIndex == 0 {
		c.syncRoundFragment()
	}
	group := c.ChildGroups[c.ChildIndex]
	c.ChildIndex++
	return []block.Action{actions.CompileAndPushBlockAction{StatementIDs: group, Opts: opts}}
}

func (c *ContainerCore) syncRoundFragment() {
	label := fmt.Sprintf("Round %d", c.CurrentRound+1)
	if c.TotalRounds != nil {
		label = fmt.Sprintf("Round %d/%d", c.CurrentRound+1, *c.TotalRounds)
	}
	c.Fragments().ReplaceByType(fragment.CurrentRound, fragment.Fragment{
		Type:     fragment.CurrentRound,
		Origin:   fragment.OriginRuntime,
		Behavior: fragment.Defined,
		Value:    label,
	})
}

// ResetChildCursor rewinds ChildIndex to the start of ChildGroups without
// touching CurrentRound; used when restarting a round.
func (c *ContainerCore) ResetChildCursor() { c.ChildIndex = 0 }

// MountFirstChild dispatches the first child unless SkipFirstChild is set
// (used when a gate precedes the real children).
func (c *ContainerCore) MountFirstChild(opts block.LifecycleOptions) []block.Action {
	if c.SkipFirstChild || len(c.ChildGroups) == 0 {
		return nil
	}
	return c.DispatchNextChild(opts)
}

// Next implements the generic container loop-decision logic described in
// spec §4.7.4: dispatch the next child in this round, or evaluate
// ShouldLoop/Condition to decide whether to restart or complete.
func (c *ContainerCore) Next(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	if c.IsComplete() {
		return nil
	}
	if c.ChildIndex < len(c.ChildGroups) {
		return c.DispatchNextChild(opts)
	}

	c.CurrentRound++
	if c.shouldLoop(rt, opts) {
		if c.OnRoundAdvance != nil {
			c.OnRoundAdvance(c.CurrentRound)
		}
		c.ResetChildCursor()
		return c.DispatchNextChild(opts)
	}
	c.MarkComplete(block.ChildrenComplete)
	return []block.Action{actions.PopBlockAction{Opts: opts}}
}

func (c *ContainerCore) shouldLoop(rt block.Runtime, opts block.LifecycleOptions) bool {
	if c.ShouldLoop != nil {
		return c.ShouldLoop(rt, opts)
	}
	switch c.Condition {
	case LoopNever:
		return false
	case LoopAlways:
		return true
	case LoopRoundsRemaining:
		return c.TotalRounds == nil || c.CurrentRound < *c.TotalRounds
	case LoopTimerActive:
		return !c.IsComplete()
	default:
		return false
	}
}
