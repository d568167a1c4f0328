package blocks

import (
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/memory"
)

// RoundLoopBlock repeats its child groups for a fixed number of rounds,
// completing once CurrentRound (the count of finished rounds) reaches
// TotalRounds. It is the block behind
// fixed rep schemes like "3 Rounds { 5 Pullups }" and descending schemes like
// "21-15-9 { Thrusters }".
type RoundLoopBlock struct {
	*ContainerCore

	// RepScheme, when non-empty, is published as a public metric:reps memory
	// entry so each round's child can inherit a per-round target rep count
	// (e.g. 21, 15, 9). Index i beyond len(RepScheme)-1 holds at the last
	// value.
	RepScheme []int
	repRef    memory.Ref
	hasRepRef bool
}

// NewRoundLoop constructs a RoundLoopBlock with a finite round count.
func NewRoundLoop(label string, sourceIDs []uint32, childGroups [][]uint32, totalRounds int) *RoundLoopBlock {
	r := &RoundLoopBlock{
		ContainerCore: NewContainerCore("round_loop", label, sourceIDs, childGroups, LoopRoundsRemaining, &totalRounds),
	}
	r.OnRoundAdvance = func(round int) { r.syncRepScheme(round) }
	return r
}

// WithRepScheme attaches a descending (or arbitrary) per-round rep scheme.
func (r *RoundLoopBlock) WithRepScheme(scheme []int) *RoundLoopBlock {
	r.RepScheme = scheme
	return r
}

func (r *RoundLoopBlock) repAt(round int) (int, bool) {
	if len(r.RepScheme) == 0 {
		return 0, false
	}
	if round < 0 {
		round = 0
	}
	if round >= len(r.RepScheme) {
		round = len(r.RepScheme) - 1
	}
	return r.RepScheme[round], true
}

func (r *RoundLoopBlock) syncRepScheme(round int) {
	target, ok := r.repAt(round)
	if !ok {
		return
	}
	if r.hasRepRef {
		r.repRef.Set(target)
	}
}

// Mount implements block.Block: publishes round 1's rep target (if a rep
// scheme is configured) and dispatches the first child.
func (r *RoundLoopBlock) Mount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	if target, ok := r.repAt(0); ok {
		r.repRef = rt.Memory().Allocate(repSchemeType, string(r.Key()), target, memory.Public)
		r.hasRepRef = true
	}
	return r.MountFirstChild(opts)
}

// Unmount implements block.Block; a plain round loop has nothing to close.
func (r *RoundLoopBlock) Unmount(block.Runtime, block.LifecycleOptions) []block.Action { return nil }

// Dispose implements block.Block.
func (r *RoundLoopBlock) Dispose(rt block.Runtime) {
	rt.Events().UnsubscribeOwner(r.Key())
	rt.Memory().ReleaseByOwner(string(r.Key()))
}

var _ block.Block = (*RoundLoopBlock)(nil)
