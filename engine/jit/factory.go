package jit

import (
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/blocks"
)

// Factory is the concrete JIT block factory, dispatching a resolved
// statement group to a concrete block variant by the priority table in
// spec §4.6. It never mutates the script: repeated compilation of the same
// IDs yields behaviorally identical blocks (distinct keys are fine).
type Factory struct{}

// New constructs a Factory.
func New() *Factory { return &Factory{} }

// Compile implements block.Compiler.
func (f *Factory) Compile(rt block.Runtime, ids []uint32) (block.Block, bool) {
	statements := rt.Script().GetIDs(ids)
	if len(statements) == 0 {
		return nil, false
	}
	a := analyze(statements)
	label := a.label
	if label == "" {
		label = a.effort
	}

	switch {
	case a.hasDuration && a.isEmom:
		intervalMs := a.durationMs
		rounds := a.totalRounds
		if rounds == 0 {
			rounds = 1
		}
		var childGroup []uint32
		if len(a.childGroups) > 0 {
			childGroup = a.childGroups[0]
		}
		return blocks.NewEmom(label, intervalMs, rounds, ids, childGroup), true

	case a.hasDuration && (a.isAmrap || a.hasRounds):
		return blocks.NewAmrap(label, a.durationMs, ids, a.childGroups), true

	case a.hasDuration && a.hasChildren:
		// Duration + children without an explicit AMRAP/EMOM hint: preserved
		// as the spec's priority-50 AMRAP fallback (countdown-gated loop).
		return blocks.NewAmrap(label, a.durationMs, ids, a.childGroups), true

	case a.hasDuration:
		return blocks.NewTimerLeaf(label, a.durationMs, false, ids), true

	case a.hasRounds:
		rl := blocks.NewRoundLoop(label, ids, a.childGroups, a.totalRounds)
		if len(a.repScheme) > 0 {
			rl.WithRepScheme(a.repScheme)
		}
		return rl, true

	case a.hasChildren:
		return blocks.NewSequentialContainer(label, ids, a.childGroups), true

	default:
		return blocks.NewEffortLeaf(label, a.repTarget, ids), true
	}
}

var _ block.Compiler = (*Factory)(nil)
