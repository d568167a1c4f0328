package blocks

import (
	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/memory"
	"github.com/ironloop/wrkt/engine/timer"
)

// repSchemeType is the memory entry type a container publishes to feed its
// children an inherited rep target (e.g. a 21-15-9 rep scheme), per the
// public-memory parent-to-child channel described in the memory contract.
const repSchemeType = "metric:reps"

// EffortLeafBlock is a leaf tracking reps against a target, with a secondary
// count-up timer for informational elapsed time. A zero TargetReps completes
// on first Next with TargetAchieved, per the boundary behavior in spec §8.
type EffortLeafBlock struct {
	block.BaseBlock
	ExerciseName string
	TargetReps   int
	CurrentReps  int
	Elapsed      *timer.Capability

	unsubNext block.Unsubscribe
}

// NewEffortLeaf constructs an EffortLeafBlock.
func NewEffortLeaf(exerciseName string, targetReps int, sourceIDs []uint32) *EffortLeafBlock {
	e := &EffortLeafBlock{
		BaseBlock:    block.NewBaseBlock("effort_leaf", exerciseName, sourceIDs, fragment.NewBucket()),
		ExerciseName: exerciseName,
		TargetReps:   targetReps,
		Elapsed:      timer.New(timer.Up, 0, exerciseName, timer.Secondary),
	}
	e.Fragments().Add(fragment.Fragment{Type: fragment.Effort, Origin: fragment.OriginParser, Behavior: fragment.Defined, Value: exerciseName})
	e.Fragments().Add(fragment.Fragment{Type: fragment.Rep, Origin: fragment.OriginParser, Behavior: fragment.Defined, Value: targetReps})
	return e
}

// IncrementRep increments CurrentReps, capped at TargetReps, and syncs the
// Recorded rep fragment.
func (e *EffortLeafBlock) IncrementRep() {
	e.SetReps(e.CurrentReps + 1)
}

// SetReps clamps n to [0, TargetReps] and syncs the Recorded rep fragment.
func (e *EffortLeafBlock) SetReps(n int) {
	if n < 0 {
		n = 0
	}
	if n > e.TargetReps {
		n = e.TargetReps
	}
	e.CurrentReps = n
	e.Fragments().Add(fragment.Fragment{
		Type:     fragment.Rep,
		Origin:   fragment.OriginRuntime,
		Behavior: fragment.Recorded,
		Value:    map[string]int{"current": e.CurrentReps, "target": e.TargetReps},
	})
}

// Mount implements block.Block: opens the informational elapsed timer,
// inherits a published rep target, and subscribes to the "next" event, which
// completes the leaf.
func (e *EffortLeafBlock) Mount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	e.Elapsed.OpenSpan(opts.Now(rt))
	e.inheritRepScheme(rt)
	e.unsubNext = rt.Events().Subscribe("next", e.Key(), block.Bubble, func(rt block.Runtime, _ block.Event) []block.Action {
		return e.Next(rt, block.LifecycleOptions{})
	})
	return nil
}

// inheritRepScheme overrides TargetReps from a public metric:reps memory
// entry, if the enclosing container has published one (e.g. a 21-15-9 rep
// scheme driving each round's child).
func (e *EffortLeafBlock) inheritRepScheme(rt block.Runtime) {
	public := memory.Public
	refs := rt.Memory().Search(memory.Criteria{Type: repSchemeType, VisibilityFilter: &public})
	if len(refs) == 0 {
		return
	}
	if target, ok := refs[0].Get().(int); ok {
		e.TargetReps = target
		e.Fragments().ReplaceByType(fragment.Rep, fragment.Fragment{
			Type: fragment.Rep, Origin: fragment.OriginAnalyzed, Behavior: fragment.Defined, Value: target,
		})
	}
}

// Next implements block.Block: TargetAchieved if CurrentReps has met
// TargetReps, else UserAdvance.
func (e *EffortLeafBlock) Next(_ block.Runtime, opts block.LifecycleOptions) []block.Action {
	if e.IsComplete() {
		return nil
	}
	if e.CurrentReps >= e.TargetReps {
		e.MarkComplete(block.TargetAchieved)
	} else {
		e.MarkComplete(block.UserAdvance)
	}
	return []block.Action{actions.PopBlockAction{Opts: opts}}
}

// Unmount implements block.Block: closes the elapsed span.
func (e *EffortLeafBlock) Unmount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	e.Elapsed.CloseSpan(opts.Now(rt))
	return nil
}

// Dispose implements block.Block.
func (e *EffortLeafBlock) Dispose(rt block.Runtime) {
	if e.unsubNext != nil {
		e.unsubNext()
	}
	rt.Events().UnsubscribeOwner(e.Key())
	rt.Memory().ReleaseByOwner(string(e.Key()))
}

var _ block.Block = (*EffortLeafBlock)(nil)
