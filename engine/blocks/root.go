package blocks

import (
	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/output"
	"github.com/ironloop/wrkt/engine/timer"
)

// WorkoutRootBlock wraps an entire session. It carries a primary count-up
// elapsed-time timer, standard Pause/Next/Stop action fragments, and
// optionally mounts a GateBlock first (skipping its own first child
// dispatch until the gate advances).
type WorkoutRootBlock struct {
	*ContainerCore
	Elapsed  *timer.Capability
	ShowGate bool
	GateName string
}

// NewWorkoutRoot constructs a WorkoutRootBlock. totalRounds <= 1 uses
// LoopNever; a larger value loops LoopRoundsRemaining.
func NewWorkoutRoot(label string, sourceIDs []uint32, childGroups [][]uint32, totalRounds int, showGate bool) *WorkoutRootBlock {
	condition := LoopNever
	var rounds *int
	if totalRounds > 1 {
		condition = LoopRoundsRemaining
		rounds = &totalRounds
	}
	root := &WorkoutRootBlock{
		ContainerCore: NewContainerCore("workout_root", label, sourceIDs, childGroups, condition, rounds),
		Elapsed:       timer.New(timer.Up, 0, label, timer.Primary),
		ShowGate:      showGate,
		GateName:      "next",
	}
	root.SkipFirstChild = showGate
	root.Fragments().AddAll([]fragment.Fragment{
		{Type: fragment.Action, Origin: fragment.OriginRuntime, Behavior: fragment.Defined, Value: map[string]string{"label": "Pause", "event": "timer:pause"}},
		{Type: fragment.Action, Origin: fragment.OriginRuntime, Behavior: fragment.Defined, Value: map[string]string{"label": "Next", "event": "next"}},
		{Type: fragment.Action, Origin: fragment.OriginRuntime, Behavior: fragment.Defined, Value: map[string]string{"label": "Stop", "event": "workout:stop"}},
	})
	return root
}

// Mount implements block.Block: opens the elapsed timer, emits a milestone
// output, pushes a gate if configured, and otherwise dispatches the first
// real child directly.
func (w *WorkoutRootBlock) Mount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	w.Elapsed.OpenSpan(opts.Now(rt))
	w.emitMilestone(rt, opts.Now(rt))

	if w.ShowGate {
		return []block.Action{actions.PushBlockAction{Blk: NewGate("Start", w.GateName, nil), Opts: opts}}
	}
	return w.MountFirstChild(opts)
}

// Unmount implements block.Block: closes the elapsed timer.
func (w *WorkoutRootBlock) Unmount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	w.Elapsed.CloseSpan(opts.Now(rt))
	return nil
}

// Dispose implements block.Block.
func (w *WorkoutRootBlock) Dispose(rt block.Runtime) {
	rt.Events().UnsubscribeOwner(w.Key())
	rt.Memory().ReleaseByOwner(string(w.Key()))
}

func (w *WorkoutRootBlock) emitMilestone(rt block.Runtime, now clock.Timestamp) {
	rt.AddOutput(&output.Statement{
		OutputType:     output.Milestone,
		TimeSpan:       output.Span{Started: now},
		SourceBlockKey: w.Key(),
		StackLevel:     0,
		Fragments:      w.Fragments().GetDisplayFragments(),
	})
}

var _ block.Block = (*WorkoutRootBlock)(nil)
