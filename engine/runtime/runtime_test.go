package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironloop/wrkt/engine/action"
	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/blockkey"
	"github.com/ironloop/wrkt/engine/blocks"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/output"
	"github.com/ironloop/wrkt/engine/runtime"
	"github.com/ironloop/wrkt/engine/script"
)

func statement(id uint32, fragments []script.StatementFragment, children [][]uint32, hints ...string) script.Statement {
	var hintSet map[string]struct{}
	if len(hints) > 0 {
		hintSet = make(map[string]struct{}, len(hints))
		for _, h := range hints {
			hintSet[h] = struct{}{}
		}
	}
	return script.Statement{ID: id, Fragments: fragments, Children: children, Hints: hintSet}
}

func frag(kind string, value any) script.StatementFragment {
	return script.StatementFragment{Type: kind, Value: value}
}

// Scenario 1: "3 Rounds { 5 Pullups }" — three child dispatches of the
// effort leaf, then the parent completes children-complete with a
// stackLevel=0 completion record.
func TestThreeRoundFixedLoop(t *testing.T) {
	mc := clock.NewMockClock(0, true)
	scr := script.NewStatic([]script.Statement{
		statement(1, []script.StatementFragment{frag("rounds", 3)}, [][]uint32{{2}}),
		statement(2, []script.StatementFragment{frag("effort", "Pullups"), frag("rep", 5)}, nil),
	})
	rt := runtime.New(runtime.WithClock(mc), runtime.WithScript(scr))

	rt.Do(actions.CompileAndPushBlockAction{StatementIDs: []uint32{1}})
	root, ok := rt.Stack().Current()
	require.True(t, ok)
	roundLoop, ok := root.(*blocks.RoundLoopBlock)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		top, ok := rt.Stack().Current()
		require.True(t, ok)
		effort, ok := top.(*blocks.EffortLeafBlock)
		require.True(t, ok)
		effort.SetReps(5)
		rt.Handle(block.Event{Name: "next", Timestamp: mc.Now()})
	}

	_, onStack := rt.Stack().Current()
	assert.False(t, onStack)
	assert.True(t, roundLoop.IsComplete())
	reason, _ := roundLoop.CompletionReason()
	assert.Equal(t, block.ChildrenComplete, reason)

	var rootCompletion *output.Statement
	for _, stmt := range rt.Output().Entries() {
		if stmt.SourceBlockKey == roundLoop.Key() && stmt.OutputType == output.Completion {
			rootCompletion = stmt
		}
	}
	require.NotNil(t, rootCompletion)
	assert.Equal(t, 0, rootCompletion.StackLevel)
}

// Scenario 2: "10:00 AMRAP { 5 Pullups, 10 Pushups }" — a tick past expiry
// while a child is active tears the child down and then pops the AMRAP.
func TestAmrapTimerExpiryMidChild(t *testing.T) {
	mc := clock.NewMockClock(0, true)
	scr := script.NewStatic([]script.Statement{
		statement(1, []script.StatementFragment{frag("duration", uint32(600000))}, [][]uint32{{2}, {3}}, "amrap"),
		statement(2, []script.StatementFragment{frag("effort", "Pullups"), frag("rep", 5)}, nil),
		statement(3, []script.StatementFragment{frag("effort", "Pushups"), frag("rep", 10)}, nil),
	})
	rt := runtime.New(runtime.WithClock(mc), runtime.WithScript(scr))

	rt.Do(actions.CompileAndPushBlockAction{StatementIDs: []uint32{1}})
	root, ok := rt.Stack().Current()
	require.True(t, ok)
	amrap, ok := root.(*blocks.AmrapBlock)
	require.True(t, ok)

	// First child (pullups) pops, second child (pushups) is dispatched and
	// left active.
	rt.Do(actions.PopBlockAction{})
	top, ok := rt.Stack().Current()
	require.True(t, ok)
	_, ok = top.(*blocks.EffortLeafBlock)
	require.True(t, ok)

	mc.Advance(600001)
	rt.Handle(block.Event{Name: "tick", Timestamp: mc.Now()})

	_, onStack := rt.Stack().Current()
	assert.False(t, onStack)
	reason, _ := amrap.CompletionReason()
	assert.Equal(t, block.TimerExpired, reason)

	var completions []blockkey.Key
	for _, stmt := range rt.Output().Entries() {
		if stmt.OutputType == output.Completion {
			completions = append(completions, stmt.SourceBlockKey)
		}
	}
	require.Len(t, completions, 3) // pullups child, pushups child, amrap itself
	assert.Equal(t, amrap.Key(), completions[len(completions)-1])
}

// Scenario 3: "EMOM 3 { 3 Cleans }" — round advance and final completion are
// driven exclusively by tick, never by the child popping early.
func TestEmomIntervalAdvance(t *testing.T) {
	mc := clock.NewMockClock(0, true)
	scr := script.NewStatic([]script.Statement{
		statement(1, []script.StatementFragment{frag("duration", uint32(60000)), frag("rounds", 3)}, [][]uint32{{2}}, "emom"),
		statement(2, []script.StatementFragment{frag("effort", "Cleans"), frag("rep", 3)}, nil),
	})
	rt := runtime.New(runtime.WithClock(mc), runtime.WithScript(scr))

	rt.Do(actions.CompileAndPushBlockAction{StatementIDs: []uint32{1}})
	root, ok := rt.Stack().Current()
	require.True(t, ok)
	emom, ok := root.(*blocks.EmomBlock)
	require.True(t, ok)
	require.Equal(t, 2, rt.Stack().Depth()) // emom + round 1 child

	for round := 0; round < 2; round++ {
		mc.Advance(60000)
		rt.Handle(block.Event{Name: "tick", Timestamp: mc.Now()})
		assert.False(t, emom.IsComplete())
		assert.Equal(t, 2, rt.Stack().Depth()) // emom + re-dispatched child
	}

	mc.Advance(60000)
	rt.Handle(block.Event{Name: "tick", Timestamp: mc.Now()})
	assert.True(t, emom.IsComplete())
	reason, _ := emom.CompletionReason()
	assert.Equal(t, block.RoundsExhausted, reason)
	_, onStack := rt.Stack().Current()
	assert.False(t, onStack)
}

// Scenario 4: "21-15-9 { Thrusters }" — each round's effort leaf inherits a
// rep target from the parent's public metric:reps memory entry.
func TestRepSchemeInheritance(t *testing.T) {
	mc := clock.NewMockClock(0, true)
	scr := script.NewStatic([]script.Statement{
		statement(1, []script.StatementFragment{frag("rounds", 3), frag("rep_scheme", []int{21, 15, 9})}, [][]uint32{{2}}),
		statement(2, []script.StatementFragment{frag("effort", "Thrusters")}, nil),
	})
	rt := runtime.New(runtime.WithClock(mc), runtime.WithScript(scr))

	rt.Do(actions.CompileAndPushBlockAction{StatementIDs: []uint32{1}})
	root, ok := rt.Stack().Current()
	require.True(t, ok)
	roundLoop, ok := root.(*blocks.RoundLoopBlock)
	require.True(t, ok)

	for _, want := range []int{21, 15, 9} {
		top, ok := rt.Stack().Current()
		require.True(t, ok)
		effort, ok := top.(*blocks.EffortLeafBlock)
		require.True(t, ok)
		assert.Equal(t, want, effort.TargetReps)
		effort.SetReps(want)
		rt.Handle(block.Event{Name: "next", Timestamp: mc.Now()})
	}
	assert.True(t, roundLoop.IsComplete())
}

// Scenario 5: a gated root skips its first child dispatch until the gate
// advances.
func TestGateThenRun(t *testing.T) {
	mc := clock.NewMockClock(0, true)
	scr := script.NewStatic([]script.Statement{
		statement(2, []script.StatementFragment{frag("effort", "Pushups"), frag("rep", 10)}, nil),
	})
	rt := runtime.New(runtime.WithClock(mc), runtime.WithScript(scr))

	root := blocks.NewWorkoutRoot("Workout", []uint32{1}, [][]uint32{{2}}, 1, true)
	rt.Do(actions.PushBlockAction{Blk: root})

	top, ok := rt.Stack().Current()
	require.True(t, ok)
	_, isGate := top.(*blocks.GateBlock)
	assert.True(t, isGate)

	rt.Handle(block.Event{Name: "next", Timestamp: mc.Now()})

	top, ok = rt.Stack().Current()
	require.True(t, ok)
	_, isEffort := top.(*blocks.EffortLeafBlock)
	assert.True(t, isEffort)
}

// Phase ordering: a batch runs DISPLAY, then MEMORY, then EVENT, then
// STACK, regardless of enqueue order.
func TestDrainRunsPhasesInStrictOrder(t *testing.T) {
	mc := clock.NewMockClock(0, true)
	rt := runtime.New(runtime.WithClock(mc), runtime.WithScript(script.NewStatic(nil)))

	var order []string
	record := func(name string, phase action.Phase) recordingAction {
		return recordingAction{name: name, phase: phase, log: &order}
	}

	rt.Do(batchAction{
		actions: []block.Action{
			record("stack", action.Stack),
			record("event", action.Event),
			record("memory", action.Memory),
			record("display", action.Display),
		},
	})

	assert.Equal(t, []string{"display", "memory", "event", "stack"}, order)
}

type recordingAction struct {
	name  string
	phase action.Phase
	log   *[]string
}

func (r recordingAction) Phase() action.Phase { return r.phase }
func (r recordingAction) Label() string       { return r.name }
func (r recordingAction) Do(block.Runtime) ([]block.Action, error) {
	*r.log = append(*r.log, r.name)
	return nil, nil
}

// batchAction fans its actions out in a single Do call, exercising drain's
// handling of a multi-phase batch produced by one action.
type batchAction struct {
	actions []block.Action
}

func (batchAction) Phase() action.Phase { return action.Display }
func (batchAction) Label() string       { return "batch" }
func (b batchAction) Do(block.Runtime) ([]block.Action, error) {
	return b.actions, nil
}
