// Package actions implements the four concrete action kinds the action
// pipeline executes: pushing and popping blocks, compiling-then-pushing a
// statement group, and tearing down a parent's in-flight children.
package actions

import (
	"fmt"

	goaction "github.com/ironloop/wrkt/engine/action"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/blockkey"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/output"
)

// PushBlockAction pushes b onto the stack via rt.PushBlock, which stamps
// executionTiming.StartTime and calls Mount, re-phasing the actions Mount
// returns.
type PushBlockAction struct {
	Blk  block.Block
	Opts block.LifecycleOptions
}

// Phase implements block.Action.
func (a PushBlockAction) Phase() goaction.Phase { return goaction.Stack }

// Label implements block.Action.
func (a PushBlockAction) Label() string { return "push:" + a.Blk.BlockType() }

// Do implements block.Action.
func (a PushBlockAction) Do(rt block.Runtime) ([]block.Action, error) {
	_, err := rt.PushBlock(a.Blk, a.Opts)
	return nil, err
}

// PopBlockAction pops the current top of the stack: it calls Unmount,
// collects and runs its actions, pops, disposes the popped block, emits a
// completion OutputStatement, and then calls Next on the new top so the
// parent observes the child's completion.
type PopBlockAction struct {
	Opts block.LifecycleOptions
}

// Phase implements block.Action.
func (a PopBlockAction) Phase() goaction.Phase { return goaction.Stack }

// Label implements block.Action.
func (a PopBlockAction) Label() string { return "pop" }

// Do implements block.Action.
func (a PopBlockAction) Do(rt block.Runtime) ([]block.Action, error) {
	if _, err := popOnce(rt, a.Opts); err != nil {
		return nil, err
	}
	if parent, ok := rt.Stack().Current(); ok {
		return parent.Next(rt, a.Opts), nil
	}
	return nil, nil
}

// popOnce unmounts, pops, emits a completion output statement for, and
// disposes the current top block. It does not notify the new top's Next:
// PopBlockAction does that itself, while ClearChildrenAction deliberately
// does not, since the parent that requested the clear is already driving its
// own round-advance logic.
func popOnce(rt block.Runtime, opts block.LifecycleOptions) (block.Block, error) {
	top, ok := rt.Stack().Current()
	if !ok {
		return nil, fmt.Errorf("actions: pop with empty stack")
	}
	depth := rt.Stack().Depth()

	for _, sub := range top.Unmount(rt, opts) {
		rt.Do(sub)
	}

	popped, err := rt.Stack().Pop()
	if err != nil {
		return nil, err
	}

	now := opts.Now(rt)
	timing := popped.Timing()
	timing.CompletedAt = &now
	if setter, ok := popped.(interface{ SetTiming(block.ExecutionTiming) }); ok {
		setter.SetTiming(timing)
	}

	stmt := &output.Statement{
		OutputType:     output.Completion,
		SourceBlockKey: popped.Key(),
		StackLevel:     depth - 1,
		Fragments:      popped.Fragments().GetDisplayFragments(),
	}
	stmt.TimeSpan.Started = startOrZero(timing.StartTime)
	stmt.TimeSpan.Ended = timing.CompletedAt
	rt.AddOutput(stmt)

	popped.Dispose(rt)
	return popped, nil
}

func startOrZero(t *clock.Timestamp) clock.Timestamp {
	if t == nil {
		return 0
	}
	return *t
}

// CompileAndPushBlockAction resolves statementIDs through the script and JIT
// factory and, on success, emits a PushBlockAction. Compilation failure is
// non-fatal: it emits nothing.
type CompileAndPushBlockAction struct {
	StatementIDs []uint32
	Opts         block.LifecycleOptions
}

// Phase implements block.Action.
func (a CompileAndPushBlockAction) Phase() goaction.Phase { return goaction.Stack }

// Label implements block.Action.
func (a CompileAndPushBlockAction) Label() string { return "compile-and-push" }

// Do implements block.Action.
func (a CompileAndPushBlockAction) Do(rt block.Runtime) ([]block.Action, error) {
	blk, ok := rt.Compiler().Compile(rt, a.StatementIDs)
	if !ok {
		return nil, nil
	}
	return []block.Action{PushBlockAction{Blk: blk, Opts: a.Opts}}, nil
}

// ClearChildrenAction pops every block above parentKey, running each one's
// unmount/dispose in order. It is the cancellation primitive used when a
// parent's timer expires while a child is still active.
type ClearChildrenAction struct {
	ParentKey blockkey.Key
	Opts      block.LifecycleOptions
}

// Phase implements block.Action.
func (a ClearChildrenAction) Phase() goaction.Phase { return goaction.Stack }

// Label implements block.Action.
func (a ClearChildrenAction) Label() string { return "clear-children" }

// Do implements block.Action.
func (a ClearChildrenAction) Do(rt block.Runtime) ([]block.Action, error) {
	parentIdx, ok := rt.Stack().IndexOf(a.ParentKey)
	if !ok {
		return nil, nil
	}
	for rt.Stack().Depth()-1 > parentIdx {
		if _, err := popOnce(rt, a.Opts); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
