package actions_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/hooks"
	"github.com/ironloop/wrkt/engine/memory"
	"github.com/ironloop/wrkt/engine/output"
	"github.com/ironloop/wrkt/engine/script"
	"github.com/ironloop/wrkt/engine/stack"
)

// recordingBlock is a minimal block.Block used to assert lifecycle call
// order without pulling in the full blocks package (which depends on
// actions, so a direct import here would cycle).
type recordingBlock struct {
	block.BaseBlock
	nextCalls int
	nextFn    func() []block.Action
}

func newRecordingBlock(label string) *recordingBlock {
	return &recordingBlock{BaseBlock: block.NewBaseBlock("recording", label, nil, fragment.NewBucket())}
}

func (b *recordingBlock) Mount(block.Runtime, block.LifecycleOptions) []block.Action { return nil }
func (b *recordingBlock) Next(block.Runtime, block.LifecycleOptions) []block.Action {
	b.nextCalls++
	if b.nextFn != nil {
		return b.nextFn()
	}
	return nil
}
func (b *recordingBlock) Unmount(block.Runtime, block.LifecycleOptions) []block.Action { return nil }
func (b *recordingBlock) Dispose(block.Runtime)                                        {}

// testRuntime is a small block.Runtime double wiring real stack/hooks/memory
// but a synchronous, queue-free Do (tests call actions' Do directly).
type testRuntime struct {
	st  *stack.Stack
	bus *hooks.Bus
	mem *memory.Store
	log *output.Log
	clk clock.Clock
}

func newTestRuntime() *testRuntime {
	return &testRuntime{st: stack.New(), bus: hooks.New(), mem: memory.New(), log: output.NewLog(), clk: clock.NewMockClock(0, true)}
}

func (r *testRuntime) Clock() clock.Clock     { return r.clk }
func (r *testRuntime) Memory() *memory.Store  { return r.mem }
func (r *testRuntime) Events() block.EventBus { return r.bus }
func (r *testRuntime) Script() script.Script  { return script.NewStatic(nil) }
func (r *testRuntime) Compiler() block.Compiler { return failingCompiler{} }

// failingCompiler always reports a non-fatal compilation failure.
type failingCompiler struct{}

func (failingCompiler) Compile(block.Runtime, []uint32) (block.Block, bool) { return nil, false }
func (r *testRuntime) Stack() block.Stack       { return r.st }
func (r *testRuntime) AddOutput(s *output.Statement) { r.log.Append(s) }
func (r *testRuntime) Do(a block.Action) {
	if _, err := a.Do(r); err != nil {
		r.ReportError(err)
	}
}
func (r *testRuntime) PushBlock(b block.Block, opts block.LifecycleOptions) (block.Block, error) {
	if err := r.st.Push(b); err != nil {
		return nil, err
	}
	for _, a := range b.Mount(r, opts) {
		r.Do(a)
	}
	return b, nil
}
func (r *testRuntime) ReportError(error) {}

func TestPopBlockActionEmitsExactlyOneCompletionAndNotifiesParent(t *testing.T) {
	rt := newTestRuntime()
	parent := newRecordingBlock("parent")
	child := newRecordingBlock("child")
	_, _ = rt.PushBlock(parent, block.LifecycleOptions{})
	_, _ = rt.PushBlock(child, block.LifecycleOptions{})

	_, err := (actions.PopBlockAction{}).Do(rt)
	assert.NoError(t, err)

	assert.Equal(t, 1, parent.nextCalls)
	assert.Equal(t, 1, rt.log.Len())
	assert.Equal(t, output.Completion, rt.log.Entries()[0].OutputType)
	assert.Equal(t, 1, rt.st.Depth())
}

func TestClearChildrenActionPopsAboveParentWithoutCallingParentNext(t *testing.T) {
	rt := newTestRuntime()
	parent := newRecordingBlock("parent")
	mid := newRecordingBlock("mid")
	leaf := newRecordingBlock("leaf")
	_, _ = rt.PushBlock(parent, block.LifecycleOptions{})
	_, _ = rt.PushBlock(mid, block.LifecycleOptions{})
	_, _ = rt.PushBlock(leaf, block.LifecycleOptions{})

	_, err := (actions.ClearChildrenAction{ParentKey: parent.Key()}).Do(rt)
	assert.NoError(t, err)

	assert.Equal(t, 1, rt.st.Depth())
	assert.Equal(t, 0, parent.nextCalls, "clearing children must not invoke the parent's own Next")
	assert.Equal(t, 2, rt.log.Len(), "one completion per torn-down child")
}

func TestCompileAndPushBlockActionEmitsNothingOnCompileFailure(t *testing.T) {
	rt := newTestRuntime()
	out, err := (actions.CompileAndPushBlockAction{StatementIDs: []uint32{1}}).Do(rt)
	assert.NoError(t, err)
	assert.Nil(t, out)
}
