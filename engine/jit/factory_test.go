package jit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/hooks"
	"github.com/ironloop/wrkt/engine/jit"
	"github.com/ironloop/wrkt/engine/memory"
	"github.com/ironloop/wrkt/engine/output"
	"github.com/ironloop/wrkt/engine/script"
	"github.com/ironloop/wrkt/engine/stack"
)

type fakeRuntime struct {
	script script.Script
	st     *stack.Stack
}

func (r *fakeRuntime) Clock() clock.Clock                                               { return clock.NewMockClock(0, true) }
func (r *fakeRuntime) Memory() *memory.Store                                            { return memory.New() }
func (r *fakeRuntime) Events() block.EventBus                                           { return hooks.New() }
func (r *fakeRuntime) Script() script.Script                                            { return r.script }
func (r *fakeRuntime) Compiler() block.Compiler                                         { return nil }
func (r *fakeRuntime) Stack() block.Stack                                               { return r.st }
func (r *fakeRuntime) AddOutput(*output.Statement)                                      {}
func (r *fakeRuntime) Do(block.Action)                                                  {}
func (r *fakeRuntime) PushBlock(b block.Block, _ block.LifecycleOptions) (block.Block, error) { return b, nil }
func (r *fakeRuntime) ReportError(error)                                                {}

func newFakeRuntime(statements []script.Statement) *fakeRuntime {
	return &fakeRuntime{script: script.NewStatic(statements), st: stack.New()}
}

func TestFactoryDispatchesDurationOnlyToTimerLeaf(t *testing.T) {
	rt := newFakeRuntime([]script.Statement{{
		ID:        1,
		Fragments: []script.StatementFragment{{Type: "duration", Value: uint32(30000)}},
	}})
	blk, ok := jit.New().Compile(rt, []uint32{1})
	assert.True(t, ok)
	assert.Equal(t, "timer_leaf", blk.BlockType())
}

func TestFactoryDispatchesDurationPlusEmomHintToEmom(t *testing.T) {
	rt := newFakeRuntime([]script.Statement{{
		ID:        1,
		Fragments: []script.StatementFragment{{Type: "duration", Value: uint32(60000)}, {Type: "rounds", Value: 3}},
		Children:  [][]uint32{{2}},
		Hints:     map[string]struct{}{"emom": {}},
	}})
	blk, ok := jit.New().Compile(rt, []uint32{1})
	assert.True(t, ok)
	assert.Equal(t, "emom", blk.BlockType())
}

func TestFactoryDispatchesRoundsOnlyToRoundLoop(t *testing.T) {
	rt := newFakeRuntime([]script.Statement{{
		ID:        1,
		Fragments: []script.StatementFragment{{Type: "rounds", Value: 3}},
		Children:  [][]uint32{{2}},
	}})
	blk, ok := jit.New().Compile(rt, []uint32{1})
	assert.True(t, ok)
	assert.Equal(t, "round_loop", blk.BlockType())
}

func TestFactoryFallsBackToEffortLeaf(t *testing.T) {
	rt := newFakeRuntime([]script.Statement{{
		ID:        1,
		Fragments: []script.StatementFragment{{Type: "effort", Value: "Pushups"}, {Type: "rep", Value: 10}},
	}})
	blk, ok := jit.New().Compile(rt, []uint32{1})
	assert.True(t, ok)
	assert.Equal(t, "effort_leaf", blk.BlockType())
}

func TestFactoryReturnsNotOKOnUnresolvableIDs(t *testing.T) {
	rt := newFakeRuntime(nil)
	_, ok := jit.New().Compile(rt, []uint32{99})
	assert.False(t, ok)
}
