package stack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/blockkey"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/stack"
)

type stubBlock struct {
	block.BaseBlock
}

func newStub(label string) *stubBlock {
	b := &stubBlock{BaseBlock: block.NewBaseBlock("stub", label, nil, fragment.NewBucket())}
	return b
}

func (s *stubBlock) Mount(block.Runtime, block.LifecycleOptions) []block.Action   { return nil }
func (s *stubBlock) Next(block.Runtime, block.LifecycleOptions) []block.Action    { return nil }
func (s *stubBlock) Unmount(block.Runtime, block.LifecycleOptions) []block.Action { return nil }
func (s *stubBlock) Dispose(block.Runtime)                                       {}

func TestPushPopLIFOOrder(t *testing.T) {
	s := stack.New()
	a, b := newStub("a"), newStub("b")
	assert.NoError(t, s.Push(a))
	assert.NoError(t, s.Push(b))

	top, err := s.Pop()
	assert.NoError(t, err)
	assert.Equal(t, b.Key(), top.Key())
	assert.Equal(t, 1, s.Depth())
}

func TestPushRejectsNilAndDepthOverflow(t *testing.T) {
	s := stack.New()
	assert.ErrorIs(t, s.Push(nil), stack.ErrNilBlock)

	for i := 0; i < stack.MaxDepth; i++ {
		assert.NoError(t, s.Push(newStub("x")))
	}
	assert.ErrorIs(t, s.Push(newStub("overflow")), stack.ErrDepthExceeded)
}

func TestPopOnEmptyIsFatal(t *testing.T) {
	s := stack.New()
	_, err := s.Pop()
	assert.ErrorIs(t, err, stack.ErrEmptyStack)
}

func TestIndexOfTracksLevel(t *testing.T) {
	s := stack.New()
	a, b := newStub("a"), newStub("b")
	_ = s.Push(a)
	_ = s.Push(b)

	idx, ok := s.IndexOf(a.Key())
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = s.IndexOf(b.Key())
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = s.IndexOf(blockkey.New())
	assert.False(t, ok)
}
