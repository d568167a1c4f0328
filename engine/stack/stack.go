// Package stack implements the block stack: a LIFO of active blocks with
// push/pop validation and O(1) lookups, bounded to a maximum depth of 10.
package stack

import (
	"errors"
	"fmt"

	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/blockkey"
)

// MaxDepth is the hard ceiling on simultaneously active blocks. A push that
// would exceed it is rejected as fatal.
const MaxDepth = 10

// ErrEmptyStack is returned by Pop when the stack has no blocks.
var ErrEmptyStack = errors.New("stack: pop on empty stack")

// ErrNilBlock is returned by Push when given a nil block.
var ErrNilBlock = errors.New("stack: push of nil block")

// ErrDepthExceeded is returned by Push when the stack is already at MaxDepth.
var ErrDepthExceeded = fmt.Errorf("stack: depth exceeds maximum of %d", MaxDepth)

// Stack is the concrete LIFO implementing block.Stack. Between external
// events it is quiescent: every block on it has completed Mount and has not
// yet returned from Unmount.
type Stack struct {
	blocks []block.Block
	index  map[blockkey.Key]int
}

// New constructs an empty Stack.
func New() *Stack {
	return &Stack{index: make(map[blockkey.Key]int)}
}

// Push implements block.Stack.
func (s *Stack) Push(b block.Block) error {
	if b == nil {
		return ErrNilBlock
	}
	if len(s.blocks) >= MaxDepth {
		return ErrDepthExceeded
	}
	if b.Key() == blockkey.None {
		return errors.New("stack: push of block with empty key")
	}
	s.blocks = append(s.blocks, b)
	s.index[b.Key()] = len(s.blocks) - 1
	return nil
}

// Pop implements block.Stack.
func (s *Stack) Pop() (block.Block, error) {
	if len(s.blocks) == 0 {
		return nil, ErrEmptyStack
	}
	top := s.blocks[len(s.blocks)-1]
	s.blocks = s.blocks[:len(s.blocks)-1]
	delete(s.index, top.Key())
	return top, nil
}

// Current implements block.Stack.
func (s *Stack) Current() (block.Block, bool) {
	if len(s.blocks) == 0 {
		return nil, false
	}
	return s.blocks[len(s.blocks)-1], true
}

// Depth implements block.Stack.
func (s *Stack) Depth() int { return len(s.blocks) }

// At implements block.Stack.
func (s *Stack) At(level int) (block.Block, bool) {
	if level < 0 || level >= len(s.blocks) {
		return nil, false
	}
	return s.blocks[level], true
}

// All implements block.Stack.
func (s *Stack) All() []block.Block {
	return append([]block.Block(nil), s.blocks...)
}

// IndexOf implements block.Stack.
func (s *Stack) IndexOf(key blockkey.Key) (int, bool) {
	idx, ok := s.index[key]
	return idx, ok
}
