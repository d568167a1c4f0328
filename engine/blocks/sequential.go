package blocks

import (
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/timer"
)

// SequentialContainerBlock dispatches each child group once, in order, and
// completes after the last one pops. It carries an informational count-up
// timer; nothing reads it to drive completion.
type SequentialContainerBlock struct {
	*ContainerCore
	Elapsed *timer.Capability
}

// NewSequentialContainer constructs a SequentialContainerBlock.
func NewSequentialContainer(label string, sourceIDs []uint32, childGroups [][]uint32) *SequentialContainerBlock {
	one := 1
	return &SequentialContainerBlock{
		ContainerCore: NewContainerCore("sequential_container", label, sourceIDs, childGroups, LoopNever, &one),
		Elapsed:       timer.New(timer.Up, 0, label, timer.Secondary),
	}
}

// Mount implements block.Block: opens the informational timer and dispatches
// the first child.
func (s *SequentialContainerBlock) Mount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	s.Elapsed.OpenSpan(opts.Now(rt))
	return s.MountFirstChild(opts)
}

// Unmount implements block.Block: closes the informational timer.
func (s *SequentialContainerBlock) Unmount(rt block.Runtime, opts block.LifecycleOptions) []block.Action {
	s.Elapsed.CloseSpan(opts.Now(rt))
	return nil
}

// Dispose implements block.Block.
func (s *SequentialContainerBlock) Dispose(rt block.Runtime) {
	rt.Events().UnsubscribeOwner(s.Key())
	rt.Memory().ReleaseByOwner(string(s.Key()))
}

var _ block.Block = (*SequentialContainerBlock)(nil)
