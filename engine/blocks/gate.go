package blocks

import (
	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/fragment"
)

// GateBlock is a pure user-input gate: a leaf that waits for an explicit
// "next" event before popping. It exposes an Action fragment describing the
// button the UI should render.
type GateBlock struct {
	block.BaseBlock
	unsubscribe block.Unsubscribe
	eventName   string
}

// NewGate constructs a GateBlock. eventName defaults to "next" when empty.
func NewGate(label, eventName string, sourceIDs []uint32) *GateBlock {
	if eventName == "" {
		eventName = "next"
	}
	g := &GateBlock{
		BaseBlock: block.NewBaseBlock("gate", label, sourceIDs, fragment.NewBucket()),
		eventName: eventName,
	}
	g.Fragments().Add(fragment.Fragment{
		Type:     fragment.Action,
		Origin:   fragment.OriginRuntime,
		Behavior: fragment.Defined,
		Value:    map[string]string{"label": "Start", "event": eventName},
	})
	return g
}

// Mount implements block.Block. A gate registers no side effects of its own
// beyond subscribing to its advance event.
func (g *GateBlock) Mount(rt block.Runtime, _ block.LifecycleOptions) []block.Action {
	g.unsubscribe = rt.Events().Subscribe(g.eventName, g.Key(), block.Bubble, func(rt block.Runtime, _ block.Event) []block.Action {
		return g.Next(rt, block.LifecycleOptions{})
	})
	return nil
}

// Next implements block.Block: marks complete with UserAdvance and pops.
func (g *GateBlock) Next(_ block.Runtime, opts block.LifecycleOptions) []block.Action {
	if g.IsComplete() {
		return nil
	}
	g.MarkComplete(block.UserAdvance)
	return []block.Action{actions.PopBlockAction{Opts: opts}}
}

// Unmount implements block.Block; a gate has no spans or timers to close.
func (g *GateBlock) Unmount(block.Runtime, block.LifecycleOptions) []block.Action { return nil }

// Dispose implements block.Block.
func (g *GateBlock) Dispose(rt block.Runtime) {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	rt.Events().UnsubscribeOwner(g.Key())
	rt.Memory().ReleaseByOwner(string(g.Key()))
}

var _ block.Block = (*GateBlock)(nil)
