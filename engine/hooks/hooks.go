// Package hooks implements the runtime's event bus: registration and
// dispatch of named events with per-block bubble/capture semantics. The
// bus is consulted by the runtime façade on every external event and by
// blocks re-dispatching internal ones (e.g. a container's "next").
package hooks

import (
	"sync"

	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/blockkey"
)

type registration struct {
	id       uint64
	owner    blockkey.Key
	event    string
	strategy block.Strategy
	handler  block.Handler
}

// Bus is the concrete event bus. It is safe for concurrent use, though the
// runtime façade only ever calls it from its own single-threaded event loop.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	byName map[string][]*registration
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{byName: make(map[string][]*registration)}
}

// Subscribe implements block.EventBus.
func (b *Bus) Subscribe(eventName string, owner blockkey.Key, strategy block.Strategy, handler block.Handler) block.Unsubscribe {
	b.mu.Lock()
	b.nextID++
	reg := &registration{id: b.nextID, owner: owner, event: eventName, strategy: strategy, handler: handler}
	b.byName[eventName] = append(b.byName[eventName], reg)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		regs := b.byName[eventName]
		for i, r := range regs {
			if r.id == reg.id {
				b.byName[eventName] = append(regs[:i:i], regs[i+1:]...)
				return
			}
		}
	}
}

// UnsubscribeOwner implements block.EventBus.
func (b *Bus) UnsubscribeOwner(owner blockkey.Key) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, regs := range b.byName {
		kept := regs[:0:0]
		for _, r := range regs {
			if r.owner != owner {
				kept = append(kept, r)
			}
		}
		b.byName[name] = kept
	}
}

// Dispatch implements block.EventBus. Handlers registered with Capture run
// from the root of the stack toward the top; handlers registered with
// Bubble run from the top toward the root. Within the same strategy and
// stack level, handlers fire in registration order. A handler that panics is
// recovered and logged through the runtime's error hook; it does not stop
// dispatch of the remaining handlers.
func (b *Bus) Dispatch(rt block.Runtime, evt block.Event) []block.Action {
	b.mu.Lock()
	regs := append([]*registration(nil), b.byName[evt.Name]...)
	b.mu.Unlock()
	if len(regs) == 0 {
		return nil
	}

	levelOf := func(owner blockkey.Key) int {
		if idx, ok := rt.Stack().IndexOf(owner); ok {
			return idx
		}
		return -1
	}

	var capture, bubble []*registration
	for _, r := range regs {
		if levelOf(r.owner) < 0 {
			continue // owner no longer on the stack; skip rather than misorder
		}
		if r.strategy == block.Capture {
			capture = append(capture, r)
		} else {
			bubble = append(bubble, r)
		}
	}
	sortByLevel(capture, levelOf, true)
	sortByLevel(bubble, levelOf, false)

	var actions []block.Action
	run := func(regs []*registration) {
		for _, r := range regs {
			actions = append(actions, b.invoke(rt, r, evt)...)
		}
	}
	run(capture)
	run(bubble)
	return actions
}

func (b *Bus) invoke(rt block.Runtime, r *registration, evt block.Event) (out []block.Action) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.ReportError(handlerPanic{owner: r.owner, event: evt.Name, recovered: rec})
		}
	}()
	return r.handler(rt, evt)
}

// sortByLevel stably orders regs by stack level, ascending when root-first
// is true (capture) and descending otherwise (bubble). It is a small
// insertion sort: registration counts per dispatch are tiny (one per
// subscribed block), so this avoids pulling in sort for a handful of items.
func sortByLevel(regs []*registration, levelOf func(blockkey.Key) int, rootFirst bool) {
	for i := 1; i < len(regs); i++ {
		for j := i; j > 0; j-- {
			li, lj := levelOf(regs[j].owner), levelOf(regs[j-1].owner)
			swap := li < lj
			if !rootFirst {
				swap = li > lj
			}
			if !swap {
				break
			}
			regs[j], regs[j-1] = regs[j-1], regs[j]
		}
	}
}

type handlerPanic struct {
	owner     blockkey.Key
	event     string
	recovered any
}

func (h handlerPanic) Error() string {
	return "hooks: handler for event " + h.event + " panicked"
}
