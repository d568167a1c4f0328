// Package block defines the contracts shared by the block stack, the JIT
// compiler, the event bus, and every concrete block implementation: Block
// itself, the Runtime surface blocks are given to act on, and the Stack and
// Compiler abstractions the runtime façade wires together.
//
// These types are mutually referential (a Block's lifecycle methods take a
// Runtime, and a Runtime exposes a Stack of Blocks) and so live in one
// package to avoid an import cycle between the stack, jit, actions, and
// blocks packages, each of which depends on block but never on each other.
package block

import (
	"github.com/ironloop/wrkt/engine/action"
	"github.com/ironloop/wrkt/engine/blockkey"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/fragment"
	"github.com/ironloop/wrkt/engine/memory"
	"github.com/ironloop/wrkt/engine/output"
	"github.com/ironloop/wrkt/engine/script"
)

// CompletionReason names why a block became complete. markComplete is
// idempotent: the first reason recorded sticks.
type CompletionReason string

const (
	// UserAdvance marks completion driven by an explicit "next" event.
	UserAdvance CompletionReason = "user-advance"
	// TimerExpired marks completion driven by a timer reaching its duration.
	TimerExpired CompletionReason = "timer-expired"
	// TargetAchieved marks an EffortLeaf reaching its target rep count.
	TargetAchieved CompletionReason = "target-achieved"
	// ChildrenComplete marks a container whose loop condition resolved to stop.
	ChildrenComplete CompletionReason = "children-complete"
	// RoundsExhausted marks an EMOM completing its final interval. A
	// RoundLoop finishing its last round completes with ChildrenComplete.
	RoundsExhausted CompletionReason = "rounds-exhausted"
)

// LifecycleOptions carries the parameters every lifecycle method and
// push/pop action receives. Clock, when set, overrides the runtime's clock
// for this call only, so a single external tick can produce a cascade of
// mounts/pops that all agree on "now" (the snapshot-clock rule).
type LifecycleOptions struct {
	Clock     clock.Clock
	StartTime *clock.Timestamp
}

// now resolves the effective clock for this call: the override if present,
// else the runtime's own clock.
func (o LifecycleOptions) now(rt Runtime) clock.Timestamp {
	if o.Clock != nil {
		return o.Clock.Now()
	}
	return rt.Clock().Now()
}

// Now returns the effective timestamp for this lifecycle call given a
// runtime, honoring a clock override.
func (o LifecycleOptions) Now(rt Runtime) clock.Timestamp { return o.now(rt) }

// Action is a unit of work produced by a handler or a lifecycle method. Do
// may return further actions; the pipeline re-phases them into the next
// batch rather than splicing them into the current one.
type Action interface {
	// Phase reports which of the four pipeline phases this action belongs to.
	Phase() action.Phase
	// Label names the action for logging and tracing.
	Label() string
	// Do executes the action against rt and returns any follow-up actions.
	Do(rt Runtime) ([]Action, error)
}

// Event is a named occurrence dispatched through the event bus, carrying an
// arbitrary payload.
type Event struct {
	Name      string
	Timestamp clock.Timestamp
	Data      any
}

// Strategy selects the order in which an EventBus visits stack levels during
// Dispatch.
type Strategy int

const (
	// Bubble fires handlers from the top of the stack down to the root.
	Bubble Strategy = iota
	// Capture fires handlers from the root of the stack up to the top.
	Capture
)

// Handler reacts to a dispatched Event and may produce actions in response.
type Handler func(rt Runtime, evt Event) []Action

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

// EventBus is the contract the runtime's event bus implementation satisfies.
// Concrete implementation: package hooks.
type EventBus interface {
	// Subscribe registers handler for eventName under strategy, scoped to
	// owner so it is torn down automatically when owner is disposed.
	Subscribe(eventName string, owner blockkey.Key, strategy Strategy, handler Handler) Unsubscribe
	// Dispatch runs every handler registered for evt.Name in strategy order
	// (capture: root to top; bubble: top to root) and collects their actions.
	Dispatch(rt Runtime, evt Event) []Action
	// UnsubscribeOwner tears down every handler registered by owner.
	UnsubscribeOwner(owner blockkey.Key)
}

// Stack is the contract the block stack implementation satisfies. Concrete
// implementation: package stack.
type Stack interface {
	// Push validates and pushes b, rejecting a nil block or a stack already
	// at depth 10.
	Push(b Block) error
	// Pop removes and returns the top block. It errors on an empty stack.
	Pop() (Block, error)
	// Current returns the top block, if any.
	Current() (Block, bool)
	// Depth reports the number of blocks currently on the stack.
	Depth() int
	// At returns the block at the given stack level (0 = root), if any.
	At(level int) (Block, bool)
	// All returns every block on the stack, root first.
	All() []Block
	// IndexOf returns the stack level of the block with the given key.
	IndexOf(key blockkey.Key) (int, bool)
}

// Compiler is the contract the JIT block factory satisfies. Concrete
// implementation: package jit.
type Compiler interface {
	// Compile resolves ids against the runtime's script and constructs the
	// concrete block variant the fragment analysis selects. It returns
	// ok=false (never an error) on a non-fatal compilation failure — an
	// empty or unresolvable statement group.
	Compile(rt Runtime, ids []uint32) (Block, bool)
}

// Runtime is the surface every block, action, and handler acts through. The
// façade implementation is package runtime's ScriptRuntime.
type Runtime interface {
	Clock() clock.Clock
	Memory() *memory.Store
	Events() EventBus
	Script() script.Script
	Compiler() Compiler
	Stack() Stack

	// AddOutput appends stmt to the runtime's output log.
	AddOutput(stmt *output.Statement)
	// Do enqueues a single action and drains the pipeline to quiescence.
	Do(a Action)
	// PushBlock is the canonical push entry point: it validates, stamps
	// executionTiming, calls Mount, and re-phases the actions Mount returns.
	PushBlock(b Block, opts LifecycleOptions) (Block, error)
	// ReportError routes a validation or handler failure through the
	// optional error hook without corrupting the stack.
	ReportError(err error)
}

// ExecutionTiming records when a block started and, once popped, completed.
type ExecutionTiming struct {
	StartTime   *clock.Timestamp
	CompletedAt *clock.Timestamp
}

// Block is the runtime object every typed block variant implements. The
// lifecycle methods are called exclusively by the stack and by push/pop
// actions; nothing else invokes them directly.
type Block interface {
	// Key returns the block's globally unique identifier.
	Key() blockkey.Key
	// BlockType names the concrete variant, for logging and output statements.
	BlockType() string
	// Label returns the block's display label.
	Label() string
	// SourceIDs returns the statement IDs this block was compiled from.
	SourceIDs() []uint32
	// Fragments returns the block's fragment bucket.
	Fragments() *fragment.Bucket
	// Timing returns the block's execution timing.
	Timing() ExecutionTiming

	// Mount is called once after push. It may register handlers, open timer
	// spans, and dispatch a first child. It must be idempotent against its
	// own side effects: a block is never mounted twice.
	Mount(rt Runtime, opts LifecycleOptions) []Action
	// Next is called when a direct child pops, or when a "next" event
	// bubbles to this block.
	Next(rt Runtime, opts LifecycleOptions) []Action
	// Unmount is called immediately before pop. It closes timer spans and
	// emits the block's final output.
	Unmount(rt Runtime, opts LifecycleOptions) []Action
	// Dispose releases memory, unsubscribes handlers, and clears the
	// fragment bucket. It is called exactly once per block.
	Dispose(rt Runtime)

	// IsComplete reports whether MarkComplete has been called.
	IsComplete() bool
	// CompletionReason returns the first reason recorded, if any.
	CompletionReason() (CompletionReason, bool)
	// MarkComplete records reason. Idempotent: only the first call sticks.
	MarkComplete(reason CompletionReason)
}
