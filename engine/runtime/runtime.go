// Package runtime implements ScriptRuntime, the façade that wires the
// clock, memory store, event bus, block stack, and JIT factory together and
// drives the phased action pipeline described in the component design:
// every batch of actions runs DISPLAY, then MEMORY, then EVENT, then STACK,
// and whatever a Do call returns is re-phased into the next batch rather
// than spliced into the current one.
package runtime

import (
	"context"
	"fmt"

	"github.com/ironloop/wrkt/engine/action"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/hooks"
	"github.com/ironloop/wrkt/engine/jit"
	"github.com/ironloop/wrkt/engine/memory"
	"github.com/ironloop/wrkt/engine/output"
	"github.com/ironloop/wrkt/engine/script"
	"github.com/ironloop/wrkt/engine/stack"
	"github.com/ironloop/wrkt/engine/telemetry"
)

// phaseOrder is the strict DISPLAY -> MEMORY -> EVENT -> STACK ordering a
// batch is executed in.
var phaseOrder = [...]action.Phase{action.Display, action.Memory, action.Event, action.Stack}

// errorEntryType tags the diagnostic entries ReportError writes to the
// runtime-owned, public memory channel.
const errorEntryType = "errors"

// runtimeOwnerID is the owner under which the façade itself allocates
// memory entries (diagnostics), distinct from any block key.
const runtimeOwnerID = "runtime"

// Options configures a ScriptRuntime. Clock and Script are required; the
// rest default to a fresh Bus/Stack/Store/Factory and Noop telemetry.
type Options struct {
	Clock    clock.Clock
	Script   script.Script
	Compiler block.Compiler
	Logger   telemetry.Logger
	Metrics  telemetry.Metrics
	Tracer   telemetry.Tracer
}

// Option mutates an Options during New.
type Option func(*Options)

// WithClock sets the runtime's clock.
func WithClock(c clock.Clock) Option { return func(o *Options) { o.Clock = c } }

// WithScript sets the script the runtime compiles blocks from.
func WithScript(s script.Script) Option { return func(o *Options) { o.Script = s } }

// WithCompiler overrides the default JIT factory.
func WithCompiler(c block.Compiler) Option { return func(o *Options) { o.Compiler = c } }

// WithLogger sets the structured logger.
func WithLogger(l telemetry.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option { return func(o *Options) { o.Metrics = m } }

// WithTracer sets the tracer.
func WithTracer(t telemetry.Tracer) Option { return func(o *Options) { o.Tracer = t } }

// ScriptRuntime is the concrete block.Runtime implementation: a single,
// single-threaded owner of the stack, memory store, event bus, and output
// log for one running script. It is never shared between scripts.
type ScriptRuntime struct {
	clock    clock.Clock
	scr      script.Script
	compiler block.Compiler
	mem      *memory.Store
	bus      *hooks.Bus
	st       *stack.Stack
	out      *output.Log

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
}

// New constructs a ScriptRuntime. Clock and Script must be supplied via
// WithClock/WithScript; omitting either is a programmer error and panics,
// matching the façade's role as the one place every other component is
// wired together.
func New(opts ...Option) *ScriptRuntime {
	var o Options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.Clock == nil {
		panic("runtime: WithClock is required")
	}
	if o.Script == nil {
		panic("runtime: WithScript is required")
	}
	if o.Compiler == nil {
		o.Compiler = jit.New()
	}
	if o.Logger == nil {
		o.Logger = telemetry.NewNoopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = telemetry.NewNoopMetrics()
	}
	if o.Tracer == nil {
		o.Tracer = telemetry.NewNoopTracer()
	}
	return &ScriptRuntime{
		clock:    o.Clock,
		scr:      o.Script,
		compiler: o.Compiler,
		mem:      memory.New(),
		bus:      hooks.New(),
		st:       stack.New(),
		out:      output.NewLog(),
		logger:   o.Logger,
		metrics:  o.Metrics,
		tracer:   o.Tracer,
	}
}

// Clock implements block.Runtime.
func (rt *ScriptRuntime) Clock() clock.Clock { return rt.clock }

// Memory implements block.Runtime.
func (rt *ScriptRuntime) Memory() *memory.Store { return rt.mem }

// Events implements block.Runtime.
func (rt *ScriptRuntime) Events() block.EventBus { return rt.bus }

// Script implements block.Runtime.
func (rt *ScriptRuntime) Script() script.Script { return rt.scr }

// Compiler implements block.Runtime.
func (rt *ScriptRuntime) Compiler() block.Compiler { return rt.compiler }

// Stack implements block.Runtime.
func (rt *ScriptRuntime) Stack() block.Stack { return rt.st }

// Output returns the runtime's append-only output log.
func (rt *ScriptRuntime) Output() *output.Log { return rt.out }

// AddOutput implements block.Runtime.
func (rt *ScriptRuntime) AddOutput(stmt *output.Statement) { rt.out.Append(stmt) }

// Handle enqueues evt through the event bus and drains the action pipeline
// to quiescence.
func (rt *ScriptRuntime) Handle(evt block.Event) {
	ctx, span := rt.tracer.Start(context.Background(), "runtime.handle")
	defer span.End()
	rt.metrics.IncCounter("runtime.events_handled", 1, "event", evt.Name)

	actions := rt.bus.Dispatch(rt, evt)
	if len(actions) == 0 {
		rt.logger.Debug(ctx, "event produced no actions", "event", evt.Name)
	}
	rt.drain(actions)
}

// Do implements block.Runtime: it enqueues a single action and drains the
// pipeline to quiescence. Do is reentrant: an action's Do may itself call
// rt.Do to run a nested batch to completion (e.g. Unmount's actions) before
// returning to its caller's own phase loop.
func (rt *ScriptRuntime) Do(a block.Action) {
	rt.drain([]block.Action{a})
}

// drain runs batch to quiescence: within each iteration it executes every
// action whose Phase matches the current phase, in enqueue order, before
// moving to the next phase; actions returned by Do are collected into the
// next iteration's batch, never spliced into the one being executed.
func (rt *ScriptRuntime) drain(batch []block.Action) {
	for len(batch) > 0 {
		var next []block.Action
		for _, phase := range phaseOrder {
			for _, a := range batch {
				if a.Phase() != phase {
					continue
				}
				produced, err := a.Do(rt)
				if err != nil {
					rt.ReportError(fmt.Errorf("action %q: %w", a.Label(), err))
					continue
				}
				next = append(next, produced...)
			}
		}
		batch = next
	}
}

// PushBlock implements block.Runtime: the canonical push entry point. It
// validates via the stack, stamps executionTiming.StartTime using
// opts.StartTime if set, else the effective clock's reading when running,
// calls Mount, and drains each action Mount returns.
func (rt *ScriptRuntime) PushBlock(b block.Block, opts block.LifecycleOptions) (block.Block, error) {
	if err := rt.st.Push(b); err != nil {
		rt.ReportError(err)
		return nil, err
	}

	eff := rt.clock
	if opts.Clock != nil {
		eff = opts.Clock
	}
	start := opts.StartTime
	if start == nil && eff.IsRunning() {
		now := eff.Now()
		start = &now
	}
	timing := b.Timing()
	timing.StartTime = start
	if setter, ok := b.(interface{ SetTiming(block.ExecutionTiming) }); ok {
		setter.SetTiming(timing)
	}

	for _, a := range b.Mount(rt, opts) {
		rt.Do(a)
	}
	return b, nil
}

// ReportError implements block.Runtime: it logs err, records a diagnostic
// entry in the public "runtime"-owned memory channel, and never touches the
// stack. Validation failures and handler exceptions both flow through here;
// neither is allowed to corrupt stack state.
func (rt *ScriptRuntime) ReportError(err error) {
	if err == nil {
		return
	}
	rt.logger.Error(context.Background(), "runtime error", "error", err.Error())
	rt.metrics.IncCounter("runtime.errors", 1)
	rt.mem.Allocate(errorEntryType, runtimeOwnerID, err.Error(), memory.Public)
}

var _ block.Runtime = (*ScriptRuntime)(nil)
