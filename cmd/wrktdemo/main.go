// Command wrktdemo drives a YAML workout fixture against the runtime
// façade with a mock clock, printing each output statement as it is
// emitted. It exists to exercise engine/runtime end-to-end outside of tests.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ironloop/wrkt/engine/actions"
	"github.com/ironloop/wrkt/engine/block"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/output"
	"github.com/ironloop/wrkt/engine/runtime"
	"github.com/ironloop/wrkt/scripttest"
)

func main() {
	fixture := flag.String("fixture", "", "path to a YAML workout fixture")
	rootID := flag.Uint("root", 1, "statement ID of the top-level block to compile and run")
	tickMs := flag.Int("tick-ms", 1000, "milliseconds advanced per simulated tick")
	maxTicks := flag.Int("max-ticks", 3600, "safety ceiling on simulated ticks before giving up")
	flag.Parse()

	if *fixture == "" {
		fmt.Fprintln(os.Stderr, "wrktdemo: -fixture is required")
		os.Exit(2)
	}

	scr, err := scripttest.Load(*fixture)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wrktdemo:", err)
		os.Exit(1)
	}

	mc := clock.NewMockClock(0, true)
	rt := runtime.New(runtime.WithClock(mc), runtime.WithScript(scr))

	rt.Do(actions.CompileAndPushBlockAction{StatementIDs: []uint32{uint32(*rootID)}})
	printNewEntries(rt, 0)

	seen := 0
	for i := 0; i < *maxTicks; i++ {
		if _, onStack := rt.Stack().Current(); !onStack {
			break
		}
		mc.Advance(int64(*tickMs))
		rt.Handle(block.Event{Name: "tick", Timestamp: mc.Now()})
		seen = printNewEntries(rt, seen)
	}

	if _, onStack := rt.Stack().Current(); onStack {
		fmt.Fprintln(os.Stderr, "wrktdemo: stopped after max-ticks with the stack still active")
		os.Exit(1)
	}
}

func printNewEntries(rt *runtime.ScriptRuntime, from int) int {
	entries := rt.Output().Entries()
	for _, stmt := range entries[from:] {
		fmt.Printf("level=%d key=%s type=%s\n", stmt.StackLevel, stmt.SourceBlockKey, outputTypeLabel(stmt.OutputType))
	}
	return len(entries)
}

func outputTypeLabel(t output.Type) string {
	switch t {
	case output.Segment:
		return "segment"
	case output.Completion:
		return "completion"
	case output.Milestone:
		return "milestone"
	default:
		return "unknown"
	}
}
