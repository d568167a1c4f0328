// Package output implements the runtime-global output log: the append-only
// stream of OutputStatement records. A Completion is appended for every
// popped block and a Milestone when a workout root mounts; no record is
// appended at a round transition. Host applications poll or subscribe to this log
// instead of reaching into the stack or memory store directly.
package output

import (
	"sync"

	"github.com/ironloop/wrkt/engine/blockkey"
	"github.com/ironloop/wrkt/engine/clock"
	"github.com/ironloop/wrkt/engine/fragment"
)

// Type distinguishes the three kinds of statement a block can emit.
type Type int

const (
	// Segment marks an intermediate, non-terminal transition (e.g. a round
	// advance or an interval reset).
	Segment Type = iota
	// Completion marks a block's own unmount; exactly one is emitted per
	// popped block.
	Completion
	// Milestone marks a noteworthy event that is neither a segment boundary
	// nor a completion (e.g. a workout-root mount).
	Milestone
)

// Span is the (started, ended?) window a statement covers. Ended is nil for
// a statement emitted while its source block is still mounted.
type Span struct {
	Started clock.Timestamp
	Ended   *clock.Timestamp
}

// Statement is one record in the output log. Parent and Children are
// populated by the Log itself from the order statements are appended for
// nested blocks, not by the emitting block.
type Statement struct {
	OutputType      Type
	TimeSpan        Span
	SourceBlockKey  blockkey.Key
	SourceStatement *uint32
	StackLevel      int
	Fragments       []fragment.Fragment
	Diagnostics     []string

	parent   *Statement
	children []*Statement
}

// Parent returns the statement emitted by the block one level up the stack
// at the time this statement was appended, or nil for a root-level (depth 0)
// statement.
func (s *Statement) Parent() *Statement { return s.parent }

// Children returns the statements appended by deeper blocks while this
// statement's source block was the most recent one still open (i.e. had not
// yet emitted its own Completion record) at StackLevel.
func (s *Statement) Children() []*Statement { return append([]*Statement(nil), s.children...) }

// Log is the runtime's append-only output stream. Appends are O(1) amortized
// and ordering is stable: Entries() returns statements in emission order.
type Log struct {
	mu      sync.Mutex
	entries []*Statement
	// open tracks, per stack level, the most recent statement emitted by the
	// block occupying that level whose Completion has not yet appended. It
	// is used to auto-populate Parent/Children linkage across nested blocks.
	open map[int]*Statement
}

// NewLog constructs an empty Log.
func NewLog() *Log {
	return &Log{open: make(map[int]*Statement)}
}

// Append adds stmt to the log, wiring its Parent/Children links from the
// statement open at the next-shallower stack level, and clears this level's
// "open" slot once a Completion is appended.
func (l *Log) Append(stmt *Statement) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if parent, ok := l.open[stmt.StackLevel-1]; ok {
		stmt.parent = parent
		parent.children = append(parent.children, stmt)
	}
	l.entries = append(l.entries, stmt)

	if stmt.OutputType == Completion {
		delete(l.open, stmt.StackLevel)
	} else {
		l.open[stmt.StackLevel] = stmt
	}
}

// Entries returns every statement appended so far, in emission order.
func (l *Log) Entries() []*Statement {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Statement(nil), l.entries...)
}

// Len reports the number of statements appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
