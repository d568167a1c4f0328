// Package fragment implements the typed, precedence-ordered semantic content
// attached to every block: durations, rep targets, labels, recorded spans,
// and the observable bucket that classifies and stores them.
package fragment

import "sync"

type (
	// Type tags the semantic content a Fragment carries.
	Type string

	// Origin identifies who produced a Fragment. Precedence for display
	// purposes is Runtime > Analyzed > Compiler > Parser: a higher-precedence
	// fragment of the same Type replaces a lower one in GetDisplayFragments,
	// but the raw set is always preserved for audit.
	Origin int

	// Behavior classifies a Fragment for bucket partitioning: Plan fragments
	// (Defined/Hint) describe intent, Record fragments capture what actually
	// happened, and Calculated fragments are derived analysis.
	Behavior int
)

const (
	// Duration carries a planned or recorded duration in milliseconds.
	Duration Type = "duration"
	// Rounds carries a total round count.
	Rounds Type = "rounds"
	// CurrentRound carries the 1-indexed round currently in progress.
	CurrentRound Type = "current_round"
	// Rep carries a rep count or target.
	Rep Type = "rep"
	// Effort carries an exercise/effort name.
	Effort Type = "effort"
	// Label carries a free-text display label.
	Label Type = "label"
	// Action carries a UI-actionable button/event description.
	Action Type = "action"
	// Spans carries a serialized view of a TimerCapability's spans.
	Spans Type = "spans"
	// Segment carries a completed segment summary.
	Segment Type = "segment"
	// Text carries a free-form diagnostic or informational string.
	Text Type = "text"
)

const (
	// OriginParser is the lowest-precedence origin: content as authored.
	OriginParser Origin = iota
	// OriginCompiler is content added by the JIT factory during compilation.
	OriginCompiler
	// OriginAnalyzed is content derived by analysis of other fragments.
	OriginAnalyzed
	// OriginRuntime is the highest-precedence origin: content produced live by
	// a running block (e.g. CurrentRound, elapsed spans).
	OriginRuntime
)

const (
	// Defined marks a Plan fragment authored directly in the script.
	Defined Behavior = iota
	// Hint marks a Plan fragment inferred from a keyword/hint rather than an
	// explicit value.
	Hint
	// Recorded marks a Record fragment: what actually happened during
	// execution (e.g. reps completed).
	Recorded
	// Calculated marks an Analysis fragment: derived, read-only content.
	Calculated
)

// Fragment is one typed, precedence-ranked unit of semantic content.
type Fragment struct {
	Type     Type
	Origin   Origin
	Behavior Behavior
	Value    any
}

// category buckets a Fragment by its Behavior for the three bucket views
// (Plan, Record, Analysis) described in the data model.
func (f Fragment) category() category {
	switch f.Behavior {
	case Recorded:
		return categoryRecord
	case Calculated:
		return categoryAnalysis
	default:
		return categoryPlan
	}
}

type category int

const (
	categoryPlan category = iota
	categoryRecord
	categoryAnalysis
)

// Bucket is the observable fragment collection attached to every block.
// Subscribers are notified exactly once per mutating operation.
type Bucket struct {
	mu        sync.RWMutex
	fragments []Fragment
	subs      []func()
}

// NewBucket constructs an empty fragment Bucket.
func NewBucket() *Bucket {
	return &Bucket{}
}

// Add appends a single fragment and notifies subscribers once.
func (b *Bucket) Add(f Fragment) {
	b.mu.Lock()
	b.fragments = append(b.fragments, f)
	b.mu.Unlock()
	b.notify()
}

// AddAll appends a batch of fragments and notifies subscribers exactly once
// for the whole batch, not once per fragment.
func (b *Bucket) AddAll(fs []Fragment) {
	if len(fs) == 0 {
		return
	}
	b.mu.Lock()
	b.fragments = append(b.fragments, fs...)
	b.mu.Unlock()
	b.notify()
}

// ReplaceByType removes every existing fragment of the given type and adds
// the replacement in a single mutation (one notification).
func (b *Bucket) ReplaceByType(t Type, f Fragment) {
	b.mu.Lock()
	kept := b.fragments[:0:0]
	for _, existing := range b.fragments {
		if existing.Type != t {
			kept = append(kept, existing)
		}
	}
	b.fragments = append(kept, f)
	b.mu.Unlock()
	b.notify()
}

// RemoveFunc removes every fragment matching predicate and notifies
// subscribers once if anything was removed.
func (b *Bucket) RemoveFunc(predicate func(Fragment) bool) {
	b.mu.Lock()
	kept := b.fragments[:0:0]
	removed := false
	for _, existing := range b.fragments {
		if predicate(existing) {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	b.fragments = kept
	b.mu.Unlock()
	if removed {
		b.notify()
	}
}

// FirstOfType returns the first fragment of the given type in insertion
// order, regardless of precedence. ok is false if none exists.
func (b *Bucket) FirstOfType(t Type) (Fragment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, f := range b.fragments {
		if f.Type == t {
			return f, true
		}
	}
	return Fragment{}, false
}

// ValueOf returns the Value of the highest-precedence fragment of type t, or
// nil if none exists.
func (b *Bucket) ValueOf(t Type) any {
	f, ok := b.displayFragment(t)
	if !ok {
		return nil
	}
	return f.Value
}

// ByType returns every fragment of the given type, in insertion order.
func (b *Bucket) ByType(t Type) []Fragment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Fragment
	for _, f := range b.fragments {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// All returns every fragment currently in the bucket, in insertion order.
func (b *Bucket) All() []Fragment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Fragment, len(b.fragments))
	copy(out, b.fragments)
	return out
}

// Plan returns the Defined/Hint fragments.
func (b *Bucket) Plan() []Fragment { return b.byCategory(categoryPlan) }

// Record returns the Recorded fragments.
func (b *Bucket) Record() []Fragment { return b.byCategory(categoryRecord) }

// Analysis returns the Calculated fragments.
func (b *Bucket) Analysis() []Fragment { return b.byCategory(categoryAnalysis) }

func (b *Bucket) byCategory(c category) []Fragment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Fragment
	for _, f := range b.fragments {
		if f.category() == c {
			out = append(out, f)
		}
	}
	return out
}

// GetDisplayFragments returns at most one fragment per Type: the one with
// the highest-precedence Origin. This is the invariant tested by spec §8.7.
func (b *Bucket) GetDisplayFragments() []Fragment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	best := make(map[Type]Fragment)
	order := make([]Type, 0)
	for _, f := range b.fragments {
		cur, ok := best[f.Type]
		if !ok {
			order = append(order, f.Type)
			best[f.Type] = f
			continue
		}
		if f.Origin > cur.Origin {
			best[f.Type] = f
		}
	}
	out := make([]Fragment, 0, len(order))
	for _, t := range order {
		out = append(out, best[t])
	}
	return out
}

func (b *Bucket) displayFragment(t Type) (Fragment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var best Fragment
	found := false
	for _, f := range b.fragments {
		if f.Type != t {
			continue
		}
		if !found || f.Origin > best.Origin {
			best = f
			found = true
		}
	}
	return best, found
}

// Subscribe registers a listener invoked after every mutating bucket
// operation. It returns an unsubscribe function.
func (b *Bucket) Subscribe(fn func()) func() {
	b.mu.Lock()
	idx := len(b.subs)
	b.subs = append(b.subs, fn)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		if idx < len(b.subs) {
			b.subs[idx] = nil
		}
		b.mu.Unlock()
	}
}

func (b *Bucket) notify() {
	b.mu.RLock()
	subs := make([]func(), len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()
	for _, fn := range subs {
		if fn != nil {
			fn()
		}
	}
}
