// Package jit implements the just-in-time block factory: it analyzes a
// resolved group of statements and dispatches, by fixed priority, to the
// concrete block variant whose shape matches.
package jit

import "github.com/ironloop/wrkt/engine/script"

// analysis is the fragment-shape summary the factory's priority table
// switches on. It is built once per Compile call from every statement the
// group resolves to.
type analysis struct {
	hasDuration bool
	durationMs  uint32
	hasRounds   bool
	totalRounds int
	hasChildren bool
	childGroups [][]uint32
	isEmom      bool
	isAmrap     bool
	label       string
	effort      string
	repTarget   int
	repScheme   []int
}

func analyze(statements []script.Statement) analysis {
	var a analysis
	for _, stmt := range statements {
		if stmt.HasHint("emom") {
			a.isEmom = true
		}
		if stmt.HasHint("amrap") {
			a.isAmrap = true
		}
		a.childGroups = append(a.childGroups, stmt.Children...)
		if len(stmt.Children) > 0 {
			a.hasChildren = true
		}
		for _, f := range stmt.Fragments {
			switch f.Type {
			case "duration":
				if ms, ok := toUint32(f.Value); ok {
					a.hasDuration = true
					a.durationMs = ms
				}
			case "rounds":
				if n, ok := toInt(f.Value); ok {
					a.hasRounds = true
					a.totalRounds = n
				}
			case "rep_scheme":
				if scheme, ok := f.Value.([]int); ok {
					a.repScheme = scheme
				}
			case "rep":
				if n, ok := toInt(f.Value); ok {
					a.repTarget = n
				}
			case "label":
				if s, ok := f.Value.(string); ok && a.label == "" {
					a.label = s
				}
			case "effort":
				if s, ok := f.Value.(string); ok && a.effort == "" {
					a.effort = s
				}
			}
		}
	}
	return a
}

func toUint32(v any) (uint32, bool) {
	switch n := v.(type) {
	case uint32:
		return n, true
	case int:
		return uint32(n), true
	case int64:
		return uint32(n), true
	case float64:
		return uint32(n), true
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case uint32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
