// Package scripttest loads workout scripts from YAML fixtures into
// script.Static instances, the way integration_tests/framework loads its
// scenario YAML into typed Go structs: one Unmarshal call against a small,
// hand-written schema, no generic map walking.
package scripttest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ironloop/wrkt/engine/script"
)

// Fixture is the YAML root: a flat list of statements. Fragment values are
// decoded through FragmentYAML so a fixture author writes
// `{type: duration, value: 60000}` instead of constructing a typed Go value.
type Fixture struct {
	Statements []StatementYAML `yaml:"statements"`
}

// StatementYAML mirrors script.Statement with YAML-friendly field names.
type StatementYAML struct {
	ID        uint32         `yaml:"id"`
	Fragments []FragmentYAML `yaml:"fragments"`
	Children  [][]uint32     `yaml:"children"`
	Hints     []string       `yaml:"hints"`
}

// FragmentYAML mirrors script.StatementFragment. Value is decoded as a bare
// YAML scalar or sequence; Load coerces it to the Go type the JIT factory's
// analysis step expects for the given fragment type.
type FragmentYAML struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// Load reads a YAML fixture from path and builds a script.Static from it.
func Load(path string) (*script.Static, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- test/demo helper reads a fixture path the caller chose
	if err != nil {
		return nil, fmt.Errorf("scripttest: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a script.Static from raw YAML fixture bytes.
func Parse(data []byte) (*script.Static, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("scripttest: unmarshal: %w", err)
	}

	statements := make([]script.Statement, 0, len(fx.Statements))
	for _, s := range fx.Statements {
		stmt := script.Statement{ID: s.ID, Children: s.Children}
		for _, f := range s.Fragments {
			stmt.Fragments = append(stmt.Fragments, script.StatementFragment{
				Type:  f.Type,
				Value: coerce(f.Type, f.Value),
			})
		}
		if len(s.Hints) > 0 {
			stmt.Hints = make(map[string]struct{}, len(s.Hints))
			for _, h := range s.Hints {
				stmt.Hints[h] = struct{}{}
			}
		}
		statements = append(statements, stmt)
	}
	return script.NewStatic(statements), nil
}

// coerce converts a decoded YAML scalar into the Go type the JIT factory's
// analysis step expects for the given fragment type: durations and rep
// counts as int (yaml.v3 decodes unsuffixed integers as int), rep schemes as
// []int, everything else passed through unchanged.
func coerce(fragmentType string, v any) any {
	switch fragmentType {
	case "rep_scheme":
		raw, ok := v.([]any)
		if !ok {
			return v
		}
		scheme := make([]int, 0, len(raw))
		for _, item := range raw {
			if n, ok := item.(int); ok {
				scheme = append(scheme, n)
			}
		}
		return scheme
	default:
		return v
	}
}
