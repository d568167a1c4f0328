// Package blockkey defines the opaque identifier shared by every block,
// memory owner tag, and event subscription in the runtime. It is a leaf
// package so that both the block-stack contracts and the output log can
// reference the same key type without creating an import cycle between
// them.
package blockkey

import "github.com/google/uuid"

// Key uniquely identifies one block instance for the lifetime of a run.
type Key string

// New mints a fresh, random Key.
func New() Key {
	return Key(uuid.NewString())
}

// None is the zero Key, used by the runtime itself as an owner tag for
// memory entries and output statements that no block owns.
const None Key = ""
