package block

import (
	"github.com/ironloop/wrkt/engine/blockkey"
	"github.com/ironloop/wrkt/engine/fragment"
)

// BaseBlock implements the bookkeeping every concrete block variant shares:
// identity, timing, fragments, and idempotent completion. Concrete variants
// embed BaseBlock and implement Mount/Next/Unmount/Dispose themselves; Base
// does not implement the Block interface on its own, since it has no
// lifecycle behavior of its own.
type BaseBlock struct {
	key       blockkey.Key
	blockType string
	label     string
	sourceIDs []uint32
	fragments *fragment.Bucket
	timing    ExecutionTiming

	complete bool
	reason   CompletionReason
}

// NewBaseBlock constructs a BaseBlock with a freshly minted key.
func NewBaseBlock(blockType, label string, sourceIDs []uint32, bucket *fragment.Bucket) BaseBlock {
	return BaseBlock{
		key:       blockkey.New(),
		blockType: blockType,
		label:     label,
		sourceIDs: sourceIDs,
		fragments: bucket,
	}
}

// Key implements Block.
func (b *BaseBlock) Key() blockkey.Key { return b.key }

// BlockType implements Block.
func (b *BaseBlock) BlockType() string { return b.blockType }

// Label implements Block.
func (b *BaseBlock) Label() string { return b.label }

// SourceIDs implements Block.
func (b *BaseBlock) SourceIDs() []uint32 { return b.sourceIDs }

// Fragments implements Block.
func (b *BaseBlock) Fragments() *fragment.Bucket { return b.fragments }

// Timing implements Block.
func (b *BaseBlock) Timing() ExecutionTiming { return b.timing }

// SetTiming is called by PushBlockAction/PopBlockAction to stamp start and
// completion timestamps.
func (b *BaseBlock) SetTiming(t ExecutionTiming) { b.timing = t }

// IsComplete implements Block.
func (b *BaseBlock) IsComplete() bool { return b.complete }

// CompletionReason implements Block.
func (b *BaseBlock) CompletionReason() (CompletionReason, bool) { return b.reason, b.complete }

// MarkComplete implements Block. Only the first call's reason is recorded.
func (b *BaseBlock) MarkComplete(reason CompletionReason) {
	if b.complete {
		return
	}
	b.complete = true
	b.reason = reason
}
