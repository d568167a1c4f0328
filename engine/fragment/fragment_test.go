package fragment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ironloop/wrkt/engine/fragment"
)

func TestDisplayFragmentPrecedence(t *testing.T) {
	b := fragment.NewBucket()
	b.Add(fragment.Fragment{Type: fragment.Label, Origin: fragment.OriginParser, Value: "Pullups"})
	b.Add(fragment.Fragment{Type: fragment.Label, Origin: fragment.OriginRuntime, Value: "Pullups (live)"})
	b.Add(fragment.Fragment{Type: fragment.Label, Origin: fragment.OriginCompiler, Value: "Pullups (compiled)"})

	display := b.GetDisplayFragments()
	assert.Len(t, display, 1, "at most one fragment per type")
	assert.Equal(t, "Pullups (live)", display[0].Value, "highest precedence origin wins")
}

func TestSubscribeNotifiedOncePerMutation(t *testing.T) {
	b := fragment.NewBucket()
	count := 0
	b.Subscribe(func() { count++ })

	b.AddAll([]fragment.Fragment{
		{Type: fragment.Rep, Value: 1},
		{Type: fragment.Effort, Value: "Thrusters"},
	})
	assert.Equal(t, 1, count, "AddAll is a single mutation")

	b.ReplaceByType(fragment.Rep, fragment.Fragment{Type: fragment.Rep, Value: 2})
	assert.Equal(t, 2, count)
}

func TestBucketCategories(t *testing.T) {
	b := fragment.NewBucket()
	b.Add(fragment.Fragment{Type: fragment.Rep, Behavior: fragment.Defined, Value: 21})
	b.Add(fragment.Fragment{Type: fragment.Rep, Behavior: fragment.Recorded, Value: 5})
	b.Add(fragment.Fragment{Type: fragment.Label, Behavior: fragment.Calculated, Value: "derived"})

	assert.Len(t, b.Plan(), 1)
	assert.Len(t, b.Record(), 1)
	assert.Len(t, b.Analysis(), 1)
}

func TestRemoveFunc(t *testing.T) {
	b := fragment.NewBucket()
	b.AddAll([]fragment.Fragment{
		{Type: fragment.Rep, Value: 1},
		{Type: fragment.Rep, Value: 2},
		{Type: fragment.Label, Value: "keep"},
	})
	b.RemoveFunc(func(f fragment.Fragment) bool { return f.Type == fragment.Rep })
	assert.Len(t, b.All(), 1)
	assert.Equal(t, "keep", b.All()[0].Value)
}
