package scripttest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironloop/wrkt/scripttest"
)

const threeRoundFixture = `
statements:
  - id: 1
    fragments:
      - {type: rounds, value: 3}
    children: [[2]]
  - id: 2
    fragments:
      - {type: effort, value: Pullups}
      - {type: rep, value: 5}
`

func TestParseBuildsResolvableStatements(t *testing.T) {
	scr, err := scripttest.Parse([]byte(threeRoundFixture))
	require.NoError(t, err)

	root, ok := scr.GetID(1)
	require.True(t, ok)
	assert.Equal(t, [][]uint32{{2}}, root.Children)
	assert.Equal(t, "rounds", root.Fragments[0].Type)
	assert.Equal(t, 3, root.Fragments[0].Value)

	child, ok := scr.GetID(2)
	require.True(t, ok)
	assert.Equal(t, "Pullups", child.Fragments[0].Value)
}

const repSchemeFixture = `
statements:
  - id: 1
    fragments:
      - {type: rounds, value: 3}
      - {type: rep_scheme, value: [21, 15, 9]}
    children: [[2]]
  - id: 2
    fragments:
      - {type: effort, value: Thrusters}
`

func TestParseCoercesRepSchemeToIntSlice(t *testing.T) {
	scr, err := scripttest.Parse([]byte(repSchemeFixture))
	require.NoError(t, err)

	root, ok := scr.GetID(1)
	require.True(t, ok)
	scheme, ok := root.Fragments[1].Value.([]int)
	require.True(t, ok)
	assert.Equal(t, []int{21, 15, 9}, scheme)
}

func TestParseBuildsHintSet(t *testing.T) {
	scr, err := scripttest.Parse([]byte(`
statements:
  - id: 1
    fragments:
      - {type: duration, value: 600000}
    children: [[2]]
    hints: [amrap]
  - id: 2
    fragments:
      - {type: effort, value: Pullups}
`))
	require.NoError(t, err)
	stmt, ok := scr.GetID(1)
	require.True(t, ok)
	assert.True(t, stmt.HasHint("amrap"))
	assert.False(t, stmt.HasHint("emom"))
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := scripttest.Load("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}
