package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citation-assist-be/pkg/store"
)

func TestBuildWeightsCurrentSentence(t *testing.T) {
	built, err := Build(store.QueryContext{
		PreviousSentence: "Prior work studied caches.",
		CurrentSentence:  "Our approach uses bloom filters.",
		NextSentence:     "Results follow.",
		CursorOffset:     -1,
	})
	require.NoError(t, err)

	assert.Equal(t,
		"Prior work studied caches. "+
			"Our approach uses bloom filters. Our approach uses bloom filters. "+
			"Results follow.",
		built.Text)
	assert.Equal(t, "Our approach uses bloom filters.", built.Settled)
}

func TestBuildCutsAtCursor(t *testing.T) {
	built, err := Build(store.QueryContext{
		CurrentSentence: "Bloom filters reduce lookups dramatically",
		CursorOffset:    21, // after "reduce "
	})
	require.NoError(t, err)

	assert.Equal(t, "Bloom filters reduce", built.Settled)
	assert.NotContains(t, built.Text, "dramatically")
}

func TestBuildCursorCountsRunes(t *testing.T) {
	built, err := Build(store.QueryContext{
		CurrentSentence: "héllo wörld",
		CursorOffset:    5,
	})
	require.NoError(t, err)
	assert.Equal(t, "héllo", built.Settled)
}

func TestBuildCursorPastEndIsWholeSentence(t *testing.T) {
	built, err := Build(store.QueryContext{
		CurrentSentence: "Short.",
		CursorOffset:    100,
	})
	require.NoError(t, err)
	assert.Equal(t, "Short.", built.Settled)
}

func TestBuildEmptyContext(t *testing.T) {
	_, err := Build(store.QueryContext{CursorOffset: -1})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	// Cursor at position 0 of a fresh sentence with no neighbors: nothing
	// has been authored yet.
	_, err = Build(store.QueryContext{
		CurrentSentence: "Unwritten text after cursor",
		CursorOffset:    0,
	})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestBuildNeighborsCarryEmptyCurrent(t *testing.T) {
	built, err := Build(store.QueryContext{
		PreviousSentence: "The previous sentence.",
		CurrentSentence:  "",
		CursorOffset:     -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "The previous sentence.", built.Text)
}

func TestRerankContextPrefersParagraph(t *testing.T) {
	built, err := Build(store.QueryContext{
		CurrentSentence: "A sentence.",
		Paragraph:       "The whole paragraph with the sentence inside.",
		CursorOffset:    -1,
	})
	require.NoError(t, err)
	assert.Equal(t, "The whole paragraph with the sentence inside.", built.RerankContext)
}
