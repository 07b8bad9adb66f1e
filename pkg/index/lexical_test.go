package index

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The Quick-Brown fox, and the dog!")
	assert.Equal(t, []string{"quick", "brown", "fox", "dog"}, tokens)
}

func TestLexicalQueryRanksByRelevance(t *testing.T) {
	x := NewLexicalIndex()
	paper := uuid.New()

	about := uuid.New()
	x.Upsert(about, DocMeta{PaperId: paper, ChunkIndex: 0,
		Text: "neural network training converges using gradient descent optimization"})
	unrelated := uuid.New()
	x.Upsert(unrelated, DocMeta{PaperId: paper, ChunkIndex: 1,
		Text: "sample collection followed standard laboratory protocol"})

	hits := x.Query("gradient descent optimization", 10, nil)
	require.Len(t, hits, 1, "chunks sharing no query terms score zero and drop out")
	assert.Equal(t, about, hits[0].ChunkId)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestLexicalQueryDeterministic(t *testing.T) {
	build := func() *LexicalIndex {
		x := NewLexicalIndex()
		paper := uuid.MustParse("11111111-1111-1111-1111-111111111111")
		for i := 0; i < 8; i++ {
			id := uuid.NewSHA1(paper, []byte{byte(i)})
			x.Upsert(id, DocMeta{PaperId: paper, ChunkIndex: i,
				Text: "identical text gives identical scores everywhere"})
		}
		return x
	}

	first := build().Query("identical scores", 8, nil)
	second := build().Query("identical scores", 8, nil)

	require.Equal(t, len(first), len(second))
	for i := range first {
		// Equal scores must tie-break reproducibly despite map iteration.
		assert.Equal(t, first[i].ChunkId, second[i].ChunkId)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestLexicalIncrementalStats(t *testing.T) {
	x := NewLexicalIndex()
	paper := uuid.New()
	id := uuid.New()

	x.Upsert(id, DocMeta{PaperId: paper, Text: "alpha beta gamma"})
	assert.Equal(t, 1, x.Len())
	assert.Equal(t, 3, x.TermCount())

	// Re-upserting replaces, never double-counts.
	x.Upsert(id, DocMeta{PaperId: paper, Text: "alpha delta"})
	assert.Equal(t, 1, x.Len())
	assert.Equal(t, 2, x.TermCount())

	x.Remove(id)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, 0, x.TermCount())
}

func TestLexicalRemoveByPaper(t *testing.T) {
	x := NewLexicalIndex()
	keep := uuid.New()
	drop := uuid.New()

	x.Upsert(uuid.New(), DocMeta{PaperId: keep, Text: "kept chunk text"})
	x.Upsert(uuid.New(), DocMeta{PaperId: drop, Text: "dropped chunk text"})
	x.Upsert(uuid.New(), DocMeta{PaperId: drop, Text: "another dropped chunk"})

	x.RemoveByPaper(drop)
	assert.Equal(t, 1, x.Len())
}

func TestLexicalLibraryScoping(t *testing.T) {
	x := NewLexicalIndex()
	libA := uuid.New()
	libB := uuid.New()

	inA := uuid.New()
	x.Upsert(inA, DocMeta{PaperId: uuid.New(), LibraryId: &libA, Text: "citation retrieval engine"})
	x.Upsert(uuid.New(), DocMeta{PaperId: uuid.New(), LibraryId: &libB, Text: "citation retrieval engine"})
	x.Upsert(uuid.New(), DocMeta{PaperId: uuid.New(), Text: "citation retrieval engine"})

	hits := x.Query("citation retrieval", 10, &libA)
	require.Len(t, hits, 1)
	assert.Equal(t, inA, hits[0].ChunkId)

	assert.Len(t, x.Query("citation retrieval", 10, nil), 3)
}
