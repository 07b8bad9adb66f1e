package ranker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/store"
)

func hit(paper uuid.UUID, chunkIdx int, score float64) index.Hit {
	return index.Hit{
		ChunkId:    uuid.NewSHA1(paper, []byte{byte(chunkIdx)}),
		PaperId:    paper,
		ChunkIndex: chunkIdx,
		Score:      score,
	}
}

func TestRankVectorPassThrough(t *testing.T) {
	paper := uuid.New()
	vec := []index.Hit{hit(paper, 0, 0.9), hit(paper, 1, 0.5), hit(paper, 2, 0.1)}

	ranked := Rank(vec, nil, store.StrategyVector, DefaultAlpha, 10)
	require.Len(t, ranked, 3)

	// Min-max normalized into [0,1], order preserved.
	assert.Equal(t, 1.0, ranked[0].Confidence)
	assert.InDelta(t, 0.5, ranked[1].Confidence, 1e-9)
	assert.Equal(t, 0.0, ranked[2].Confidence)
	for _, r := range ranked {
		assert.Equal(t, store.SignalVector, r.Signal)
	}
}

func TestRankHybridFusesBothSignals(t *testing.T) {
	paper := uuid.New()
	both := hit(paper, 0, 0.8)
	vecOnly := hit(paper, 1, 0.9)
	lexBoth := index.Hit{ChunkId: both.ChunkId, PaperId: paper, ChunkIndex: 0, Score: 4.0}
	lexOnly := hit(paper, 2, 7.0)

	ranked := Rank(
		[]index.Hit{both, vecOnly},
		[]index.Hit{lexBoth, lexOnly},
		store.StrategyHybrid, 0.5, 10,
	)
	require.Len(t, ranked, 3)

	byChunk := map[int]Ranked{}
	for _, r := range ranked {
		byChunk[r.ChunkIndex] = r
		assert.Equal(t, store.SignalHybrid, r.Signal)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}

	// vector norm: both=0, vecOnly=1; lexical norm: lexBoth=0, lexOnly=1
	assert.InDelta(t, 0.0, byChunk[0].Confidence, 1e-9)
	assert.InDelta(t, 0.5, byChunk[1].Confidence, 1e-9)
	assert.InDelta(t, 0.5, byChunk[2].Confidence, 1e-9)
}

func TestRankSourceOmissionContributesZero(t *testing.T) {
	paper := uuid.New()
	vecOnly := hit(paper, 3, 0.7)

	ranked := Rank([]index.Hit{vecOnly}, nil, store.StrategyHybrid, 0.5, 10)
	require.Len(t, ranked, 1)

	// Present in vector only: still surfaces, lexical side contributes 0.
	assert.Equal(t, vecOnly.ChunkId, ranked[0].ChunkId)
	assert.InDelta(t, 0.5, ranked[0].Confidence, 1e-9)
}

func TestRankTieBreakDeterministic(t *testing.T) {
	paper := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	// Equal scores everywhere: ties must break by lower chunk index.
	vec := []index.Hit{hit(paper, 5, 0.5), hit(paper, 1, 0.5), hit(paper, 3, 0.5)}

	for run := 0; run < 5; run++ {
		ranked := Rank(vec, nil, store.StrategyHybrid, 0.5, 10)
		require.Len(t, ranked, 3)
		assert.Equal(t, 1, ranked[0].ChunkIndex)
		assert.Equal(t, 3, ranked[1].ChunkIndex)
		assert.Equal(t, 5, ranked[2].ChunkIndex)
	}
}

func TestRankTieBreakPrefersRawVectorSimilarity(t *testing.T) {
	paper := uuid.New()
	// Hybrid confidences tie at 0.5 (each is top of one source), but the
	// raw vector similarity decides the order.
	vecTop := hit(paper, 9, 0.9)
	lexTop := hit(paper, 1, 3.0)

	ranked := Rank([]index.Hit{vecTop}, []index.Hit{lexTop}, store.StrategyHybrid, 0.5, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, vecTop.ChunkId, ranked[0].ChunkId)
}

func TestRankCapsAtK(t *testing.T) {
	paper := uuid.New()
	var vec []index.Hit
	for i := 0; i < 10; i++ {
		vec = append(vec, hit(paper, i, float64(10-i)))
	}

	ranked := Rank(vec, nil, store.StrategyVector, DefaultAlpha, 3)
	assert.Len(t, ranked, 3)
	assert.Equal(t, 0, ranked[0].ChunkIndex)
}

func TestRankBM25PassThrough(t *testing.T) {
	paper := uuid.New()
	lex := []index.Hit{hit(paper, 0, 6.0), hit(paper, 1, 2.0)}

	ranked := Rank(nil, lex, store.StrategyBM25, DefaultAlpha, 10)
	require.Len(t, ranked, 2)
	assert.Equal(t, 1.0, ranked[0].Confidence)
	assert.Equal(t, 0.0, ranked[1].Confidence)
	assert.Equal(t, store.SignalLexical, ranked[0].Signal)
}
