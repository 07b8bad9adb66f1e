package index

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/repository/contract"
	"citation-assist-be/internal/repository/specification"
)

type fakeChunkRepo struct {
	rows    []*contract.IndexChunk
	scored  []*contract.ScoredChunk
	listErr error

	searchCalls int
}

func (f *fakeChunkRepo) Create(ctx context.Context, chunk *entity.Chunk) error        { return nil }
func (f *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error { return nil }
func (f *fakeChunkRepo) Update(ctx context.Context, chunk *entity.Chunk) error        { return nil }
func (f *fakeChunkRepo) Delete(ctx context.Context, id uuid.UUID) error               { return nil }
func (f *fakeChunkRepo) DeleteByPaperId(ctx context.Context, paperId uuid.UUID) error { return nil }
func (f *fakeChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	return nil, nil
}
func (f *fakeChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}
func (f *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, libraryId *uuid.UUID, threshold float64) ([]*contract.ScoredChunk, error) {
	f.searchCalls++
	return f.scored, nil
}
func (f *fakeChunkRepo) ListForIndex(ctx context.Context) ([]*contract.IndexChunk, error) {
	return f.rows, f.listErr
}

func indexRow(paperId uuid.UUID, idx int, text string, vec []float32) *contract.IndexChunk {
	return &contract.IndexChunk{
		Chunk: &entity.Chunk{
			Id:         uuid.New(),
			PaperId:    paperId,
			ChunkIndex: idx,
			Text:       text,
			Embedding:  vec,
		},
	}
}

func TestColdVectorQueryDelegatesToStore(t *testing.T) {
	paperId := uuid.New()
	repo := &fakeChunkRepo{
		scored: []*contract.ScoredChunk{
			{Chunk: &entity.Chunk{Id: uuid.New(), PaperId: paperId, ChunkIndex: 0, Text: "stored chunk"}, Similarity: 0.91},
		},
	}
	m := NewManager(3, "test/v1", repo, logger.NewNopLogger())

	hits, err := m.QueryVector(context.Background(), []float32{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0.91, hits[0].Score)
	assert.Equal(t, 1, repo.searchCalls)
}

func TestLexicalUnavailableBeforeFirstRebuild(t *testing.T) {
	m := NewManager(3, "test/v1", &fakeChunkRepo{}, logger.NewNopLogger())

	_, err := m.QueryLexical(context.Background(), "anything", 5, nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRebuildSwitchesToSnapshot(t *testing.T) {
	paperId := uuid.New()
	repo := &fakeChunkRepo{
		rows: []*contract.IndexChunk{
			indexRow(paperId, 0, "dense retrieval with embeddings", []float32{1, 0, 0}),
			indexRow(paperId, 1, "sparse retrieval with tokens", []float32{0, 1, 0}),
		},
	}
	m := NewManager(3, "test/v1", repo, logger.NewNopLogger())
	require.NoError(t, m.Rebuild(context.Background()))

	hits, err := m.QueryVector(context.Background(), []float32{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, 0, hits[0].ChunkIndex)
	// The snapshot serves; the store is not consulted again.
	assert.Equal(t, 0, repo.searchCalls)

	lexHits, err := m.QueryLexical(context.Background(), "sparse tokens", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, lexHits)
	assert.Equal(t, 1, lexHits[0].ChunkIndex)

	stats := m.Stats()
	assert.True(t, stats.Loaded)
	assert.Equal(t, 2, stats.Chunks)
}

func TestRebuildFailureKeepsServing(t *testing.T) {
	paperId := uuid.New()
	repo := &fakeChunkRepo{
		rows: []*contract.IndexChunk{
			indexRow(paperId, 0, "first snapshot content", []float32{1, 0, 0}),
		},
	}
	m := NewManager(3, "test/v1", repo, logger.NewNopLogger())
	require.NoError(t, m.Rebuild(context.Background()))

	repo.listErr = errors.New("db down")
	require.Error(t, m.Rebuild(context.Background()))

	hits, err := m.QueryVector(context.Background(), []float32{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestUpsertAndRemoveFlowThrough(t *testing.T) {
	m := NewManager(3, "test/v1", &fakeChunkRepo{}, logger.NewNopLogger())
	require.NoError(t, m.Rebuild(context.Background()))

	paperId := uuid.New()
	chunks := []*entity.Chunk{
		{Id: uuid.New(), PaperId: paperId, ChunkIndex: 0, Text: "greedy sentence grouping", Embedding: []float32{0, 0, 1}},
	}
	require.NoError(t, m.UpsertChunks(chunks, nil))

	hits, err := m.QueryVector(context.Background(), []float32{0, 0, 1}, 5, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	m.RemovePaper(paperId)
	hits, err = m.QueryVector(context.Background(), []float32{0, 0, 1}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestClosedManagerRefusesQueries(t *testing.T) {
	m := NewManager(3, "test/v1", &fakeChunkRepo{}, logger.NewNopLogger())
	m.Close()

	_, err := m.QueryVector(context.Background(), []float32{1, 0, 0}, 5, nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, m.UpsertChunks(nil, nil), ErrUnavailable)
	assert.ErrorIs(t, m.Rebuild(context.Background()), ErrUnavailable)
}
