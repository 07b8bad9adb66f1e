package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/repository/contract"
	"citation-assist-be/internal/repository/specification"
	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/ranker"
	"citation-assist-be/pkg/reranker"
	"citation-assist-be/pkg/retrieval/query"
	"citation-assist-be/pkg/retrieval/session"
	"citation-assist-be/pkg/store"
)

type fakeEmbedder struct {
	vector []float32
	block  bool
}

func (f *fakeEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.vector, nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) ModelVersion() string { return "fake/v1" }
func (f *fakeEmbedder) Dimension() int       { return len(f.vector) }

type stubChunkRepo struct {
	rows []*contract.IndexChunk
}

func (s *stubChunkRepo) Create(ctx context.Context, chunk *entity.Chunk) error        { return nil }
func (s *stubChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error { return nil }
func (s *stubChunkRepo) Update(ctx context.Context, chunk *entity.Chunk) error        { return nil }
func (s *stubChunkRepo) Delete(ctx context.Context, id uuid.UUID) error               { return nil }
func (s *stubChunkRepo) DeleteByPaperId(ctx context.Context, paperId uuid.UUID) error { return nil }
func (s *stubChunkRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error) {
	return nil, nil
}
func (s *stubChunkRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	return nil, nil
}
func (s *stubChunkRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(s.rows)), nil
}
func (s *stubChunkRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, libraryId *uuid.UUID, threshold float64) ([]*contract.ScoredChunk, error) {
	return nil, nil
}
func (s *stubChunkRepo) ListForIndex(ctx context.Context) ([]*contract.IndexChunk, error) {
	return s.rows, nil
}

type stubPaperRepo struct {
	papers []*entity.Paper
	err    error
}

func (s *stubPaperRepo) Create(ctx context.Context, paper *entity.Paper) error { return nil }
func (s *stubPaperRepo) Update(ctx context.Context, paper *entity.Paper) error { return nil }
func (s *stubPaperRepo) Delete(ctx context.Context, id uuid.UUID) error        { return nil }
func (s *stubPaperRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error) {
	return nil, nil
}
func (s *stubPaperRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error) {
	return s.papers, s.err
}
func (s *stubPaperRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(s.papers)), nil
}
func (s *stubPaperRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.PaperStatus, reason string) error {
	return nil
}

type failingReranker struct{}

func (failingReranker) Rerank(ctx context.Context, queryContext string, candidates []ranker.Ranked) ([]float64, error) {
	return nil, errors.New("model down")
}
func (failingReranker) ModelName() string { return "failing" }

func testCorpus(t *testing.T) (*index.Manager, *stubPaperRepo) {
	t.Helper()

	paperA := &entity.Paper{Id: uuid.New(), Title: "Bloom Filters in Practice", Year: 2019, Status: entity.PaperStatusIndexed}
	paperB := &entity.Paper{Id: uuid.New(), Title: "Cache Design Survey", Year: 2021, Status: entity.PaperStatusIndexed}

	rows := []*contract.IndexChunk{
		{Chunk: &entity.Chunk{Id: uuid.New(), PaperId: paperA.Id, ChunkIndex: 0, Text: "bloom filter false positive rates", Embedding: []float32{1, 0, 0}}},
		{Chunk: &entity.Chunk{Id: uuid.New(), PaperId: paperA.Id, ChunkIndex: 1, Text: "hash functions for filters", Embedding: []float32{0.9, 0.1, 0}}},
		{Chunk: &entity.Chunk{Id: uuid.New(), PaperId: paperB.Id, ChunkIndex: 0, Text: "cache eviction policies compared", Embedding: []float32{0, 1, 0}}},
	}

	mgr := index.NewManager(3, "fake/v1", &stubChunkRepo{rows: rows}, logger.NewNopLogger())
	require.NoError(t, mgr.Rebuild(context.Background()))

	return mgr, &stubPaperRepo{papers: []*entity.Paper{paperA, paperB}}
}

func suggestRequest(strategy store.Strategy) Request {
	return Request{
		Context: store.QueryContext{
			CurrentSentence: "bloom filter false positive rates",
			CursorOffset:    -1,
		},
		Strategy: strategy,
		K:        2,
	}
}

func TestExecuteHybrid(t *testing.T) {
	mgr, papers := testCorpus(t)
	p := New(&fakeEmbedder{vector: []float32{1, 0, 0}}, mgr, nil, papers, 0.5, logger.NewNopLogger())

	sess := session.New("s1", uuid.New(), nil)
	gen := sess.Next()

	got, err := p.Execute(context.Background(), sess, gen, suggestRequest(store.StrategyHybrid))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Bloom Filters in Practice", got[0].PaperTitle)
	assert.Equal(t, 2019, got[0].PaperYear)
	assert.Equal(t, store.SignalHybrid, got[0].Signal)
	assert.GreaterOrEqual(t, got[0].Confidence, got[1].Confidence)
}

func TestExecuteVectorOnly(t *testing.T) {
	mgr, papers := testCorpus(t)
	p := New(&fakeEmbedder{vector: []float32{0, 1, 0}}, mgr, nil, papers, 0.5, logger.NewNopLogger())

	sess := session.New("s1", uuid.New(), nil)
	gen := sess.Next()

	got, err := p.Execute(context.Background(), sess, gen, suggestRequest(store.StrategyVector))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Cache Design Survey", got[0].PaperTitle)
	assert.Equal(t, store.SignalVector, got[0].Signal)
}

func TestExecuteSupersededNeverDelivers(t *testing.T) {
	mgr, papers := testCorpus(t)
	p := New(&fakeEmbedder{vector: []float32{1, 0, 0}}, mgr, nil, papers, 0.5, logger.NewNopLogger())

	sess := session.New("s1", uuid.New(), nil)
	gen1 := sess.Next()
	sess.Next() // the user typed again before gen1 completed

	_, err := p.Execute(context.Background(), sess, gen1, suggestRequest(store.StrategyHybrid))
	assert.ErrorIs(t, err, session.ErrSuperseded)
}

func TestExecuteEmptyQuery(t *testing.T) {
	mgr, papers := testCorpus(t)
	p := New(&fakeEmbedder{vector: []float32{1, 0, 0}}, mgr, nil, papers, 0.5, logger.NewNopLogger())

	sess := session.New("s1", uuid.New(), nil)
	gen := sess.Next()

	req := suggestRequest(store.StrategyHybrid)
	req.Context = store.QueryContext{CursorOffset: -1}

	_, err := p.Execute(context.Background(), sess, gen, req)
	assert.ErrorIs(t, err, query.ErrEmptyQuery)
}

func TestExecuteBudgetExpires(t *testing.T) {
	mgr, papers := testCorpus(t)
	p := New(&fakeEmbedder{vector: []float32{1, 0, 0}, block: true}, mgr, nil, papers, 0.5, logger.NewNopLogger())

	sess := session.New("s1", uuid.New(), nil)
	gen := sess.Next()

	req := suggestRequest(store.StrategyVector)
	req.Budget = 20 * time.Millisecond

	_, err := p.Execute(context.Background(), sess, gen, req)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExecuteRerankerFaultFallsBack(t *testing.T) {
	mgr, papers := testCorpus(t)
	stage := reranker.NewStage(failingReranker{}, time.Second, logger.NewNopLogger())
	p := New(&fakeEmbedder{vector: []float32{1, 0, 0}}, mgr, stage, papers, 0.5, logger.NewNopLogger())

	sess := session.New("s1", uuid.New(), nil)
	gen := sess.Next()

	req := suggestRequest(store.StrategyHybrid)
	req.UseReranking = true

	got, err := p.Execute(context.Background(), sess, gen, req)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	// Reranker faults are recovered internally; the hybrid order stands.
	assert.Equal(t, store.SignalHybrid, got[0].Signal)
}

func TestExecuteHydrationFailureDegrades(t *testing.T) {
	mgr, papers := testCorpus(t)
	papers.err = errors.New("db down")
	p := New(&fakeEmbedder{vector: []float32{1, 0, 0}}, mgr, nil, papers, 0.5, logger.NewNopLogger())

	sess := session.New("s1", uuid.New(), nil)
	gen := sess.Next()

	got, err := p.Execute(context.Background(), sess, gen, suggestRequest(store.StrategyHybrid))
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Empty(t, got[0].PaperTitle)
	assert.NotEqual(t, uuid.Nil, got[0].PaperId)
}
