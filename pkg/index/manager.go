package index

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/repository/contract"
)

// Manager owns the lexical and vector indexes for one corpus. Ingestion is
// the only writer; query paths are read-only. Nothing outside the manager
// touches index internals.
//
// The vector side serves from an in-memory snapshot once Rebuild has
// loaded the corpus; before that, vector queries fall back to the pgvector
// search in the chunk repository so a freshly started instance can answer
// immediately. The lexical side has no persistent form and is unavailable
// until the first load completes.
type Manager struct {
	lexical atomic.Pointer[LexicalIndex]
	vector  *VectorIndex
	chunks  contract.ChunkRepository
	logger  logger.ILogger

	loaded atomic.Bool
	closed atomic.Bool
}

func NewManager(dim int, modelVersion string, chunks contract.ChunkRepository, log logger.ILogger) *Manager {
	m := &Manager{
		vector: NewVectorIndex(dim, modelVersion),
		chunks: chunks,
		logger: log,
	}
	m.lexical.Store(NewLexicalIndex())
	return m
}

func (m *Manager) ModelVersion() string {
	return m.vector.ModelVersion()
}

func (m *Manager) Dimension() int {
	return m.vector.Dimension()
}

// UpsertChunks feeds a paper's freshly embedded chunks into both indexes.
// Called by the ingest path after the chunk set is persisted.
func (m *Manager) UpsertChunks(chunks []*entity.Chunk, libraryId *uuid.UUID) error {
	if m.closed.Load() {
		return ErrUnavailable
	}
	for _, c := range chunks {
		meta := DocMeta{
			PaperId:    c.PaperId,
			ChunkIndex: c.ChunkIndex,
			LibraryId:  libraryId,
			Text:       c.Text,
		}
		if err := m.vector.Upsert(c.Id, c.Embedding, meta); err != nil {
			return err
		}
		m.lexical.Load().Upsert(c.Id, meta)
	}
	return nil
}

// RemovePaper drops a paper's chunks from both indexes, used before
// re-ingesting so a replaced chunk set never coexists with the old one.
func (m *Manager) RemovePaper(paperId uuid.UUID) {
	m.vector.RemoveByPaper(paperId)
	m.lexical.Load().RemoveByPaper(paperId)
}

// QueryVector returns the k most similar chunks for a query embedding.
func (m *Manager) QueryVector(ctx context.Context, vector []float32, k int, libraryId *uuid.UUID) ([]Hit, error) {
	if m.closed.Load() {
		return nil, ErrUnavailable
	}
	if m.loaded.Load() {
		return m.vector.Query(vector, k, libraryId)
	}
	return m.queryVectorCold(ctx, vector, k, libraryId)
}

// queryVectorCold serves from pgvector before the first snapshot load.
func (m *Manager) queryVectorCold(ctx context.Context, vector []float32, k int, libraryId *uuid.UUID) ([]Hit, error) {
	if len(vector) != m.vector.Dimension() {
		return nil, fmt.Errorf("got %d, index expects %d: %w", len(vector), m.vector.Dimension(), ErrDimensionMismatch)
	}
	scored, err := m.chunks.SearchSimilarWithScore(ctx, vector, k, libraryId, 0)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		hits = append(hits, Hit{
			ChunkId:    s.Chunk.Id,
			PaperId:    s.Chunk.PaperId,
			ChunkIndex: s.Chunk.ChunkIndex,
			Score:      s.Similarity,
			Text:       s.Chunk.Text,
		})
	}
	return hits, nil
}

// QueryLexical returns the k best BM25 matches for a query text.
func (m *Manager) QueryLexical(ctx context.Context, text string, k int, libraryId *uuid.UUID) ([]Hit, error) {
	if m.closed.Load() || !m.loaded.Load() {
		return nil, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.lexical.Load().Query(text, k, libraryId), nil
}

// Rebuild reloads the whole corpus from the chunk store and swaps both
// indexes atomically. Concurrent queries keep serving the previous snapshot
// until the swap; a rebuild failure leaves the old snapshot untouched.
// Separately schedulable; also used as the startup warm-up.
func (m *Manager) Rebuild(ctx context.Context) error {
	if m.closed.Load() {
		return ErrUnavailable
	}

	rows, err := m.chunks.ListForIndex(ctx)
	if err != nil {
		return fmt.Errorf("load chunks for rebuild: %w", err)
	}

	entries := make([]ReplaceEntry, 0, len(rows))
	freshLexical := NewLexicalIndex()
	for _, row := range rows {
		meta := DocMeta{
			PaperId:    row.Chunk.PaperId,
			ChunkIndex: row.Chunk.ChunkIndex,
			LibraryId:  row.LibraryId,
			Text:       row.Chunk.Text,
		}
		entries = append(entries, ReplaceEntry{ChunkId: row.Chunk.Id, Vector: row.Chunk.Embedding, Meta: meta})
		freshLexical.Upsert(row.Chunk.Id, meta)
	}

	if err := m.vector.Replace(entries); err != nil {
		return err
	}
	m.lexical.Store(freshLexical)
	m.loaded.Store(true)

	m.logger.Info("IndexManager", "Index rebuilt", map[string]interface{}{
		"chunks": len(entries),
		"terms":  freshLexical.TermCount(),
	})
	return nil
}

// Stats is the read-side view surfaced on the stats endpoint.
type Stats struct {
	Chunks       int    `json:"chunks"`
	LexicalDocs  int    `json:"lexical_docs"`
	LexicalTerms int    `json:"lexical_terms"`
	Dimension    int    `json:"dimension"`
	ModelVersion string `json:"model_version"`
	Loaded       bool   `json:"loaded"`
}

func (m *Manager) Stats() Stats {
	return Stats{
		Chunks:       m.vector.Len(),
		LexicalDocs:  m.lexical.Load().Len(),
		LexicalTerms: m.lexical.Load().TermCount(),
		Dimension:    m.vector.Dimension(),
		ModelVersion: m.vector.ModelVersion(),
		Loaded:       m.loaded.Load(),
	}
}

// Close marks the manager unavailable. In-memory state needs no flush; the
// chunk store is the durable form.
func (m *Manager) Close() {
	m.closed.Store(true)
}
