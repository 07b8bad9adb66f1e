package index

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"citation-assist-be/pkg/embedding"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrUnavailable       = errors.New("index unavailable")
)

// Hit is a scored chunk reference returned by either index.
type Hit struct {
	ChunkId    uuid.UUID
	PaperId    uuid.UUID
	ChunkIndex int
	Score      float64
	Text       string
}

type vectorEntry struct {
	meta   DocMeta
	vector []float32
}

// VectorIndex is an in-memory cosine-similarity index over unit-normalized
// chunk embeddings. It supports incremental upsert without a rebuild;
// Replace installs a freshly built entry set in one atomic swap so
// concurrent readers serve against the old snapshot until the swap lands.
type VectorIndex struct {
	dim          int
	modelVersion string

	mu      sync.RWMutex
	entries map[uuid.UUID]*vectorEntry
}

func NewVectorIndex(dim int, modelVersion string) *VectorIndex {
	return &VectorIndex{
		dim:          dim,
		modelVersion: modelVersion,
		entries:      make(map[uuid.UUID]*vectorEntry),
	}
}

func (x *VectorIndex) Dimension() int {
	return x.dim
}

// ModelVersion tags which embedding model built this index generation.
// Queries embedded with a different model must not be routed here.
func (x *VectorIndex) ModelVersion() string {
	return x.modelVersion
}

// Upsert adds or replaces one chunk vector.
func (x *VectorIndex) Upsert(chunkId uuid.UUID, vector []float32, meta DocMeta) error {
	if len(vector) != x.dim {
		return fmt.Errorf("got %d, index expects %d: %w", len(vector), x.dim, ErrDimensionMismatch)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries[chunkId] = &vectorEntry{meta: meta, vector: vector}
	return nil
}

// Remove drops a chunk vector if present.
func (x *VectorIndex) Remove(chunkId uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.entries, chunkId)
}

// RemoveByPaper drops every vector belonging to a paper.
func (x *VectorIndex) RemoveByPaper(paperId uuid.UUID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, e := range x.entries {
		if e.meta.PaperId == paperId {
			delete(x.entries, id)
		}
	}
}

// ReplaceEntry is the unit Replace consumes; built off-lock during rebuild.
type ReplaceEntry struct {
	ChunkId uuid.UUID
	Vector  []float32
	Meta    DocMeta
}

// Replace swaps in a complete new entry set atomically. Entries with a
// wrong dimension are rejected before any swap happens, so a failed
// rebuild never leaves a partial index behind.
func (x *VectorIndex) Replace(entries []ReplaceEntry) error {
	fresh := make(map[uuid.UUID]*vectorEntry, len(entries))
	for _, e := range entries {
		if len(e.Vector) != x.dim {
			return fmt.Errorf("chunk %s has %d dims, index expects %d: %w",
				e.ChunkId, len(e.Vector), x.dim, ErrDimensionMismatch)
		}
		fresh[e.ChunkId] = &vectorEntry{meta: e.Meta, vector: e.Vector}
	}

	x.mu.Lock()
	x.entries = fresh
	x.mu.Unlock()
	return nil
}

// Query returns the k nearest chunks by inner product (cosine similarity
// for unit vectors), score descending with deterministic tie-breaks. Fewer
// than k results are returned when fewer chunks exist; a chunk id never
// appears twice.
func (x *VectorIndex) Query(vector []float32, k int, libraryId *uuid.UUID) ([]Hit, error) {
	if len(vector) != x.dim {
		return nil, fmt.Errorf("got %d, index expects %d: %w", len(vector), x.dim, ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var hits []Hit
	for id, e := range x.entries {
		if libraryId != nil && (e.meta.LibraryId == nil || *e.meta.LibraryId != *libraryId) {
			continue
		}
		hits = append(hits, Hit{
			ChunkId:    id,
			PaperId:    e.meta.PaperId,
			ChunkIndex: e.meta.ChunkIndex,
			Score:      embedding.Dot(vector, e.vector),
			Text:       e.meta.Text,
		})
	}

	sortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *VectorIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}
