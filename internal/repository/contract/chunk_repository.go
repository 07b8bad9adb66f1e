package contract

import (
	"context"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps Chunk with its similarity score
type ScoredChunk struct {
	Chunk      *entity.Chunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

// IndexChunk is a chunk paired with its paper's library, the row shape the
// in-memory index rebuild consumes.
type IndexChunk struct {
	Chunk     *entity.Chunk
	LibraryId *uuid.UUID
}

type ChunkRepository interface {
	Create(ctx context.Context, chunk *entity.Chunk) error
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	Update(ctx context.Context, chunk *entity.Chunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByPaperId(ctx context.Context, paperId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// Advanced
	// SearchSimilarWithScore returns chunks with their similarity scores,
	// filtered by threshold and optionally scoped to one library.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, libraryId *uuid.UUID, threshold float64) ([]*ScoredChunk, error)
	// ListForIndex streams every indexed chunk with its paper's library,
	// the source of truth for in-memory index rebuilds.
	ListForIndex(ctx context.Context) ([]*IndexChunk, error)
}
