package entity

import (
	"time"

	"github.com/google/uuid"
)

// PageMark records a page transition inside a chunk: the byte offset into
// the paper's full text where the given page begins.
type PageMark struct {
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

// Chunk is a contiguous span of a paper's text, the atomic retrieval unit.
// StartOffset/EndOffset are half-open byte offsets into the paper's full
// text; per paper, chunk indexes form a contiguous 0..n-1 sequence and the
// spans partition the text.
type Chunk struct {
	Id             uuid.UUID
	PaperId        uuid.UUID
	ChunkIndex     int
	StartOffset    int
	EndOffset      int
	Text           string
	SectionTitle   *string
	Category       string
	WordCount      int
	SentenceCount  int
	PageStart      *int
	PageEnd        *int
	PageMarks      []PageMark
	CoherenceScore *float64 // filled by the embedder's second pass
	Embedding      []float32
	ModelVersion   string
	CreatedAt      time.Time
}
