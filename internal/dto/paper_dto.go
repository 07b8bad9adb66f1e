package dto

import (
	"time"

	"github.com/google/uuid"

	"citation-assist-be/internal/entity"
)

type SectionHintRequest struct {
	Title  string `json:"title" validate:"required"`
	Offset int    `json:"offset" validate:"gte=0"`
}

type StructuralHintsRequest struct {
	Sections   []SectionHintRequest `json:"sections" validate:"dive"`
	PageBreaks []int                `json:"page_breaks"`
}

type IngestPaperRequest struct {
	FullText string                  `json:"full_text" validate:"required"`
	Hints    *StructuralHintsRequest `json:"hints"`
}

type IngestPaperResponse struct {
	PaperId       uuid.UUID `json:"paper_id"`
	ChunksCreated int       `json:"chunks_created"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
}

type CreatePaperRequest struct {
	Title     string     `json:"title" validate:"required,max=512"`
	Authors   string     `json:"authors"`
	Year      int        `json:"year" validate:"gte=0"`
	Venue     string     `json:"venue"`
	DOI       string     `json:"doi"`
	LibraryId *uuid.UUID `json:"library_id"`
}

type CreatePaperResponse struct {
	Id uuid.UUID `json:"id"`
}

type PaperSummaryResponse struct {
	Id           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Authors      string     `json:"authors"`
	Year         int        `json:"year"`
	Venue        string     `json:"venue"`
	DOI          string     `json:"doi"`
	LibraryId    *uuid.UUID `json:"library_id,omitempty"`
	Status       string     `json:"status"`
	StatusReason string     `json:"status_reason,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type ChunkResponse struct {
	Id             uuid.UUID         `json:"id"`
	ChunkIndex     int               `json:"chunk_index"`
	StartOffset    int               `json:"start_offset"`
	EndOffset      int               `json:"end_offset"`
	Text           string            `json:"text"`
	SectionTitle   *string           `json:"section_title,omitempty"`
	Category       string            `json:"category"`
	WordCount      int               `json:"word_count"`
	SentenceCount  int               `json:"sentence_count"`
	PageStart      *int              `json:"page_start,omitempty"`
	PageEnd        *int              `json:"page_end,omitempty"`
	PageMarks      []entity.PageMark `json:"page_marks,omitempty"`
	CoherenceScore *float64          `json:"coherence_score,omitempty"`
}
