package entity

import (
	"time"

	"github.com/google/uuid"
)

// PaperStatus is the processing state of a paper. It only moves via the
// ingest pipeline.
type PaperStatus string

const (
	PaperStatusUnprocessed PaperStatus = "unprocessed"
	PaperStatusProcessing  PaperStatus = "processing"
	PaperStatusIndexed     PaperStatus = "indexed"
	PaperStatusError       PaperStatus = "error"
)

type Paper struct {
	Id           uuid.UUID
	Title        string
	Authors      string
	Year         int
	Venue        string
	DOI          string
	LibraryId    *uuid.UUID
	Status       PaperStatus
	StatusReason string
	FullText     string
	ModelVersion string // embedding model the current chunk set was built with
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
