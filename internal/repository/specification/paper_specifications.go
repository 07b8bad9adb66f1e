package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByPaperId filters chunks by their parent paper
type ByPaperId struct {
	PaperId uuid.UUID
}

func (s ByPaperId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("paper_id = ?", s.PaperId)
}

// ByLibraryId filters papers by library. A nil LibraryId matches papers
// that belong to no library.
type ByLibraryId struct {
	LibraryId *uuid.UUID
}

func (s ByLibraryId) Apply(db *gorm.DB) *gorm.DB {
	if s.LibraryId == nil {
		return db.Where("library_id IS NULL")
	}
	return db.Where("library_id = ?", *s.LibraryId)
}

// ByStatus filters papers by processing status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// OrderByChunkIndex orders chunks in document order
type OrderByChunkIndex struct{}

func (s OrderByChunkIndex) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("chunk_index ASC")
}
