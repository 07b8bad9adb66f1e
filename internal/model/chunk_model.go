package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Chunk struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PaperId        uuid.UUID       `gorm:"type:uuid;not null;index:idx_chunks_paper_order,priority:1"`
	ChunkIndex     int             `gorm:"not null;index:idx_chunks_paper_order,priority:2"`
	StartOffset    int             `gorm:"not null"`
	EndOffset      int             `gorm:"not null"`
	Text           string          `gorm:"type:text;not null"`
	SectionTitle   *string         `gorm:"type:varchar(255)"`
	Category       string          `gorm:"type:varchar(32);not null;default:'other'"`
	WordCount      int             `gorm:"default:0"`
	SentenceCount  int             `gorm:"default:0"`
	PageStart      *int            ``
	PageEnd        *int            ``
	PageMarks      datatypes.JSON  `gorm:"type:jsonb"`
	CoherenceScore *float64        ``
	Embedding      pgvector.Vector `gorm:"type:vector(768)"` // matches the embedding provider dimension
	ModelVersion   string          `gorm:"type:varchar(128)"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (Chunk) TableName() string {
	return "chunks"
}
