package model

import (
	"time"

	"github.com/google/uuid"
)

type Paper struct {
	Id           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title        string     `gorm:"type:varchar(512);not null"`
	Authors      string     `gorm:"type:text"`
	Year         int        `gorm:"default:0"`
	Venue        string     `gorm:"type:varchar(255)"`
	DOI          string     `gorm:"type:varchar(255);index"`
	LibraryId    *uuid.UUID `gorm:"type:uuid;index"`
	Status       string     `gorm:"type:varchar(32);not null;default:'unprocessed';index"`
	StatusReason string     `gorm:"type:text"`
	FullText     string     `gorm:"type:text"`
	ModelVersion string     `gorm:"type:varchar(128)"`
	CreatedAt    time.Time  `gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime"`
}

func (Paper) TableName() string {
	return "papers"
}
