package mapper

import (
	"time"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/model"
)

type PaperMapper struct{}

func NewPaperMapper() *PaperMapper {
	return &PaperMapper{}
}

func (m *PaperMapper) ToEntity(p *model.Paper) *entity.Paper {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Paper{
		Id:           p.Id,
		Title:        p.Title,
		Authors:      p.Authors,
		Year:         p.Year,
		Venue:        p.Venue,
		DOI:          p.DOI,
		LibraryId:    p.LibraryId,
		Status:       entity.PaperStatus(p.Status),
		StatusReason: p.StatusReason,
		FullText:     p.FullText,
		ModelVersion: p.ModelVersion,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *PaperMapper) ToModel(p *entity.Paper) *model.Paper {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.Paper{
		Id:           p.Id,
		Title:        p.Title,
		Authors:      p.Authors,
		Year:         p.Year,
		Venue:        p.Venue,
		DOI:          p.DOI,
		LibraryId:    p.LibraryId,
		Status:       string(p.Status),
		StatusReason: p.StatusReason,
		FullText:     p.FullText,
		ModelVersion: p.ModelVersion,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *PaperMapper) ToEntities(papers []*model.Paper) []*entity.Paper {
	entities := make([]*entity.Paper, len(papers))
	for i, p := range papers {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
