package mapper

import (
	"encoding/json"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.Chunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	var marks []entity.PageMark
	if len(c.PageMarks) > 0 {
		// A row written by this service always holds a valid array; ignore
		// anything else rather than fail the whole read.
		_ = json.Unmarshal(c.PageMarks, &marks)
	}

	return &entity.Chunk{
		Id:             c.Id,
		PaperId:        c.PaperId,
		ChunkIndex:     c.ChunkIndex,
		StartOffset:    c.StartOffset,
		EndOffset:      c.EndOffset,
		Text:           c.Text,
		SectionTitle:   c.SectionTitle,
		Category:       c.Category,
		WordCount:      c.WordCount,
		SentenceCount:  c.SentenceCount,
		PageStart:      c.PageStart,
		PageEnd:        c.PageEnd,
		PageMarks:      marks,
		CoherenceScore: c.CoherenceScore,
		Embedding:      c.Embedding.Slice(),
		ModelVersion:   c.ModelVersion,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) *model.Chunk {
	if c == nil {
		return nil
	}

	var marks datatypes.JSON
	if len(c.PageMarks) > 0 {
		raw, err := json.Marshal(c.PageMarks)
		if err == nil {
			marks = datatypes.JSON(raw)
		}
	}

	return &model.Chunk{
		Id:             c.Id,
		PaperId:        c.PaperId,
		ChunkIndex:     c.ChunkIndex,
		StartOffset:    c.StartOffset,
		EndOffset:      c.EndOffset,
		Text:           c.Text,
		SectionTitle:   c.SectionTitle,
		Category:       c.Category,
		WordCount:      c.WordCount,
		SentenceCount:  c.SentenceCount,
		PageStart:      c.PageStart,
		PageEnd:        c.PageEnd,
		PageMarks:      marks,
		CoherenceScore: c.CoherenceScore,
		Embedding:      pgvector.NewVector(c.Embedding),
		ModelVersion:   c.ModelVersion,
		CreatedAt:      c.CreatedAt,
	}
}

func (m *ChunkMapper) ToEntities(chunks []*model.Chunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ChunkMapper) ToModels(chunks []*entity.Chunk) []*model.Chunk {
	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
