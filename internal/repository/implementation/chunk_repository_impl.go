package implementation

import (
	"context"
	"errors"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/mapper"
	"citation-assist-be/internal/model"
	"citation-assist-be/internal/repository/contract"
	"citation-assist-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.Chunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) Update(ctx context.Context, chunk *entity.Chunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *ChunkRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Chunk{}, id).Error
}

func (r *ChunkRepositoryImpl) DeleteByPaperId(ctx context.Context, paperId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("paper_id = ?", paperId).Delete(&model.Chunk{}).Error
}

func (r *ChunkRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error) {
	var m model.Chunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.Chunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Chunk{}).Count(&count).Error
	return count, err
}

// SearchSimilarWithScore returns chunks with similarity scores, filtered by
// threshold. Cosine distance in pgvector is 1 - cosine_similarity, so
// 1 - (embedding <=> query_vector) gives the similarity. The join with
// papers restricts results to fully indexed papers and applies the
// optional library scope.
func (r *ChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, libraryId *uuid.UUID, threshold float64) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	type result struct {
		model.Chunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, 1 - (chunks.embedding <=> ?) as similarity", queryVector).
		Joins("JOIN papers ON papers.id = chunks.paper_id").
		Where("papers.status = ?", string(entity.PaperStatusIndexed)).
		Where("1 - (chunks.embedding <=> ?) >= ?", queryVector, threshold)

	if libraryId != nil {
		query = query.Where("papers.library_id = ?", *libraryId)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&res.Chunk),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *ChunkRepositoryImpl) ListForIndex(ctx context.Context) ([]*contract.IndexChunk, error) {
	type result struct {
		model.Chunk
		LibraryId *uuid.UUID
	}
	var results []result

	err := r.db.WithContext(ctx).
		Table("chunks").
		Select("chunks.*, papers.library_id as library_id").
		Joins("JOIN papers ON papers.id = chunks.paper_id").
		Where("papers.status = ?", string(entity.PaperStatusIndexed)).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	rows := make([]*contract.IndexChunk, len(results))
	for i, res := range results {
		rows[i] = &contract.IndexChunk{
			Chunk:     r.mapper.ToEntity(&res.Chunk),
			LibraryId: res.LibraryId,
		}
	}
	return rows, nil
}
