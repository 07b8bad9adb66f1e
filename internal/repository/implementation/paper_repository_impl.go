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
	"gorm.io/gorm"
)

type PaperRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PaperMapper
}

func NewPaperRepository(db *gorm.DB) contract.PaperRepository {
	return &PaperRepositoryImpl{
		db:     db,
		mapper: mapper.NewPaperMapper(),
	}
}

func (r *PaperRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *PaperRepositoryImpl) Create(ctx context.Context, paper *entity.Paper) error {
	m := r.mapper.ToModel(paper)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*paper = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaperRepositoryImpl) Update(ctx context.Context, paper *entity.Paper) error {
	m := r.mapper.ToModel(paper)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*paper = *r.mapper.ToEntity(m)
	return nil
}

func (r *PaperRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Paper{}, id).Error
}

func (r *PaperRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error) {
	var m model.Paper
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *PaperRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error) {
	var models []*model.Paper
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *PaperRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Paper{}).Count(&count).Error
	return count, err
}

func (r *PaperRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.PaperStatus, reason string) error {
	return r.db.WithContext(ctx).
		Model(&model.Paper{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(status),
			"status_reason": reason,
		}).Error
}
