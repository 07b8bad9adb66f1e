package contract

import (
	"context"

	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/repository/specification"

	"github.com/google/uuid"
)

type PaperRepository interface {
	Create(ctx context.Context, paper *entity.Paper) error
	Update(ctx context.Context, paper *entity.Paper) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Paper, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Paper, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// UpdateStatus writes only the status columns so a long-running ingest
	// never clobbers concurrent metadata edits.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.PaperStatus, reason string) error
}
