package unitofwork

import (
	"context"

	"citation-assist-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	PaperRepository() contract.PaperRepository
	ChunkRepository() contract.ChunkRepository
}
