package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"citation-assist-be/internal/dto"
	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/repository/specification"
	"citation-assist-be/internal/repository/unitofwork"
	"citation-assist-be/pkg/chunker"
	"citation-assist-be/pkg/embedding"
	"citation-assist-be/pkg/events"
	"citation-assist-be/pkg/index"
	pktNats "citation-assist-be/pkg/nats"

	"github.com/google/uuid"
)

var ErrPaperNotFound = errors.New("paper not found")

type IIngestService interface {
	CreatePaper(ctx context.Context, req *dto.CreatePaperRequest) (*dto.CreatePaperResponse, error)
	Ingest(ctx context.Context, paperId uuid.UUID, req *dto.IngestPaperRequest) (*dto.IngestPaperResponse, error)
	Reingest(ctx context.Context, paperId uuid.UUID) (*dto.IngestPaperResponse, error)
	GetAll(ctx context.Context, libraryId *uuid.UUID) ([]*dto.PaperSummaryResponse, error)
	GetChunks(ctx context.Context, paperId uuid.UUID) ([]*dto.ChunkResponse, error)
	Delete(ctx context.Context, paperId uuid.UUID) error
}

type ingestService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	indexes           *index.Manager
	eventPublisher    *pktNats.Publisher
	chunkOpts         chunker.Options
	logger            logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	indexes *index.Manager,
	eventPublisher *pktNats.Publisher,
	chunkOpts chunker.Options,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		indexes:           indexes,
		eventPublisher:    eventPublisher,
		chunkOpts:         chunkOpts,
		logger:            log,
	}
}

func (s *ingestService) CreatePaper(ctx context.Context, req *dto.CreatePaperRequest) (*dto.CreatePaperResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	paper := entity.Paper{
		Id:        uuid.New(),
		Title:     req.Title,
		Authors:   req.Authors,
		Year:      req.Year,
		Venue:     req.Venue,
		DOI:       req.DOI,
		LibraryId: req.LibraryId,
		Status:    entity.PaperStatusUnprocessed,
		CreatedAt: time.Now(),
	}

	if err := uow.PaperRepository().Create(ctx, &paper); err != nil {
		return nil, err
	}
	return &dto.CreatePaperResponse{Id: paper.Id}, nil
}

// Ingest chunks and embeds a paper's full text, replacing any previous
// chunk set. Idempotent per paper: re-ingesting the same text yields the
// same offsets, categories and page ranges.
func (s *ingestService) Ingest(ctx context.Context, paperId uuid.UUID, req *dto.IngestPaperRequest) (*dto.IngestPaperResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: paperId})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, ErrPaperNotFound
	}

	if err := uow.PaperRepository().UpdateStatus(ctx, paperId, entity.PaperStatusProcessing, ""); err != nil {
		return nil, err
	}

	drafts, err := chunker.Chunk(req.FullText, hintsFromRequest(req.Hints), s.chunkOpts)
	if err != nil {
		// Chunking failures abort this paper only; the caller must
		// re-extract the text.
		s.markFailed(ctx, uow, paperId, err)
		return &dto.IngestPaperResponse{PaperId: paperId, Status: string(entity.PaperStatusError), Error: err.Error()}, nil
	}

	chunks, err := s.embedDrafts(ctx, req.FullText, paperId, drafts)
	if err != nil {
		s.markFailed(ctx, uow, paperId, err)
		return &dto.IngestPaperResponse{PaperId: paperId, Status: string(entity.PaperStatusError), Error: err.Error()}, nil
	}

	// Replace the chunk set transactionally so readers never see a half
	// written paper.
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByPaperId(ctx, paperId); err != nil {
		return nil, err
	}
	if err := uow.ChunkRepository().CreateBulk(ctx, chunks); err != nil {
		return nil, err
	}

	paper.Status = entity.PaperStatusIndexed
	paper.StatusReason = ""
	paper.FullText = req.FullText
	paper.ModelVersion = s.embeddingProvider.ModelVersion()
	if err := uow.PaperRepository().Update(ctx, paper); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// The old in-memory entries go first so a replaced chunk set never
	// coexists with the new one.
	s.indexes.RemovePaper(paperId)
	if err := s.indexes.UpsertChunks(chunks, paper.LibraryId); err != nil {
		s.logger.Warn("IngestService", "Index upsert failed, serving from store until next rebuild", map[string]interface{}{
			"paper_id": paperId.String(),
			"error":    err.Error(),
		})
	}

	s.publish(ctx, events.NewPaperIndexed(paperId, len(chunks), paper.ModelVersion))

	s.logger.Info("IngestService", "Paper ingested", map[string]interface{}{
		"paper_id": paperId.String(),
		"chunks":   len(chunks),
	})

	return &dto.IngestPaperResponse{
		PaperId:       paperId,
		ChunksCreated: len(chunks),
		Status:        string(entity.PaperStatusIndexed),
	}, nil
}

// Reingest re-runs the pipeline on the stored full text, used when the
// embedding model changes or a previous run failed.
func (s *ingestService) Reingest(ctx context.Context, paperId uuid.UUID) (*dto.IngestPaperResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: paperId})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, ErrPaperNotFound
	}
	if strings.TrimSpace(paper.FullText) == "" {
		return nil, fmt.Errorf("%w: paper %s has no stored text", chunker.ErrEmptyDocument, paperId)
	}

	return s.Ingest(ctx, paperId, &dto.IngestPaperRequest{FullText: paper.FullText})
}

// embedDrafts turns chunk drafts into persistable chunks: one embedding per
// chunk plus per-sentence embeddings for the coherence pass. All sentence
// texts ride in the chunk batch calls to keep provider round trips low.
func (s *ingestService) embedDrafts(ctx context.Context, fullText string, paperId uuid.UUID, drafts []chunker.Draft) ([]*entity.Chunk, error) {
	texts := make([]string, len(drafts))
	for i, d := range drafts {
		texts[i] = fullText[d.Start:d.End]
	}

	vectors, err := s.embeddingProvider.GenerateBatch(ctx, texts, embedding.TaskDocument)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}

	modelVersion := s.embeddingProvider.ModelVersion()
	chunks := make([]*entity.Chunk, len(drafts))
	for i, d := range drafts {
		marks := make([]entity.PageMark, len(d.PageMarks))
		for j, pm := range d.PageMarks {
			marks[j] = entity.PageMark{Page: pm.Page, Offset: pm.Offset}
		}
		chunks[i] = &entity.Chunk{
			Id:            uuid.New(),
			PaperId:       paperId,
			ChunkIndex:    d.Index,
			StartOffset:   d.Start,
			EndOffset:     d.End,
			Text:          texts[i],
			SectionTitle:  d.SectionTitle,
			Category:      string(d.Category),
			WordCount:     d.WordCount,
			SentenceCount: d.SentenceCount,
			PageStart:     d.PageStart,
			PageEnd:       d.PageEnd,
			PageMarks:     marks,
			Embedding:     vectors[i],
			ModelVersion:  modelVersion,
			CreatedAt:     time.Now(),
		}
	}

	if err := s.scoreCoherence(ctx, fullText, drafts, chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// scoreCoherence fills each chunk's semantic-coherence score from the mean
// pairwise similarity of its sentence embeddings. Single-sentence chunks
// are trivially coherent.
func (s *ingestService) scoreCoherence(ctx context.Context, fullText string, drafts []chunker.Draft, chunks []*entity.Chunk) error {
	var sentenceTexts []string
	ranges := make([][2]int, len(drafts))
	for i, d := range drafts {
		start := len(sentenceTexts)
		if len(d.Sentences) >= 2 {
			for _, sp := range d.Sentences {
				sentenceTexts = append(sentenceTexts, fullText[sp.Start:sp.End])
			}
		}
		ranges[i] = [2]int{start, len(sentenceTexts)}
	}

	var sentenceVectors [][]float32
	if len(sentenceTexts) > 0 {
		var err error
		sentenceVectors, err = s.embeddingProvider.GenerateBatch(ctx, sentenceTexts, embedding.TaskDocument)
		if err != nil {
			return fmt.Errorf("embed sentences: %w", err)
		}
	}

	for i := range chunks {
		start, end := ranges[i][0], ranges[i][1]
		score := embedding.CoherenceScore(sentenceVectors[start:end])
		chunks[i].CoherenceScore = &score
	}
	return nil
}

func (s *ingestService) GetAll(ctx context.Context, libraryId *uuid.UUID) ([]*dto.PaperSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{specification.OrderBy{Field: "created_at", Desc: true}}
	if libraryId != nil {
		specs = append(specs, specification.ByLibraryId{LibraryId: libraryId})
	}

	papers, err := uow.PaperRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.PaperSummaryResponse, len(papers))
	for i, p := range papers {
		result[i] = &dto.PaperSummaryResponse{
			Id:           p.Id,
			Title:        p.Title,
			Authors:      p.Authors,
			Year:         p.Year,
			Venue:        p.Venue,
			DOI:          p.DOI,
			LibraryId:    p.LibraryId,
			Status:       string(p.Status),
			StatusReason: p.StatusReason,
			CreatedAt:    p.CreatedAt,
		}
	}
	return result, nil
}

func (s *ingestService) GetChunks(ctx context.Context, paperId uuid.UUID) ([]*dto.ChunkResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	paper, err := uow.PaperRepository().FindOne(ctx, specification.ByID{ID: paperId})
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, ErrPaperNotFound
	}

	chunks, err := uow.ChunkRepository().FindAll(ctx,
		specification.ByPaperId{PaperId: paperId},
		specification.OrderByChunkIndex{},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ChunkResponse, len(chunks))
	for i, c := range chunks {
		result[i] = &dto.ChunkResponse{
			Id:             c.Id,
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
			PageMarks:      c.PageMarks,
			CoherenceScore: c.CoherenceScore,
		}
	}
	return result, nil
}

// Delete removes a paper, its chunks and its index entries.
func (s *ingestService) Delete(ctx context.Context, paperId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkRepository().DeleteByPaperId(ctx, paperId); err != nil {
		return err
	}
	if err := uow.PaperRepository().Delete(ctx, paperId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	s.indexes.RemovePaper(paperId)
	return nil
}

func (s *ingestService) markFailed(ctx context.Context, uow unitofwork.UnitOfWork, paperId uuid.UUID, cause error) {
	if err := uow.PaperRepository().UpdateStatus(ctx, paperId, entity.PaperStatusError, cause.Error()); err != nil {
		s.logger.Error("IngestService", "Failed to record paper error status", map[string]interface{}{
			"paper_id": paperId.String(),
			"error":    err.Error(),
		})
	}
	s.publish(ctx, events.NewPaperFailed(paperId, cause.Error()))
}

// publish is best effort; a dead event bus never fails an ingest.
func (s *ingestService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("IngestService", "Event publish failed", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func hintsFromRequest(req *dto.StructuralHintsRequest) *chunker.Hints {
	if req == nil {
		return nil
	}
	hints := &chunker.Hints{PageBreaks: req.PageBreaks}
	for _, s := range req.Sections {
		hints.Sections = append(hints.Sections, chunker.SectionHint{Title: s.Title, Offset: s.Offset})
	}
	return hints
}
