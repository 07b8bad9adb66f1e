package service

import (
	"context"
	"time"

	"citation-assist-be/internal/dto"
	"citation-assist-be/internal/entity"
	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/repository/memory"
	"citation-assist-be/internal/repository/specification"
	"citation-assist-be/internal/repository/unitofwork"
	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/retrieval/pipeline"
	"citation-assist-be/pkg/retrieval/session"
	"citation-assist-be/pkg/store"

	"github.com/google/uuid"
)

type ISuggestService interface {
	Suggest(ctx context.Context, userId uuid.UUID, req *dto.SuggestRequest) (*dto.SuggestResponse, error)
	CloseSession(sessionId string)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
}

type suggestService struct {
	pipeline   *pipeline.Pipeline
	sessions   *memory.SessionRepository
	indexes    *index.Manager
	uowFactory unitofwork.RepositoryFactory
	defaultK   int
	budget     time.Duration
	logger     logger.ILogger
}

func NewSuggestService(
	p *pipeline.Pipeline,
	sessions *memory.SessionRepository,
	indexes *index.Manager,
	uowFactory unitofwork.RepositoryFactory,
	defaultK int,
	budget time.Duration,
	log logger.ILogger,
) ISuggestService {
	return &suggestService{
		pipeline:   p,
		sessions:   sessions,
		indexes:    indexes,
		uowFactory: uowFactory,
		defaultK:   defaultK,
		budget:     budget,
		logger:     log,
	}
}

// Suggest runs one generation of a suggestion session. Stale generations
// are rejected on arrival; superseded in-flight work surfaces as
// session.ErrSuperseded, which transports drop silently.
func (s *suggestService) Suggest(ctx context.Context, userId uuid.UUID, req *dto.SuggestRequest) (*dto.SuggestResponse, error) {
	strategy := store.StrategyHybrid
	if req.Strategy != "" {
		var err error
		strategy, err = store.ParseStrategy(req.Strategy)
		if err != nil {
			return nil, err
		}
	}

	sess, found := s.sessions.Get(req.SessionId)
	if !found || sess.Closed() {
		sess = session.New(req.SessionId, userId, req.LibraryId)
		s.sessions.Save(sess)
	}

	var gen int64
	if req.Generation > 0 {
		// The transport tracks its own monotonic token.
		if !sess.Observe(req.Generation) {
			return nil, session.ErrSuperseded
		}
		gen = req.Generation
	} else {
		gen = sess.Next()
	}

	cursor := -1
	if req.Context.CursorOffset != nil {
		cursor = *req.Context.CursorOffset
	}

	k := req.K
	if k <= 0 {
		k = s.defaultK
	}

	suggestions, err := s.pipeline.Execute(ctx, sess, gen, pipeline.Request{
		Context: store.QueryContext{
			CurrentSentence:  req.Context.CurrentSentence,
			PreviousSentence: req.Context.PreviousSentence,
			NextSentence:     req.Context.NextSentence,
			Paragraph:        req.Context.Paragraph,
			CursorOffset:     cursor,
			UserId:           userId,
			LibraryId:        req.LibraryId,
		},
		Strategy:     strategy,
		UseReranking: req.UseReranking,
		K:            k,
		Budget:       s.budget,
	})
	if err != nil {
		return nil, err
	}

	reranked := len(suggestions) > 0 && suggestions[0].Signal == store.SignalReranked

	return &dto.SuggestResponse{
		SessionId:   req.SessionId,
		Generation:  gen,
		Strategy:    string(strategy),
		Reranked:    reranked,
		Suggestions: suggestions,
	}, nil
}

// CloseSession abandons any in-flight generation; its result will never be
// delivered.
func (s *suggestService) CloseSession(sessionId string) {
	if sess, found := s.sessions.Get(sessionId); found {
		sess.Close()
	}
	s.sessions.Delete(sessionId)
}

func (s *suggestService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	indexed, err := uow.PaperRepository().Count(ctx, specification.ByStatus{Status: string(entity.PaperStatusIndexed)})
	if err != nil {
		return nil, err
	}
	failed, err := uow.PaperRepository().Count(ctx, specification.ByStatus{Status: string(entity.PaperStatusError)})
	if err != nil {
		return nil, err
	}

	return &dto.StatsResponse{
		Index:          s.indexes.Stats(),
		ActiveSessions: s.sessions.Count(),
		PapersIndexed:  indexed,
		PapersFailed:   failed,
	}, nil
}
