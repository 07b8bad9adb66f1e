package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/internal/repository/contract"
	"citation-assist-be/internal/repository/specification"
	"citation-assist-be/pkg/embedding"
	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/ranker"
	"citation-assist-be/pkg/reranker"
	"citation-assist-be/pkg/retrieval/query"
	"citation-assist-be/pkg/retrieval/session"
	"citation-assist-be/pkg/store"

	"github.com/google/uuid"
)

// ErrTimeout signals that the request budget expired before any ranking
// stage completed.
var ErrTimeout = errors.New("suggestion deadline exceeded")

const (
	// DefaultBudget bounds a request when the caller supplies none.
	DefaultBudget = 5 * time.Second
	// fetchFactor widens the per-source candidate pool before fusion so a
	// chunk strong in only one signal still reaches the ranker.
	fetchFactor = 3
	// maxExcerptRunes bounds the excerpt returned to the caller.
	maxExcerptRunes = 500
)

// Pipeline runs one suggestion request end to end: build the query, gather
// vector and lexical candidates, fuse, optionally rerank, hydrate paper
// identity. Each execution is tagged with a session generation and its
// result is dropped if a newer request superseded it.
type Pipeline struct {
	embedder embedding.EmbeddingProvider
	indexes  *index.Manager
	rerank   *reranker.Stage
	papers   contract.PaperRepository
	logger   logger.ILogger
	alpha    float64
}

func New(embedder embedding.EmbeddingProvider, indexes *index.Manager, rerank *reranker.Stage, papers contract.PaperRepository, alpha float64, log logger.ILogger) *Pipeline {
	if alpha <= 0 || alpha >= 1 {
		alpha = ranker.DefaultAlpha
	}
	return &Pipeline{
		embedder: embedder,
		indexes:  indexes,
		rerank:   rerank,
		papers:   papers,
		logger:   log,
		alpha:    alpha,
	}
}

// Request is one suggestion request as the transport hands it over.
type Request struct {
	Context      store.QueryContext
	Strategy     store.Strategy
	UseReranking bool
	K            int
	Budget       time.Duration
}

// Execute runs the pipeline for one generation of a session. It returns
// session.ErrSuperseded when a newer generation arrived while this one was
// in flight; the transport drops that silently.
func (p *Pipeline) Execute(ctx context.Context, sess *session.Session, gen int64, req Request) ([]store.Suggestion, error) {
	if req.K <= 0 {
		req.K = 10
	}
	budget := req.Budget
	if budget <= 0 {
		budget = DefaultBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	built, err := query.Build(req.Context)
	if err != nil {
		return nil, err
	}
	if !sess.IsCurrent(gen) {
		return nil, session.ErrSuperseded
	}

	fused, err := p.retrieve(ctx, built, req)
	if err != nil {
		return nil, p.mapDeadline(err)
	}
	if !sess.IsCurrent(gen) {
		return nil, session.ErrSuperseded
	}

	if req.UseReranking {
		// Falls back to the fused order on any reranker fault, so the
		// budget expiring here still returns the hybrid ranking.
		fused, _ = p.rerank.Apply(ctx, built.RerankContext, fused)
	}
	if len(fused) > req.K {
		fused = fused[:req.K]
	}

	suggestions := p.hydrate(ctx, fused)
	if !sess.IsCurrent(gen) {
		return nil, session.ErrSuperseded
	}
	return suggestions, nil
}

// retrieve gathers candidates from the strategy's sources and fuses them.
// Both sources complete before fusion; no partial fusion races.
func (p *Pipeline) retrieve(ctx context.Context, built query.Built, req Request) ([]ranker.Ranked, error) {
	fetchK := req.K * fetchFactor
	libraryId := req.Context.LibraryId

	var (
		vectorHits  []index.Hit
		lexicalHits []index.Hit
	)

	g, gctx := errgroup.WithContext(ctx)

	if req.Strategy == store.StrategyVector || req.Strategy == store.StrategyHybrid {
		g.Go(func() error {
			queryVector, err := p.embedder.Generate(gctx, built.Text, embedding.TaskQuery)
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}
			vectorHits, err = p.indexes.QueryVector(gctx, queryVector, fetchK, libraryId)
			return err
		})
	}
	if req.Strategy == store.StrategyBM25 || req.Strategy == store.StrategyHybrid {
		g.Go(func() error {
			var err error
			lexicalHits, err = p.indexes.QueryLexical(gctx, built.Text, fetchK, libraryId)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ranker.Rank(vectorHits, lexicalHits, req.Strategy, p.alpha, fetchK), nil
}

// hydrate attaches paper identity to the ranked chunks. A lookup failure
// degrades to bare suggestions rather than failing a completed ranking.
func (p *Pipeline) hydrate(ctx context.Context, ranked []ranker.Ranked) []store.Suggestion {
	paperIds := make([]uuid.UUID, 0, len(ranked))
	seen := make(map[uuid.UUID]bool, len(ranked))
	for _, r := range ranked {
		if !seen[r.PaperId] {
			seen[r.PaperId] = true
			paperIds = append(paperIds, r.PaperId)
		}
	}

	byId := make(map[uuid.UUID]struct {
		title string
		year  int
	}, len(paperIds))
	if len(paperIds) > 0 {
		papers, err := p.papers.FindAll(ctx, specification.ByIDs{IDs: paperIds})
		if err != nil {
			p.logger.Warn("SuggestionPipeline", "Paper hydration failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			for _, paper := range papers {
				byId[paper.Id] = struct {
					title string
					year  int
				}{paper.Title, paper.Year}
			}
		}
	}

	out := make([]store.Suggestion, len(ranked))
	for i, r := range ranked {
		meta := byId[r.PaperId]
		out[i] = store.Suggestion{
			ChunkId:    r.ChunkId,
			PaperId:    r.PaperId,
			PaperTitle: meta.title,
			PaperYear:  meta.year,
			ChunkIndex: r.ChunkIndex,
			Excerpt:    excerpt(r.Text),
			Confidence: r.Confidence,
			Signal:     r.Signal,
		}
	}
	return out
}

func (p *Pipeline) mapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrTimeout, err)
	}
	return err
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= maxExcerptRunes {
		return text
	}
	return string(runes[:maxExcerptRunes]) + "..."
}
