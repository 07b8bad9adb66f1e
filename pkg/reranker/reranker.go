// Package reranker implements the optional second retrieval stage: scoring
// (query context, candidate chunk) pairs with a model that is more
// expensive and more precise than the first-stage signals.
//
// The stage is advisory. A reranker fault or timeout never fails the
// request; the hybrid ranking passes through unchanged and the result is
// marked non-reranked.
package reranker

import (
	"context"
	"sort"
	"time"

	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/pkg/ranker"
	"citation-assist-be/pkg/store"
)

// Reranker scores candidates against the full editing context.
// Implementations should return results for every candidate; order does
// not matter, the stage resorts.
type Reranker interface {
	// Rerank returns revised confidence scores keyed by candidate position.
	Rerank(ctx context.Context, queryContext string, candidates []ranker.Ranked) ([]float64, error)

	// ModelName identifies the scoring model for logging.
	ModelName() string
}

// Stage wraps a Reranker with the bounded timeout and fallback contract.
type Stage struct {
	reranker Reranker
	timeout  time.Duration
	logger   logger.ILogger
}

func NewStage(r Reranker, timeout time.Duration, log logger.ILogger) *Stage {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Stage{reranker: r, timeout: timeout, logger: log}
}

// Apply reranks the candidates, or returns them unchanged when the
// reranker is absent, errors, times out, or returns a malformed score set.
// The second return reports whether reranking actually happened.
func (s *Stage) Apply(ctx context.Context, queryContext string, candidates []ranker.Ranked) ([]ranker.Ranked, bool) {
	if s == nil || s.reranker == nil || len(candidates) == 0 {
		return candidates, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scores, err := s.reranker.Rerank(ctx, queryContext, candidates)
	if err != nil {
		s.logger.Warn("Reranker", "Rerank failed, falling back to hybrid ranking", map[string]interface{}{
			"model": s.reranker.ModelName(),
			"error": err.Error(),
		})
		return candidates, false
	}
	if len(scores) != len(candidates) {
		s.logger.Warn("Reranker", "Rerank returned wrong score count, falling back", map[string]interface{}{
			"model":    s.reranker.ModelName(),
			"got":      len(scores),
			"expected": len(candidates),
		})
		return candidates, false
	}

	reranked := make([]ranker.Ranked, len(candidates))
	copy(reranked, candidates)
	for i := range reranked {
		reranked[i].Confidence = clamp01(scores[i])
		reranked[i].Signal = store.SignalReranked
	}

	// Stable sort keeps the upstream deterministic order for equal scores.
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Confidence > reranked[j].Confidence
	})
	return reranked, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
