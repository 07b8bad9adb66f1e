package reranker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citation-assist-be/internal/pkg/logger"
	"citation-assist-be/pkg/ranker"
	"citation-assist-be/pkg/store"
)

type fakeReranker struct {
	scores []float64
	err    error
	delay  time.Duration
}

func (f *fakeReranker) Rerank(ctx context.Context, queryContext string, candidates []ranker.Ranked) ([]float64, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.scores, f.err
}

func (f *fakeReranker) ModelName() string { return "fake" }

func candidates(n int) []ranker.Ranked {
	paper := uuid.New()
	out := make([]ranker.Ranked, n)
	for i := range out {
		out[i] = ranker.Ranked{
			Candidate: store.Candidate{
				ChunkId:    uuid.New(),
				PaperId:    paper,
				ChunkIndex: i,
				Text:       "candidate text",
			},
			Confidence: 1.0 - float64(i)*0.1,
			Signal:     store.SignalHybrid,
		}
	}
	return out
}

func TestStageReorders(t *testing.T) {
	in := candidates(3)
	stage := NewStage(&fakeReranker{scores: []float64{0.1, 0.9, 0.5}}, time.Second, logger.NewNopLogger())

	out, reranked := stage.Apply(context.Background(), "ctx", in)
	require.True(t, reranked)
	require.Len(t, out, 3)

	assert.Equal(t, in[1].ChunkId, out[0].ChunkId)
	assert.Equal(t, 0.9, out[0].Confidence)
	assert.Equal(t, store.SignalReranked, out[0].Signal)

	// Input order is untouched.
	assert.Equal(t, store.SignalHybrid, in[0].Signal)
}

func TestStageFallsBackOnError(t *testing.T) {
	in := candidates(3)
	stage := NewStage(&fakeReranker{err: errors.New("model down")}, time.Second, logger.NewNopLogger())

	out, reranked := stage.Apply(context.Background(), "ctx", in)
	assert.False(t, reranked)
	// Hybrid ranking passes through unchanged.
	assert.Equal(t, in, out)
}

func TestStageFallsBackOnTimeout(t *testing.T) {
	in := candidates(2)
	stage := NewStage(&fakeReranker{scores: []float64{1, 1}, delay: time.Second}, 10*time.Millisecond, logger.NewNopLogger())

	out, reranked := stage.Apply(context.Background(), "ctx", in)
	assert.False(t, reranked)
	assert.Equal(t, in, out)
}

func TestStageFallsBackOnWrongScoreCount(t *testing.T) {
	in := candidates(3)
	stage := NewStage(&fakeReranker{scores: []float64{0.5}}, time.Second, logger.NewNopLogger())

	out, reranked := stage.Apply(context.Background(), "ctx", in)
	assert.False(t, reranked)
	assert.Equal(t, in, out)
}

func TestStageSkippedWhenNil(t *testing.T) {
	in := candidates(2)
	var stage *Stage

	out, reranked := stage.Apply(context.Background(), "ctx", in)
	assert.False(t, reranked)
	assert.Equal(t, in, out)
}

func TestStageClampsScores(t *testing.T) {
	in := candidates(2)
	stage := NewStage(&fakeReranker{scores: []float64{1.7, -0.3}}, time.Second, logger.NewNopLogger())

	out, reranked := stage.Apply(context.Background(), "ctx", in)
	require.True(t, reranked)
	assert.Equal(t, 1.0, out[0].Confidence)
	assert.Equal(t, 0.0, out[1].Confidence)
}

func TestParseScoresToleratesWrapping(t *testing.T) {
	scores, err := parseScores("Here you go:\n```json\n[0.2, 0.8]\n```", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.8}, scores)

	_, err = parseScores("no array here", 2)
	assert.Error(t, err)

	_, err = parseScores("[0.2]", 2)
	assert.Error(t, err)
}
