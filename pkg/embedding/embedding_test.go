package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	var magnitude float64
	for _, x := range v {
		magnitude += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-6)

	// Zero vector passes through untouched.
	zero := NormalizeVector([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestCoherenceScore(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	// Identical sentences are maximally coherent.
	assert.InDelta(t, 1.0, CoherenceScore([][]float32{a, a, a}), 1e-6)

	// Orthogonal sentences land mid-scale.
	assert.InDelta(t, 0.5, CoherenceScore([][]float32{a, b}), 1e-6)

	// Single sentence is trivially coherent.
	assert.Equal(t, 1.0, CoherenceScore([][]float32{a}))
	assert.Equal(t, 1.0, CoherenceScore(nil))
}

func TestCoherenceScoreDeterministicSampling(t *testing.T) {
	vectors := make([][]float32, 30) // 435 pairs, above the sampling cap
	for i := range vectors {
		v := make([]float32, 4)
		v[i%4] = 1
		vectors[i] = v
	}
	first := CoherenceScore(vectors)
	second := CoherenceScore(vectors)
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 1.0)
}

func TestOllamaGenerateBatch(t *testing.T) {
	var gotInputs [][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotInputs = append(gotInputs, req.Input)

		resp := ollamaEmbedResponse{}
		for range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float64{3, 4})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 2, 2)

	vectors, err := p.GenerateBatch(context.Background(), []string{"a", "b", "c"}, TaskDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	// Batch ceiling of 2 splits 3 inputs into two requests.
	assert.Len(t, gotInputs, 2)

	// Returned vectors are unit-normalized.
	for _, v := range vectors {
		assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(v[1]), 1e-6)
	}
}

func TestOllamaDimensionCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float64{{1, 2, 3}}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 2, 8)
	_, err := p.Generate(context.Background(), "text", TaskQuery)
	assert.Error(t, err)
}
