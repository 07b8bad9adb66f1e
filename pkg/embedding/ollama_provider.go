package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaProvider implements EmbeddingProvider for local Ollama models
// (e.g., nomic-embed-text).
type OllamaProvider struct {
	BaseURL   string
	Model     string
	Dim       int
	BatchSize int // ceiling per request, throughput tunable only
	client    *http.Client
}

func NewOllamaProvider(baseURL string, model string, dim int, batchSize int) EmbeddingProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if dim <= 0 {
		dim = 768
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &OllamaProvider{
		BaseURL:   baseURL,
		Model:     model,
		Dim:       dim,
		BatchSize: batchSize,
		client:    &http.Client{},
	}
}

// Ollama /api/embed request/response structures (batch-capable endpoint)
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"` // Ollama returns float64
}

func (p *OllamaProvider) ModelVersion() string {
	return fmt.Sprintf("ollama/%s", p.Model)
}

func (p *OllamaProvider) Dimension() int {
	return p.Dim
}

func (p *OllamaProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	// TaskType is ignored for Nomic/Ollama, kept for interface compatibility
	vectors, err := p.GenerateBatch(ctx, []string{text}, taskType)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *OllamaProvider) GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += p.BatchSize {
		end := start + p.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := p.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}

	return results, nil
}

func (p *OllamaProvider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := ollamaEmbedRequest{
		Model: p.Model,
		Input: texts,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/embed", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error: %s", string(bodyBytes))
	}

	var ollamaResp ollamaEmbedResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return nil, err
	}

	if len(ollamaResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(ollamaResp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(ollamaResp.Embeddings))
	for i, raw := range ollamaResp.Embeddings {
		if len(raw) != p.Dim {
			return nil, fmt.Errorf("ollama returned %d-dim embedding, expected %d", len(raw), p.Dim)
		}
		// Convert float64 to float32 for compatibility with our system
		values := make([]float32, len(raw))
		for j, v := range raw {
			values[j] = float32(v)
		}
		vectors[i] = NormalizeVector(values)
	}

	return vectors, nil
}
