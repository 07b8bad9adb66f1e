package embedding

import "context"

// Task types passed through to providers that distinguish document and
// query embeddings.
const (
	TaskDocument = "RETRIEVAL_DOCUMENT"
	TaskQuery    = "RETRIEVAL_QUERY"
)

// EmbeddingProvider defines the interface for generating text embeddings.
type EmbeddingProvider interface {
	// Generate embeds a single text.
	Generate(ctx context.Context, text string, taskType string) ([]float32, error)

	// GenerateBatch embeds several texts, in one round trip where the
	// backend supports it. Results match the input order.
	GenerateBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)

	// ModelVersion identifies the embedding model. Indexes record it so
	// queries are never routed to an index built with a different model.
	ModelVersion() string

	// Dimension is the fixed output vector length.
	Dimension() int
}
