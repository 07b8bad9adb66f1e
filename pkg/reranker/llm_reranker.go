package reranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"citation-assist-be/pkg/llm"
	"citation-assist-be/pkg/ranker"
)

// maxExcerptChars bounds how much of each chunk goes into the scoring
// prompt; long chunks blow the context window without improving scores.
const maxExcerptChars = 600

// LLMReranker scores (context, chunk) pairs with a chat model in a single
// prompt, expecting a JSON score array back.
type LLMReranker struct {
	provider llm.LLMProvider
	model    string
}

func NewLLMReranker(provider llm.LLMProvider, model string) *LLMReranker {
	return &LLMReranker{provider: provider, model: model}
}

func (r *LLMReranker) ModelName() string {
	return r.model
}

func (r *LLMReranker) Rerank(ctx context.Context, queryContext string, candidates []ranker.Ranked) ([]float64, error) {
	prompt := buildPrompt(queryContext, candidates)

	raw, err := r.provider.Generate(ctx, prompt,
		llm.WithTemperature(0.0),
		llm.WithMaxTokens(256),
	)
	if err != nil {
		return nil, fmt.Errorf("rerank generation: %w", err)
	}

	scores, err := parseScores(raw, len(candidates))
	if err != nil {
		return nil, fmt.Errorf("rerank response: %w", err)
	}
	return scores, nil
}

func buildPrompt(queryContext string, candidates []ranker.Ranked) string {
	var sb strings.Builder
	sb.WriteString("You are scoring citation candidates for a sentence being written.\n")
	sb.WriteString("Passage being written:\n")
	sb.WriteString(queryContext)
	sb.WriteString("\n\nCandidates:\n")
	for i, c := range candidates {
		excerpt := c.Text
		if len(excerpt) > maxExcerptChars {
			excerpt = excerpt[:maxExcerptChars]
		}
		fmt.Fprintf(&sb, "[%d] %s\n", i, excerpt)
	}
	fmt.Fprintf(&sb,
		"\nRate how well each candidate supports the passage as a citation, 0.0 to 1.0.\n"+
			"Respond with ONLY a JSON array of %d numbers, one per candidate, in order.\n",
		len(candidates))
	return sb.String()
}

// parseScores tolerates models that wrap the array in prose or code fences.
func parseScores(raw string, expected int) ([]float64, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in %q", truncate(raw, 120))
	}

	var scores []float64
	if err := json.Unmarshal([]byte(raw[start:end+1]), &scores); err != nil {
		return nil, err
	}
	if len(scores) != expected {
		return nil, fmt.Errorf("got %d scores, expected %d", len(scores), expected)
	}
	return scores, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
