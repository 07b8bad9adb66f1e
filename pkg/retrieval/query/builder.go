package query

import (
	"errors"
	"strings"

	"citation-assist-be/pkg/store"
)

// ErrEmptyQuery signals that the editing context holds no usable text,
// e.g. the cursor sits at the start of an empty document.
var ErrEmptyQuery = errors.New("no usable query text in context")

// currentSentenceWeight repeats the settled current sentence so lexical
// scoring favors it over the neighboring sentences.
const currentSentenceWeight = 2

// Built is the retrieval query derived from one editing context.
type Built struct {
	// Text feeds both the embedder and the lexical index.
	Text string
	// Settled is the authored part of the current sentence.
	Settled string
	// RerankContext is the fuller passage handed to the reranker.
	RerankContext string
}

// Build converts an editing context into a retrieval query. The cursor
// offset decides how much of the current sentence counts as settled: text
// after the cursor has not been fully authored yet and is excluded. The
// neighboring sentences disambiguate without dominating the match.
func Build(qc store.QueryContext) (Built, error) {
	settled := settleCurrent(qc.CurrentSentence, qc.CursorOffset)
	prev := strings.TrimSpace(qc.PreviousSentence)
	next := strings.TrimSpace(qc.NextSentence)

	if settled == "" && prev == "" && next == "" {
		return Built{}, ErrEmptyQuery
	}

	parts := make([]string, 0, currentSentenceWeight+2)
	if prev != "" {
		parts = append(parts, prev)
	}
	if settled != "" {
		for i := 0; i < currentSentenceWeight; i++ {
			parts = append(parts, settled)
		}
	}
	if next != "" {
		parts = append(parts, next)
	}

	return Built{
		Text:          strings.Join(parts, " "),
		Settled:       settled,
		RerankContext: rerankContext(qc, settled, prev, next),
	}, nil
}

// settleCurrent cuts the current sentence at the cursor. A negative offset
// or one past the end means the whole sentence is settled. The offset
// counts runes, matching how editors report cursor positions.
func settleCurrent(sentence string, cursor int) string {
	if cursor < 0 {
		return strings.TrimSpace(sentence)
	}
	runes := []rune(sentence)
	if cursor >= len(runes) {
		return strings.TrimSpace(sentence)
	}
	return strings.TrimSpace(string(runes[:cursor]))
}

// rerankContext prefers the full paragraph when present; the reranker
// benefits from more surrounding prose than the weighted query does.
func rerankContext(qc store.QueryContext, settled, prev, next string) string {
	if p := strings.TrimSpace(qc.Paragraph); p != "" {
		return p
	}
	parts := make([]string, 0, 3)
	if prev != "" {
		parts = append(parts, prev)
	}
	if settled != "" {
		parts = append(parts, settled)
	}
	if next != "" {
		parts = append(parts, next)
	}
	return strings.Join(parts, " ")
}
