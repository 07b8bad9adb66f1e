package store

import (
	"errors"

	"github.com/google/uuid"
)

// Strategy selects which retrieval signal(s) a suggestion request uses.
// It is a closed set; unknown values are rejected at the API boundary.
type Strategy string

const (
	StrategyVector Strategy = "vector"
	StrategyBM25   Strategy = "bm25"
	StrategyHybrid Strategy = "hybrid"
)

var ErrInvalidStrategy = errors.New("invalid retrieval strategy")

// ParseStrategy validates a wire-level strategy string.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyVector, StrategyBM25, StrategyHybrid:
		return Strategy(s), nil
	}
	return "", ErrInvalidStrategy
}

// Signal records which stage produced a suggestion's final score.
type Signal string

const (
	SignalVector   Signal = "vector"
	SignalLexical  Signal = "lexical"
	SignalHybrid   Signal = "hybrid"
	SignalReranked Signal = "reranked"
)

// Candidate is a scored chunk reference flowing between retrieval stages.
type Candidate struct {
	ChunkId    uuid.UUID
	PaperId    uuid.UUID
	ChunkIndex int
	Text       string

	// Raw per-source scores before normalization. A source that did not
	// return the chunk leaves its raw score at 0 with Has* false.
	VectorScore  float64
	LexicalScore float64
	HasVector    bool
	HasLexical   bool
}

// Suggestion is the ranked output unit delivered to the caller.
type Suggestion struct {
	ChunkId    uuid.UUID `json:"chunk_id"`
	PaperId    uuid.UUID `json:"paper_id"`
	PaperTitle string    `json:"paper_title"`
	PaperYear  int       `json:"paper_year,omitempty"`
	ChunkIndex int       `json:"chunk_index"`
	Excerpt    string    `json:"excerpt"`
	Confidence float64   `json:"confidence"`
	Signal     Signal    `json:"signal"`
}

// QueryContext is the ephemeral editing context a suggestion request carries.
// It is never persisted.
type QueryContext struct {
	CurrentSentence  string
	PreviousSentence string
	NextSentence     string
	Paragraph        string
	CursorOffset     int // rune offset into CurrentSentence; <0 means end
	UserId           uuid.UUID
	LibraryId        *uuid.UUID // optional result scoping
}
