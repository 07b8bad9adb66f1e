package dto

import (
	"github.com/google/uuid"

	"citation-assist-be/pkg/index"
	"citation-assist-be/pkg/store"
)

type SuggestContextRequest struct {
	CurrentSentence  string `json:"current_sentence"`
	PreviousSentence string `json:"previous_sentence"`
	NextSentence     string `json:"next_sentence"`
	Paragraph        string `json:"paragraph"`
	CursorOffset     *int   `json:"cursor_offset"` // rune offset; absent means end of sentence
}

type SuggestRequest struct {
	SessionId    string                `json:"session_id" validate:"required"`
	Context      SuggestContextRequest `json:"context" validate:"required"`
	Strategy     string                `json:"strategy" validate:"omitempty,oneof=vector bm25 hybrid"`
	UseReranking bool                  `json:"use_reranking"`
	K            int                   `json:"k" validate:"gte=0,lte=50"`
	Generation   int64                 `json:"generation" validate:"gte=0"`
	LibraryId    *uuid.UUID            `json:"library_id"`
}

type SuggestResponse struct {
	SessionId   string             `json:"session_id"`
	Generation  int64              `json:"generation"`
	Strategy    string             `json:"strategy"`
	Reranked    bool               `json:"reranked"`
	Suggestions []store.Suggestion `json:"suggestions"`
}

type PublishIngestMessage struct {
	PaperId uuid.UUID `json:"paper_id"`
}

type StatsResponse struct {
	Index          index.Stats `json:"index"`
	ActiveSessions int         `json:"active_sessions"`
	PapersIndexed  int64       `json:"papers_indexed"`
	PapersFailed   int64       `json:"papers_failed"`
}
