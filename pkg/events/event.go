package events

import (
	"time"

	"github.com/google/uuid"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "PAPER_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewPaperIndexed announces that a paper's chunk set was rebuilt and both
// indexes now serve it.
func NewPaperIndexed(paperId uuid.UUID, chunks int, modelVersion string) Event {
	return BaseEvent{
		Type: "PAPER_INDEXED",
		Data: map[string]interface{}{
			"paper_id":      paperId.String(),
			"chunks":        chunks,
			"model_version": modelVersion,
		},
		OccurredAt: time.Now(),
	}
}

// NewPaperFailed announces that ingest aborted for a paper and its status
// moved to error.
func NewPaperFailed(paperId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: "PAPER_FAILED",
		Data: map[string]interface{}{
			"paper_id": paperId.String(),
			"reason":   reason,
		},
		OccurredAt: time.Now(),
	}
}
