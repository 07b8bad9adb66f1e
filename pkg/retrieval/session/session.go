package session

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrSuperseded signals that a newer request arrived on the same session
// while this one was in flight. The caller drops the result silently.
var ErrSuperseded = errors.New("suggestion request superseded")

// Session tracks the suggestion stream for one editing surface. Every
// request takes the next generation number; only results whose generation
// is still current when they complete may be delivered.
type Session struct {
	Id        string
	UserId    uuid.UUID
	LibraryId *uuid.UUID
	CreatedAt time.Time

	generation atomic.Int64
	closed     atomic.Bool
}

func New(id string, userId uuid.UUID, libraryId *uuid.UUID) *Session {
	return &Session{
		Id:        id,
		UserId:    userId,
		LibraryId: libraryId,
		CreatedAt: time.Now(),
	}
}

// Next reserves the next generation number, superseding every request
// currently in flight on this session.
func (s *Session) Next() int64 {
	return s.generation.Add(1)
}

// Observe advances the session to a transport-supplied generation token.
// It returns false when the token is not newer than the current one, which
// means the request is already stale on arrival.
func (s *Session) Observe(gen int64) bool {
	for {
		cur := s.generation.Load()
		if gen <= cur {
			return false
		}
		if s.generation.CompareAndSwap(cur, gen) {
			return true
		}
	}
}

// IsCurrent reports whether a result computed for gen may still be
// delivered. A closed session delivers nothing.
func (s *Session) IsCurrent(gen int64) bool {
	if s.closed.Load() {
		return false
	}
	return s.generation.Load() == gen
}

// Generation returns the latest generation number.
func (s *Session) Generation() int64 {
	return s.generation.Load()
}

func (s *Session) Close() {
	s.closed.Store(true)
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}
