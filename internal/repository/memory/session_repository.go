package memory

import (
	"time"

	"citation-assist-be/pkg/retrieval/session"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository() *SessionRepository {
	// Sessions idle for an hour are abandoned editors; purge them so
	// generation counters do not accumulate forever.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(s *session.Session) {
	r.cache.Set(s.Id, s, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionId string) (*session.Session, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*session.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionId string) {
	r.cache.Delete(sessionId)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
