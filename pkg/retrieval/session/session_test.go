package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSupersedesInFlight(t *testing.T) {
	s := New("sess-1", uuid.New(), nil)

	gen1 := s.Next()
	gen2 := s.Next()

	require.Less(t, gen1, gen2)
	assert.False(t, s.IsCurrent(gen1), "older generation must never deliver")
	assert.True(t, s.IsCurrent(gen2))
}

func TestObserveRejectsStaleTokens(t *testing.T) {
	s := New("sess-1", uuid.New(), nil)

	assert.True(t, s.Observe(5))
	assert.False(t, s.Observe(5), "same token is stale")
	assert.False(t, s.Observe(3), "older token is stale")
	assert.True(t, s.Observe(9))
	assert.Equal(t, int64(9), s.Generation())
}

func TestClosedSessionDeliversNothing(t *testing.T) {
	s := New("sess-1", uuid.New(), nil)
	gen := s.Next()

	s.Close()
	assert.False(t, s.IsCurrent(gen))
	assert.True(t, s.Closed())
}

func TestConcurrentNextIsMonotonic(t *testing.T) {
	s := New("sess-1", uuid.New(), nil)

	const n = 100
	gens := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gens[i] = s.Next()
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, g := range gens {
		assert.False(t, seen[g], "generation %d handed out twice", g)
		seen[g] = true
	}
	assert.Equal(t, int64(n), s.Generation())
}
