package api

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/dxnn/dagoba/internal/dagoba/query"
)

// cursor is a query kept between requests. Each run resumes where the
// previous one stopped.
type cursor struct {
	mu      sync.Mutex
	id      string
	query   *query.Query
	created time.Time
	pages   int
}

// cursorStore holds open cursors in creation order and evicts the oldest
// once max is reached
type cursorStore struct {
	mu      sync.Mutex
	max     int
	cursors *linkedhashmap.Map
}

func newCursorStore(max int) *cursorStore {
	if max < 1 {
		max = 1
	}
	return &cursorStore{max: max, cursors: linkedhashmap.New()}
}

// Put stores c and returns the id of the cursor it evicted, if any
func (s *cursorStore) Put(c *cursor) (evicted string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursors.Size() >= s.max {
		oldest := s.cursors.Keys()[0]
		s.cursors.Remove(oldest)
		evicted = oldest.(string)
	}
	s.cursors.Put(c.id, c)
	return evicted
}

func (s *cursorStore) Get(id string) (*cursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cursors.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*cursor), true
}

func (s *cursorStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cursors.Get(id); !ok {
		return false
	}
	s.cursors.Remove(id)
	return true
}

func (s *cursorStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors.Size()
}
