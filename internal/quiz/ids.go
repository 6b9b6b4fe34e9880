package quiz

import (
	"sync"
	"time"
)

// IDSequence hands out time-seeded integer ids that are strictly increasing
// within the process, so two questions created in the same millisecond (a
// bulk import, say) never share an id.
type IDSequence struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDSequence(now func() time.Time) *IDSequence {
	if now == nil {
		now = time.Now
	}
	return &IDSequence{now: now}
}

func (s *IDSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

// Observe makes later ids exceed an id already in storage.
func (s *IDSequence) Observe(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.last {
		s.last = id
	}
}
