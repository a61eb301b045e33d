package memory

import (
	"context"
	"sync"

	"cardauth/internal/eventlog"
)

// Store is a bounded, thread-safe ring of events. When full the oldest event
// is dropped to make room.
type Store struct {
	mu       sync.Mutex
	events   []eventlog.Event
	head     int // next write position
	count    int
	capacity int

	dropped int64
}

// New creates a store holding at most capacity events.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = eventlog.DefaultCapacity
	}
	return &Store{
		events:   make([]eventlog.Event, capacity),
		capacity: capacity,
	}
}

func (s *Store) Append(_ context.Context, event eventlog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == s.capacity {
		s.dropped++
	} else {
		s.count++
	}
	s.events[s.head] = event
	s.head = (s.head + 1) % s.capacity
	return nil
}

// List returns up to limit events, newest first. A non-positive limit returns
// everything.
func (s *Store) List(_ context.Context, limit int) ([]eventlog.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]eventlog.Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.head - i + s.capacity) % s.capacity
		out = append(out, s.events[idx])
	}
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}

func (s *Store) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.count
	clear(s.events)
	s.head = 0
	s.count = 0
	return n, nil
}

// Dropped returns how many events were evicted by newer ones.
func (s *Store) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Capacity returns the maximum number of retained events.
func (s *Store) Capacity() int {
	return s.capacity
}
