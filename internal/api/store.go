package api

import (
	"sync"
)

// DefaultRunCapacity bounds the runs a RunStore keeps.
const DefaultRunCapacity = 256

// RunStore keeps the most recent kernel runs so clients can fetch them by
// id. The oldest run is evicted once the store is full.
type RunStore struct {
	mu    sync.Mutex
	cap   int
	order []string
	runs  map[string]*RunResponse
}

func NewRunStore(capacity int) *RunStore {
	if capacity <= 0 {
		capacity = DefaultRunCapacity
	}
	return &RunStore{
		cap:  capacity,
		runs: make(map[string]*RunResponse),
	}
}

func (s *RunStore) Put(run *RunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run
	for len(s.order) > s.cap {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *RunStore) Get(id string) (*RunResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	return run, ok
}

func (s *RunStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return false
	}
	delete(s.runs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}
