// Package quiz drives a user through a test one question at a time and
// keeps the attempt state server-side.
package quiz

import "sync"

// Progress is the state of one quiz attempt. It is a value type: handlers
// read a copy, mutate it and write it back.
type Progress struct {
	TestID      int64
	QuestionIDs []int64
	Index       int
	Score       int
	Total       int
}

func (p Progress) Finished() bool {
	return p.Index >= p.Total
}

// ProgressStore holds at most one active attempt per user. Starting a new
// test replaces whatever attempt was in flight.
type ProgressStore struct {
	mu     sync.Mutex
	byUser map[int64]Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{byUser: make(map[int64]Progress)}
}

func (s *ProgressStore) Start(userID int64, p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = p
}

func (s *ProgressStore) Get(userID int64) (Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byUser[userID]
	return p, ok
}

func (s *ProgressStore) Set(userID int64, p Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = p
}

func (s *ProgressStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
}
