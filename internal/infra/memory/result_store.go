package memory

import (
	"context"
	"sync"

	"live-poll-service/internal/domain"
)

// ResultStore is an in-memory implementation of app.ResultStore. It keeps
// at most capacity records, dropping the oldest.
type ResultStore struct {
	mu       sync.RWMutex
	capacity int
	records  []domain.PollRecord
}

func NewResultStore(capacity int) *ResultStore {
	if capacity <= 0 {
		capacity = 100
	}
	return &ResultStore{capacity: capacity}
}

func (s *ResultStore) Save(_ context.Context, record domain.PollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	if over := len(s.records) - s.capacity; over > 0 {
		s.records = append([]domain.PollRecord(nil), s.records[over:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first. limit <= 0 means all.
func (s *ResultStore) Recent(_ context.Context, limit int) ([]domain.PollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.PollRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}
