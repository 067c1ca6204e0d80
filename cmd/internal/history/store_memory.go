package history

import (
	"context"
	"sync"
)

// memMaxRecords bounds dev-mode memory: the oldest records fall off.
const memMaxRecords = 1_000

// MemoryStore is the fallback archive when no database is configured.
type MemoryStore struct {
	mu   sync.Mutex
	recs []Record
}

// NewMemoryStore constructs an in-memory Store implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Close closes the store (noop for in-memory).
func (s *MemoryStore) Close() error { return nil }

// Save appends a record, evicting the oldest past the cap.
func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	if rec.GameID == "" {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.recs = append(s.recs, rec)
	if len(s.recs) > memMaxRecords {
		s.recs = s.recs[len(s.recs)-memMaxRecords:]
	}
	return nil
}

// ListRecent returns records newest-first.
func (s *MemoryStore) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.recs)
	if limit > n {
		limit = n
	}
	out := make([]Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.recs[i])
	}
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
