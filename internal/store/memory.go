package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of record storage
type MemoryStore struct {
	records map[string]Record
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// SaveRecord saves a record to the store
func (s *MemoryStore) SaveRecord(_ context.Context, r Record) (string, error) {
	r.ID = uuid.New().String()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r

	return r.ID, nil
}

// GetRecord retrieves a record by ID
func (s *MemoryStore) GetRecord(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.records[id]
	if !exists {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// Stats aggregates stored records
func (s *MemoryStore) Stats(_ context.Context, ip string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{IP: ip}
	for _, r := range s.records {
		if ip != "" && r.IP != ip {
			continue
		}
		stats.tally(r)
	}
	return stats, nil
}
