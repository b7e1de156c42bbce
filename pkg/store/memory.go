package store

import (
	"context"
	"sync"

	"github.com/genecyber/NOESIS-sub002/pkg/session"
)

// MemoryStore keeps encoded records in a map. Records are stored encoded so
// callers never share state with the store.
type MemoryStore struct {
	records map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, rec *session.Record) error {
	data, err := rec.Marshal()
	if err != nil {
		return writeFailed(err, rec.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = data
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, id string) (*session.Record, error) {
	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	rec, err := session.UnmarshalRecord(data)
	if err != nil {
		return nil, readFailed(err, id)
	}
	return rec, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Summary, 0, len(s.records))
	for id, data := range s.records {
		rec, err := session.UnmarshalRecord(data)
		if err != nil {
			return nil, readFailed(err, id)
		}
		out = append(out, summarize(rec))
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return notFound(id)
	}
	delete(s.records, id)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
