package metadata

import (
	"context"
	"sort"
	"sync"

	"github.com/formvault/document-storage-backend/interfaces"
)

// MemoryStore keeps records in process memory. It backs tests and
// single-node deployments that can afford to lose metadata on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[interfaces.DocumentID]Record
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[interfaces.DocumentID]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id interfaces.DocumentID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]Record, error) {
	s.mu.RLock()
	matched := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if filter.matches(rec) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	// Newest first, ID as tie-breaker so pages are stable.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UploadedAt.Equal(matched[j].UploadedAt) {
			return matched[i].UploadedAt.After(matched[j].UploadedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	if filter.Offset >= len(matched) {
		return []Record{}, nil
	}
	matched = matched[filter.Offset:]
	if limit := filter.pageSize(); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) Delete(_ context.Context, id interfaces.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) Healthy(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
