package storage

import (
	"context"
	"sort"
	"sync"

	"houndsim/internal/model"
)

type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]model.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		s.runs = make(map[string]model.RunRecord)
	}
	return nil
}

func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.RunRecord)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, record model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs == nil {
		s.runs = make(map[string]model.RunRecord)
	}
	copied := record
	copied.Accuracies = append([]float64(nil), record.Accuracies...)
	s.runs[record.ID] = copied
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[id]
	if !ok {
		return model.RunRecord{}, false, nil
	}
	copied := record
	copied.Accuracies = append([]float64(nil), record.Accuracies...)
	return copied, true, nil
}

func (s *MemoryStore) ListRunIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id        string
		createdAt string
	}
	entries := make([]entry, 0, len(s.runs))
	for id, record := range s.runs {
		entries = append(entries, entry{id: id, createdAt: record.CreatedAtUTC})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].createdAt == entries[j].createdAt {
			return entries[i].id < entries[j].id
		}
		return entries[i].createdAt > entries[j].createdAt
	})

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	return ids, nil
}
