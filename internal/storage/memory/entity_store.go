package memory

import (
	"context"
	"encoding/json"
	"sync"

	"gaugeScope/internal/model"
	"gaugeScope/internal/storage"
)

type entityKey struct {
	kind model.Kind
	id   string
}

// EntityStore is an in-memory implementation of storage.EntityStore.
type EntityStore struct {
	mu   sync.RWMutex
	data map[entityKey][]byte
}

// NewEntityStore creates a new in-memory entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{data: make(map[entityKey][]byte)}
}

// LoadEntity returns a copy of the stored document.
func (s *EntityStore) LoadEntity(_ context.Context, kind model.Kind, id string) (json.RawMessage, bool, error) {
	if kind == "" || id == "" {
		return nil, false, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[entityKey{kind: kind, id: id}]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), data...), true, nil
}

// SaveEntity upserts a document.
func (s *EntityStore) SaveEntity(_ context.Context, kind model.Kind, id string, data json.RawMessage) error {
	if kind == "" || id == "" || len(data) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[entityKey{kind: kind, id: id}] = append([]byte(nil), data...)
	return nil
}

// RemoveEntity deletes a document if present.
func (s *EntityStore) RemoveEntity(_ context.Context, kind model.Kind, id string) error {
	if kind == "" || id == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, entityKey{kind: kind, id: id})
	return nil
}

// Count returns the number of stored entities of a kind.
func (s *EntityStore) Count(kind model.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key := range s.data {
		if key.kind == kind {
			n++
		}
	}
	return n
}

// IDs returns the ids stored under a kind, in no particular order.
func (s *EntityStore) IDs(kind model.Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for key := range s.data {
		if key.kind == kind {
			ids = append(ids, key.id)
		}
	}
	return ids
}
