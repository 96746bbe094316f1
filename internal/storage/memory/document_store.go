package memory

import (
	"bytes"
	"context"
	"sync"

	"options-trade-lab/internal/storage"
)

// DocumentStore is an in-memory implementation of storage.DocumentStore.
type DocumentStore struct {
	mu   sync.RWMutex
	data map[string][]byte // keyed by document name
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		data: make(map[string][]byte),
	}
}

// Read returns a copy of the document. Returns ErrNotFound if not exists.
func (s *DocumentStore) Read(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[name]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return bytes.Clone(d), nil
}

// Write replaces the document.
func (s *DocumentStore) Write(_ context.Context, name string, data []byte) error {
	if name == "" {
		return storage.ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[name] = bytes.Clone(data)
	return nil
}

var _ storage.DocumentStore = (*DocumentStore)(nil)
