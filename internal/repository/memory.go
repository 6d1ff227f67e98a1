package repository

import (
	"bytes"
	"context"
	"sync"

	"github.com/debemdeboas/yasny-slukh/internal/model"
)

type memBlob struct {
	mu   sync.RWMutex
	data []byte
}

func (m *memBlob) read(context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return bytes.Clone(m.data), nil
}

func (m *memBlob) write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = bytes.Clone(data)
	return nil
}

// MemoryStore keeps the snapshot in process. Callers never share memory with
// it: everything goes in and out through an encoded copy.
type MemoryStore struct {
	*blobStore
	changes broadcaster
}

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{blobStore: newBlobStore("memory", &memBlob{}, nil)}
	m.afterWrite = m.changes.publish
	return m
}

// NewMemoryStoreWith returns a store already holding s, orders included.
func NewMemoryStoreWith(s *model.Snapshot) *MemoryStore {
	m := NewMemoryStore()
	c := s.Clone()
	if err := m.store(context.Background(), c); err != nil {
		repoLogger.Error().Err(err).Msg("Error seeding memory store")
	}
	return m
}

func (m *MemoryStore) Watch(ctx context.Context) (<-chan *model.Snapshot, error) {
	return m.changes.subscribe(ctx), nil
}
