// Package kvstoretest provides an in-memory kvstore.Store for tests of packages that persist state.
package kvstoretest

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/kvstore"
)

// MemoryStore mirrors the compare-and-swap rules of kvstore.PGStore in a map.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]kvstore.Entry
}

var _ kvstore.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]kvstore.Entry)}
}

func (m *MemoryStore) Get(_ context.Context, scope, key string) (*kvstore.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[scope+"/"+key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	e.Blob = append([]byte(nil), e.Blob...)
	return &e, nil
}

func (m *MemoryStore) Put(_ context.Context, scope, key string, blob []byte, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := scope + "/" + key
	current, ok := m.entries[id]
	switch {
	case !ok && expectedVersion != 0:
		return 0, kvstore.ErrVersionConflict
	case ok && current.Version != expectedVersion:
		return 0, kvstore.ErrVersionConflict
	}

	m.entries[id] = kvstore.Entry{
		Scope:     scope,
		Key:       key,
		Blob:      append([]byte(nil), blob...),
		Version:   expectedVersion + 1,
		UpdatedAt: time.Now().UTC(),
	}
	return expectedVersion + 1, nil
}
