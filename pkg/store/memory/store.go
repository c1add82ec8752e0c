// Package memory provides an in-memory implementation of the store
// interfaces. Nothing touches disk: intended for tests, examples, and
// ephemeral daemon runs.
package memory

import (
	"context"
	"sync"

	"github.com/mockdeck/mockdeck/pkg/store"
)

// Store implements store.Store entirely in memory.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Open is a no-op; the store is ready as soon as it is constructed.
func (s *Store) Open(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// ForceSave is a no-op; there is no disk behind the store.
func (s *Store) ForceSave() error { return nil }

// Blobs returns the blob surface of the store.
func (s *Store) Blobs() store.Blobs {
	return &blobStore{s: s}
}

// blobStore implements store.Blobs on the shared map.
type blobStore struct {
	s *Store
}

// Get returns a copy of the blob stored under key.
func (b *blobStore) Get(_ context.Context, key string) ([]byte, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	data, ok := b.s.blobs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set stores a copy of data under key.
func (b *blobStore) Set(_ context.Context, key string, data []byte) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	b.s.blobs[key] = stored
	return nil
}

// Delete removes the blob under key. Deleting a missing key is a no-op.
func (b *blobStore) Delete(_ context.Context, key string) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	delete(b.s.blobs, key)
	return nil
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Blobs = (*blobStore)(nil)
)
