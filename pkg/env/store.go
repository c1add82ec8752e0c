package env

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mockdeck/mockdeck/internal/id"
	"github.com/mockdeck/mockdeck/pkg/logging"
	"github.com/mockdeck/mockdeck/pkg/store"
)

// Store holds all environments and the active selection in memory and
// persists them through a blob store. Mutations update memory first and
// hand the bytes to the blob layer without waiting for disk; a write
// that later fails is reported through the blob store's failure hook,
// never as an error on the mutating call.
type Store struct {
	mu       sync.RWMutex
	blobs    store.Blobs
	log      *slog.Logger
	envs     []*Environment
	activeID string
	loaded   bool
}

// NewStore creates an environment store backed by blobs.
func NewStore(blobs store.Blobs) *Store {
	return &Store{
		blobs: blobs,
		log:   logging.Nop(),
	}
}

// SetLogger replaces the store's logger.
func (s *Store) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// Load reads environments and the active selection from the blob store.
// Missing blobs start empty. A blob that fails to decode is logged and
// replaced by the empty state; load never propagates decode errors.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.envs = nil
	s.activeID = ""

	if data, err := s.blobs.Get(ctx, store.BlobEnvironments); err == nil {
		var envs []*Environment
		if jsonErr := json.Unmarshal(data, &envs); jsonErr != nil {
			s.log.Warn("environments blob corrupt, starting empty", "error", jsonErr)
		} else {
			s.envs = envs
		}
	}

	if data, err := s.blobs.Get(ctx, store.BlobActiveEnvironment); err == nil {
		var active string
		if jsonErr := json.Unmarshal(data, &active); jsonErr != nil {
			s.log.Warn("active environment blob corrupt, clearing selection", "error", jsonErr)
		} else {
			s.activeID = active
		}
	}

	s.loaded = true
	return nil
}

// List returns all environments in storage order.
func (s *Store) List(ctx context.Context) []*Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Environment, len(s.envs))
	copy(result, s.envs)
	return result
}

// Get returns the environment with the given id, or store.ErrNotFound.
func (s *Store) Get(ctx context.Context, envID string) (*Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.envs {
		if e.ID == envID {
			return e, nil
		}
	}
	return nil, store.ErrNotFound
}

// Save inserts or replaces an environment. An unknown (or empty) id
// creates a new record with fresh timestamps; a known id replaces every
// field except createdAt and refreshes updatedAt. The stored copy is
// returned; later changes to the argument do not affect the store.
func (s *Store) Save(ctx context.Context, e *Environment) (*Environment, error) {
	if e == nil {
		return nil, store.ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := e.Clone()
	now := time.Now().UnixMilli()

	for i, existing := range s.envs {
		if stored.ID != "" && existing.ID == stored.ID {
			stored.CreatedAt = existing.CreatedAt
			stored.UpdatedAt = now
			s.envs[i] = stored
			s.persistEnvsLocked(ctx)
			return stored, nil
		}
	}

	if stored.ID == "" {
		stored.ID = id.TimeRand()
	}
	if stored.CreatedAt == 0 {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.envs = append(s.envs, stored)
	s.persistEnvsLocked(ctx)
	return stored, nil
}

// Delete removes an environment. Deleting an unknown id is a no-op. If
// the environment was active, the selection is cleared before the
// deletion is persisted, so resolution degrades to the no-active state
// immediately.
func (s *Store) Delete(ctx context.Context, envID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.envs {
		if e.ID == envID {
			if s.activeID == envID {
				s.activeID = ""
				s.persistActiveLocked(ctx)
			}
			s.envs = append(s.envs[:i], s.envs[i+1:]...)
			s.persistEnvsLocked(ctx)
			return nil
		}
	}
	return nil
}

// SetActive selects the environment used for resolution. The id is not
// checked against the stored list: selecting an unknown id is allowed
// and behaves like no selection until an environment with that id
// appears. An empty id clears the selection.
func (s *Store) SetActive(ctx context.Context, envID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeID = envID
	s.persistActiveLocked(ctx)
	return nil
}

// ActiveID returns the selected environment id, or "" when none.
func (s *Store) ActiveID(ctx context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns the selected environment, or nil when no environment
// is selected or the selected id does not resolve.
func (s *Store) Active(ctx context.Context) *Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return nil
	}
	for _, e := range s.envs {
		if e.ID == s.activeID {
			return e
		}
	}
	return nil
}

// persistEnvsLocked hands the environment list to the blob store.
// Must be called with s.mu held.
func (s *Store) persistEnvsLocked(ctx context.Context) {
	data, err := json.Marshal(s.envs)
	if err != nil {
		s.log.Error("failed to encode environments", "error", err)
		return
	}
	if err := s.blobs.Set(ctx, store.BlobEnvironments, data); err != nil {
		s.log.Warn("failed to persist environments", "error", err)
	}
}

// persistActiveLocked hands the active selection to the blob store.
// Must be called with s.mu held.
func (s *Store) persistActiveLocked(ctx context.Context) {
	if s.activeID == "" {
		if err := s.blobs.Delete(ctx, store.BlobActiveEnvironment); err != nil {
			s.log.Warn("failed to clear active environment", "error", err)
		}
		return
	}
	data, err := json.Marshal(s.activeID)
	if err != nil {
		s.log.Error("failed to encode active environment", "error", err)
		return
	}
	if err := s.blobs.Set(ctx, store.BlobActiveEnvironment, data); err != nil {
		s.log.Warn("failed to persist active environment", "error", err)
	}
}
