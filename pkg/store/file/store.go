// Package file provides a file-based implementation of the store interfaces.
// Data is stored as a single JSON file in an XDG-compliant directory.
package file

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockdeck/mockdeck/pkg/store"
)

// Current data format version for migration support
const dataVersion = 1

// FileStore implements store.Store using a JSON file. Mutations mark the
// store dirty and return immediately; a background loop writes the file
// after a short debounce, so callers never wait on disk.
type FileStore struct {
	cfg          store.Config
	mu           sync.RWMutex
	data         *storeData
	listeners    []store.WriteFailureListener
	listenersMu  sync.RWMutex
	dirty        atomic.Bool
	saving       atomic.Bool
	autoSave     bool
	saveDebounce time.Duration
	saveCh       chan struct{}
	closeCh      chan struct{}
	closeOnce    sync.Once
	closedCh     chan struct{} // signals when saveLoop has exited
	log          *slog.Logger
}

// storeData holds all persisted data.
type storeData struct {
	Version int                        `json:"version"`
	Blobs   map[string]json.RawMessage `json:"blobs,omitempty"`
}

func newStoreData() *storeData {
	return &storeData{Version: dataVersion, Blobs: make(map[string]json.RawMessage)}
}

// New creates a new FileStore with the given configuration.
func New(cfg store.Config) *FileStore {
	if cfg.DataDir == "" {
		cfg.DataDir = store.DefaultDataDir()
	}
	fs := &FileStore{
		cfg:          cfg,
		data:         newStoreData(),
		autoSave:     true,
		saveDebounce: 500 * time.Millisecond,
		saveCh:       make(chan struct{}, 1),
		closeCh:      make(chan struct{}),
		closedCh:     make(chan struct{}),
		log:          slog.Default(),
	}
	// Start debounced save goroutine
	go fs.saveLoop()
	return fs
}

// NewWithDefaults creates a new FileStore with default configuration.
func NewWithDefaults() *FileStore {
	return New(store.DefaultConfig())
}

// SetLogger replaces the store's logger.
func (s *FileStore) SetLogger(log *slog.Logger) {
	if log != nil {
		s.log = log
	}
}

// saveLoop handles debounced saving to prevent excessive disk writes.
func (s *FileStore) saveLoop() {
	defer close(s.closedCh) // Signal that saveLoop has exited
	var timer *time.Timer
	for {
		select {
		case <-s.saveCh:
			// Reset or create timer for debounce
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(s.saveDebounce, func() {
				if s.dirty.Load() && !s.saving.Load() {
					if err := s.doSave(); err != nil {
						s.reportWriteFailure(err)
					}
				}
			})
		case <-s.closeCh:
			if timer != nil {
				timer.Stop()
			}
			// Final save on close
			if s.dirty.Load() {
				if err := s.doSave(); err != nil {
					s.reportWriteFailure(err)
				}
			}
			return
		}
	}
}

// Open initializes the store and loads data from disk. A missing data
// file starts fresh; an unreadable or corrupt one is logged and replaced
// with an empty state rather than surfaced to the caller.
func (s *FileStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure directories exist with secure permissions (0700)
	dirs := []string{s.cfg.DataDir, s.cfg.ConfigDir, s.cfg.CacheDir, s.cfg.StateDir}
	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return err
			}
		}
	}

	dataFile := s.dataFile()
	data, err := os.ReadFile(dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			// No data file yet, start fresh
			s.data = newStoreData()
			return nil
		}
		s.log.Warn("data file unreadable, starting fresh", "file", dataFile, "error", err)
		s.data = newStoreData()
		return nil
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		s.log.Warn("data file corrupt, starting fresh", "file", dataFile, "error", err)
		s.data = newStoreData()
		return nil
	}
	if stored.Blobs == nil {
		stored.Blobs = make(map[string]json.RawMessage)
	}

	s.data = &stored
	s.dirty.Store(false)
	return nil
}

// Close saves any pending changes and closes the store. Safe to call multiple times.
func (s *FileStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
	})
	// Wait for saveLoop to complete its final save and exit
	<-s.closedCh
	return nil
}

func (s *FileStore) dataFile() string {
	return filepath.Join(s.cfg.DataDir, "data.json")
}

// doSave performs the actual save operation with atomic write.
func (s *FileStore) doSave() error {
	if !s.saving.CompareAndSwap(false, true) {
		return nil // Already saving
	}
	defer s.saving.Store(false)

	s.mu.RLock()
	if s.cfg.ReadOnly {
		s.mu.RUnlock()
		return store.ErrReadOnly
	}

	// Ensure version is set
	s.data.Version = dataVersion

	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()

	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	dataFile := s.dataFile()
	tmpFile := dataFile + ".tmp"

	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpFile, dataFile); err != nil {
		_ = os.Remove(tmpFile) // Clean up temp file on failure
		return err
	}

	s.dirty.Store(false)
	return nil
}

// markDirty marks data as needing to be saved (thread-safe).
func (s *FileStore) markDirty() {
	s.dirty.Store(true)
	if s.autoSave {
		// Non-blocking send to trigger save
		select {
		case s.saveCh <- struct{}{}:
		default:
			// Channel full, save already pending
		}
	}
}

// ForceSave immediately saves data to disk.
func (s *FileStore) ForceSave() error {
	s.dirty.Store(true)
	return s.doSave()
}

// reportWriteFailure logs a failed background save and notifies listeners.
func (s *FileStore) reportWriteFailure(err error) {
	s.log.Error("failed to save store data", "file", s.dataFile(), "error", err)

	s.listenersMu.RLock()
	listeners := make([]store.WriteFailureListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	failure := store.WriteFailure{
		Path:      s.dataFile(),
		Err:       err,
		Message:   err.Error(),
		Timestamp: time.Now().UnixMilli(),
	}
	for _, l := range listeners {
		go func(listener store.WriteFailureListener) {
			defer func() { _ = recover() }() // Prevent listener panics from crashing store
			listener(failure)
		}(l)
	}
}

// OnWriteFailure registers a listener for failed background saves.
func (s *FileStore) OnWriteFailure(listener store.WriteFailureListener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Blobs returns the blob surface of the store.
func (s *FileStore) Blobs() store.Blobs {
	return &blobStore{fs: s}
}

// DataDir returns the data directory path.
func (s *FileStore) DataDir() string {
	return s.cfg.DataDir
}

// blobStore implements store.Blobs on the shared file document.
type blobStore struct {
	fs *FileStore
}

var _ store.Blobs = (*blobStore)(nil)

// Get returns a copy of the blob stored under key.
func (b *blobStore) Get(ctx context.Context, key string) ([]byte, error) {
	b.fs.mu.RLock()
	defer b.fs.mu.RUnlock()

	data, ok := b.fs.data.Blobs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Set stores a copy of data under key and schedules a background save.
func (b *blobStore) Set(ctx context.Context, key string, data []byte) error {
	if b.fs.cfg.ReadOnly {
		return store.ErrReadOnly
	}

	b.fs.mu.Lock()
	stored := make(json.RawMessage, len(data))
	copy(stored, data)
	b.fs.data.Blobs[key] = stored
	b.fs.mu.Unlock()

	b.fs.markDirty()
	return nil
}

// Delete removes the blob under key. Deleting a missing key is a no-op.
func (b *blobStore) Delete(ctx context.Context, key string) error {
	if b.fs.cfg.ReadOnly {
		return store.ErrReadOnly
	}

	b.fs.mu.Lock()
	_, existed := b.fs.data.Blobs[key]
	delete(b.fs.data.Blobs, key)
	b.fs.mu.Unlock()

	if existed {
		b.fs.markDirty()
	}
	return nil
}

var _ store.Store = (*FileStore)(nil)
