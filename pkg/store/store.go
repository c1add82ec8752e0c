// Package store provides the data persistence layer for mockdeck.
//
// The store package abstracts storage backends behind a small key to
// JSON-blob contract:
//   - Local file-based storage (desktop app, CLI)
//   - In-memory storage for tests and ephemeral runs
//
// Directory structure follows XDG Base Directory Specification:
//   - Config: ~/.config/mockdeck/ (user preferences, settings)
//   - Data:   ~/.local/share/mockdeck/ (environments, registry, state)
//   - Cache:  ~/.cache/mockdeck/ (temporary data, logs)
//   - State:  ~/.local/state/mockdeck/ (runtime state, logs)
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

// Common errors
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidID     = errors.New("invalid id")
	ErrReadOnly      = errors.New("store is read-only")
)

// Well-known blob keys.
const (
	// BlobEnvironments holds the JSON array of environments.
	BlobEnvironments = "environments"
	// BlobActiveEnvironment holds the JSON-encoded id of the active
	// environment. The key is absent when no environment is active.
	BlobActiveEnvironment = "activeEnvironment"
	// BlobRegistry holds the project/service registry document.
	BlobRegistry = "registry"
)

// Backend represents a storage backend type.
type Backend string

const (
	// BackendFile uses a JSON file for storage
	BackendFile Backend = "file"
	// BackendMemory uses in-memory storage (no persistence)
	BackendMemory Backend = "memory"
)

// Config holds store configuration.
type Config struct {
	// Backend specifies the storage backend to use
	Backend Backend `json:"backend" yaml:"backend"`

	// DataDir is the base directory for data storage
	// Defaults to XDG_DATA_HOME/mockdeck or ~/.local/share/mockdeck
	DataDir string `json:"dataDir,omitempty" yaml:"dataDir,omitempty"`

	// ConfigDir is the directory for configuration files
	// Defaults to XDG_CONFIG_HOME/mockdeck or ~/.config/mockdeck
	ConfigDir string `json:"configDir,omitempty" yaml:"configDir,omitempty"`

	// CacheDir is the directory for cache files
	// Defaults to XDG_CACHE_HOME/mockdeck or ~/.cache/mockdeck
	CacheDir string `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`

	// StateDir is the directory for runtime state
	// Defaults to XDG_STATE_HOME/mockdeck or ~/.local/state/mockdeck
	StateDir string `json:"stateDir,omitempty" yaml:"stateDir,omitempty"`

	// ReadOnly prevents any write operations
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Backend:   BackendFile,
		DataDir:   DefaultDataDir(),
		ConfigDir: DefaultConfigDir(),
		CacheDir:  DefaultCacheDir(),
		StateDir:  DefaultStateDir(),
	}
}

// DefaultDataDir returns the default data directory following XDG spec.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "mockdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mockdeck", "data")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "mockdeck")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "mockdeck")
		}
		return filepath.Join(home, "AppData", "Local", "mockdeck")
	}
	return filepath.Join(home, ".local", "share", "mockdeck")
}

// DefaultConfigDir returns the default config directory following XDG spec.
func DefaultConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "mockdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mockdeck", "config")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Preferences", "mockdeck")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "mockdeck")
		}
		return filepath.Join(home, "AppData", "Roaming", "mockdeck")
	}
	return filepath.Join(home, ".config", "mockdeck")
}

// DefaultCacheDir returns the default cache directory following XDG spec.
func DefaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "mockdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mockdeck", "cache")
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Caches", "mockdeck")
	}
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "mockdeck", "cache")
		}
		return filepath.Join(home, "AppData", "Local", "mockdeck", "cache")
	}
	return filepath.Join(home, ".cache", "mockdeck")
}

// DefaultStateDir returns the default state directory following XDG spec.
func DefaultStateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "mockdeck")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mockdeck", "state")
	}
	if runtime.GOOS == "darwin" {
		// macOS doesn't have a state dir convention, use data dir
		return filepath.Join(home, "Library", "Application Support", "mockdeck", "state")
	}
	if runtime.GOOS == "windows" {
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "mockdeck", "state")
		}
		return filepath.Join(home, "AppData", "Local", "mockdeck", "state")
	}
	return filepath.Join(home, ".local", "state", "mockdeck")
}

// Blobs is the key to JSON-blob persistence contract. Values are opaque
// to the store; callers own their schema. Get returns ErrNotFound for a
// missing key. Delete of a missing key is a no-op.
type Blobs interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Store is the main interface for data persistence.
type Store interface {
	// Lifecycle
	Open(ctx context.Context) error
	Close() error

	// Blobs exposes the key to JSON-blob surface.
	Blobs() Blobs

	// ForceSave flushes pending writes synchronously, bypassing the
	// debounce. Intended for shutdown paths and tests.
	ForceSave() error
}

// WriteFailure describes a background save that could not reach disk.
// Writes are fire-and-forget; failures are reported through listeners
// instead of errors on the mutating call.
type WriteFailure struct {
	Path      string `json:"path"`
	Err       error  `json:"-"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// WriteFailureListener is called when a background save fails.
type WriteFailureListener func(WriteFailure)
