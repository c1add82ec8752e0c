package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

// DefaultMaxLogEntries is the request log capacity used when none is configured.
const DefaultMaxLogEntries = 1000

// RequestLogger defines the interface for logging incoming requests.
// It embeds requestlog.Store so that any implementation can be used as
// both a handler sink (Logger) and an admin query target (Store).
//
// Implementations that also support subscriptions and per-service operations
// should additionally implement requestlog.SubscribableStore and
// requestlog.ExtendedStore.
type RequestLogger interface {
	requestlog.Store
}

// InMemoryRequestLogger implements RequestLogger (and by extension
// requestlog.Store, requestlog.SubscribableStore, requestlog.ExtendedStore)
// with an in-memory circular buffer shared by all running services.
type InMemoryRequestLogger struct {
	entries     []*requestlog.Entry
	maxEntries  int
	mu          sync.RWMutex
	subscribers map[requestlog.Subscriber]struct{}
	subMu       sync.RWMutex
}

// NewInMemoryRequestLogger creates a new InMemoryRequestLogger with the given capacity.
func NewInMemoryRequestLogger(maxEntries int) *InMemoryRequestLogger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxLogEntries
	}
	return &InMemoryRequestLogger{
		entries:     make([]*requestlog.Entry, 0, maxEntries),
		maxEntries:  maxEntries,
		subscribers: make(map[requestlog.Subscriber]struct{}),
	}
}

// Log records a request log entry.
func (l *InMemoryRequestLogger) Log(entry *requestlog.Entry) {
	if entry == nil {
		return
	}

	l.mu.Lock()

	// Generate ID if not set
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	// Set timestamp if not set
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	// FIFO eviction: remove oldest if at capacity
	if len(l.entries) >= l.maxEntries {
		l.entries = l.entries[1:]
	}

	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	// Notify subscribers (non-blocking)
	l.subMu.RLock()
	for sub := range l.subscribers {
		select {
		case sub <- entry:
		default:
			// Drop if subscriber is slow
		}
	}
	l.subMu.RUnlock()
}

// Get retrieves a log entry by ID.
func (l *InMemoryRequestLogger) Get(id string) *requestlog.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, entry := range l.entries {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// List returns all log entries, optionally filtered.
func (l *InMemoryRequestLogger) List(filter *requestlog.Filter) []*requestlog.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Return in reverse order (newest first)
	result := make([]*requestlog.Entry, 0, len(l.entries))

	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]

		if filter != nil {
			if !matchesFilter(entry, filter) {
				continue
			}
		}

		result = append(result, entry)
	}

	// Apply offset and limit
	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*requestlog.Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}

	return result
}

// matchesFilter checks if an entry matches all filter criteria.
func matchesFilter(entry *requestlog.Entry, filter *requestlog.Filter) bool {
	if filter.ServiceID != "" && entry.ServiceID != filter.ServiceID {
		return false
	}
	if filter.Method != "" && entry.Method != filter.Method {
		return false
	}
	if filter.Path != "" && !matchesPathPrefix(entry.Path, filter.Path) {
		return false
	}
	if filter.MatchedID != "" && entry.MatchedRuleID != filter.MatchedID {
		return false
	}
	if filter.StatusCode != 0 && entry.ResponseStatus != filter.StatusCode {
		return false
	}
	if filter.Forwarded != nil && entry.Forwarded != *filter.Forwarded {
		return false
	}
	if filter.HasError != nil {
		hasError := entry.Error != ""
		if *filter.HasError != hasError {
			return false
		}
	}

	return true
}

// Clear removes all log entries.
func (l *InMemoryRequestLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]*requestlog.Entry, 0, l.maxEntries)
}

// Count returns the number of log entries.
func (l *InMemoryRequestLogger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ClearByServiceID removes all log entries for the given service.
func (l *InMemoryRequestLogger) ClearByServiceID(serviceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	filtered := make([]*requestlog.Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.ServiceID != serviceID {
			filtered = append(filtered, entry)
		}
	}
	l.entries = filtered
}

// CountByServiceID returns the number of log entries for the given service.
func (l *InMemoryRequestLogger) CountByServiceID(serviceID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, entry := range l.entries {
		if entry.ServiceID == serviceID {
			count++
		}
	}
	return count
}

// matchesPathPrefix checks if a path starts with the given prefix.
func matchesPathPrefix(path, prefix string) bool {
	if len(prefix) > len(path) {
		return false
	}
	return path[:len(prefix)] == prefix
}

// Subscribe registers a subscriber to receive new log entries.
// Returns a channel that will receive entries and an unsubscribe function.
func (l *InMemoryRequestLogger) Subscribe() (requestlog.Subscriber, func()) {
	ch := make(requestlog.Subscriber, 100) // Buffer to prevent blocking

	l.subMu.Lock()
	l.subscribers[ch] = struct{}{}
	l.subMu.Unlock()

	unsubscribe := func() {
		l.subMu.Lock()
		delete(l.subscribers, ch)
		l.subMu.Unlock()
		close(ch)
	}

	return ch, unsubscribe
}

var (
	_ RequestLogger                = (*InMemoryRequestLogger)(nil)
	_ requestlog.SubscribableStore = (*InMemoryRequestLogger)(nil)
	_ requestlog.ExtendedStore     = (*InMemoryRequestLogger)(nil)
)
