package requestlog

// Logger is the minimal interface for logging request entries.
// Service handlers accept this interface to log requests, which allows
// them to work with any implementation that can record entries.
type Logger interface {
	Log(entry *Entry)
}

// Store defines the interface for request history storage.
// Implementations store request/response entries for user inspection via the
// Admin API. Store embeds Logger, so any Store implementation can be used
// where Logger is expected.
type Store interface {
	Logger

	// Get retrieves a log entry by ID.
	Get(id string) *Entry

	// List returns all log entries, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all log entries.
	Clear()

	// Count returns the number of log entries.
	Count() int
}

// Filter defines criteria for filtering request logs.
type Filter struct {
	// ServiceID filters by the service that received the request.
	ServiceID string

	// Method filters by HTTP method.
	Method string

	// Path filters by path prefix.
	Path string

	// MatchedID filters by matched rule ID.
	MatchedID string

	// StatusCode filters by response status code.
	StatusCode int

	// Forwarded filters by whether the request was proxied to the real
	// backend.
	Forwarded *bool

	// HasError filters by error presence.
	HasError *bool

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Subscriber is a channel that receives new log entries.
// Used for real-time updates in streaming APIs.
type Subscriber chan *Entry

// SubscribableStore extends Store with subscription support for real-time updates.
type SubscribableStore interface {
	Store

	// Subscribe registers a subscriber to receive new log entries.
	// Returns a channel that will receive entries and an unsubscribe function.
	Subscribe() (Subscriber, func())
}

// ExtendedStore provides additional query methods beyond the basic Store interface.
type ExtendedStore interface {
	Store

	// ClearByServiceID removes all log entries for the given service.
	ClearByServiceID(serviceID string)

	// CountByServiceID returns the number of log entries for the given service.
	CountByServiceID(serviceID string) int
}
