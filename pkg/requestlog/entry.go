package requestlog

import "time"

// Entry captures complete details of a request/response for debugging and inspection.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// ServiceID is the mock service that received the request.
	ServiceID string `json:"serviceId"`

	// Method is the HTTP method.
	Method string `json:"method"`

	// Path is the request URL path.
	Path string `json:"path"`

	// QueryString is the raw query string.
	QueryString string `json:"queryString,omitempty"`

	// Headers are the request headers (multi-value).
	Headers map[string][]string `json:"headers,omitempty"`

	// Body is the request body content (truncated if > 10KB).
	Body string `json:"body,omitempty"`

	// BodySize is the original body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client IP address.
	RemoteAddr string `json:"remoteAddr"`

	// MatchedRuleID is the ID of the rule that matched (empty if no match).
	MatchedRuleID string `json:"matchedRuleId,omitempty"`

	// ResponseStatus is the status code returned.
	ResponseStatus int `json:"responseStatus"`

	// ResponseBody is the response body content (truncated if > 10KB).
	ResponseBody string `json:"responseBody,omitempty"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int `json:"durationMs"`

	// Forwarded is true when the request went to the real backend
	// instead of a mock rule.
	Forwarded bool `json:"forwarded,omitempty"`

	// Error contains the error message if the request failed.
	Error string `json:"error,omitempty"`
}
