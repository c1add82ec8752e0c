// Package requestlog provides types and interfaces for capturing and storing
// request/response data for user inspection and debugging.
//
// This package serves mockdeck users who need to inspect what requests hit
// their mock services, which rules matched, and what responses were sent. It
// is distinct from operational logging (which uses log/slog for platform
// debugging).
//
// # Core Types
//
// Entry is the central type representing a captured request/response pair.
// Every entry carries the ID of the service that received it, so a shared
// store can answer both "all traffic" and "traffic for service X" queries.
//
// # Store Interface
//
// Store defines the interface for request history storage, supporting:
//   - Recording new entries
//   - Querying by ID or with filters
//   - Subscribing to new entries in real-time
//   - Clearing history
//
// # Usage
//
// Service handlers create Entry instances and pass them to a Store
// implementation. The Admin API queries the Store to display request
// history to users.
//
//	entry := &requestlog.Entry{
//	    ServiceID: "svc_1a2b3c",
//	    Method:    "GET",
//	    Path:      "/api/users",
//	    // ...
//	}
//	store.Log(entry)
//
// # Package Design
//
// This is a leaf package with no internal dependencies, allowing it to be
// imported by any package without creating import cycles.
package requestlog
