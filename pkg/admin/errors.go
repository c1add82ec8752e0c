// Error mapping for the admin API. Validation messages pass through to
// the client; unexpected failures are logged server-side and answered
// with a generic message.

package admin

import (
	"errors"
	"net/http"

	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/httputil"
	"github.com/mockdeck/mockdeck/pkg/registry"
	"github.com/mockdeck/mockdeck/pkg/store"
)

// Safe error messages for client responses.
const (
	// ErrMsgInternalError is returned for unexpected internal errors.
	ErrMsgInternalError = "An internal error occurred"

	// ErrMsgInvalidJSON is returned for JSON parsing errors.
	ErrMsgInvalidJSON = "Invalid JSON in request body"

	// ErrMsgNotFound is returned when a resource is not found.
	ErrMsgNotFound = "Resource not found"

	// ErrMsgConflict is returned for duplicate resource conflicts.
	ErrMsgConflict = "Resource already exists"

	// ErrMsgNoRequestLog is returned when no request log is connected.
	ErrMsgNoRequestLog = "Request log is not available"
)

// writeDomainError maps store and validation failures onto HTTP
// responses. Anything unrecognized is logged and hidden behind a
// generic 500.
func (a *API) writeDomainError(w http.ResponseWriter, err error, operation string) {
	var envVal *env.ValidationError
	var regVal *registry.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		httputil.WriteNotFound(w, "not_found", ErrMsgNotFound)
	case errors.Is(err, store.ErrAlreadyExists):
		httputil.WriteConflict(w, "duplicate_id", ErrMsgConflict)
	case errors.As(err, &envVal), errors.As(err, &regVal):
		httputil.WriteBadRequest(w, "validation_error", err.Error())
	default:
		a.log.Error("admin operation failed", "operation", operation, "error", err)
		httputil.WriteInternalError(w, "internal_error", ErrMsgInternalError)
	}
}
