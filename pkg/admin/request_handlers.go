package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mockdeck/mockdeck/pkg/httputil"
	"github.com/mockdeck/mockdeck/pkg/request"
	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

// handleSend handles POST /send. The definition is built and dispatched
// with the active environment's variables applied.
func (a *API) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}

	result, err := a.dispatcher.Send(r.Context(), &req.Definition, req.ServiceID, req.ProjectID)
	if err != nil {
		var verr *request.ValidationError
		if errors.As(err, &verr) {
			httputil.WriteBadRequest(w, "validation_error", err.Error())
			return
		}
		httputil.WriteError(w, http.StatusBadGateway, "send_failed", err.Error())
		return
	}
	httputil.WriteOK(w, result)
}

// queryInt parses an integer query parameter, rejecting values below min.
// Absent or malformed values report false so the filter field stays unset.
func queryInt(q url.Values, key string, min int) (int, bool) {
	v := q.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, false
	}
	return n, true
}

// queryBool parses a tri-state boolean query parameter: nil when absent
// or unrecognized, so the filter distinguishes "either" from true/false.
func queryBool(q url.Values, key string) *bool {
	switch q.Get(key) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	}
	return nil
}

// requestFilterFromQuery builds a log filter from list query parameters.
func requestFilterFromQuery(r *http.Request) *requestlog.Filter {
	q := r.URL.Query()
	filter := &requestlog.Filter{
		ServiceID: q.Get("service"),
		Method:    q.Get("method"),
		Path:      q.Get("path"),
		MatchedID: q.Get("matched"),
		Forwarded: queryBool(q, "forwarded"),
		HasError:  queryBool(q, "hasError"),
	}
	if status, ok := queryInt(q, "status", 1); ok {
		filter.StatusCode = status
	}
	if limit, ok := queryInt(q, "limit", 1); ok {
		filter.Limit = limit
	}
	if offset, ok := queryInt(q, "offset", 0); ok {
		filter.Offset = offset
	}
	return filter
}

// handleListRequests handles GET /requests.
func (a *API) handleListRequests(w http.ResponseWriter, r *http.Request) {
	if a.requests == nil {
		httputil.WriteServiceUnavailable(w, "no_request_log", ErrMsgNoRequestLog)
		return
	}

	entries := a.requests.List(requestFilterFromQuery(r))
	httputil.WriteOK(w, RequestListResponse{
		Requests: entries,
		Count:    len(entries),
		Total:    a.requests.Count(),
	})
}

// handleGetRequest handles GET /requests/{id}.
func (a *API) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	if a.requests == nil {
		httputil.WriteServiceUnavailable(w, "no_request_log", ErrMsgNoRequestLog)
		return
	}

	entry := a.requests.Get(r.PathValue("id"))
	if entry == nil {
		httputil.WriteNotFound(w, "not_found", ErrMsgNotFound)
		return
	}
	httputil.WriteOK(w, entry)
}

// handleClearRequests handles DELETE /requests with an optional
// ?service= scope.
func (a *API) handleClearRequests(w http.ResponseWriter, r *http.Request) {
	if a.requests == nil {
		httputil.WriteServiceUnavailable(w, "no_request_log", ErrMsgNoRequestLog)
		return
	}

	cleared := 0
	if serviceID := r.URL.Query().Get("service"); serviceID != "" {
		ext, ok := a.requests.(requestlog.ExtendedStore)
		if !ok {
			httputil.WriteBadRequest(w, "unsupported_filter", "Request log does not support per-service clearing")
			return
		}
		cleared = ext.CountByServiceID(serviceID)
		ext.ClearByServiceID(serviceID)
	} else {
		cleared = a.requests.Count()
		a.requests.Clear()
	}

	httputil.WriteOK(w, map[string]any{
		"message": "Request log cleared",
		"cleared": cleared,
	})
}

// handleStreamRequests handles GET /requests/stream, pushing logged
// requests to the client as server-sent events until it disconnects.
func (a *API) handleStreamRequests(w http.ResponseWriter, r *http.Request) {
	if a.requests == nil {
		httputil.WriteServiceUnavailable(w, "no_request_log", ErrMsgNoRequestLog)
		return
	}

	sub, ok := a.requests.(requestlog.SubscribableStore)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "sse_error", "Request log does not support streaming")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "sse_error", "Streaming not supported")
		return
	}

	serviceID := r.URL.Query().Get("service")

	// Subscribe before announcing the stream so an entry logged right
	// after the client sees the connected event cannot be missed.
	entries, unsubscribe := sub.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"message\": \"Streaming request log\"}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			if serviceID != "" && entry.ServiceID != serviceID {
				continue
			}
			data, err := json.Marshal(entry)
			if err != nil {
				a.log.Error("marshaling request log entry", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: request\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
