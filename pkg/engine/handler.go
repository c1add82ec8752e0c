// Core HTTP request handler for mock services.

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mockdeck/mockdeck/internal/matching"
	"github.com/mockdeck/mockdeck/internal/storage"
	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/logging"
	"github.com/mockdeck/mockdeck/pkg/mock"
	"github.com/mockdeck/mockdeck/pkg/proxy"
	"github.com/mockdeck/mockdeck/pkg/requestlog"
	"github.com/mockdeck/mockdeck/pkg/util"
)

// MaxRequestBodySize is the maximum allowed request body size for rule matching (10MB).
// This prevents denial-of-service via oversized request bodies.
const MaxRequestBodySize = 10 << 20 // 10MB

// Handler handles incoming HTTP requests for a single service and matches
// them against the service's rules. Unmatched requests are forwarded to the
// real backend when the service has a proxy target, otherwise answered 404.
type Handler struct {
	serviceID string
	projectID string
	prefix    string

	rules     storage.RuleStore
	resolver  *env.Resolver
	forwarder *proxy.Forwarder
	target    *proxy.Target
	logger    requestlog.Logger
	log       *slog.Logger

	// baseDir is the base directory for resolving relative file paths (e.g., bodyFile).
	// When empty, relative paths are resolved against the process working directory.
	baseDir string
}

// NewHandler creates a new Handler serving the given service's rules.
func NewHandler(serviceID, projectID string, rules storage.RuleStore) *Handler {
	return &Handler{
		serviceID: serviceID,
		projectID: projectID,
		rules:     rules,
		log:       logging.Nop(),
	}
}

// SetLogger sets the request logger for the handler.
func (h *Handler) SetLogger(logger requestlog.Logger) {
	h.logger = logger
}

// SetOperationalLogger sets the operational logger for error/warning messages.
func (h *Handler) SetOperationalLogger(log *slog.Logger) {
	if log != nil {
		h.log = log
	} else {
		h.log = logging.Nop()
	}
}

// SetResolver sets the environment resolver used for variable substitution
// in response headers and bodies.
func (h *Handler) SetResolver(resolver *env.Resolver) {
	h.resolver = resolver
}

// SetPrefix sets the path prefix the service is mounted under.
// Rules match against the path with the prefix stripped.
func (h *Handler) SetPrefix(prefix string) {
	h.prefix = prefix
}

// SetProxy sets the forwarder and target for passing unmatched requests
// through to the real backend.
func (h *Handler) SetProxy(forwarder *proxy.Forwarder, target *proxy.Target) {
	h.forwarder = forwarder
	h.target = target
}

// SetBaseDir sets the base directory for resolving relative file paths (e.g., bodyFile).
func (h *Handler) SetBaseDir(dir string) {
	h.baseDir = dir
}

// HasMatch checks if any rule matches the given request without writing a response.
func (h *Handler) HasMatch(r *http.Request, body []byte) bool {
	return matching.BestMatch(h.rules.List(), r, body) != nil
}

// ServeHTTP implements the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	// Enforce maximum body size to prevent denial-of-service via oversized
	// payloads. MaxBytesReader returns an error when the limit is exceeded,
	// unlike LimitReader which silently truncates.
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	// Capture request body for matching and logging
	var bodyBytes []byte
	if r.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(r.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.log.Warn("request body too large", "service", h.serviceID, "path", r.URL.Path, "limit", MaxRequestBodySize)
				respBody := writeJSONError(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body exceeds maximum allowed size")
				h.logRequest(startTime, r, nil, bodyBytes, "", http.StatusRequestEntityTooLarge, respBody, false, "request body too large")
				return
			}
			h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
		}
		r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	// Capture headers for logging
	headers := make(map[string][]string)
	maps.Copy(headers, r.Header)

	// Requests outside the service prefix never reach the rules and are
	// not forwarded.
	matchReq := r
	if h.prefix != "" && h.prefix != "/" {
		if !underPrefix(r.URL.Path, h.prefix) {
			respBody := writeJSONError(w, http.StatusNotFound, "outside_prefix", "Path is outside the service prefix")
			h.logRequest(startTime, r, headers, bodyBytes, "", http.StatusNotFound, respBody, false, "")
			return
		}
		trimmed := strings.TrimPrefix(r.URL.Path, h.prefix)
		if trimmed == "" {
			trimmed = "/"
		}
		matchReq = r.Clone(r.Context())
		matchReq.URL.Path = trimmed
	}

	// Rules come back priority-sorted from the store
	rules := h.rules.List()

	// Find the best matching rule using the scoring algorithm. Pass the
	// already-read bodyBytes so the matcher never re-reads the body.
	matchResult := matching.BestMatch(rules, matchReq, bodyBytes)

	// HEAD fallback: if no match for HEAD, retry as GET
	if matchResult == nil && r.Method == http.MethodHead {
		getFallback := matchReq.Clone(matchReq.Context())
		getFallback.Method = http.MethodGet
		matchResult = matching.BestMatch(rules, getFallback, bodyBytes)
	}

	if matchResult != nil {
		rule := matchResult.Rule
		h.log.Debug("request matched",
			"method", r.Method,
			"path", r.URL.Path,
			"rule_id", rule.ID,
			"score", matchResult.Score,
		)
		statusCode, respBody := h.writeResponse(w, r, &rule.Response)
		h.logRequest(startTime, r, headers, bodyBytes, rule.ID, statusCode, respBody, false, "")
		return
	}

	// No rule matched. Pass the request through to the real backend when
	// the resolved config names one.
	if h.target != nil && h.forwarder != nil {
		statusCode := h.forwarder.Forward(w, r, bodyBytes, *h.target)
		h.logRequest(startTime, r, headers, bodyBytes, "", statusCode, "", true, "")
		return
	}

	h.log.Debug("no rule matched", "method", r.Method, "path", r.URL.Path)
	respBody := writeNoMatch(w, r)
	h.logRequest(startTime, r, headers, bodyBytes, "", http.StatusNotFound, respBody, false, "")
}

// logRequest logs a request to the request logger.
func (h *Handler) logRequest(startTime time.Time, r *http.Request, headers map[string][]string, bodyBytes []byte, matchedID string, statusCode int, responseBody string, forwarded bool, errMsg string) {
	if h.logger == nil {
		return
	}
	h.logger.Log(&requestlog.Entry{
		Timestamp:      startTime,
		ServiceID:      h.serviceID,
		Method:         r.Method,
		Path:           r.URL.Path,
		QueryString:    r.URL.RawQuery,
		Headers:        headers,
		Body:           util.TruncateBody(string(bodyBytes), 0),
		BodySize:       len(bodyBytes),
		RemoteAddr:     r.RemoteAddr,
		MatchedRuleID:  matchedID,
		ResponseStatus: statusCode,
		ResponseBody:   util.TruncateBody(responseBody, 0),
		DurationMs:     int(time.Since(startTime).Milliseconds()),
		Forwarded:      forwarded,
		Error:          errMsg,
	})
}

// writeResponse writes the rule's response to the HTTP response writer.
// Environment variable tokens in headers and body are substituted using
// the active environment. Returns the status code and the body written.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, resp *mock.Response) (int, string) {
	// Apply delay if specified
	if resp.DelayMs > 0 {
		time.Sleep(time.Duration(resp.DelayMs) * time.Millisecond)
	}

	ctx := r.Context()

	// Set headers (with variable substitution).
	// Track whether the rule explicitly set Content-Type so auto-detection
	// knows whether to override the value.
	userSetContentType := false
	for name, value := range resp.Headers {
		value = h.resolve(ctx, value)
		w.Header().Set(name, value)
		if strings.EqualFold(name, "Content-Type") {
			userSetContentType = true
		}
	}

	// Determine body content - check inline body first, then file
	body := resp.Body
	if body == "" && resp.BodyFile != "" {
		// Prevent path traversal but allow absolute paths (bodyFile is config-sourced)
		cleanPath, safe := util.SafeFilePath(resp.BodyFile)
		if !safe {
			h.log.Error("unsafe path in bodyFile (traversal)", "file", resp.BodyFile)
			respBody := writeJSONError(w, http.StatusBadGateway, "body_file_error", "bodyFile path contains path traversal")
			return http.StatusBadGateway, respBody
		}
		// Resolve relative paths against the handler's base directory
		if !filepath.IsAbs(cleanPath) && h.baseDir != "" {
			cleanPath = filepath.Join(h.baseDir, cleanPath)
		}
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			h.log.Error("failed to read body file", "file", cleanPath, "error", err)
			respBody := writeJSONError(w, http.StatusBadGateway, "body_file_error", "failed to read bodyFile: "+err.Error())
			return http.StatusBadGateway, respBody
		}
		body = string(data)
	}

	// Substitute variables before setting Content-Type (so detection works
	// on final content)
	if body != "" {
		body = h.resolve(ctx, body)
	}

	// Set default Content-Type based on body content if not explicitly
	// specified in the rule. Auto-detect when Content-Type is empty or was
	// defaulted to text/plain by Go's HTTP stack.
	currentCT := w.Header().Get("Content-Type")
	if !userSetContentType && (currentCT == "" || currentCT == "text/plain") {
		switch {
		case looksLikeJSON(body):
			w.Header().Set("Content-Type", "application/json")
		case looksLikeXML(body):
			w.Header().Set("Content-Type", "application/xml")
		default:
			w.Header().Set("Content-Type", "text/plain")
		}
	}

	// Write status code and body
	w.WriteHeader(resp.StatusCode)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
	return resp.StatusCode, body
}

// resolve substitutes environment variable tokens in text.
func (h *Handler) resolve(ctx context.Context, text string) string {
	if h.resolver == nil || text == "" {
		return text
	}
	return h.resolver.ResolveVariables(ctx, text, h.serviceID, h.projectID)
}

// underPrefix reports whether path falls under prefix at a segment boundary.
func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// writeJSONError writes a JSON error response and returns the payload written.
func writeJSONError(w http.ResponseWriter, status int, code, message string) string {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	payload, err := json.Marshal(map[string]string{
		"error":   code,
		"message": message,
	})
	if err != nil {
		return ""
	}
	_, _ = w.Write(payload)
	return string(payload)
}

// writeNoMatch writes the 404 response for requests no rule matched.
func writeNoMatch(w http.ResponseWriter, r *http.Request) string {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	errResp := map[string]string{
		"error":   "no_match",
		"message": "No rule matched the request",
		"path":    r.URL.Path,
		"method":  r.Method,
	}
	payload, err := json.Marshal(errResp)
	if err != nil {
		fallback := `{"error": "no_match", "message": "No rule matched the request"}`
		_, _ = w.Write([]byte(fallback))
		return fallback
	}
	_, _ = w.Write(payload)
	return string(payload)
}

// looksLikeJSON returns true if the string appears to be JSON content.
func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

// looksLikeXML returns true if the string appears to be XML content.
func looksLikeXML(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "<?xml") || strings.HasPrefix(s, "<")
}
