package request

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/logging"
)

// DefaultTimeout is the default time budget for a dispatched request.
const DefaultTimeout = 30 * time.Second

// MaxResultBodySize is the maximum response body size a Result carries (10MB).
const MaxResultBodySize = 10 * 1024 * 1024

// Options configures dispatcher behavior.
type Options struct {
	// Timeout is the per-request timeout (default DefaultTimeout)
	Timeout time.Duration

	// Logger for operational logging (nil = no logging)
	Logger *slog.Logger
}

// Dispatcher executes request definitions against live servers.
type Dispatcher struct {
	resolver *env.Resolver
	client   *http.Client
	log      *slog.Logger
}

// NewDispatcher creates a dispatcher that resolves variables through
// resolver. A nil resolver dispatches definitions verbatim.
func NewDispatcher(resolver *env.Resolver, opts Options) *Dispatcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	return &Dispatcher{
		resolver: resolver,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Result summarizes the response to a dispatched request.
type Result struct {
	// Status is the HTTP status line, e.g. "200 OK"
	Status string `json:"status"`

	// StatusCode is the numeric status
	StatusCode int `json:"statusCode"`

	// Headers are the response headers, multi-value headers joined with ", "
	Headers map[string]string `json:"headers,omitempty"`

	// Body is the response body, capped at MaxResultBodySize
	Body string `json:"body,omitempty"`

	// BodySize is the byte length of Body
	BodySize int `json:"bodySize"`

	// DurationMs is the round-trip time in milliseconds
	DurationMs int64 `json:"durationMs"`
}

// Send builds def with variables resolved for the given service and
// project scope, executes it, and summarizes the response.
func (d *Dispatcher) Send(ctx context.Context, def *Definition, serviceID, projectID string) (*Result, error) {
	req, err := Build(ctx, def, d.resolver, serviceID, projectID)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Warn("dispatching request failed",
			"method", req.Method,
			"url", req.URL.String(),
			"error", err,
		)
		return nil, fmt.Errorf("sending %s %s: %w", req.Method, req.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResultBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	duration := time.Since(startTime)

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		headers[k] = strings.Join(v, ", ")
	}

	d.log.Debug("request dispatched",
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration", duration,
	)

	return &Result{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       string(body),
		BodySize:   len(body),
		DurationMs: duration.Milliseconds(),
	}, nil
}
