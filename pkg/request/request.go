// Package request builds and dispatches stored request definitions.
//
// A definition's textual parts (URL, header keys and values, body) may
// contain {{variable}} tokens. Build substitutes them from the active
// environment before the request goes on the wire, so the same stored
// definition can hit a local mock in one environment and a staging
// backend in another.
package request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mockdeck/mockdeck/pkg/env"
)

// ValidationError represents a validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// validHTTPMethods are the allowed HTTP methods.
var validHTTPMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// Definition is a stored outbound request. Its textual fields may
// contain {{variable}} tokens, resolved at build time.
type Definition struct {
	// ID identifies the definition; empty for one-off sends
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Name is a display label, e.g. "Create user"
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Method is the HTTP method (default GET)
	Method string `json:"method,omitempty" yaml:"method,omitempty"`

	// URL is the absolute request URL
	URL string `json:"url" yaml:"url"`

	// Headers to send; keys and values are both resolved
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Body is the raw request body
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Validate checks if the Definition is valid.
func (d *Definition) Validate() error {
	if d.URL == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	if d.Method != "" {
		method := strings.ToUpper(d.Method)
		if !validHTTPMethods[method] {
			return &ValidationError{
				Field:   "method",
				Message: fmt.Sprintf("invalid HTTP method: %s", d.Method),
			}
		}
	}
	return nil
}

// Build renders def into an executable request. The URL, header keys
// and values, and body pass through variable substitution with the
// same single-pass semantics mock responses use, scoped to the given
// service and project. A nil resolver builds the definition verbatim.
func Build(ctx context.Context, def *Definition, resolver *env.Resolver, serviceID, projectID string) (*http.Request, error) {
	if def == nil {
		return nil, fmt.Errorf("request definition is nil")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	resolve := func(text string) string {
		if resolver == nil {
			return text
		}
		return resolver.ResolveVariables(ctx, text, serviceID, projectID)
	}

	method := strings.ToUpper(def.Method)
	if method == "" {
		method = http.MethodGet
	}

	body := resolve(def.Body)
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, resolve(def.URL), bodyReader)
	if err != nil {
		return nil, &ValidationError{Field: "url", Message: fmt.Sprintf("invalid url: %v", err)}
	}

	hasContentType := false
	for k, v := range def.Headers {
		key := resolve(k)
		req.Header.Set(key, resolve(v))
		if strings.EqualFold(key, "Content-Type") {
			hasContentType = true
		}
	}

	// Match the content-type sniffing mock responses get, so a pasted
	// JSON body works without an explicit header.
	if body != "" && !hasContentType && looksLikeJSON(body) {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// looksLikeJSON checks if content appears to be JSON.
func looksLikeJSON(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
