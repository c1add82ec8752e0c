package mock

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/ohler55/ojg/jp"
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

// headerNameRegex validates HTTP header names (RFC 7230).
var headerNameRegex = regexp.MustCompile(`^[A-Za-z0-9!#$%&'*+\-.^_\x60|~]+$`)

// Validate checks if the Rule is valid.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if err := r.Matcher.Validate(); err != nil {
		return err
	}
	return r.Response.Validate()
}

// Validate checks if the Matcher is valid.
func (m *Matcher) Validate() error {
	// At least one matching criterion must be specified
	hasAnyCriteria := m.Method != "" ||
		m.Path != "" ||
		m.PathPattern != "" ||
		len(m.Headers) > 0 ||
		len(m.QueryParams) > 0 ||
		m.BodyContains != "" ||
		m.BodyEquals != "" ||
		m.BodyPattern != "" ||
		len(m.BodyJSONPath) > 0 ||
		m.When != ""

	if !hasAnyCriteria {
		return &ValidationError{Field: "matcher", Message: "at least one matching criterion must be specified"}
	}

	// Validate method if specified
	if m.Method != "" {
		method := strings.ToUpper(m.Method)
		if !validHTTPMethods[method] {
			return &ValidationError{
				Field:   "matcher.method",
				Message: fmt.Sprintf("invalid HTTP method: %s", m.Method),
			}
		}
	}

	// Validate path if specified
	if m.Path != "" && !strings.HasPrefix(m.Path, "/") {
		return &ValidationError{Field: "matcher.path", Message: "path must start with /"}
	}

	// Path and PathPattern are mutually exclusive
	if m.Path != "" && m.PathPattern != "" {
		return &ValidationError{
			Field:   "matcher",
			Message: "cannot specify both path and pathPattern",
		}
	}

	// Validate PathPattern regex syntax if specified
	if m.PathPattern != "" {
		if _, err := regexp.Compile(m.PathPattern); err != nil {
			return &ValidationError{
				Field:   "matcher.pathPattern",
				Message: fmt.Sprintf("invalid regex pattern: %s", err.Error()),
			}
		}
	}

	// Validate BodyPattern regex syntax if specified
	if m.BodyPattern != "" {
		if _, err := regexp.Compile(m.BodyPattern); err != nil {
			return &ValidationError{
				Field:   "matcher.bodyPattern",
				Message: fmt.Sprintf("invalid regex pattern: %s", err.Error()),
			}
		}
	}

	// Validate header names
	for name := range m.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{
				Field:   "matcher.headers",
				Message: fmt.Sprintf("invalid header name: %s", name),
			}
		}
	}

	// Cannot specify both BodyEquals and BodyContains
	if m.BodyEquals != "" && m.BodyContains != "" {
		return &ValidationError{
			Field:   "matcher",
			Message: "cannot specify both bodyEquals and bodyContains",
		}
	}

	// Validate JSONPath expressions
	for path := range m.BodyJSONPath {
		if _, err := jp.ParseString(path); err != nil {
			return &ValidationError{
				Field:   "matcher.bodyJsonPath",
				Message: fmt.Sprintf("invalid JSONPath expression %q: %s", path, err.Error()),
			}
		}
	}

	// Validate When condition syntax if specified
	if m.When != "" {
		if _, err := expr.Compile(m.When); err != nil {
			return &ValidationError{
				Field:   "matcher.when",
				Message: fmt.Sprintf("invalid condition: %s", err.Error()),
			}
		}
	}

	return nil
}

// Validate checks if the Response is valid.
func (r *Response) Validate() error {
	// StatusCode must be a valid HTTP status code (100-599)
	if r.StatusCode < 100 || r.StatusCode > 599 {
		return &ValidationError{
			Field:   "response.statusCode",
			Message: fmt.Sprintf("statusCode must be between 100-599, got %d", r.StatusCode),
		}
	}

	// Cannot specify both Body and BodyFile
	if r.Body != "" && r.BodyFile != "" {
		return &ValidationError{
			Field:   "response",
			Message: "cannot specify both body and bodyFile",
		}
	}

	// DelayMs must be >= 0 and <= 30000
	if r.DelayMs < 0 {
		return &ValidationError{Field: "response.delayMs", Message: "delayMs must be >= 0"}
	}
	if r.DelayMs > 30000 {
		return &ValidationError{Field: "response.delayMs", Message: "delayMs must be <= 30000 (30 seconds)"}
	}

	// Validate header names
	for name := range r.Headers {
		if !headerNameRegex.MatchString(name) {
			return &ValidationError{
				Field:   "response.headers",
				Message: fmt.Sprintf("invalid header name: %s", name),
			}
		}
	}

	return nil
}
