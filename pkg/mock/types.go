// Package mock provides the Rule type that describes how a mock service
// matches incoming HTTP requests and what it responds with.
package mock

import (
	"time"
)

// Rule represents a single request/response rule served by a mock service.
// Rules are evaluated by score: the enabled rule with the highest match
// score wins, with Priority breaking ties.
type Rule struct {
	// ID is a unique identifier for the rule (UUID or prefixed ID)
	ID string `json:"id" yaml:"id"`

	// ServiceID is the service this rule belongs to ("" = shared/unassigned)
	ServiceID string `json:"serviceId,omitempty" yaml:"serviceId,omitempty"`

	// Name is a human-readable name for the rule
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Description is an optional longer description
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Enabled indicates whether this rule is active
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Priority breaks score ties between matching rules (higher wins)
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	// Matcher describes which requests this rule applies to
	Matcher Matcher `json:"matcher" yaml:"matcher"`

	// Response describes what to send back on a match
	Response Response `json:"response" yaml:"response"`

	// Source is the file the rule was loaded from ("" = created via API)
	Source string `json:"source,omitempty" yaml:"-"`

	// CreatedAt is when the rule was created
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`

	// UpdatedAt is when the rule was last modified
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Matcher defines the criteria for matching HTTP requests.
// All specified criteria must match (AND logic).
type Matcher struct {
	Method       string                 `json:"method,omitempty" yaml:"method,omitempty"`
	Path         string                 `json:"path,omitempty" yaml:"path,omitempty"`
	PathPattern  string                 `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`
	Headers      map[string]string      `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams  map[string]string      `json:"queryParams,omitempty" yaml:"queryParams,omitempty"`
	BodyContains string                 `json:"bodyContains,omitempty" yaml:"bodyContains,omitempty"`
	BodyEquals   string                 `json:"bodyEquals,omitempty" yaml:"bodyEquals,omitempty"`
	BodyPattern  string                 `json:"bodyPattern,omitempty" yaml:"bodyPattern,omitempty"`
	BodyJSONPath map[string]any `json:"bodyJsonPath,omitempty" yaml:"bodyJsonPath,omitempty"`

	// When is an optional expr-lang condition evaluated against the request.
	// The expression sees: method, path, headers, query, params, body.
	// Example: `headers["X-Role"] == "admin" && params.id != "0"`
	When string `json:"when,omitempty" yaml:"when,omitempty"`
}

// Response defines the HTTP response returned on a match.
// Body and header values may contain {{variable}} tokens that are
// substituted from the active environment at serve time.
type Response struct {
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       string            `json:"body" yaml:"body"`
	BodyFile   string            `json:"bodyFile,omitempty" yaml:"bodyFile,omitempty"`
	DelayMs    int               `json:"delayMs,omitempty" yaml:"delayMs,omitempty"`
}

// RuleFile is the on-disk shape of a rule collection (YAML or JSON).
type RuleFile struct {
	Rules []*Rule `json:"rules" yaml:"rules"`
}

// IsEnabled returns whether the rule is active. Defaults to true when unset.
func (r *Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Clone returns a deep copy of the rule.
func (r *Rule) Clone() *Rule {
	if r == nil {
		return nil
	}
	c := *r
	if r.Enabled != nil {
		v := *r.Enabled
		c.Enabled = &v
	}
	c.Matcher = *r.Matcher.Clone()
	c.Response = *r.Response.Clone()
	return &c
}

// Clone returns a deep copy of the matcher.
func (m *Matcher) Clone() *Matcher {
	if m == nil {
		return nil
	}
	c := *m
	c.Headers = copyStringMap(m.Headers)
	c.QueryParams = copyStringMap(m.QueryParams)
	if m.BodyJSONPath != nil {
		c.BodyJSONPath = make(map[string]any, len(m.BodyJSONPath))
		for k, v := range m.BodyJSONPath {
			c.BodyJSONPath[k] = v
		}
	}
	return &c
}

// Clone returns a deep copy of the response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	c.Headers = copyStringMap(r.Headers)
	return &c
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
