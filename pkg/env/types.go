// Package env implements mockdeck's layered environment model. An
// environment is a named set of template variables plus service-config
// overlays (port, path prefix, real-backend target) that change how
// services listen, proxy, and substitute {{name}} tokens without
// touching the service definitions themselves.
package env

import (
	"fmt"
)

// Scope identifies which registry entity an override targets.
type Scope string

const (
	// ScopeProject applies an override to every service in a project.
	ScopeProject Scope = "project"
	// ScopeService applies an override to a single service.
	ScopeService Scope = "service"
)

// Environment is a named variable set with optional per-project and
// per-service overrides. Exactly one environment is active at a time
// (or none), selected through the store.
type Environment struct {
	// ID is a decimal unix-millisecond identifier (see internal/id.TimeRand)
	ID string `json:"id" yaml:"id"`

	// Name is the display name, e.g. "Development"
	Name string `json:"name" yaml:"name"`

	// Color is an optional UI accent color (hex or named)
	Color string `json:"color,omitempty" yaml:"color,omitempty"`

	// Variables are the global layer of template variables
	Variables []Variable `json:"variables" yaml:"variables"`

	// ServiceConfig is the global layer of service settings; nil means
	// the environment sets nothing at the global layer
	ServiceConfig *ServiceConfig `json:"serviceConfig,omitempty" yaml:"serviceConfig,omitempty"`

	// Overrides refine the global layer for specific projects or services
	Overrides []Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`

	// CreatedAt is the creation time in unix milliseconds
	CreatedAt int64 `json:"createdAt" yaml:"createdAt"`

	// UpdatedAt is the last modification time in unix milliseconds
	UpdatedAt int64 `json:"updatedAt" yaml:"updatedAt"`
}

// Variable is a single template variable. Keys are unique within one
// layer's list; the same key may appear at other layers, where the
// usual precedence applies.
type Variable struct {
	Key         string `json:"key" yaml:"key"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Enabled toggles the variable without deleting it. Absent means
	// enabled.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the variable participates in resolution.
func (v Variable) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

// ServiceConfig is a sparse set of service settings. Every field is
// optional: a nil pointer means "this layer does not set the field",
// which is distinct from setting a zero value.
type ServiceConfig struct {
	// Port is the local listen port for the mock server
	Port *int `json:"port,omitempty" yaml:"port,omitempty"`

	// Prefix is the local URL path prefix rules are mounted under
	Prefix *string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// RealHost is the real backend host for proxying
	RealHost *string `json:"realHost,omitempty" yaml:"realHost,omitempty"`

	// RealPort is the real backend port
	RealPort *int `json:"realPort,omitempty" yaml:"realPort,omitempty"`

	// RealPrefix is the path prefix on the real backend
	RealPrefix *string `json:"realPrefix,omitempty" yaml:"realPrefix,omitempty"`
}

// IsZero reports whether no field is set.
func (c *ServiceConfig) IsZero() bool {
	if c == nil {
		return true
	}
	return c.Port == nil && c.Prefix == nil && c.RealHost == nil &&
		c.RealPort == nil && c.RealPrefix == nil
}

// Merge copies every set field of overlay into c. Unset overlay fields
// leave c untouched, so applying layers in order gives later layers
// per-field precedence. Values are copied, never aliased.
func (c *ServiceConfig) Merge(overlay *ServiceConfig) {
	if overlay == nil {
		return
	}
	if overlay.Port != nil {
		v := *overlay.Port
		c.Port = &v
	}
	if overlay.Prefix != nil {
		v := *overlay.Prefix
		c.Prefix = &v
	}
	if overlay.RealHost != nil {
		v := *overlay.RealHost
		c.RealHost = &v
	}
	if overlay.RealPort != nil {
		v := *overlay.RealPort
		c.RealPort = &v
	}
	if overlay.RealPrefix != nil {
		v := *overlay.RealPrefix
		c.RealPrefix = &v
	}
}

// Clone returns a deep copy of the config, or nil for nil.
func (c *ServiceConfig) Clone() *ServiceConfig {
	if c == nil {
		return nil
	}
	out := &ServiceConfig{}
	out.Merge(c)
	return out
}

// Override refines the environment for one project or service. TargetID
// is a weak reference: deleting the target leaves the override in place,
// and resolution simply skips overrides whose target does not match.
type Override struct {
	// Scope is "project" or "service"
	Scope Scope `json:"scope" yaml:"scope"`

	// TargetID is the id of the project or service this override refines
	TargetID string `json:"targetId" yaml:"targetId"`

	// TargetName is a display label captured when the override was
	// created; it is not kept in sync with the registry
	TargetName string `json:"targetName,omitempty" yaml:"targetName,omitempty"`

	// ServiceConfig holds the fields this override sets, if any
	ServiceConfig *ServiceConfig `json:"serviceConfig,omitempty" yaml:"serviceConfig,omitempty"`

	// Variables holds this layer's variables, if any
	Variables []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Clone returns a deep copy of the environment.
func (e *Environment) Clone() *Environment {
	if e == nil {
		return nil
	}
	out := *e
	out.ServiceConfig = e.ServiceConfig.Clone()
	out.Variables = cloneVariables(e.Variables)
	if e.Overrides != nil {
		out.Overrides = make([]Override, len(e.Overrides))
		for i, o := range e.Overrides {
			c := o
			c.ServiceConfig = o.ServiceConfig.Clone()
			c.Variables = cloneVariables(o.Variables)
			out.Overrides[i] = c
		}
	}
	return &out
}

func cloneVariables(vars []Variable) []Variable {
	if vars == nil {
		return nil
	}
	out := make([]Variable, len(vars))
	for i, v := range vars {
		c := v
		if v.Enabled != nil {
			b := *v.Enabled
			c.Enabled = &b
		}
		out[i] = c
	}
	return out
}

// findOverride returns the first override matching scope and targetID in
// list order, or nil. When duplicates of the same (scope, targetId)
// exist, the first one wins and the rest are ignored.
func (e *Environment) findOverride(scope Scope, targetID string) *Override {
	if targetID == "" {
		return nil
	}
	for i := range e.Overrides {
		o := &e.Overrides[i]
		if o.Scope == scope && o.TargetID == targetID {
			return o
		}
	}
	return nil
}

// ValidationError represents a validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Validate checks the environment for structural problems. Weak override
// targets are not checked against the registry; a dangling target is
// valid and simply never matches.
func (e *Environment) Validate() error {
	if e.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	for i, o := range e.Overrides {
		if o.Scope != ScopeProject && o.Scope != ScopeService {
			return &ValidationError{
				Field:   fmt.Sprintf("overrides[%d].scope", i),
				Message: fmt.Sprintf("scope must be %q or %q", ScopeProject, ScopeService),
			}
		}
		if o.TargetID == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("overrides[%d].targetId", i),
				Message: "targetId is required",
			}
		}
	}
	return nil
}
