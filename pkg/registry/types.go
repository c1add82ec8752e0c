// Package registry defines the projects and services that environments
// refine. It is imported by both pkg/admin (the consumer) and pkg/engine
// (the implementer of Launcher), keeping the two layers decoupled.
// Environment overrides reference these entities by id only; deleting an
// entity never touches the overrides pointing at it.
package registry

import (
	"context"
	"fmt"
)

// Project groups related services. Overrides with project scope apply to
// every service in the project.
type Project struct {
	// ID is a short hex identifier with a "prj_" prefix
	ID string `json:"id" yaml:"id"`

	// Name is the display name, e.g. "Payments"
	Name string `json:"name" yaml:"name"`

	// Description is an optional longer description
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// CreatedAt is the creation time in unix milliseconds
	CreatedAt int64 `json:"createdAt" yaml:"createdAt"`

	// UpdatedAt is the last modification time in unix milliseconds
	UpdatedAt int64 `json:"updatedAt" yaml:"updatedAt"`
}

// Service is a mock API definition. Its listen and proxy settings here
// are defaults; the active environment's resolved config wins field by
// field when a service starts.
type Service struct {
	// ID is a short hex identifier with a "svc_" prefix
	ID string `json:"id" yaml:"id"`

	// ProjectID is the owning project, or "" for an ungrouped service
	ProjectID string `json:"projectId,omitempty" yaml:"projectId,omitempty"`

	// Name is the display name, e.g. "orders-api"
	Name string `json:"name" yaml:"name"`

	// Description is an optional longer description
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Port is the default listen port; 0 picks a free port
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Prefix is the default URL path prefix rules are mounted under
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// RuleFiles are glob patterns for rule definition files, resolved
	// relative to the workspace config file
	RuleFiles []string `json:"ruleFiles,omitempty" yaml:"ruleFiles,omitempty"`

	// AutoStart starts the service with the daemon
	AutoStart bool `json:"autoStart,omitempty" yaml:"autoStart,omitempty"`

	// CreatedAt is the creation time in unix milliseconds
	CreatedAt int64 `json:"createdAt" yaml:"createdAt"`

	// UpdatedAt is the last modification time in unix milliseconds
	UpdatedAt int64 `json:"updatedAt" yaml:"updatedAt"`
}

// ServiceStatus represents the run state of a service server.
type ServiceStatus string

const (
	ServiceStatusStopped  ServiceStatus = "stopped"
	ServiceStatusRunning  ServiceStatus = "running"
	ServiceStatusStarting ServiceStatus = "starting"
	ServiceStatusError    ServiceStatus = "error"
)

// StatusInfo describes a running (or failed) service server.
type StatusInfo struct {
	ServiceID     string        `json:"serviceId"`
	ServiceName   string        `json:"serviceName"`
	Port          int           `json:"port"`
	Prefix        string        `json:"prefix,omitempty"`
	ProxyTarget   string        `json:"proxyTarget,omitempty"`
	Status        ServiceStatus `json:"status"`
	StatusMessage string        `json:"statusMessage,omitempty"`
	RuleCount     int           `json:"ruleCount"`
	RequestCount  int           `json:"requestCount"`
	Uptime        int           `json:"uptime"` // seconds
}

// Server is the interface service server implementations satisfy. The
// admin layer uses it to query status without importing pkg/engine.
type Server interface {
	Status() ServiceStatus
	StatusInfo() *StatusInfo
}

// Launcher manages service servers. The admin layer depends on this
// interface rather than the concrete engine launcher, keeping the
// admin -> engine dependency boundary clean.
type Launcher interface {
	StartService(ctx context.Context, svc *Service) error
	StopService(serviceID string) error
	StopAll() error

	GetService(serviceID string) Server
	ListServices() []Server
	ServiceStatus(serviceID string) *StatusInfo
}

// ValidationError represents a validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Validate checks the project for structural problems.
func (p *Project) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// Validate checks the service for structural problems.
func (s *Service) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if s.Port < 0 || s.Port > 65535 {
		return &ValidationError{Field: "port", Message: "port must be between 0 and 65535"}
	}
	return nil
}
