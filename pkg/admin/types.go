// Shared request and response shapes for the admin API.

package admin

import (
	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/registry"
	"github.com/mockdeck/mockdeck/pkg/request"
	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

// ErrorResponse is the JSON error envelope all endpoints share.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int    `json:"uptime"`
}

// StatusResponse summarizes the daemon for the status endpoint.
type StatusResponse struct {
	Status            string `json:"status"`
	Version           string `json:"version"`
	AdminPort         int    `json:"adminPort"`
	Uptime            int    `json:"uptime"`
	Projects          int    `json:"projects"`
	Services          int    `json:"services"`
	RunningServices   int    `json:"runningServices"`
	Environments      int    `json:"environments"`
	ActiveEnvironment string `json:"activeEnvironment,omitempty"`
	RequestCount      int    `json:"requestCount"`
}

// EnvironmentListResponse wraps the environment list.
type EnvironmentListResponse struct {
	Environments []*env.Environment `json:"environments"`
	ActiveID     string             `json:"activeId,omitempty"`
	Count        int                `json:"count"`
}

// ProjectListResponse wraps the project list.
type ProjectListResponse struct {
	Projects []*registry.Project `json:"projects"`
	Count    int                 `json:"count"`
}

// ServiceView is a service with its current run state attached.
type ServiceView struct {
	*registry.Service
	Status registry.ServiceStatus `json:"status"`
}

// ServiceListResponse wraps the service list.
type ServiceListResponse struct {
	Services []*ServiceView `json:"services"`
	Count    int            `json:"count"`
}

// ResolveConfigResponse is the effective config for a service under the
// active environment.
type ResolveConfigResponse struct {
	ServiceID string            `json:"serviceId,omitempty"`
	ProjectID string            `json:"projectId,omitempty"`
	Config    env.ServiceConfig `json:"config"`
}

// ResolveVariablesRequest asks for variable substitution on a piece of
// text, optionally scoped to a service and project.
type ResolveVariablesRequest struct {
	Text      string `json:"text"`
	ServiceID string `json:"serviceId,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
}

// ResolveVariablesResponse carries the substituted text.
type ResolveVariablesResponse struct {
	Text string `json:"text"`
}

// SendRequest is a request definition plus the scope its variables
// resolve under.
type SendRequest struct {
	request.Definition
	ServiceID string `json:"serviceId,omitempty"`
	ProjectID string `json:"projectId,omitempty"`
}

// RequestListResponse wraps a page of request log entries. Total is the
// log size before filtering.
type RequestListResponse struct {
	Requests []*requestlog.Entry `json:"requests"`
	Count    int                 `json:"count"`
	Total    int                 `json:"total"`
}

// ImportResponse reports an environment import.
type ImportResponse struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
}
