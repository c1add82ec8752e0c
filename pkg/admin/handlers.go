package admin

import (
	"encoding/json"
	"net/http"

	"github.com/mockdeck/mockdeck/pkg/httputil"
	"github.com/mockdeck/mockdeck/pkg/registry"
)

// handleHealth handles GET /health.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteOK(w, HealthResponse{
		Status: "ok",
		Uptime: a.Uptime(),
	})
}

// handleStatus handles GET /status and returns a daemon summary.
func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	running := 0
	for _, srv := range a.launcher.ListServices() {
		if srv.Status() == registry.ServiceStatusRunning {
			running++
		}
	}

	activeName := ""
	if active := a.envs.Active(ctx); active != nil {
		activeName = active.Name
	}

	requestCount := 0
	if a.requests != nil {
		requestCount = a.requests.Count()
	}

	version := a.version
	if version == "" {
		version = "dev"
	}

	httputil.WriteOK(w, StatusResponse{
		Status:            "ok",
		Version:           version,
		AdminPort:         a.Port(),
		Uptime:            a.Uptime(),
		Projects:          len(a.registry.ListProjects(ctx)),
		Services:          len(a.registry.ListServices(ctx)),
		RunningServices:   running,
		Environments:      len(a.envs.List(ctx)),
		ActiveEnvironment: activeName,
		RequestCount:      requestCount,
	})
}

// handleResolveConfig handles GET /resolve/config. When only a service
// id is given, the service's project is looked up so project-scope
// overrides still contribute.
func (a *API) handleResolveConfig(w http.ResponseWriter, r *http.Request) {
	serviceID := r.URL.Query().Get("service")
	projectID := r.URL.Query().Get("project")

	if serviceID != "" && projectID == "" {
		if svc, err := a.registry.GetService(r.Context(), serviceID); err == nil {
			projectID = svc.ProjectID
		}
	}

	cfg := a.resolver.ResolveServiceConfig(r.Context(), serviceID, projectID)
	httputil.WriteOK(w, ResolveConfigResponse{
		ServiceID: serviceID,
		ProjectID: projectID,
		Config:    cfg,
	})
}

// handleResolveVariables handles POST /resolve/variables.
func (a *API) handleResolveVariables(w http.ResponseWriter, r *http.Request) {
	var req ResolveVariablesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}

	if req.ServiceID != "" && req.ProjectID == "" {
		if svc, err := a.registry.GetService(r.Context(), req.ServiceID); err == nil {
			req.ProjectID = svc.ProjectID
		}
	}

	resolved := a.resolver.ResolveVariables(r.Context(), req.Text, req.ServiceID, req.ProjectID)
	httputil.WriteOK(w, ResolveVariablesResponse{Text: resolved})
}
