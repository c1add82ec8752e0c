package admin

import (
	"encoding/json"
	"net/http"

	"github.com/mockdeck/mockdeck/pkg/httputil"
	"github.com/mockdeck/mockdeck/pkg/registry"
)

// handleListProjects handles GET /projects.
func (a *API) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects := a.registry.ListProjects(r.Context())
	httputil.WriteOK(w, ProjectListResponse{
		Projects: projects,
		Count:    len(projects),
	})
}

// handleCreateProject handles POST /projects.
func (a *API) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var p registry.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}

	if err := a.registry.CreateProject(r.Context(), &p); err != nil {
		a.writeDomainError(w, err, "create project")
		return
	}
	httputil.WriteCreated(w, &p)
}

// handleGetProject handles GET /projects/{id}.
func (a *API) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := a.registry.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeDomainError(w, err, "get project")
		return
	}
	httputil.WriteOK(w, p)
}

// handleUpdateProject handles PUT /projects/{id}.
func (a *API) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var p registry.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}
	p.ID = r.PathValue("id")

	if err := a.registry.UpdateProject(r.Context(), &p); err != nil {
		a.writeDomainError(w, err, "update project")
		return
	}
	httputil.WriteOK(w, &p)
}

// handleDeleteProject handles DELETE /projects/{id}.
func (a *API) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := a.registry.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		a.writeDomainError(w, err, "delete project")
		return
	}
	httputil.WriteNoContent(w)
}

// serviceView pairs a service with its live run state.
func (a *API) serviceView(svc *registry.Service) *ServiceView {
	status := registry.ServiceStatusStopped
	if info := a.launcher.ServiceStatus(svc.ID); info != nil {
		status = info.Status
	}
	return &ServiceView{Service: svc, Status: status}
}

// handleListServices handles GET /services with an optional ?project=
// filter.
func (a *API) handleListServices(w http.ResponseWriter, r *http.Request) {
	var services []*registry.Service
	if projectID := r.URL.Query().Get("project"); projectID != "" {
		services = a.registry.ListServicesByProject(r.Context(), projectID)
	} else {
		services = a.registry.ListServices(r.Context())
	}

	views := make([]*ServiceView, 0, len(services))
	for _, svc := range services {
		views = append(views, a.serviceView(svc))
	}
	httputil.WriteOK(w, ServiceListResponse{
		Services: views,
		Count:    len(views),
	})
}

// handleCreateService handles POST /services.
func (a *API) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var svc registry.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}

	if err := a.registry.CreateService(r.Context(), &svc); err != nil {
		a.writeDomainError(w, err, "create service")
		return
	}
	httputil.WriteCreated(w, &svc)
}

// handleGetService handles GET /services/{id}.
func (a *API) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := a.registry.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeDomainError(w, err, "get service")
		return
	}
	httputil.WriteOK(w, a.serviceView(svc))
}

// handleUpdateService handles PUT /services/{id}. A running server is
// left alone; the new definition takes effect on the next start.
func (a *API) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var svc registry.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}
	svc.ID = r.PathValue("id")

	if err := a.registry.UpdateService(r.Context(), &svc); err != nil {
		a.writeDomainError(w, err, "update service")
		return
	}
	httputil.WriteOK(w, &svc)
}

// handleDeleteService handles DELETE /services/{id}. A running server
// would keep serving rules for a service that no longer exists, so it
// is stopped first.
func (a *API) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if a.launcher.ServiceStatus(id) != nil {
		if err := a.launcher.StopService(id); err != nil {
			a.log.Warn("stopping service before delete", "serviceId", id, "error", err)
		}
	}

	if err := a.registry.DeleteService(r.Context(), id); err != nil {
		a.writeDomainError(w, err, "delete service")
		return
	}
	httputil.WriteNoContent(w)
}

// handleStartService handles POST /services/{id}/start.
func (a *API) handleStartService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	svc, err := a.registry.GetService(r.Context(), id)
	if err != nil {
		a.writeDomainError(w, err, "start service")
		return
	}

	if info := a.launcher.ServiceStatus(id); info != nil && info.Status == registry.ServiceStatusRunning {
		httputil.WriteConflict(w, "already_running", "Service is already running")
		return
	}

	if err := a.launcher.StartService(r.Context(), svc); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "start_failed", err.Error())
		return
	}
	httputil.WriteOK(w, a.launcher.ServiceStatus(id))
}

// handleStopService handles POST /services/{id}/stop.
func (a *API) handleStopService(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if a.launcher.ServiceStatus(id) == nil {
		httputil.WriteConflict(w, "not_running", "Service is not running")
		return
	}

	if err := a.launcher.StopService(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "stop_failed", err.Error())
		return
	}
	httputil.WriteOK(w, map[string]string{"message": "Service stopped"})
}

// handleServiceStatus handles GET /services/{id}/status. Services that
// are registered but not tracked by the launcher report as stopped.
func (a *API) handleServiceStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if info := a.launcher.ServiceStatus(id); info != nil {
		httputil.WriteOK(w, info)
		return
	}

	svc, err := a.registry.GetService(r.Context(), id)
	if err != nil {
		a.writeDomainError(w, err, "service status")
		return
	}
	httputil.WriteOK(w, &registry.StatusInfo{
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Port:        svc.Port,
		Status:      registry.ServiceStatusStopped,
	})
}
