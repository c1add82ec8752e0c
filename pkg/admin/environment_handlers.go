package admin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/httputil"
	"github.com/mockdeck/mockdeck/pkg/portability"
)

// maxImportSize caps environment import payloads at 10MB.
const maxImportSize = 10 << 20

// handleListEnvironments handles GET /environments.
func (a *API) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	envs := a.envs.List(r.Context())
	httputil.WriteOK(w, EnvironmentListResponse{
		Environments: envs,
		ActiveID:     a.envs.ActiveID(r.Context()),
		Count:        len(envs),
	})
}

// handleCreateEnvironment handles POST /environments.
func (a *API) handleCreateEnvironment(w http.ResponseWriter, r *http.Request) {
	var e env.Environment
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}

	// POST always creates; a client-supplied id would silently upsert.
	e.ID = ""

	if err := e.Validate(); err != nil {
		a.writeDomainError(w, err, "create environment")
		return
	}

	created, err := a.envs.Save(r.Context(), &e)
	if err != nil {
		a.writeDomainError(w, err, "create environment")
		return
	}
	httputil.WriteCreated(w, created)
}

// handleGetEnvironment handles GET /environments/{id}.
func (a *API) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	e, err := a.envs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeDomainError(w, err, "get environment")
		return
	}
	httputil.WriteOK(w, e)
}

// handleUpdateEnvironment handles PUT /environments/{id}.
func (a *API) handleUpdateEnvironment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := a.envs.Get(r.Context(), id); err != nil {
		a.writeDomainError(w, err, "update environment")
		return
	}

	var e env.Environment
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		httputil.WriteBadRequest(w, "invalid_json", ErrMsgInvalidJSON)
		return
	}
	e.ID = id

	if err := e.Validate(); err != nil {
		a.writeDomainError(w, err, "update environment")
		return
	}

	updated, err := a.envs.Save(r.Context(), &e)
	if err != nil {
		a.writeDomainError(w, err, "update environment")
		return
	}
	httputil.WriteOK(w, updated)
}

// handleDeleteEnvironment handles DELETE /environments/{id}. Deletion
// is idempotent, so unknown ids also answer 204.
func (a *API) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	if err := a.envs.Delete(r.Context(), r.PathValue("id")); err != nil {
		a.writeDomainError(w, err, "delete environment")
		return
	}
	httputil.WriteNoContent(w)
}

// handleActivateEnvironment handles POST /environments/{id}/activate.
func (a *API) handleActivateEnvironment(w http.ResponseWriter, r *http.Request) {
	e, err := a.envs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeDomainError(w, err, "activate environment")
		return
	}

	a.envs.SetActive(r.Context(), e.ID)
	httputil.WriteOK(w, map[string]string{
		"message":  "Environment activated",
		"activeId": e.ID,
	})
}

// handleDeactivateEnvironment handles DELETE /environments/active.
func (a *API) handleDeactivateEnvironment(w http.ResponseWriter, r *http.Request) {
	a.envs.SetActive(r.Context(), "")
	httputil.WriteNoContent(w)
}

// handleGetActiveEnvironment handles GET /environments/active.
func (a *API) handleGetActiveEnvironment(w http.ResponseWriter, r *http.Request) {
	active := a.envs.Active(r.Context())
	if active == nil {
		httputil.WriteNotFound(w, "no_active_environment", "No environment is active")
		return
	}
	httputil.WriteOK(w, active)
}

// handleExportEnvironments handles GET /environments/export and streams
// a JSON download of every stored environment.
func (a *API) handleExportEnvironments(w http.ResponseWriter, r *http.Request) {
	result, err := portability.Export(a.envs.List(r.Context()), nil)
	if err != nil {
		a.writeDomainError(w, err, "export environments")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", portability.ExportFilename(time.Now())))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// handleImportEnvironments handles POST /environments/import. The
// payload is validated in full before anything is persisted.
func (a *API) handleImportEnvironments(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportSize))
	if err != nil {
		httputil.WriteBadRequest(w, "body_too_large", fmt.Sprintf("Import payload exceeds %d bytes", maxImportSize))
		return
	}

	result, err := portability.Import(data)
	if err != nil {
		httputil.WriteBadRequest(w, "import_error", err.Error())
		return
	}

	for _, e := range result.Environments {
		if _, err := a.envs.Save(r.Context(), e); err != nil {
			a.writeDomainError(w, err, "import environments")
			return
		}
	}

	httputil.WriteOK(w, ImportResponse{
		Message:  "Environments imported",
		Imported: result.Count,
	})
}
