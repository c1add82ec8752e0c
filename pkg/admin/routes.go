// Route registration for the admin API.

package admin

import (
	"net/http"
)

// registerRoutes sets up all API routes. Literal segments like
// /environments/active are registered alongside the {id} patterns; the
// mux prefers the more specific literal route.
func (a *API) registerRoutes(mux *http.ServeMux) {
	// Health and status
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.HandleFunc("GET /status", a.handleStatus)

	// Environment management
	mux.HandleFunc("GET /environments", a.handleListEnvironments)
	mux.HandleFunc("POST /environments", a.handleCreateEnvironment)
	mux.HandleFunc("GET /environments/active", a.handleGetActiveEnvironment)
	mux.HandleFunc("DELETE /environments/active", a.handleDeactivateEnvironment)
	mux.HandleFunc("GET /environments/export", a.handleExportEnvironments)
	mux.HandleFunc("POST /environments/import", a.handleImportEnvironments)
	mux.HandleFunc("GET /environments/{id}", a.handleGetEnvironment)
	mux.HandleFunc("PUT /environments/{id}", a.handleUpdateEnvironment)
	mux.HandleFunc("DELETE /environments/{id}", a.handleDeleteEnvironment)
	mux.HandleFunc("POST /environments/{id}/activate", a.handleActivateEnvironment)

	// Resolution queries
	mux.HandleFunc("GET /resolve/config", a.handleResolveConfig)
	mux.HandleFunc("POST /resolve/variables", a.handleResolveVariables)

	// Project management
	mux.HandleFunc("GET /projects", a.handleListProjects)
	mux.HandleFunc("POST /projects", a.handleCreateProject)
	mux.HandleFunc("GET /projects/{id}", a.handleGetProject)
	mux.HandleFunc("PUT /projects/{id}", a.handleUpdateProject)
	mux.HandleFunc("DELETE /projects/{id}", a.handleDeleteProject)

	// Service management and server control
	mux.HandleFunc("GET /services", a.handleListServices)
	mux.HandleFunc("POST /services", a.handleCreateService)
	mux.HandleFunc("GET /services/{id}", a.handleGetService)
	mux.HandleFunc("PUT /services/{id}", a.handleUpdateService)
	mux.HandleFunc("DELETE /services/{id}", a.handleDeleteService)
	mux.HandleFunc("POST /services/{id}/start", a.handleStartService)
	mux.HandleFunc("POST /services/{id}/stop", a.handleStopService)
	mux.HandleFunc("GET /services/{id}/status", a.handleServiceStatus)

	// Request dispatch
	mux.HandleFunc("POST /send", a.handleSend)

	// Request logging
	mux.HandleFunc("GET /requests", a.handleListRequests)
	mux.HandleFunc("GET /requests/stream", a.handleStreamRequests)
	mux.HandleFunc("GET /requests/{id}", a.handleGetRequest)
	mux.HandleFunc("DELETE /requests", a.handleClearRequests)
}
