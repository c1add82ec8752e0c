// Package admin provides the REST API for managing environments,
// projects, services, and mock servers at runtime.
//
// The admin API is the single control surface: the CLI and any UI talk
// to it over HTTP. It owns no domain logic; every endpoint delegates to
// the environment store, the registry store, the service launcher, or
// the request dispatcher.
//
// Endpoints:
//
//	GET    /health                      - Health check
//	GET    /status                      - Daemon status summary
//	GET    /environments                - List environments
//	POST   /environments                - Create an environment
//	GET    /environments/active         - Get the active environment
//	DELETE /environments/active         - Clear the active selection
//	GET    /environments/export         - Download environments as JSON
//	POST   /environments/import         - Import environments from JSON
//	GET    /environments/{id}           - Get an environment
//	PUT    /environments/{id}           - Update an environment
//	DELETE /environments/{id}           - Delete an environment
//	POST   /environments/{id}/activate  - Make an environment active
//	GET    /resolve/config              - Effective service config
//	POST   /resolve/variables           - Substitute {{variables}} in text
//	GET    /projects                    - List projects
//	POST   /projects                    - Create a project
//	GET    /projects/{id}               - Get a project
//	PUT    /projects/{id}               - Update a project
//	DELETE /projects/{id}               - Delete a project
//	GET    /services                    - List services with run state
//	POST   /services                    - Create a service
//	GET    /services/{id}               - Get a service
//	PUT    /services/{id}               - Update a service
//	DELETE /services/{id}               - Delete a service
//	POST   /services/{id}/start         - Start a service's mock server
//	POST   /services/{id}/stop          - Stop a service's mock server
//	GET    /services/{id}/status        - Run state of one service
//	POST   /send                        - Dispatch a request definition
//	GET    /requests                    - List logged mock requests
//	GET    /requests/stream             - Live request feed (SSE)
//	GET    /requests/{id}               - Get one logged request
//	DELETE /requests                    - Clear the request log
//
// Usage:
//
//	api := admin.New(4590, launcher, registryStore, envStore,
//		admin.WithRequestLog(launcher.RequestLog()),
//		admin.WithLogger(log),
//	)
//	if err := api.Start(); err != nil {
//		return err
//	}
//	defer api.Stop()
package admin
