package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/logging"
	"github.com/mockdeck/mockdeck/pkg/registry"
	"github.com/mockdeck/mockdeck/pkg/request"
	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

// DefaultPort is the default admin API port.
const DefaultPort = 4590

// shutdownTimeout bounds graceful shutdown on Stop.
const shutdownTimeout = 5 * time.Second

// API exposes the REST control surface over the environment store, the
// registry, and the service launcher.
type API struct {
	launcher   registry.Launcher
	registry   *registry.Store
	envs       *env.Store
	resolver   *env.Resolver
	requests   requestlog.Store
	dispatcher *request.Dispatcher

	httpServer *http.Server
	startTime  time.Time
	version    string
	host       string
	log        *slog.Logger

	mu   sync.RWMutex
	port int
}

// New creates the admin API on the given port. Port 0 binds an
// ephemeral port, readable through Port after Start. The launcher and
// both stores are required; everything else is optional.
func New(port int, launcher registry.Launcher, reg *registry.Store, envs *env.Store, opts ...Option) *API {
	a := &API{
		launcher:  launcher,
		registry:  reg,
		envs:      envs,
		resolver:  env.NewResolver(envs),
		port:      port,
		startTime: time.Now(),
		log:       logging.Nop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.dispatcher == nil {
		a.dispatcher = request.NewDispatcher(a.resolver, request.Options{Logger: a.log})
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	a.httpServer = &http.Server{
		Handler: a.withMiddleware(mux),
		// No write timeout: the request stream endpoint holds its
		// connection open indefinitely.
		ReadTimeout: 30 * time.Second,
	}

	return a
}

// withMiddleware wraps the route mux with request logging (outermost)
// and panic recovery, so a recovered 500 still shows up in the log.
func (a *API) withMiddleware(handler http.Handler) http.Handler {
	return a.loggingMiddleware(a.recoveryMiddleware(handler))
}

// Start binds the admin port and begins serving. The bind is
// synchronous so a port conflict fails here rather than in the
// background.
func (a *API) Start() error {
	a.startTime = time.Now()

	a.mu.RLock()
	port := a.port
	a.mu.RUnlock()

	listener, err := net.Listen("tcp", net.JoinHostPort(a.host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("binding admin port %d: %w", port, err)
	}

	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		a.mu.Lock()
		a.port = addr.Port
		a.mu.Unlock()
	}

	a.log.Info("admin API started", "port", a.Port())
	go func() {
		if err := a.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			a.log.Error("admin API error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the admin server. Running mock services
// are left alone; stopping them is the caller's decision.
func (a *API) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.httpServer.Shutdown(ctx)
}

// Port returns the bound port. Before Start it returns the configured
// port, which may be 0.
func (a *API) Port() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.port
}

// Uptime returns seconds since Start.
func (a *API) Uptime() int {
	return int(time.Since(a.startTime).Seconds())
}

// SetLogger sets the operational logger.
func (a *API) SetLogger(log *slog.Logger) {
	if log != nil {
		a.log = log
	} else {
		a.log = logging.Nop()
	}
}
