package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockdeck/mockdeck/internal/storage"
	"github.com/mockdeck/mockdeck/pkg/proxy"
	"github.com/mockdeck/mockdeck/pkg/registry"
)

const (
	// DefaultPortRangeStart is where the port scan begins for services
	// that do not pin a port in config or environment.
	DefaultPortRangeStart = 8600

	// Per-service HTTP server timeouts. The write timeout leaves headroom
	// for the maximum configurable response delay.
	serviceReadTimeout  = 30 * time.Second
	serviceWriteTimeout = 60 * time.Second

	shutdownTimeout = 5 * time.Second
)

// findFreePort finds a free port starting from the given port.
// It checks up to 100 ports from the starting port.
func findFreePort(startPort int) int {
	for port := startPort; port < startPort+100; port++ {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			_ = listener.Close()
			return port
		}
	}
	// Fallback to a random port if no port in range is available
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return startPort // Return start port as last resort
	}
	defer func() { _ = listener.Close() }()
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return startPort
	}
	return tcpAddr.Port
}

// ServiceServer is one running mock service: an HTTP listener serving the
// service's rules under its resolved prefix, with optional passthrough to
// a real backend for unmatched requests.
type ServiceServer struct {
	svc     *registry.Service
	port    int
	prefix  string
	target  *proxy.Target
	rules   storage.RuleStore
	handler *Handler
	log     *slog.Logger

	httpServer *http.Server
	requests   atomic.Int64

	mu            sync.RWMutex
	status        registry.ServiceStatus
	statusMessage string
	startedAt     time.Time
}

func newServiceServer(svc *registry.Service, port int, prefix string, target *proxy.Target, rules storage.RuleStore, handler *Handler, log *slog.Logger) *ServiceServer {
	return &ServiceServer{
		svc:     svc,
		port:    port,
		prefix:  prefix,
		target:  target,
		rules:   rules,
		handler: handler,
		log:     log,
		status:  registry.ServiceStatusStopped,
	}
}

// Start binds the service port and begins serving. The listener is opened
// synchronously so port conflicts surface as errors here, not later.
func (s *ServiceServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == registry.ServiceStatusRunning {
		return fmt.Errorf("service %q is already running", s.svc.Name)
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.status = registry.ServiceStatusError
		s.statusMessage = err.Error()
		return fmt.Errorf("binding port %d for service %q: %w", s.port, s.svc.Name, err)
	}
	if s.port == 0 {
		if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
			s.port = tcpAddr.Port
		}
	}

	s.httpServer = &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.requests.Add(1)
			s.handler.ServeHTTP(w, r)
		}),
		ReadTimeout:  serviceReadTimeout,
		WriteTimeout: serviceWriteTimeout,
	}

	s.status = registry.ServiceStatusRunning
	s.statusMessage = ""
	s.startedAt = time.Now()

	srv := s.httpServer
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("service server failed", "service", s.svc.Name, "port", s.port, "error", err)
			s.mu.Lock()
			s.status = registry.ServiceStatusError
			s.statusMessage = err.Error()
			s.mu.Unlock()
		}
	}()

	return nil
}

// Stop gracefully shuts down the service's HTTP server.
// Stopping a service that is not running is a no-op.
func (s *ServiceServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		s.status = registry.ServiceStatusStopped
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.httpServer = nil
	s.status = registry.ServiceStatusStopped
	s.statusMessage = ""
	if err != nil {
		return fmt.Errorf("shutting down service %q: %w", s.svc.Name, err)
	}
	return nil
}

// Status returns the current lifecycle status.
func (s *ServiceServer) Status() registry.ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// StatusInfo returns a snapshot of the service's runtime state.
func (s *ServiceServer) StatusInfo() *registry.StatusInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := &registry.StatusInfo{
		ServiceID:     s.svc.ID,
		ServiceName:   s.svc.Name,
		Port:          s.port,
		Prefix:        s.prefix,
		Status:        s.status,
		StatusMessage: s.statusMessage,
		RuleCount:     s.rules.Count(),
		RequestCount:  int(s.requests.Load()),
	}
	if s.target != nil {
		info.ProxyTarget = s.target.URL()
	}
	if s.status == registry.ServiceStatusRunning && !s.startedAt.IsZero() {
		info.Uptime = int(time.Since(s.startedAt).Seconds())
	}
	return info
}

// Port returns the port the service is bound to. For services started
// without a pinned port this is only final after Start.
func (s *ServiceServer) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

var _ registry.Server = (*ServiceServer)(nil)
