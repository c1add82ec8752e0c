package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mockdeck/mockdeck/internal/storage"
	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/logging"
	"github.com/mockdeck/mockdeck/pkg/proxy"
	"github.com/mockdeck/mockdeck/pkg/registry"
)

// Launcher starts and stops mock services. Each service gets its own HTTP
// listener on a resolved port, a rule view filtered to that service, and a
// handler wired to the shared environment resolver and request log.
//
// Launcher implements registry.Launcher.
type Launcher struct {
	rules     storage.RuleStore
	resolver  *env.Resolver
	forwarder *proxy.Forwarder
	reqLog    RequestLogger
	log       *slog.Logger
	baseDir   string

	mu      sync.RWMutex
	servers map[string]*ServiceServer
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) LauncherOption {
	return func(l *Launcher) {
		if log != nil {
			l.log = log
		}
	}
}

// WithRequestLog sets the request log shared by all services.
func WithRequestLog(reqLog RequestLogger) LauncherOption {
	return func(l *Launcher) {
		l.reqLog = reqLog
	}
}

// WithForwarder sets the forwarder used for backend passthrough.
func WithForwarder(forwarder *proxy.Forwarder) LauncherOption {
	return func(l *Launcher) {
		l.forwarder = forwarder
	}
}

// WithBaseDir sets the directory relative bodyFile paths resolve against.
// Typically the directory containing the workspace config file.
func WithBaseDir(dir string) LauncherOption {
	return func(l *Launcher) {
		l.baseDir = dir
	}
}

// NewLauncher creates a Launcher over the shared rule store and environment
// resolver. A default in-memory request log and forwarder are created unless
// options provide them.
func NewLauncher(rules storage.RuleStore, resolver *env.Resolver, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		rules:    rules,
		resolver: resolver,
		log:      logging.Nop(),
		servers:  make(map[string]*ServiceServer),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.reqLog == nil {
		l.reqLog = NewInMemoryRequestLogger(DefaultMaxLogEntries)
	}
	if l.forwarder == nil {
		l.forwarder = proxy.New(proxy.Options{Logger: l.log})
	}
	return l
}

// StartService resolves the service's effective config against the active
// environment and starts its HTTP server. Environment overrides win over
// the service's own port and prefix. A service without a port anywhere gets
// a free one from the scan range.
func (l *Launcher) StartService(ctx context.Context, svc *registry.Service) error {
	if svc == nil || svc.ID == "" {
		return fmt.Errorf("service is missing an id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing := l.servers[svc.ID]; existing != nil && existing.Status() == registry.ServiceStatusRunning {
		return fmt.Errorf("service %q is already running", svc.Name)
	}

	var resolved env.ServiceConfig
	if l.resolver != nil {
		resolved = l.resolver.ResolveServiceConfig(ctx, svc.ID, svc.ProjectID)
	}

	port := svc.Port
	if resolved.Port != nil {
		port = *resolved.Port
	}
	if port == 0 {
		port = findFreePort(DefaultPortRangeStart)
	}

	prefix := svc.Prefix
	if resolved.Prefix != nil {
		prefix = *resolved.Prefix
	}
	prefix = normalizePrefix(prefix)

	target := buildTarget(&resolved, prefix)
	rules := storage.NewFilteredRuleStore(l.rules, svc.ID)

	handler := NewHandler(svc.ID, svc.ProjectID, rules)
	handler.SetOperationalLogger(l.log)
	handler.SetLogger(l.reqLog)
	handler.SetResolver(l.resolver)
	handler.SetPrefix(prefix)
	handler.SetBaseDir(l.baseDir)
	if target != nil {
		handler.SetProxy(l.forwarder, target)
	}

	srv := newServiceServer(svc, port, prefix, target, rules, handler, l.log)
	if err := srv.Start(); err != nil {
		// Keep the failed server so its error status stays queryable
		l.servers[svc.ID] = srv
		return err
	}
	l.servers[svc.ID] = srv

	l.log.Info("service started",
		"service", svc.Name,
		"id", svc.ID,
		"port", srv.Port(),
		"prefix", prefix,
		"rules", rules.Count(),
	)
	if target != nil {
		l.log.Info("passthrough enabled", "service", svc.Name, "target", target.URL())
	}
	return nil
}

// StopService stops a running service and forgets it.
func (l *Launcher) StopService(serviceID string) error {
	l.mu.Lock()
	srv, ok := l.servers[serviceID]
	if ok {
		delete(l.servers, serviceID)
	}
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("service %q is not running", serviceID)
	}
	if err := srv.Stop(); err != nil {
		return err
	}
	l.log.Info("service stopped", "id", serviceID)
	return nil
}

// StopAll stops every running service. The first stop error is returned
// but all services are stopped regardless.
func (l *Launcher) StopAll() error {
	l.mu.Lock()
	servers := make([]*ServiceServer, 0, len(l.servers))
	for _, srv := range l.servers {
		servers = append(servers, srv)
	}
	l.servers = make(map[string]*ServiceServer)
	l.mu.Unlock()

	var errs []error
	for _, srv := range servers {
		if err := srv.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// GetService returns the running server for a service, or nil.
func (l *Launcher) GetService(serviceID string) registry.Server {
	l.mu.RLock()
	defer l.mu.RUnlock()
	srv, ok := l.servers[serviceID]
	if !ok {
		return nil
	}
	return srv
}

// ListServices returns all tracked servers ordered by service ID.
func (l *Launcher) ListServices() []registry.Server {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.servers))
	for id := range l.servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	servers := make([]registry.Server, 0, len(ids))
	for _, id := range ids {
		servers = append(servers, l.servers[id])
	}
	return servers
}

// ServiceStatus returns runtime status for a service, or nil when the
// launcher is not tracking it.
func (l *Launcher) ServiceStatus(serviceID string) *registry.StatusInfo {
	l.mu.RLock()
	srv, ok := l.servers[serviceID]
	l.mu.RUnlock()
	if !ok {
		return nil
	}
	return srv.StatusInfo()
}

// RequestLog returns the request log shared by all services.
func (l *Launcher) RequestLog() RequestLogger {
	return l.reqLog
}

// Rules returns the shared rule store.
func (l *Launcher) Rules() storage.RuleStore {
	return l.rules
}

// Resolver returns the environment resolver.
func (l *Launcher) Resolver() *env.Resolver {
	return l.resolver
}

// normalizePrefix ensures a non-empty prefix starts with "/" and does not
// end with one. "" and "/" both mean no prefix.
func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

// buildTarget derives a proxy target from the resolved config. Returns nil
// when no real backend host is configured.
func buildTarget(cfg *env.ServiceConfig, prefix string) *proxy.Target {
	if cfg.RealHost == nil || *cfg.RealHost == "" {
		return nil
	}
	target := &proxy.Target{
		Scheme: "http",
		Host:   *cfg.RealHost,
		Prefix: prefix,
	}
	// realHost may carry an explicit scheme, e.g. "https://api.example.com"
	if i := strings.Index(target.Host, "://"); i >= 0 {
		target.Scheme = target.Host[:i]
		target.Host = target.Host[i+3:]
	}
	if cfg.RealPort != nil {
		target.Port = *cfg.RealPort
	}
	if cfg.RealPrefix != nil {
		target.RealPrefix = *cfg.RealPrefix
	}
	return target
}

var _ registry.Launcher = (*Launcher)(nil)
