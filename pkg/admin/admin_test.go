package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mockdeck/mockdeck/pkg/engine"
	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/registry"
	"github.com/mockdeck/mockdeck/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer is a registry.Server with a fixed status.
type stubServer struct {
	info *registry.StatusInfo
}

func (s *stubServer) Status() registry.ServiceStatus { return s.info.Status }
func (s *stubServer) StatusInfo() *registry.StatusInfo {
	return s.info
}

// stubLauncher is a registry.Launcher that tracks statuses in memory,
// so handler tests control run state without binding ports.
type stubLauncher struct {
	mu       sync.Mutex
	statuses map[string]*registry.StatusInfo
	startErr error
	stopErr  error
	stopped  []string
}

func newStubLauncher() *stubLauncher {
	return &stubLauncher{statuses: make(map[string]*registry.StatusInfo)}
}

func (l *stubLauncher) StartService(_ context.Context, svc *registry.Service) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.startErr != nil {
		return l.startErr
	}
	l.statuses[svc.ID] = &registry.StatusInfo{
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Port:        svc.Port,
		Status:      registry.ServiceStatusRunning,
	}
	return nil
}

func (l *stubLauncher) StopService(serviceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = append(l.stopped, serviceID)
	if l.stopErr != nil {
		return l.stopErr
	}
	delete(l.statuses, serviceID)
	return nil
}

func (l *stubLauncher) StopAll() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = make(map[string]*registry.StatusInfo)
	return nil
}

func (l *stubLauncher) GetService(serviceID string) registry.Server {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, ok := l.statuses[serviceID]
	if !ok {
		return nil
	}
	return &stubServer{info: info}
}

func (l *stubLauncher) ListServices() []registry.Server {
	l.mu.Lock()
	defer l.mu.Unlock()
	servers := make([]registry.Server, 0, len(l.statuses))
	for _, info := range l.statuses {
		servers = append(servers, &stubServer{info: info})
	}
	return servers
}

func (l *stubLauncher) ServiceStatus(serviceID string) *registry.StatusInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.statuses[serviceID]
}

var _ registry.Launcher = (*stubLauncher)(nil)

// testFixture bundles an API with the stores behind it.
type testFixture struct {
	api      *API
	launcher *stubLauncher
	envs     *env.Store
	registry *registry.Store
	requests *engine.InMemoryRequestLogger
}

func newTestAPI(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		launcher: newStubLauncher(),
		envs:     env.NewStore(memory.New().Blobs()),
		registry: registry.NewStore(memory.New().Blobs()),
		requests: engine.NewInMemoryRequestLogger(100),
	}
	f.api = New(0, f.launcher, f.registry, f.envs,
		WithRequestLog(f.requests),
		WithVersion("test"),
	)
	return f
}

// do serves a request through the full middleware chain and returns the
// recorder.
func (f *testFixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	f.api.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

// rawRequest builds a request with a literal body, for malformed JSON
// cases the typed do helper cannot produce.
func rawRequest(t *testing.T, method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	return req, httptest.NewRecorder()
}

// decode unmarshals a response body into out.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
}

func TestAPI_StartServesAndStops(t *testing.T) {
	f := newTestAPI(t)

	require.NoError(t, f.api.Start())
	defer f.api.Stop()

	require.NotZero(t, f.api.Port(), "ephemeral port should be resolved after Start")

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/health", f.api.Port()))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, f.api.Stop())
}

func TestAPI_StartPortConflict(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	f := &testFixture{
		launcher: newStubLauncher(),
		envs:     env.NewStore(memory.New().Blobs()),
		registry: registry.NewStore(memory.New().Blobs()),
	}
	f.api = New(port, f.launcher, f.registry, f.envs)

	err = f.api.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binding admin port")
}

func TestRecoveryMiddleware_ConvertsPanicTo500(t *testing.T) {
	f := newTestAPI(t)

	handler := f.api.recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/panics", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp.Error)
	assert.Equal(t, ErrMsgInternalError, resp.Message)
}

func TestRoutes_UnknownPathReturns404(t *testing.T) {
	f := newTestAPI(t)

	rec := f.do(t, "GET", "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_MethodNotAllowed(t *testing.T) {
	f := newTestAPI(t)

	rec := f.do(t, "PATCH", "/environments", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
