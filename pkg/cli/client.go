package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/registry"
	"github.com/mockdeck/mockdeck/pkg/request"
	"github.com/mockdeck/mockdeck/pkg/requestlog"
)

// AdminClient provides methods for communicating with the mockdeck admin API.
type AdminClient interface {
	// Health checks if the daemon is running.
	Health() error
	// GetStatus returns a daemon summary.
	GetStatus() (*StatusResult, error)

	// ListEnvironments returns all environments and the active id.
	ListEnvironments() (*EnvironmentList, error)
	// GetEnvironment returns a specific environment by ID.
	GetEnvironment(id string) (*env.Environment, error)
	// CreateEnvironment creates a new environment.
	CreateEnvironment(e *env.Environment) (*env.Environment, error)
	// UpdateEnvironment replaces an environment by ID.
	UpdateEnvironment(id string, e *env.Environment) (*env.Environment, error)
	// DeleteEnvironment deletes an environment by ID.
	DeleteEnvironment(id string) error
	// ActivateEnvironment makes the environment current.
	ActivateEnvironment(id string) error
	// DeactivateEnvironment clears the active environment.
	DeactivateEnvironment() error
	// ActiveEnvironment returns the current environment, or nil when none.
	ActiveEnvironment() (*env.Environment, error)
	// ExportEnvironments returns all environments as portable JSON.
	ExportEnvironments() ([]byte, error)
	// ImportEnvironments loads environments from portable JSON.
	ImportEnvironments(data []byte) (*ImportResult, error)

	// ListProjects returns all projects.
	ListProjects() ([]*registry.Project, error)
	// ListServices returns services, optionally filtered by project ID.
	ListServices(projectID string) ([]*ServiceInfo, error)
	// GetService returns a specific service by ID.
	GetService(id string) (*ServiceInfo, error)
	// StartService launches a service and returns its run status.
	StartService(id string) (*registry.StatusInfo, error)
	// StopService stops a running service.
	StopService(id string) error
	// ServiceStatus returns the run status of a service.
	ServiceStatus(id string) (*registry.StatusInfo, error)

	// Send dispatches a request definition through the daemon.
	Send(def *request.Definition, serviceID, projectID string) (*request.Result, error)
	// ResolveConfig previews the effective service config under the
	// active environment.
	ResolveConfig(serviceID, projectID string) (*ResolvedConfig, error)
	// ResolveVariables previews variable substitution on text.
	ResolveVariables(text, serviceID, projectID string) (string, error)

	// GetLogs returns request log entries with optional filtering.
	GetLogs(filter *LogFilter) (*LogResult, error)
	// ClearLogs deletes request log entries, optionally for one service.
	ClearLogs(serviceID string) (int, error)
}

// StatusResult is the daemon summary returned by GetStatus.
type StatusResult struct {
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

// EnvironmentList contains an environment listing with the active id.
type EnvironmentList struct {
	Environments []*env.Environment
	ActiveID     string
}

// ServiceInfo is a service definition with its live run status.
type ServiceInfo struct {
	registry.Service
	Status registry.ServiceStatus `json:"status"`
}

// ResolvedConfig is the effective service config under the active
// environment.
type ResolvedConfig struct {
	ServiceID string            `json:"serviceId,omitempty"`
	ProjectID string            `json:"projectId,omitempty"`
	Config    env.ServiceConfig `json:"config"`
}

// ImportResult reports an environment import.
type ImportResult struct {
	Message  string `json:"message"`
	Imported int    `json:"imported"`
}

// LogFilter specifies filtering criteria for request logs.
type LogFilter struct {
	ServiceID string
	Method    string
	Path      string
	MatchedID string
	Limit     int
	Offset    int
}

// LogResult contains request log query results.
type LogResult struct {
	Requests []*requestlog.Entry
	Count    int
	Total    int
}

// APIError represents an error response from the admin API.
type APIError struct {
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// adminClient implements AdminClient using HTTP.
type adminClient struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures an admin client.
type ClientOption func(*adminClient)

// WithTimeout sets the HTTP timeout for the client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *adminClient) {
		c.httpClient.Timeout = timeout
	}
}

// NewAdminClient creates a new admin API client.
// The baseURL should be the admin API base URL (e.g., "http://localhost:4590").
func NewAdminClient(baseURL string, opts ...ClientOption) AdminClient {
	c := &adminClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks if the daemon is running.
func (c *adminClient) Health() error {
	resp, err := c.get("/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// GetStatus returns a daemon summary.
func (c *adminClient) GetStatus() (*StatusResult, error) {
	resp, err := c.get("/status")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result StatusResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// ListEnvironments returns all environments and the active id.
func (c *adminClient) ListEnvironments() (*EnvironmentList, error) {
	resp, err := c.get("/environments")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result struct {
		Environments []*env.Environment `json:"environments"`
		ActiveID     string             `json:"activeId"`
		Count        int                `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &EnvironmentList{Environments: result.Environments, ActiveID: result.ActiveID}, nil
}

// GetEnvironment returns a specific environment by ID.
func (c *adminClient) GetEnvironment(id string) (*env.Environment, error) {
	resp, err := c.get("/environments/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var e env.Environment
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &e, nil
}

// CreateEnvironment creates a new environment.
func (c *adminClient) CreateEnvironment(e *env.Environment) (*env.Environment, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode environment: %w", err)
	}

	resp, err := c.post("/environments", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var created env.Environment
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &created, nil
}

// UpdateEnvironment replaces an environment by ID.
func (c *adminClient) UpdateEnvironment(id string, e *env.Environment) (*env.Environment, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode environment: %w", err)
	}

	resp, err := c.put("/environments/"+url.PathEscape(id), body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var updated env.Environment
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &updated, nil
}

// DeleteEnvironment deletes an environment by ID.
func (c *adminClient) DeleteEnvironment(id string) error {
	resp, err := c.delete("/environments/" + url.PathEscape(id))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return c.parseError(resp)
	}
	return nil
}

// ActivateEnvironment makes the environment current.
func (c *adminClient) ActivateEnvironment(id string) error {
	resp, err := c.post("/environments/"+url.PathEscape(id)+"/activate", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// DeactivateEnvironment clears the active environment.
func (c *adminClient) DeactivateEnvironment() error {
	resp, err := c.delete("/environments/active")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return c.parseError(resp)
	}
	return nil
}

// ActiveEnvironment returns the current environment, or nil when none
// is active.
func (c *adminClient) ActiveEnvironment() (*env.Environment, error) {
	resp, err := c.get("/environments/active")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var e env.Environment
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &e, nil
}

// ExportEnvironments returns all environments as portable JSON.
func (c *adminClient) ExportEnvironments() ([]byte, error) {
	resp, err := c.get("/environments/export")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// ImportEnvironments loads environments from portable JSON.
func (c *adminClient) ImportEnvironments(data []byte) (*ImportResult, error) {
	resp, err := c.post("/environments/import", data)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result ImportResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// ListProjects returns all projects.
func (c *adminClient) ListProjects() ([]*registry.Project, error) {
	resp, err := c.get("/projects")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result struct {
		Projects []*registry.Project `json:"projects"`
		Count    int                 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Projects, nil
}

// ListServices returns services, optionally filtered by project ID.
func (c *adminClient) ListServices(projectID string) ([]*ServiceInfo, error) {
	path := "/services"
	if projectID != "" {
		path += "?project=" + url.QueryEscape(projectID)
	}

	resp, err := c.get(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result struct {
		Services []*ServiceInfo `json:"services"`
		Count    int            `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Services, nil
}

// GetService returns a specific service by ID.
func (c *adminClient) GetService(id string) (*ServiceInfo, error) {
	resp, err := c.get("/services/" + url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var svc ServiceInfo
	if err := json.NewDecoder(resp.Body).Decode(&svc); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &svc, nil
}

// StartService launches a service and returns its run status.
func (c *adminClient) StartService(id string) (*registry.StatusInfo, error) {
	resp, err := c.post("/services/"+url.PathEscape(id)+"/start", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var info registry.StatusInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &info, nil
}

// StopService stops a running service.
func (c *adminClient) StopService(id string) error {
	resp, err := c.post("/services/"+url.PathEscape(id)+"/stop", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

// ServiceStatus returns the run status of a service.
func (c *adminClient) ServiceStatus(id string) (*registry.StatusInfo, error) {
	resp, err := c.get("/services/" + url.PathEscape(id) + "/status")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var info registry.StatusInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &info, nil
}

// Send dispatches a request definition through the daemon.
func (c *adminClient) Send(def *request.Definition, serviceID, projectID string) (*request.Result, error) {
	payload := struct {
		request.Definition
		ServiceID string `json:"serviceId,omitempty"`
		ProjectID string `json:"projectId,omitempty"`
	}{Definition: *def, ServiceID: serviceID, ProjectID: projectID}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.post("/send", body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result request.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// ResolveConfig previews the effective service config under the active
// environment.
func (c *adminClient) ResolveConfig(serviceID, projectID string) (*ResolvedConfig, error) {
	q := url.Values{}
	if serviceID != "" {
		q.Set("service", serviceID)
	}
	if projectID != "" {
		q.Set("project", projectID)
	}
	path := "/resolve/config"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.get(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result ResolvedConfig
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// ResolveVariables previews variable substitution on text.
func (c *adminClient) ResolveVariables(text, serviceID, projectID string) (string, error) {
	payload := struct {
		Text      string `json:"text"`
		ServiceID string `json:"serviceId,omitempty"`
		ProjectID string `json:"projectId,omitempty"`
	}{Text: text, ServiceID: serviceID, ProjectID: projectID}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.post("/resolve/variables", body)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", c.parseError(resp)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Text, nil
}

// GetLogs returns request log entries with optional filtering.
func (c *adminClient) GetLogs(filter *LogFilter) (*LogResult, error) {
	q := url.Values{}
	if filter != nil {
		if filter.ServiceID != "" {
			q.Set("service", filter.ServiceID)
		}
		if filter.Method != "" {
			q.Set("method", filter.Method)
		}
		if filter.Path != "" {
			q.Set("path", filter.Path)
		}
		if filter.MatchedID != "" {
			q.Set("matched", filter.MatchedID)
		}
		if filter.Limit > 0 {
			q.Set("limit", fmt.Sprintf("%d", filter.Limit))
		}
		if filter.Offset > 0 {
			q.Set("offset", fmt.Sprintf("%d", filter.Offset))
		}
	}
	path := "/requests"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.get(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result struct {
		Requests []*requestlog.Entry `json:"requests"`
		Count    int                 `json:"count"`
		Total    int                 `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &LogResult{Requests: result.Requests, Count: result.Count, Total: result.Total}, nil
}

// ClearLogs deletes request log entries, optionally for one service.
func (c *adminClient) ClearLogs(serviceID string) (int, error) {
	path := "/requests"
	if serviceID != "" {
		path += "?service=" + url.QueryEscape(serviceID)
	}

	resp, err := c.delete(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, c.parseError(resp)
	}

	var result struct {
		Message string `json:"message"`
		Cleared int    `json:"cleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	return result.Cleared, nil
}

// get performs an HTTP GET request.
func (c *adminClient) get(path string) (*http.Response, error) {
	return c.doRequest(http.MethodGet, path, nil)
}

// post performs an HTTP POST request.
func (c *adminClient) post(path string, body []byte) (*http.Response, error) {
	return c.doRequest(http.MethodPost, path, body)
}

// put performs an HTTP PUT request.
func (c *adminClient) put(path string, body []byte) (*http.Response, error) {
	return c.doRequest(http.MethodPut, path, body)
}

// delete performs an HTTP DELETE request.
func (c *adminClient) delete(path string) (*http.Response, error) {
	return c.doRequest(http.MethodDelete, path, nil)
}

// doRequest performs an HTTP request.
func (c *adminClient) doRequest(method, path string, body []byte) (*http.Response, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			StatusCode: 0,
			ErrorCode:  "connection_error",
			Message:    fmt.Sprintf("cannot connect to admin API at %s: %v", c.baseURL, err),
		}
	}
	return resp, nil
}

// parseError parses an error response from the API.
func (c *adminClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    errResp.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  "unknown_error",
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, string(body)),
	}
}

// FormatConnectionError returns a user-friendly error message for
// connection failures.
func FormatConnectionError(err error) string {
	if apiErr, ok := err.(*APIError); ok && apiErr.ErrorCode == "connection_error" {
		return fmt.Sprintf(`Error: %s

Suggestions:
  • Start the daemon: mockdeck serve
  • Check if the daemon is running on the expected port
  • Verify the admin URL with --admin-url or MOCKDECK_ADMIN_URL`, apiErr.Message)
	}
	return err.Error()
}
