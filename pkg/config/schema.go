package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mockdeck/mockdeck/pkg/env"
	"github.com/mockdeck/mockdeck/pkg/mock"
)

// WorkspaceFile is the root configuration structure for mockdeck.yaml files.
type WorkspaceFile struct {
	// Version is the config format version (required, currently "1.0")
	Version string `json:"version" yaml:"version"`

	// Admin configures the management API listener
	Admin *AdminConfig `json:"admin,omitempty" yaml:"admin,omitempty"`

	// Environments seeds the environment store on first start.
	// An environment is only created when no stored environment has its name.
	Environments []*env.Environment `json:"environments,omitempty" yaml:"environments,omitempty"`

	// Projects declares projects and the services they contain
	Projects []ProjectEntry `json:"projects,omitempty" yaml:"projects,omitempty"`
}

// AdminConfig defines the management API listener.
type AdminConfig struct {
	// Host is the bind address (default "127.0.0.1")
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the admin listen port (default 4590)
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
}

// ProjectEntry declares a project and its services.
type ProjectEntry struct {
	// Name is the unique project name (required)
	Name string `json:"name" yaml:"name"`

	// Description is a human-readable description
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Services are the mock services registered under this project
	Services []ServiceEntry `json:"services,omitempty" yaml:"services,omitempty"`
}

// ServiceEntry declares a mock service.
// Port and Prefix are the service's own listen settings; environment
// resolution can override both at start time.
type ServiceEntry struct {
	// Name is the unique service name within its project (required)
	Name string `json:"name" yaml:"name"`

	// Port is the listen port (0 = pick a free port)
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// Prefix is the base path rules are mounted under
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// AutoStart starts the service when the daemon boots
	AutoStart bool `json:"autoStart,omitempty" yaml:"autoStart,omitempty"`

	// Rules are the service's rule definitions (inline, file, or glob)
	Rules []RuleEntry `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// RuleEntry represents either an inline rule definition, a rule file
// reference, or a glob pattern. Only one form should be set.
type RuleEntry struct {
	// Inline rule fields (when defining a rule directly)
	ID       string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	Enabled  *bool          `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Priority int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Matcher  *mock.Matcher  `json:"matcher,omitempty" yaml:"matcher,omitempty"`
	Response *mock.Response `json:"response,omitempty" yaml:"response,omitempty"`

	// File reference (loads rules from a single file)
	File string `json:"file,omitempty" yaml:"file,omitempty"`

	// Files glob pattern (loads rules from multiple files, ** supported)
	Files string `json:"files,omitempty" yaml:"files,omitempty"`
}

// IsInline returns true if this is an inline rule definition.
func (r RuleEntry) IsInline() bool {
	return r.ID != "" || r.Matcher != nil
}

// IsFileRef returns true if this is a single file reference.
func (r RuleEntry) IsFileRef() bool {
	return r.File != ""
}

// IsGlob returns true if this is a glob pattern for multiple files.
func (r RuleEntry) IsGlob() bool {
	return r.Files != ""
}

// ToRule converts an inline entry to a mock.Rule.
func (r RuleEntry) ToRule() *mock.Rule {
	rule := &mock.Rule{
		ID:       r.ID,
		Name:     r.Name,
		Enabled:  r.Enabled,
		Priority: r.Priority,
	}
	if r.Matcher != nil {
		rule.Matcher = *r.Matcher
	}
	if r.Response != nil {
		rule.Response = *r.Response
	}
	return rule
}

// DiscoveryOrder defines the priority order for finding config files.
var DiscoveryOrder = []string{
	"mockdeck.yaml",
	"mockdeck.yml",
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Load loads a workspace config from the given path, applying environment
// variable substitution. If path is empty, it tries to discover a config
// file in the current directory.
func Load(path string) (*WorkspaceFile, error) {
	if path == "" {
		discovered, err := Discover()
		if err != nil {
			return nil, err
		}
		path = discovered
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads a workspace config from raw bytes, applying
// environment variable substitution.
func LoadFromBytes(data []byte) (*WorkspaceFile, error) {
	expanded := ExpandEnvVars(string(data))

	var cfg WorkspaceFile
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Discover finds a config file in the current directory or via the
// MOCKDECK_CONFIG env var. Returns the path, or an error if none is found.
func Discover() (string, error) {
	if envPath := os.Getenv("MOCKDECK_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("MOCKDECK_CONFIG points to non-existent file: %s", envPath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}

	for _, name := range DiscoveryOrder {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config found. Create a mockdeck.yaml or specify --config")
}

// Validate checks the workspace config for structural problems.
func (c *WorkspaceFile) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	if c.Version != "1.0" {
		return fmt.Errorf("config: unsupported version %q (want \"1.0\")", c.Version)
	}

	if c.Admin != nil && (c.Admin.Port < 0 || c.Admin.Port > 65535) {
		return fmt.Errorf("config: admin.port %d out of range", c.Admin.Port)
	}

	projectNames := make(map[string]bool)
	for i, p := range c.Projects {
		if p.Name == "" {
			return fmt.Errorf("config: projects[%d]: name is required", i)
		}
		if projectNames[p.Name] {
			return fmt.Errorf("config: duplicate project name %q", p.Name)
		}
		projectNames[p.Name] = true

		serviceNames := make(map[string]bool)
		for j, s := range p.Services {
			if s.Name == "" {
				return fmt.Errorf("config: projects[%d].services[%d]: name is required", i, j)
			}
			if serviceNames[s.Name] {
				return fmt.Errorf("config: project %q: duplicate service name %q", p.Name, s.Name)
			}
			serviceNames[s.Name] = true

			if s.Port < 0 || s.Port > 65535 {
				return fmt.Errorf("config: service %q: port %d out of range", s.Name, s.Port)
			}

			for k, r := range s.Rules {
				forms := 0
				if r.IsInline() {
					forms++
				}
				if r.IsFileRef() {
					forms++
				}
				if r.IsGlob() {
					forms++
				}
				if forms == 0 {
					return fmt.Errorf("config: service %q: rules[%d]: no id, file, or files specified", s.Name, k)
				}
				if forms > 1 {
					return fmt.Errorf("config: service %q: rules[%d]: only one of inline, file, or files may be set", s.Name, k)
				}
			}
		}
	}

	for i, e := range c.Environments {
		if e == nil {
			return fmt.Errorf("config: environments[%d] is empty", i)
		}
		if e.Name == "" {
			return fmt.Errorf("config: environments[%d]: name is required", i)
		}
	}

	return nil
}

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultVal := ""
		if len(submatch) >= 3 {
			defaultVal = submatch[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}

		return defaultVal
	})
}

// ResolvePath resolves a potentially relative path against a base directory.
func ResolvePath(basePath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	// Handle ~ expansion
	if strings.HasPrefix(targetPath, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, targetPath[2:])
		}
	}
	return filepath.Join(basePath, targetPath)
}

// BaseDir returns the directory to use for resolving rule file references.
// This is typically the directory containing the mockdeck.yaml config file.
func BaseDir(configPath string) string {
	if configPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			return cwd
		}
		return "."
	}
	return filepath.Dir(configPath)
}
