// Package cliconfig provides configuration types and loading for the mockdeck CLI.
package cliconfig

import "fmt"

// CLIConfig represents the complete configuration for the mockdeck CLI.
// Configuration values can come from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Local config file (.mockdeckrc.yaml in current directory)
// 4. Global config file (~/.config/mockdeck/config.yaml)
// 5. Default values (lowest priority)
type CLIConfig struct {
	// Daemon settings
	AdminPort     int    `yaml:"adminPort" json:"adminPort"`
	ConfigFile    string `yaml:"configFile,omitempty" json:"configFile,omitempty"`
	DataDir       string `yaml:"dataDir,omitempty" json:"dataDir,omitempty"`
	LogLevel      string `yaml:"logLevel" json:"logLevel"`
	LogFormat     string `yaml:"logFormat" json:"logFormat"`
	MaxLogEntries int    `yaml:"maxLogEntries" json:"maxLogEntries"`

	// Admin client settings
	AdminURL string `yaml:"adminUrl" json:"adminUrl"`

	// Output settings
	JSON bool `yaml:"json" json:"json"`

	// Sources tracks where each value came from (for debugging)
	Sources map[string]string `yaml:"-" json:"-"`

	// SetFields records which keys were explicitly present in a loaded
	// file, so merging can tell an explicit false from an absent bool.
	SetFields map[string]bool `yaml:"-" json:"-"`
}

// ConfigSource identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceEnv     = "env"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFlag    = "flag"
)

// Validate checks the configuration for invalid values.
// Zero means "unset" for numeric fields and is always accepted.
func (c *CLIConfig) Validate() error {
	if c.AdminPort < 0 || c.AdminPort > 65535 {
		return fmt.Errorf("adminPort %d is out of range (0-65535)", c.AdminPort)
	}
	if c.MaxLogEntries < 0 || c.MaxLogEntries > 100000 {
		return fmt.Errorf("maxLogEntries %d is out of range (0-100000)", c.MaxLogEntries)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel %q is not one of debug, info, warn, error", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("logFormat %q is not one of text, json", c.LogFormat)
	}
	return nil
}
