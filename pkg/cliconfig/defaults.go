package cliconfig

import "fmt"

// DefaultAdminPort is the default admin API port.
const DefaultAdminPort = 4590

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// DefaultLogFormat is the default log output format.
const DefaultLogFormat = "text"

// DefaultMaxLogEntries is the default maximum request log entries.
const DefaultMaxLogEntries = 1000

// DefaultAdminURL returns the default admin API URL based on the admin port.
func DefaultAdminURL(adminPort int) string {
	if adminPort == 0 {
		adminPort = DefaultAdminPort
	}
	return fmt.Sprintf("http://localhost:%d", adminPort)
}

// NewDefault creates a new CLIConfig with default values.
func NewDefault() *CLIConfig {
	cfg := &CLIConfig{
		AdminPort:     DefaultAdminPort,
		LogLevel:      DefaultLogLevel,
		LogFormat:     DefaultLogFormat,
		MaxLogEntries: DefaultMaxLogEntries,
		Sources:       make(map[string]string),
	}
	cfg.AdminURL = DefaultAdminURL(cfg.AdminPort)

	// Mark all as default source
	cfg.Sources["adminPort"] = SourceDefault
	cfg.Sources["adminUrl"] = SourceDefault
	cfg.Sources["logLevel"] = SourceDefault
	cfg.Sources["logFormat"] = SourceDefault
	cfg.Sources["maxLogEntries"] = SourceDefault

	return cfg
}
