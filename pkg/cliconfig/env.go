package cliconfig

import (
	"os"
	"strconv"
)

// Environment variable names recognized by the CLI.
const (
	EnvAdminURL  = "MOCKDECK_ADMIN_URL"
	EnvAdminPort = "MOCKDECK_ADMIN_PORT"
	EnvDataDir   = "MOCKDECK_DATA_DIR"
	EnvLogLevel  = "MOCKDECK_LOG_LEVEL"
	EnvLogFormat = "MOCKDECK_LOG_FORMAT"
)

// LoadEnvConfig applies MOCKDECK_* environment variables to cfg.
// Unset and malformed variables leave the config untouched.
func LoadEnvConfig(cfg *CLIConfig) {
	if cfg.Sources == nil {
		cfg.Sources = make(map[string]string)
	}

	if v := os.Getenv(EnvAdminURL); v != "" {
		cfg.AdminURL = v
		cfg.Sources["adminUrl"] = SourceEnv
	}
	if v := os.Getenv(EnvAdminPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 && port <= 65535 {
			cfg.AdminPort = port
			cfg.Sources["adminPort"] = SourceEnv
		}
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
		cfg.Sources["dataDir"] = SourceEnv
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
		cfg.Sources["logLevel"] = SourceEnv
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
		cfg.Sources["logFormat"] = SourceEnv
	}
}

// GetAdminURL returns the admin API URL resolved from environment
// variables, config files, and defaults. Used as the --admin-url flag
// default so a bare invocation picks up the user's configuration.
func GetAdminURL() string {
	cfg, err := LoadAll()
	if err != nil {
		return DefaultAdminURL(DefaultAdminPort)
	}
	return cfg.AdminURL
}
