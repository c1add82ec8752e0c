package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfigDir is the directory under the user config dir for global config.
const GlobalConfigDir = "mockdeck"

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".mockdeckrc.yaml", ".mockdeckrc.yml"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// FindLocalConfig searches for .mockdeckrc.yaml or .mockdeckrc.yml in the
// current directory. Returns empty string if not found.
func FindLocalConfig() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// FindGlobalConfig returns the path to the global config file.
// Returns empty string if not found.
func FindGlobalConfig() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", nil
	}
	for _, name := range GlobalConfigFileNames {
		path := filepath.Join(configDir, GlobalConfigDir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// LoadConfigFile loads a CLIConfig from a YAML file. The returned config
// records which keys the file actually set, so that merging can treat an
// explicit false differently from an absent key.
func LoadConfigFile(path string) (*CLIConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Message: err.Error()}
	}

	cfg.Sources = make(map[string]string)
	cfg.SetFields = make(map[string]bool)

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err == nil {
		for key := range raw {
			cfg.SetFields[key] = true
		}
	}

	return &cfg, nil
}

// ConfigError represents a configuration file error with location info.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadAll loads configuration from all sources and merges them.
// Precedence: env > local config > global config > defaults. Flag values
// are layered on top by the commands themselves.
func LoadAll() (*CLIConfig, error) {
	cfg := NewDefault()

	if globalPath, err := FindGlobalConfig(); err == nil && globalPath != "" {
		if globalCfg, err := LoadConfigFile(globalPath); err == nil {
			MergeConfig(cfg, globalCfg, SourceGlobal)
		}
	}

	if localPath, err := FindLocalConfig(); err == nil && localPath != "" {
		if localCfg, err := LoadConfigFile(localPath); err == nil {
			MergeConfig(cfg, localCfg, SourceLocal)
		}
	}

	LoadEnvConfig(cfg)

	// A custom admin port without an explicit URL moves the default URL
	// to that port.
	if cfg.Sources["adminUrl"] == SourceDefault && cfg.Sources["adminPort"] != SourceDefault {
		cfg.AdminURL = DefaultAdminURL(cfg.AdminPort)
	}

	return cfg, nil
}
