package cliconfig

// MergeConfig merges source config into target, updating sources tracking.
// Only non-zero values from source are applied.
func MergeConfig(target, source *CLIConfig, sourceType string) {
	if source == nil {
		return
	}
	if target.Sources == nil {
		target.Sources = make(map[string]string)
	}

	if source.AdminPort != 0 {
		target.AdminPort = source.AdminPort
		target.Sources["adminPort"] = sourceType
	}
	if source.AdminURL != "" {
		target.AdminURL = source.AdminURL
		target.Sources["adminUrl"] = sourceType
	}
	if source.ConfigFile != "" {
		target.ConfigFile = source.ConfigFile
		target.Sources["configFile"] = sourceType
	}
	if source.DataDir != "" {
		target.DataDir = source.DataDir
		target.Sources["dataDir"] = sourceType
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
		target.Sources["logLevel"] = sourceType
	}
	if source.LogFormat != "" {
		target.LogFormat = source.LogFormat
		target.Sources["logFormat"] = sourceType
	}
	if source.MaxLogEntries != 0 {
		target.MaxLogEntries = source.MaxLogEntries
		target.Sources["maxLogEntries"] = sourceType
	}
	// Checking `if source.JSON` cannot detect an explicit false, so bools
	// consult SetFields, which file loading populates from the raw keys.
	if boolIsSet(source, "json") {
		target.JSON = source.JSON
		target.Sources["json"] = sourceType
	}
}

// boolIsSet reports whether a boolean field identified by its YAML key
// was explicitly set in the source config. Without SetFields (configs
// built programmatically) only true counts as set.
func boolIsSet(cfg *CLIConfig, yamlKey string) bool {
	if cfg.SetFields != nil {
		return cfg.SetFields[yamlKey]
	}
	switch yamlKey {
	case "json":
		return cfg.JSON
	}
	return false
}
