package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file, applies defaults and
// validates the result.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	// Apply environment variable interpolation before parsing
	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults merges default values into config where not explicitly set.
func applyDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}

	if cfg.Serial.Port == "" {
		cfg.Serial.Port = defaults.Serial.Port
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = defaults.Serial.Baud
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = defaults.Serial.ReadTimeout
	}

	if cfg.Dispatch.QueueDepth == 0 {
		cfg.Dispatch.QueueDepth = defaults.Dispatch.QueueDepth
	}
	if cfg.Dispatch.Timeouts.Command == 0 {
		cfg.Dispatch.Timeouts.Command = defaults.Dispatch.Timeouts.Command
	}
	if cfg.Dispatch.Timeouts.Persist == 0 {
		cfg.Dispatch.Timeouts.Persist = defaults.Dispatch.Timeouts.Persist
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = defaults.Audit.Path
	}

	if !cfg.API.Enabled && cfg.API.Listen == "" {
		cfg.API = defaults.API
	}
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Serial.Port == "" {
		return fmt.Errorf("serial.port is required")
	}
	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial.baud must be positive")
	}

	if cfg.Dispatch.QueueDepth <= 0 {
		return fmt.Errorf("dispatch.queue_depth must be positive")
	}
	if cfg.Dispatch.Timeouts.Command <= 0 {
		return fmt.Errorf("dispatch.timeouts.command must be positive")
	}
	if cfg.Dispatch.Timeouts.Persist <= 0 {
		return fmt.Errorf("dispatch.timeouts.persist must be positive")
	}

	if cfg.Audit.Path == "" {
		return fmt.Errorf("audit.path is required")
	}

	if cfg.API.Enabled {
		if cfg.API.Listen == "" {
			return fmt.Errorf("api.listen is required when api.enabled is true")
		}
		// Unresolved ${VAR} in the key means the operator's environment is
		// missing the variable; fail now rather than reject every request.
		if envVarPattern.MatchString(cfg.API.APIKey) {
			matches := envVarPattern.FindStringSubmatch(cfg.API.APIKey)
			if len(matches) > 1 {
				return fmt.Errorf("api.api_key: environment variable ${%s} is not set", matches[1])
			}
			return fmt.Errorf("api.api_key: unresolved environment variable")
		}
	}

	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}
