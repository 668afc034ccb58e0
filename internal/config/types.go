package config

import "time"

// Config represents the complete wifid configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Serial   SerialConfig   `yaml:"serial"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Audit    AuditConfig    `yaml:"audit"`
	API      APIConfig      `yaml:"api,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// SerialConfig defines the UART link to the WiFi module.
type SerialConfig struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// DispatchConfig defines the command dispatcher settings.
type DispatchConfig struct {
	QueueDepth int            `yaml:"queue_depth"`
	Timeouts   TimeoutsConfig `yaml:"timeouts"`
}

// TimeoutsConfig defines per-command-class deadlines. Command covers
// reads and volatile sets; Persist covers operations the module writes
// to non-volatile storage (set MAC, configure AP), which are slow.
type TimeoutsConfig struct {
	Command time.Duration `yaml:"command"`
	Persist time.Duration `yaml:"persist"`
}

// AuditConfig defines the command audit trail settings.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	APIKey  string `yaml:"api_key"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "wifid",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Serial: SerialConfig{
			Port:        "/dev/ttyUSB0",
			Baud:        115200,
			ReadTimeout: 100 * time.Millisecond,
		},
		Dispatch: DispatchConfig{
			QueueDepth: 16,
			Timeouts: TimeoutsConfig{
				Command: 1 * time.Second,
				Persist: 10 * time.Second,
			},
		},
		Audit: AuditConfig{
			Path: "./data/audit.db",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
	}
}
