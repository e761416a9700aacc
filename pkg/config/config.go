// Package config provides unified configuration for the bruecke bridge.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (BRUECKE_ prefix)
//  4. Validation
package config

import "time"

// Config holds all configuration for the bridge.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Bridge        BridgeConfig        `yaml:"bridge"`
	Observability ObservabilityConfig `yaml:"observability"`
	Log           LogConfig           `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// BridgeConfig holds the request lifecycle settings shared by the HTTP
// adapter and the registry.
type BridgeConfig struct {
	RequestTimeout    time.Duration `yaml:"request_timeout"`    // default: 180s
	MaxConcurrent     int           `yaml:"max_concurrent"`     // default: 10
	NotifyBodyLimit   int           `yaml:"notify_body_limit"`  // default: 65536
	MessageBodyLimit  int64         `yaml:"message_body_limit"` // default: 1048576
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"` // default: 30s
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // default: "INFO"
	Debug string `yaml:"debug"` // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 30 * time.Second,
		},
		Bridge: BridgeConfig{
			RequestTimeout:    180 * time.Second,
			MaxConcurrent:     10,
			NotifyBodyLimit:   64 << 10,
			MessageBodyLimit:  1 << 20,
			KeepaliveInterval: 30 * time.Second,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}
