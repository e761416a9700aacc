package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port))
	}

	if c.Bridge.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("bridge.request_timeout must be > 0, got %v", c.Bridge.RequestTimeout))
	}
	if c.Bridge.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("bridge.max_concurrent must be > 0, got %d", c.Bridge.MaxConcurrent))
	}
	if c.Bridge.NotifyBodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("bridge.notify_body_limit must be > 0, got %d", c.Bridge.NotifyBodyLimit))
	}
	if c.Bridge.MessageBodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("bridge.message_body_limit must be > 0, got %d", c.Bridge.MessageBodyLimit))
	}
	if c.Bridge.KeepaliveInterval <= 0 {
		errs = append(errs, fmt.Errorf("bridge.keepalive_interval must be > 0, got %v", c.Bridge.KeepaliveInterval))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToUpper(c.Log.Level) {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Log.Level))
	}

	return errors.Join(errs...)
}
