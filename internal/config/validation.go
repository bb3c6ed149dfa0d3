package config

import (
	"errors"
	"fmt"
)

func (c *Config) Validate() error {
	var errs []error

	if err := c.Sampling.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sampling: %w", err))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	if err := c.Tailer.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tailer: %w", err))
	}

	if err := c.Persistence.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("persistence: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	return errors.Join(errs...)
}

func (s *SamplingConfig) Validate() error {
	if s.IntervalMS < 100 {
		return fmt.Errorf("interval_ms must be at least 100, got %d", s.IntervalMS)
	}
	return nil
}

func (t *TelemetryConfig) Validate() error {
	var errs []error

	if len(t.Command) == 0 || t.Command[0] == "" {
		errs = append(errs, fmt.Errorf("command cannot be empty"))
	}

	if t.TimeoutMS < 100 {
		errs = append(errs, fmt.Errorf("timeout_ms must be at least 100, got %d", t.TimeoutMS))
	}

	return errors.Join(errs...)
}

func (t *TailerConfig) Validate() error {
	if t.PollIntervalMS < 10 {
		return fmt.Errorf("poll_interval_ms must be at least 10, got %d", t.PollIntervalMS)
	}
	return nil
}

func (p *PersistenceConfig) Validate() error {
	if p.CheckpointIntervalSec < 0 {
		return fmt.Errorf("checkpoint_interval_sec must be non-negative, got %d", p.CheckpointIntervalSec)
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", l.Level)
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[l.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", l.Format)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	var errs []error

	// Port 0 lets the OS pick, which is only useful in tests but harmless.
	if s.Port < 0 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 0 and 65535, got %d", s.Port))
	}

	if s.RateLimit.Enabled {
		if s.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.requests_per_second must be positive"))
		}
		if s.RateLimit.Burst < 1 {
			errs = append(errs, fmt.Errorf("rate_limit.burst must be at least 1"))
		}
	}

	return errors.Join(errs...)
}

func (a *AuthConfig) Validate() error {
	if a.Enabled {
		if a.User == "" {
			return fmt.Errorf("user cannot be empty when auth is enabled")
		}
		if a.Password == "" {
			return fmt.Errorf("password cannot be empty when auth is enabled")
		}
	}
	return nil
}
