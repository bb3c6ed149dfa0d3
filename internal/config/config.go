package config

import "time"

type Config struct {
	Sampling    SamplingConfig    `yaml:"sampling" json:"sampling"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" json:"telemetry"`
	Tailer      TailerConfig      `yaml:"tailer" json:"tailer"`
	Persistence PersistenceConfig `yaml:"persistence" json:"persistence"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Auth        AuthConfig        `yaml:"auth" json:"auth"`
}

type SamplingConfig struct {
	IntervalMS int `yaml:"interval_ms" json:"interval_ms"`
}

// TelemetryConfig describes the external command that produces one
// "power, memory, utilization" line per invocation.
type TelemetryConfig struct {
	Command   []string `yaml:"command" json:"command"`
	TimeoutMS int      `yaml:"timeout_ms" json:"timeout_ms"`
}

type TailerConfig struct {
	PollIntervalMS int `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	// FromStart replays lines already present in the log when the
	// monitor starts. By default only lines appended afterwards count.
	FromStart bool `yaml:"from_start" json:"from_start"`
	// Watch enables fsnotify wake-ups on top of polling.
	Watch bool `yaml:"watch" json:"watch"`
}

type PersistenceConfig struct {
	// CheckpointIntervalSec > 0 rewrites the output file periodically
	// while the run is in progress. The final save always happens.
	CheckpointIntervalSec int `yaml:"checkpoint_interval_sec" json:"checkpoint_interval_sec"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type ServerConfig struct {
	Enabled   bool            `yaml:"enabled" json:"enabled"`
	Host      string          `yaml:"host" json:"host"`
	Port      int             `yaml:"port" json:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

type AuthConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"-"`
}

func (c *Config) SamplingInterval() time.Duration {
	return time.Duration(c.Sampling.IntervalMS) * time.Millisecond
}

func (c *Config) TelemetryTimeout() time.Duration {
	return time.Duration(c.Telemetry.TimeoutMS) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Tailer.PollIntervalMS) * time.Millisecond
}

func (c *Config) CheckpointInterval() time.Duration {
	return time.Duration(c.Persistence.CheckpointIntervalSec) * time.Second
}
