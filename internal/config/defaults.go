package config

// DefaultTelemetryCommand queries the first NVIDIA device for power draw
// (W), memory used (MiB) and utilization (%).
var DefaultTelemetryCommand = []string{
	"nvidia-smi",
	"--query-gpu=power.draw,memory.used,utilization.gpu",
	"--format=csv,noheader,nounits",
}

func Default() *Config {
	command := make([]string, len(DefaultTelemetryCommand))
	copy(command, DefaultTelemetryCommand)

	return &Config{
		Sampling: SamplingConfig{
			IntervalMS: 1000,
		},
		Telemetry: TelemetryConfig{
			Command:   command,
			TimeoutMS: 5000,
		},
		Tailer: TailerConfig{
			PollIntervalMS: 100,
			FromStart:      false,
			Watch:          true,
		},
		Persistence: PersistenceConfig{
			CheckpointIntervalSec: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    9464,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 20,
				Burst:             40,
			},
		},
		Auth: AuthConfig{
			Enabled:  false,
			User:     "",
			Password: "",
		},
	}
}
