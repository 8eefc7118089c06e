package config

import (
	"strings"
	"time"

	"github.com/ryanfowler/gokv/internal/bytesize"
)

const (
	defaultBootstrapTimeout = 10 * time.Second
	defaultPollInterval     = 2500 * time.Millisecond
	defaultPollFloor        = 500 * time.Millisecond
	defaultBackoffInitial   = 10 * time.Millisecond
	defaultBackoffMax       = 2 * time.Second
	defaultJitterFraction   = 0.1
	defaultMetricsPort      = 9090
	defaultReadBufferSize   = 16 * bytesize.KiB
	defaultMaxBodySize      = 20 * bytesize.MiB
)

// ApplyDefaults fills in any unspecified configuration fields with
// sensible defaults. Explicit values are preserved; only zero values are
// replaced.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
	applyClusterDefaults(&cfg.Cluster)
	applyBucketDefaults(&cfg.Bucket)
	applyRetryDefaults(&cfg.Retry)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"}
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = defaultMetricsPort
	}
}

func applyClusterDefaults(cfg *ClusterConfig) {
	if cfg.BootstrapTimeout == 0 {
		cfg.BootstrapTimeout = defaultBootstrapTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollFloor == 0 {
		cfg.PollFloor = defaultPollFloor
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "gokv"
	}
	if cfg.ReadBufferSize == 0 {
		cfg.ReadBufferSize = defaultReadBufferSize
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
}

func applyBucketDefaults(cfg *BucketConfig) {
	if cfg.DurabilityFloor == "" {
		cfg.DurabilityFloor = "none"
	}
}

func applyRetryDefaults(cfg *RetryConfig) {
	if cfg.BackoffInitial == 0 {
		cfg.BackoffInitial = defaultBackoffInitial
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = defaultBackoffMax
	}
	if cfg.JitterFraction == 0 {
		cfg.JitterFraction = defaultJitterFraction
	}
}

// GetDefaultConfig returns a Config with all default values applied, no
// cluster identity set. Useful for generating a sample config file.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Cluster: ClusterConfig{
			Seeds: []string{"127.0.0.1:11210"},
		},
		Bucket: BucketConfig{
			Name: "default",
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
