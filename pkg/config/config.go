// Package config loads gokv's runtime configuration: cluster connection
// settings, per-bucket durability defaults, retry tuning, and the ambient
// logging/telemetry/metrics blocks every gokv-based service needs.
//
// Configuration sources, in order of precedence (highest to lowest):
//  1. Environment variables (GOKV_*)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ryanfowler/gokv/internal/bytesize"
)

// Config is the root configuration for a gokv client or service.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Cluster configures the connection to a Couchbase cluster.
	Cluster ClusterConfig `mapstructure:"cluster" yaml:"cluster"`

	// Bucket configures the bucket this process opens by default.
	Bucket BucketConfig `mapstructure:"bucket" yaml:"bucket"`

	// Retry configures the retry orchestrator's backoff behavior.
	Retry RetryConfig `mapstructure:"retry" yaml:"retry"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use an insecure (non-TLS) connection.
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect. Valid
	// values: cpu, alloc_objects, alloc_space, inuse_objects,
	// inuse_space, goroutines, mutex_count, mutex_duration, block_count,
	// block_duration.
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and the HTTP endpoint
	// are enabled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port the metrics endpoint listens on.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// TLSConfig configures TLS for the cluster connection.
type TLSConfig struct {
	Enabled            bool   `mapstructure:"enabled" yaml:"enabled"`
	CertFile           string `mapstructure:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile            string `mapstructure:"key_file" yaml:"key_file,omitempty"`
	CAFile             string `mapstructure:"ca_file" yaml:"ca_file,omitempty"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// ClusterConfig configures the connection to a Couchbase cluster.
type ClusterConfig struct {
	// Seeds lists the bootstrap addresses (host:port) tried in order.
	Seeds []string `mapstructure:"seeds" validate:"required,min=1" yaml:"seeds"`

	Username string `mapstructure:"username" validate:"required" yaml:"username"`
	Password string `mapstructure:"password" validate:"required" yaml:"password"`

	// Mechanisms overrides the default SASL mechanism preference order.
	// Valid values: PLAIN, SCRAM-SHA1, SCRAM-SHA256, SCRAM-SHA512. Empty
	// uses the package default (§4.3.1 step 3).
	Mechanisms []string `mapstructure:"mechanisms" validate:"omitempty,dive,oneof=PLAIN SCRAM-SHA1 SCRAM-SHA256 SCRAM-SHA512" yaml:"mechanisms,omitempty"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent,omitempty"`

	TLS TLSConfig `mapstructure:"tls" yaml:"tls"`

	// BootstrapTimeout bounds the initial HELLO..GET_CLUSTER_CONFIG
	// handshake per node.
	BootstrapTimeout time.Duration `mapstructure:"bootstrap_timeout" yaml:"bootstrap_timeout"`

	// BackgroundBootstrap, when true, opens Bucket without blocking on
	// the full bootstrap handshake; callers poll Bucket.Ready instead.
	BackgroundBootstrap bool `mapstructure:"background_bootstrap" yaml:"background_bootstrap"`

	// PollInterval/PollFloor tune the C6 GCCCP polling cadence.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PollFloor    time.Duration `mapstructure:"poll_floor" yaml:"poll_floor"`

	// ReadBufferSize sizes each session's socket read buffer.
	// MaxBodySize bounds a single response frame's body; a node claiming
	// a larger body is treated as a protocol error. Both accept
	// human-readable sizes like "16Ki" or "20Mi".
	ReadBufferSize bytesize.ByteSize `mapstructure:"read_buffer_size" yaml:"read_buffer_size,omitempty"`
	MaxBodySize    bytesize.ByteSize `mapstructure:"max_body_size" yaml:"max_body_size,omitempty"`
}

// BucketConfig configures the bucket a process opens by default.
type BucketConfig struct {
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// DurabilityFloor is the minimum durability level applied to writes
	// that don't specify one explicitly.
	// Valid values: none, majority, majority_and_persist_active, persist_to_majority.
	DurabilityFloor string `mapstructure:"durability_floor" validate:"omitempty,oneof=none majority majority_and_persist_active persist_to_majority" yaml:"durability_floor,omitempty"`
}

// RetryConfig configures the retry orchestrator's exponential backoff
// (§4.4).
type RetryConfig struct {
	BackoffInitial time.Duration `mapstructure:"backoff_initial" yaml:"backoff_initial"`
	BackoffMax     time.Duration `mapstructure:"backoff_max" yaml:"backoff_max"`

	// JitterFraction is the fraction of each computed backoff randomized
	// away, in [0,1].
	JitterFraction float64 `mapstructure:"jitter_fraction" validate:"omitempty,gte=0,lte=1" yaml:"jitter_fraction"`
}

// Load loads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !found {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error if no
// config file exists at the resolved path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"create one with:\n  kvctl init",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: failed to load: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML form.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}

	// 0600: config carries the cluster password.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: failed to write file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("GOKV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("config: failed to read file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(durationDecodeHook(), byteSizeDecodeHook())
}

// durationDecodeHook converts strings and raw numbers to time.Duration so
// config files can use human-readable durations like "30s" or "5m".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// byteSizeDecodeHook converts strings and raw numbers to bytesize.ByteSize
// so config files can use human-readable sizes like "16Ki" or "20Mi".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gokv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "gokv")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
