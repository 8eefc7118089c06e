package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/ryanfowler/gokv/internal/logger"
	"github.com/ryanfowler/gokv/internal/sasl"
	"github.com/ryanfowler/gokv/internal/telemetry"
	"github.com/ryanfowler/gokv/pkg/kv"
)

// ToClusterOptions builds the options Connect needs from the loaded
// configuration's Cluster and Retry blocks, resolving TLS material and
// SASL mechanism names along the way.
func (cfg *Config) ToClusterOptions() (kv.ClusterOptions, error) {
	c := &cfg.Cluster
	opts := kv.ClusterOptions{
		Username:              c.Username,
		Password:              c.Password,
		UserAgent:             c.UserAgent,
		BootstrapTimeout:      c.BootstrapTimeout,
		PollInterval:          c.PollInterval,
		PollFloor:             c.PollFloor,
		ReadBufferSize:        c.ReadBufferSize,
		MaxBodySize:           c.MaxBodySize,
		BackoffInitial:        cfg.Retry.BackoffInitial,
		BackoffMax:            cfg.Retry.BackoffMax,
		BackoffJitterFraction: cfg.Retry.JitterFraction,
	}

	if c.TLS.Enabled {
		tlsConfig, err := c.TLS.toTLSConfig()
		if err != nil {
			return kv.ClusterOptions{}, err
		}
		opts.TLSConfig = tlsConfig
	}

	if len(c.Mechanisms) > 0 {
		mechs, err := mechanismsFromNames(c.Mechanisms, c.Username, c.Password)
		if err != nil {
			return kv.ClusterOptions{}, err
		}
		opts.Mechanisms = mechs
	}

	return opts, nil
}

func (t *TLSConfig) toTLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{InsecureSkipVerify: t.InsecureSkipVerify}

	if t.CertFile != "" && t.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("config: loading client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, fmt.Errorf("config: reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("config: no certificates parsed from %s", t.CAFile)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

func mechanismsFromNames(names []string, username, password string) ([]sasl.Mechanism, error) {
	mechs := make([]sasl.Mechanism, 0, len(names))
	for _, name := range names {
		switch name {
		case "PLAIN":
			mechs = append(mechs, sasl.NewPlain(username, password))
		case "SCRAM-SHA1":
			mechs = append(mechs, sasl.NewSCRAM(sasl.SHA1, username, password))
		case "SCRAM-SHA256":
			mechs = append(mechs, sasl.NewSCRAM(sasl.SHA256, username, password))
		case "SCRAM-SHA512":
			mechs = append(mechs, sasl.NewSCRAM(sasl.SHA512, username, password))
		default:
			return nil, fmt.Errorf("config: unknown SASL mechanism %q", name)
		}
	}
	return mechs, nil
}

// ToLoggerConfig converts the Logging block into internal/logger's Config,
// ready to pass to logger.Init.
func (cfg *Config) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
}

// ToTelemetryConfig converts the Telemetry block into internal/telemetry's
// Config, ready to pass to telemetry.Init. serviceName/serviceVersion are
// supplied by the binary since they aren't configuration values.
func (cfg *Config) ToTelemetryConfig(serviceName, serviceVersion string) telemetry.Config {
	t := &cfg.Telemetry
	return telemetry.Config{
		Enabled:        t.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		SampleRate:     t.SampleRate,
	}
}

// ToProfilingConfig converts the Telemetry.Profiling block into
// internal/telemetry's ProfilingConfig, ready to pass to InitProfiling.
// serviceName/serviceVersion are supplied by the binary.
func (cfg *Config) ToProfilingConfig(serviceName, serviceVersion string) telemetry.ProfilingConfig {
	p := &cfg.Telemetry.Profiling
	return telemetry.ProfilingConfig{
		Enabled:        p.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Endpoint:       p.Endpoint,
		ProfileTypes:   p.ProfileTypes,
	}
}

// MetricsAddr returns the listen address for the metrics HTTP server.
func (m *MetricsConfig) MetricsAddr() string {
	return fmt.Sprintf(":%d", m.Port)
}

// ToDurabilityLevel maps the bucket's configured durability floor name to
// the command runtime's DurabilityLevel enum.
func (b *BucketConfig) ToDurabilityLevel() (kv.DurabilityLevel, error) {
	switch b.DurabilityFloor {
	case "", "none":
		return kv.DurabilityNone, nil
	case "majority":
		return kv.DurabilityMajority, nil
	case "majority_and_persist_active":
		return kv.DurabilityMajorityAndPersistToActive, nil
	case "persist_to_majority":
		return kv.DurabilityPersistToMajority, nil
	default:
		return kv.DurabilityNone, fmt.Errorf("config: unknown durability floor %q", b.DurabilityFloor)
	}
}
