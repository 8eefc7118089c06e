package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanfowler/gokv/pkg/kv"
)

func TestToClusterOptionsMapsMechanisms(t *testing.T) {
	cfg := &Config{
		Cluster: ClusterConfig{
			Username:   "Administrator",
			Password:   "password",
			Mechanisms: []string{"SCRAM-SHA512", "PLAIN"},
		},
		Retry: RetryConfig{BackoffInitial: 10, BackoffMax: 20},
	}

	opts, err := cfg.ToClusterOptions()
	require.NoError(t, err)
	assert.Len(t, opts.Mechanisms, 2)
	assert.Equal(t, "SCRAM-SHA512", opts.Mechanisms[0].Name())
	assert.Equal(t, "PLAIN", opts.Mechanisms[1].Name())
}

func TestToClusterOptionsRejectsUnknownMechanism(t *testing.T) {
	cfg := &Config{
		Cluster: ClusterConfig{
			Username:   "a",
			Password:   "b",
			Mechanisms: []string{"NTLM"},
		},
	}
	_, err := cfg.ToClusterOptions()
	assert.Error(t, err)
}

func TestToDurabilityLevel(t *testing.T) {
	cases := map[string]kv.DurabilityLevel{
		"":                            kv.DurabilityNone,
		"none":                        kv.DurabilityNone,
		"majority":                    kv.DurabilityMajority,
		"majority_and_persist_active": kv.DurabilityMajorityAndPersistToActive,
		"persist_to_majority":         kv.DurabilityPersistToMajority,
	}
	for floor, want := range cases {
		bc := &BucketConfig{DurabilityFloor: floor}
		got, err := bc.ToDurabilityLevel()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestToDurabilityLevelRejectsUnknown(t *testing.T) {
	bc := &BucketConfig{DurabilityFloor: "bogus"}
	_, err := bc.ToDurabilityLevel()
	assert.Error(t, err)
}

func TestToLoggerConfig(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "DEBUG", Format: "json", Output: "stderr"}}
	lc := cfg.ToLoggerConfig()
	assert.Equal(t, "DEBUG", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "stderr", lc.Output)
}

func TestToTelemetryConfig(t *testing.T) {
	cfg := &Config{Telemetry: TelemetryConfig{Enabled: true, Endpoint: "localhost:4317", SampleRate: 0.5}}
	tc := cfg.ToTelemetryConfig("kvctl", "1.2.3")
	assert.True(t, tc.Enabled)
	assert.Equal(t, "kvctl", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, "localhost:4317", tc.Endpoint)
	assert.Equal(t, 0.5, tc.SampleRate)
}
