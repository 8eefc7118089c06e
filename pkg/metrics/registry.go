// Package metrics holds the process-wide Prometheus registry that every
// metrics-emitting component (pkg/metrics/prometheus and friends) shares,
// so a single HTTP handler can expose all of them together.
package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	enabled  atomic.Bool
	initOnce sync.Once
	registry *prometheus.Registry
)

// InitRegistry creates the shared registry and records whether metrics
// collection is enabled. It is safe to call more than once; only the
// first call takes effect.
func InitRegistry(on bool) *prometheus.Registry {
	initOnce.Do(func() {
		registry = prometheus.NewRegistry()
		enabled.Store(on)
	})
	return registry
}

// IsEnabled reports whether InitRegistry was called with on=true.
// Constructors under pkg/metrics/prometheus use this to return a nil
// (no-op) recorder instead of registering collectors nobody scrapes.
func IsEnabled() bool {
	return enabled.Load()
}

// GetRegistry returns the shared registry, initializing a disabled one
// if InitRegistry was never called.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry(false)
	}
	return registry
}

// ResetForTest discards the shared registry and re-initializes it with
// on, bypassing the InitRegistry's once-per-process guard. Test-only.
func ResetForTest(on bool) {
	registry = prometheus.NewRegistry()
	enabled.Store(on)
	initOnce = sync.Once{}
}
