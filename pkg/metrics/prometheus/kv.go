// Package prometheus provides Prometheus-backed implementations of gokv's
// metrics sinks.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
	"github.com/ryanfowler/gokv/pkg/metrics"
)

// kvMetrics is the Prometheus implementation of kv.MetricsRecorder
// (§6.5/§4.6 step 5: db.couchbase.service=kv, db.operation=<opcode>).
type kvMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewKVMetrics builds a recorder registered against the shared registry.
// Returns nil if metrics collection isn't enabled (metrics.InitRegistry
// wasn't called with on=true); a nil *kvMetrics is a valid, no-op
// command.MetricsRecorder since every method here tolerates a nil
// receiver.
func NewKVMetrics() *kvMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &kvMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "gokv_kv_operations_total",
				Help: "Total KV operations by opcode and outcome.",
			},
			[]string{"db_operation", "outcome"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "gokv_kv_operation_duration_seconds",
				Help: "Total latency of a KV operation, including retries.",
				Buckets: []float64{
					0.0005, // 500us
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1,      // 1s
					5,      // 5s
				},
			},
			[]string{"db_operation"},
		),
	}
}

// RecordOperation implements command.MetricsRecorder.
func (m *kvMetrics) RecordOperation(opcode mcbp.Opcode, duration time.Duration, err error) {
	if m == nil {
		return
	}

	op := opcode.String()
	outcome := "success"
	if err != nil {
		outcome = kverrors.KindOf(err).String()
	}

	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(duration.Seconds())
}
