// Package kv is the public API surface of the KV core: Cluster, Bucket,
// and Collection, modeled on gocb's fluent shape (connect once, open a
// bucket, open a collection, call per-operation methods that take a
// context and an options struct).
package kv

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ryanfowler/gokv/internal/bytesize"
	"github.com/ryanfowler/gokv/internal/command"
	"github.com/ryanfowler/gokv/internal/dispatch"
	"github.com/ryanfowler/gokv/internal/kvsession"
	"github.com/ryanfowler/gokv/internal/sasl"
	"github.com/ryanfowler/gokv/internal/topology"
)

// MetricsRecorder re-exports the command runtime's per-operation metrics
// sink so callers can supply one (e.g. pkg/metrics/prometheus) without
// importing an internal package.
type MetricsRecorder = command.MetricsRecorder

// ClusterOptions configures a Cluster connection.
type ClusterOptions struct {
	Username string
	Password string

	TLSConfig  *tls.Config
	Mechanisms []sasl.Mechanism
	UserAgent  string

	// PollInterval is how often each bucket's tracker polls GCCCP for a
	// fresh configuration (§4.2); PollFloor bounds it from below.
	PollInterval time.Duration
	PollFloor    time.Duration

	// BackoffInitial/BackoffMax configure the retry orchestrator's
	// exponential backoff (§4.4) for every operation run through this
	// cluster's buckets. BackoffJitterFraction is the RandomizationFactor
	// applied to each computed delay; zero uses retry.DefaultJitterFraction.
	BackoffInitial        time.Duration
	BackoffMax            time.Duration
	BackoffJitterFraction float64

	BootstrapTimeout time.Duration

	// ReadBufferSize sizes each session's socket read buffer;
	// MaxBodySize bounds a single response frame's body. Zero uses the
	// session layer's defaults.
	ReadBufferSize bytesize.ByteSize
	MaxBodySize    bytesize.ByteSize

	// Metrics, if set, observes every operation's total latency and
	// outcome (§6.5/§4.6 step 5). Nil disables recording.
	Metrics MetricsRecorder
}

const (
	defaultPollInterval   = 2500 * time.Millisecond
	defaultPollFloor      = 500 * time.Millisecond
	defaultBackoffInitial = 10 * time.Millisecond
	defaultBackoffMax     = 2 * time.Second
	defaultBackoffJitter  = 0.1
)

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.PollFloor <= 0 {
		o.PollFloor = defaultPollFloor
	}
	if o.BackoffInitial <= 0 {
		o.BackoffInitial = defaultBackoffInitial
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = defaultBackoffMax
	}
	if o.BackoffJitterFraction <= 0 {
		o.BackoffJitterFraction = defaultBackoffJitter
	}
	return o
}

// Cluster is a connected Couchbase cluster handle. It holds the
// credentials and connection options needed to open buckets; it does
// not itself hold a session (§3 "Document identifier" — a bucket-less
// session only exists transiently during GCCCP bootstrap).
type Cluster struct {
	seeds []string
	opts  ClusterOptions
}

// Connect validates seeds and options but defers dialing to Bucket,
// since every KV session (other than a throwaway GCCCP probe) is
// bound to exactly one bucket via SELECT_BUCKET.
func Connect(seeds []string, opts ClusterOptions) (*Cluster, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("kv: at least one seed address is required")
	}
	return &Cluster{seeds: seeds, opts: opts.withDefaults()}, nil
}

// Bucket opens name, bootstrapping one KV session per node (§4.2) and
// starting the cluster-wide configuration tracker (C6) and operation
// dispatcher (C8) for it.
func (c *Cluster) Bucket(ctx context.Context, name string) (*Bucket, error) {
	// tracker is assigned below, after construction; the factory closure
	// captures the variable (not its zero value) so OnConfig can feed
	// configurations discovered mid-session back into it once it exists.
	var tracker *topology.Tracker
	factory := func(ctx context.Context, addr string, node topology.Node) (topology.Session, error) {
		sess, err := kvsession.Dial(ctx, kvsession.Options{
			Address:          addr,
			TLSConfig:        c.opts.TLSConfig,
			Bucket:           name,
			Username:         c.opts.Username,
			Password:         c.opts.Password,
			Mechanisms:       c.opts.Mechanisms,
			UserAgent:        c.opts.UserAgent,
			Features:         kvsession.DefaultFeatures(),
			BootstrapTimeout: c.opts.BootstrapTimeout,
			ReadBufferSize:   c.opts.ReadBufferSize,
			MaxBodySize:      c.opts.MaxBodySize,
			BootstrapHost:    node.Hostname,
			OnConfig: func(cfg *topology.Config) {
				if tracker != nil {
					_ = tracker.Apply(context.Background(), cfg)
				}
			},
		})
		if err != nil {
			return nil, err
		}
		return sess, nil
	}

	tracker = topology.NewTracker(factory, topology.Options{
		TLS:          c.opts.TLSConfig != nil,
		PollInterval: c.opts.PollInterval,
		PollFloor:    c.opts.PollFloor,
	})
	if err := tracker.Bootstrap(ctx, c.seeds); err != nil {
		return nil, fmt.Errorf("kv: opening bucket %q: %w", name, err)
	}

	d := dispatch.New(tracker)
	return newBucket(name, tracker, d, c.opts), nil
}
