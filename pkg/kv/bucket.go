package kv

import (
	"github.com/ryanfowler/gokv/internal/collections"
	"github.com/ryanfowler/gokv/internal/command"
	"github.com/ryanfowler/gokv/internal/dispatch"
	"github.com/ryanfowler/gokv/internal/topology"
)

// Bucket is one opened bucket: a config tracker (C6), an operation
// dispatcher (C8), and the command runtime (C7) that runs every
// operation issued against its collections.
type Bucket struct {
	name    string
	tracker *topology.Tracker
	runner  *command.Runner
}

func newBucket(name string, tracker *topology.Tracker, d *dispatch.Dispatcher, opts ClusterOptions) *Bucket {
	runner := command.NewRunner(d, tracker, opts.BackoffInitial, opts.BackoffMax, opts.BackoffJitterFraction)
	if opts.Metrics != nil {
		runner.SetMetrics(opts.Metrics)
	}
	return &Bucket{name: name, tracker: tracker, runner: runner}
}

// Name returns the bucket name this handle was opened with.
func (b *Bucket) Name() string { return b.name }

// DefaultCollection returns the implicit `_default._default` collection,
// usable even against buckets that never negotiated the collections
// feature.
func (b *Bucket) DefaultCollection() *Collection {
	return b.Scope(collections.DefaultScope).Collection(collections.DefaultCollection)
}

// Scope returns a handle to scope name within this bucket.
func (b *Bucket) Scope(name string) *Scope {
	return &Scope{bucket: b, name: name}
}

// Close stops every session the bucket's tracker holds and halts its
// background GCCCP polling.
func (b *Bucket) Close() {
	b.tracker.Close()
}

// Ready returns a channel closed once the bucket's underlying tracker has
// bootstrapped against the cluster. Cluster.Bucket already blocks until
// this happens, so Ready is closed by the time a *Bucket exists; it's
// exposed for callers that pass a Bucket handle around before checking
// readiness themselves.
func (b *Bucket) Ready() <-chan struct{} {
	return b.tracker.Ready()
}

// Scope is a named grouping of collections within a bucket.
type Scope struct {
	bucket *Bucket
	name   string
}

// Name returns the scope's name.
func (s *Scope) Name() string { return s.name }

// Collection returns a handle to the named collection within this scope.
func (s *Scope) Collection(name string) *Collection {
	return &Collection{
		runner:     s.bucket.runner,
		bucketName: s.bucket.name,
		scope:      s.name,
		collection: name,
	}
}
