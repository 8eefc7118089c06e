package topology

import "context"

// Session is the subset of a KV session's surface the tracker depends
// on. internal/kvsession.Session implements this; topology itself never
// imports kvsession, to keep the dependency direction session → tracker
// consumer one way (kvsession never needs topology internals beyond this
// interface and Config).
type Session interface {
	// Addr is the dialed host:port, used as the node identity for
	// reconciliation.
	Addr() string

	// Stop closes the session. reason is recorded on every outstanding
	// handler the session fails as part of stopping (§4.3.5).
	Stop(reason string)

	// Done is closed once the session has fully stopped, whether by
	// Stop or by a transport failure.
	Done() <-chan struct{}

	// SupportsGCCCP reports whether this session negotiated enough to
	// serve a GET_CLUSTER_CONFIG poll (bucket-less or GCCCP-capable).
	SupportsGCCCP() bool

	// PollClusterConfig issues a single GET_CLUSTER_CONFIG round trip
	// and returns the parsed configuration, for the tracker's periodic
	// GCCCP poll (§4.2).
	PollClusterConfig(ctx context.Context) (*Config, error)
}

// Factory dials and bootstraps a new session against addr for the given
// node. Supplied by the package that wires topology to kvsession.
type Factory func(ctx context.Context, addr string, node Node) (Session, error)
