package kvsession

import (
	"crypto/tls"
	"time"

	"github.com/ryanfowler/gokv/internal/bytesize"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
	"github.com/ryanfowler/gokv/internal/sasl"
	"github.com/ryanfowler/gokv/internal/topology"
)

// Options configures a single KV session.
type Options struct {
	// Address is the host:port to dial.
	Address string

	// TLSConfig, when non-nil, dials over TLS.
	TLSConfig *tls.Config

	// Bucket is the bucket this session binds to via SELECT_BUCKET.
	// Empty means bucket-less (GCCCP only).
	Bucket string

	Username string
	Password string
	// Mechanisms overrides the default SASL mechanism preference order
	// (§4.3.1 step 3: "user-supplied list, else [PLAIN] on TLS, else
	// [SCRAM-SHA512, SCRAM-SHA256, SCRAM-SHA1]").
	Mechanisms []sasl.Mechanism

	UserAgent string
	Features  []mcbp.Feature

	// ReadBufferSize sizes the socket read buffer drawn from pkg/bufpool.
	// MaxBodySize bounds a single frame's body (extras+key+value); a
	// response claiming a larger BodyLen is treated as a protocol error
	// and closes the session, the same as a framing desync (§4.1, §7).
	ReadBufferSize   bytesize.ByteSize
	MaxBodySize      bytesize.ByteSize
	BootstrapTimeout time.Duration

	// BackgroundBootstrap retries the whole bootstrap chain with a
	// 500ms backoff until it succeeds or the session is stopped,
	// instead of failing the caller once (§4.3.1).
	BackgroundBootstrap bool

	// OnConfig is invoked whenever this session observes a
	// configuration: the GET_CLUSTER_CONFIG result during bootstrap, and
	// server-push cluster-map-change notifications (the latter on the
	// read loop goroutine). Not-my-vbucket bodies are not passed here.
	OnConfig func(*topology.Config)

	// OnStop is invoked once, after the session has fully stopped.
	OnStop func(reason string)

	BootstrapHost string // used for Config.ThisNode inference
}

const (
	defaultReadBufferSize = 16 * bytesize.KiB
	defaultMaxBodySize    = 20 * bytesize.MiB
)

func (o Options) readBufferSize() int {
	if o.ReadBufferSize > 0 {
		return int(o.ReadBufferSize.Uint64())
	}
	return int(defaultReadBufferSize.Uint64())
}

func (o Options) maxBodySize() uint32 {
	if o.MaxBodySize > 0 {
		return uint32(o.MaxBodySize.Uint64())
	}
	return uint32(defaultMaxBodySize.Uint64())
}

const defaultBootstrapTimeout = 10 * time.Second

func (o Options) bootstrapTimeout() time.Duration {
	if o.BootstrapTimeout > 0 {
		return o.BootstrapTimeout
	}
	return defaultBootstrapTimeout
}

// DefaultFeatures is the feature set the session requests in HELLO when
// Options.Features is empty (§3 "Hello features", critical subset).
func DefaultFeatures() []mcbp.Feature {
	return []mcbp.Feature{
		mcbp.FeatureTCPNoDelay,
		mcbp.FeatureXATTR,
		mcbp.FeatureXERROR,
		mcbp.FeatureSelectBucket,
		mcbp.FeatureJSON,
		mcbp.FeatureDuplex,
		mcbp.FeatureAltRequestSupport,
		mcbp.FeatureTracing,
		mcbp.FeatureSyncReplication,
		mcbp.FeatureCollections,
		mcbp.FeatureSnappy,
		mcbp.FeatureMutationSeqno,
		mcbp.FeatureUnorderedExecution,
		mcbp.FeatureClustermapChangeNotification,
		mcbp.FeatureDeduplicateNotMyVbucketClustermap,
		mcbp.FeaturePreserveTTL,
	}
}
