package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for KV protocol spans.
// These follow OpenTelemetry semantic conventions where applicable; the
// "db.couchbase." prefix mirrors the convention the query/search/analytics
// HTTP clients use so traces correlate across services.
const (
	// ========================================================================
	// Service / operation attributes
	// ========================================================================
	AttrDBSystem    = "db.system"          // always "couchbase"
	AttrDBService   = "db.couchbase.service" // "kv"
	AttrDBOperation = "db.operation"       // MCBP opcode name
	AttrDBInstance  = "db.name"            // bucket name

	// ========================================================================
	// MCBP attributes
	// ========================================================================
	AttrOpaque          = "db.couchbase.opaque" // hex-rendered opaque
	AttrVbucket         = "db.couchbase.vbucket"
	AttrServerDurationUs = "db.couchbase.server_duration_us"
	AttrRetryReason     = "db.couchbase.retry_reason"
	AttrDurabilityLevel = "db.couchbase.durability"

	// ========================================================================
	// Connection attributes
	// ========================================================================
	AttrRemoteSocket = "net.peer.name"
	AttrLocalSocket  = "net.host.name"
	AttrSessionID    = "db.couchbase.session_id"

	// ========================================================================
	// Document identity
	// ========================================================================
	AttrScope      = "db.couchbase.scope"
	AttrCollection = "db.couchbase.collection"
	AttrStatus     = "db.couchbase.status"
	AttrStatusMsg  = "db.couchbase.status_msg"

	// ========================================================================
	// Cluster configuration attributes
	// ========================================================================
	AttrConfigRev   = "db.couchbase.config_rev"
	AttrConfigEpoch = "db.couchbase.config_epoch"
)

// Span names for KV operations.
const (
	SpanKVDispatch = "kv.dispatch"

	SpanKVHello         = "kv.HELLO"
	SpanKVSASLAuth      = "kv.SASL_AUTH"
	SpanKVSelectBucket  = "kv.SELECT_BUCKET"
	SpanKVGetClusterCfg = "kv.GET_CLUSTER_CONFIG"
	SpanKVGetErrorMap   = "kv.GET_ERROR_MAP"
	SpanKVGetCollection = "kv.GET_COLLECTION_ID"
	SpanKVPing          = "kv.NOOP"

	SpanConfigPoll    = "config.poll_gcccp"
	SpanConfigApply   = "config.apply"
	SpanSessionStart  = "session.bootstrap"
	SpanSessionClose  = "session.stop"
)

// DBOperation returns an attribute for the MCBP opcode driving a span.
func DBOperation(opcode string) attribute.KeyValue {
	return attribute.String(AttrDBOperation, opcode)
}

// DBInstance returns an attribute for the bucket a span operated against.
func DBInstance(bucket string) attribute.KeyValue {
	return attribute.String(AttrDBInstance, bucket)
}

// Opaque returns an attribute for the request opaque, hex-rendered.
func Opaque(opaque uint32) attribute.KeyValue {
	return attribute.String(AttrOpaque, fmt.Sprintf("0x%08x", opaque))
}

// Vbucket returns an attribute for the owning vbucket index.
func Vbucket(vb uint16) attribute.KeyValue {
	return attribute.Int(AttrVbucket, int(vb))
}

// ServerDurationUs returns an attribute for the server-reported duration.
func ServerDurationUs(us float64) attribute.KeyValue {
	return attribute.Float64(AttrServerDurationUs, us)
}

// RetryReason returns an attribute for the retry-orchestrator reason.
func RetryReason(reason string) attribute.KeyValue {
	return attribute.String(AttrRetryReason, reason)
}

// DurabilityLevel returns an attribute for the requested durability level.
func DurabilityLevel(level string) attribute.KeyValue {
	return attribute.String(AttrDurabilityLevel, level)
}

// RemoteSocket returns an attribute for the remote peer address.
func RemoteSocket(addr string) attribute.KeyValue {
	return attribute.String(AttrRemoteSocket, addr)
}

// LocalSocket returns an attribute for the local socket address.
func LocalSocket(addr string) attribute.KeyValue {
	return attribute.String(AttrLocalSocket, addr)
}

// SessionID returns an attribute for the local session identifier.
func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

// Scope returns an attribute for the scope name.
func Scope(name string) attribute.KeyValue {
	return attribute.String(AttrScope, name)
}

// Collection returns an attribute for the collection name.
func Collection(name string) attribute.KeyValue {
	return attribute.String(AttrCollection, name)
}

// Status returns an attribute for the server status code.
func Status(code uint16) attribute.KeyValue {
	return attribute.Int(AttrStatus, int(code))
}

// StatusMsg returns an attribute for the human-readable status message.
func StatusMsg(msg string) attribute.KeyValue {
	return attribute.String(AttrStatusMsg, msg)
}

// ConfigRev returns an attribute for the config revision.
func ConfigRev(rev int64) attribute.KeyValue {
	return attribute.Int64(AttrConfigRev, rev)
}

// ConfigEpoch returns an attribute for the config epoch.
func ConfigEpoch(epoch int64) attribute.KeyValue {
	return attribute.Int64(AttrConfigEpoch, epoch)
}

// StartKVSpan starts a span for one KV operation attempt, tagging it with
// the attributes the core always records (§6.5): service, instance, opcode,
// opaque, and the originating bucket.
func StartKVSpan(ctx context.Context, opcode string, bucket string, opaque uint32, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{
		attribute.String(AttrDBSystem, "couchbase"),
		attribute.String(AttrDBService, "kv"),
		DBOperation(opcode),
		Opaque(opaque),
	}
	if bucket != "" {
		allAttrs = append(allAttrs, DBInstance(bucket))
	}
	allAttrs = append(allAttrs, attrs...)

	return StartSpan(ctx, "kv."+opcode, trace.WithAttributes(allAttrs...))
}

// StartSessionSpan starts a span for a session lifecycle event (bootstrap,
// stop) that is not tied to a single in-flight operation.
func StartSessionSpan(ctx context.Context, name string, sessionID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := []attribute.KeyValue{SessionID(sessionID)}
	allAttrs = append(allAttrs, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(allAttrs...))
}
