package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the KV protocol core.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// Protocol & Operation
	// ========================================================================
	KeyOpcode       = "opcode"        // MCBP opcode name: GET, UPSERT, SUBDOC_MULTI_LOOKUP, ...
	KeyOpaque       = "opaque"        // 32-bit request opaque, rendered as 0x...
	KeyStatus       = "status"        // server status code
	KeyStatusMsg    = "status_msg"    // human-readable status message
	KeyErrorKind    = "error_kind"    // classified error kind (§7)
	KeyRetryReason  = "retry_reason"  // retry-orchestrator reason
	KeyRetryAction  = "retry_action"  // retry-same-node, retry-other-node, do-not-retry

	// ========================================================================
	// Document identity
	// ========================================================================
	KeyBucket       = "bucket"
	KeyScope        = "scope"
	KeyCollection   = "collection"
	KeyCollectionID = "collection_id"
	KeyDocKey       = "doc_key"
	KeyCAS          = "cas"
	KeyVbucket      = "vbucket"

	// ========================================================================
	// Cluster / node identification
	// ========================================================================
	KeyNodeHost      = "node_host"
	KeyNodePort      = "node_port"
	KeyNodeIndex     = "node_index"
	KeyConfigRev     = "config_rev"
	KeyConfigEpoch   = "config_epoch"
	KeyBootstrapAddr = "bootstrap_addr"

	// ========================================================================
	// Session & Connection
	// ========================================================================
	KeySessionID    = "session_id"
	KeyConnectionID = "connection_id"
	KeyRequestID    = "request_id"
	KeySessionState = "session_state"

	// ========================================================================
	// Durability & latency
	// ========================================================================
	KeyDurabilityLevel   = "durability_level"
	KeyDurabilityTimeout = "durability_timeout_ms"
	KeyServerDurationUs  = "server_duration_us"
	KeyDurationMs        = "duration_ms"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyError      = "error"
	KeyErrorCode  = "error_code"
	KeyAttempt    = "attempt"
	KeyMaxRetries = "max_retries"
	KeyAuth       = "auth"
)

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Opcode returns a slog.Attr for the MCBP opcode name
func Opcode(name string) slog.Attr {
	return slog.String(KeyOpcode, name)
}

// Opaque returns a slog.Attr for the request opaque, rendered in hex
func Opaque(v uint32) slog.Attr {
	return slog.String(KeyOpaque, fmt.Sprintf("0x%08x", v))
}

// Status returns a slog.Attr for the server status code
func Status(code uint16) slog.Attr {
	return slog.Int(KeyStatus, int(code))
}

// StatusMsg returns a slog.Attr for the human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// ErrorKind returns a slog.Attr for the classified error kind
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// RetryReason returns a slog.Attr for the retry-orchestrator reason
func RetryReason(reason string) slog.Attr {
	return slog.String(KeyRetryReason, reason)
}

// RetryAction returns a slog.Attr for the retry decision
func RetryAction(action string) slog.Attr {
	return slog.String(KeyRetryAction, action)
}

// Bucket returns a slog.Attr for the bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Scope returns a slog.Attr for the scope name
func Scope(name string) slog.Attr {
	return slog.String(KeyScope, name)
}

// Collection returns a slog.Attr for the collection name
func Collection(name string) slog.Attr {
	return slog.String(KeyCollection, name)
}

// CollectionID returns a slog.Attr for the resolved collection UID
func CollectionID(uid uint32) slog.Attr {
	return slog.Uint64(KeyCollectionID, uint64(uid))
}

// DocKey returns a slog.Attr for the document key
func DocKey(key string) slog.Attr {
	return slog.String(KeyDocKey, key)
}

// CAS returns a slog.Attr for a CAS token rendered in hex
func CAS(cas uint64) slog.Attr {
	return slog.String(KeyCAS, fmt.Sprintf("0x%016x", cas))
}

// Vbucket returns a slog.Attr for the owning vbucket index
func Vbucket(vb uint16) slog.Attr {
	return slog.Int(KeyVbucket, int(vb))
}

// NodeHost returns a slog.Attr for a node hostname
func NodeHost(host string) slog.Attr {
	return slog.String(KeyNodeHost, host)
}

// NodePort returns a slog.Attr for a node KV port
func NodePort(port int) slog.Attr {
	return slog.Int(KeyNodePort, port)
}

// NodeIndex returns a slog.Attr for a node index within the cluster map
func NodeIndex(idx int) slog.Attr {
	return slog.Int(KeyNodeIndex, idx)
}

// ConfigRev returns a slog.Attr for the config revision
func ConfigRev(rev int64) slog.Attr {
	return slog.Int64(KeyConfigRev, rev)
}

// ConfigEpoch returns a slog.Attr for the config epoch
func ConfigEpoch(epoch int64) slog.Attr {
	return slog.Int64(KeyConfigEpoch, epoch)
}

// BootstrapAddr returns a slog.Attr for the bootstrap host:port
func BootstrapAddr(addr string) slog.Attr {
	return slog.String(KeyBootstrapAddr, addr)
}

// SessionID returns a slog.Attr for the session identifier
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ConnectionID returns a slog.Attr for the connection identifier
func ConnectionID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// RequestID returns a slog.Attr for a protocol-level request id
func RequestID(id uint32) slog.Attr {
	return Opaque(id)
}

// SessionState returns a slog.Attr for the session bootstrap state
func SessionState(state string) slog.Attr {
	return slog.String(KeySessionState, state)
}

// DurabilityLevel returns a slog.Attr for the requested durability level
func DurabilityLevel(level string) slog.Attr {
	return slog.String(KeyDurabilityLevel, level)
}

// DurabilityTimeout returns a slog.Attr for the durability server timeout
func DurabilityTimeout(ms int64) slog.Attr {
	return slog.Int64(KeyDurabilityTimeout, ms)
}

// ServerDurationUs returns a slog.Attr for the server-reported duration
func ServerDurationUs(us float64) slog.Attr {
	return slog.Float64(KeyServerDurationUs, us)
}

// DurationMs returns a slog.Attr for operation duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Attempt returns a slog.Attr for the retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// MaxRetries returns a slog.Attr for the maximum retry attempt count
func MaxRetries(n int) slog.Attr {
	return slog.Int(KeyMaxRetries, n)
}

// AuthStr returns a slog.Attr for the authentication mechanism name
func AuthStr(mechanism string) slog.Attr {
	return slog.String(KeyAuth, mechanism)
}
