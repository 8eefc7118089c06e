package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context
var logContextKey = contextKey{}

// LogContext holds request-scoped logging context for one KV operation.
type LogContext struct {
	TraceID       string    // OpenTelemetry trace ID
	SpanID        string    // OpenTelemetry span ID
	Opcode        string    // MCBP opcode name (GET, UPSERT, SUBDOC_MULTI_MUTATION, ...)
	Bucket        string    // Bucket name
	BootstrapAddr string    // host:port the owning session bootstrapped against
	SessionID     string    // local session identifier
	Opaque        uint32    // request opaque
	StartTime     time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext scoped to a bootstrap address.
func NewLogContext(bootstrapAddr string) *LogContext {
	return &LogContext{
		BootstrapAddr: bootstrapAddr,
		StartTime:     time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithOpcode returns a copy with the opcode set
func (lc *LogContext) WithOpcode(opcode string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Opcode = opcode
	}
	return clone
}

// WithBucket returns a copy with the bucket set
func (lc *LogContext) WithBucket(bucket string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Bucket = bucket
	}
	return clone
}

// WithSession returns a copy with the session identity set
func (lc *LogContext) WithSession(sessionID string, opaque uint32) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SessionID = sessionID
		clone.Opaque = opaque
	}
	return clone
}

// WithTrace returns a copy with trace info set
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}

// Prefix renders the "[client/session/stream/bucket] <bootstrap-addr>" prefix
// used by session-scoped log lines (§6.5).
func (lc *LogContext) Prefix() string {
	if lc == nil {
		return "[client]"
	}
	scope := "client"
	if lc.SessionID != "" {
		scope = "client/session"
	}
	if lc.Bucket != "" {
		scope += "/bucket"
	}
	if lc.BootstrapAddr == "" {
		return "[" + scope + "]"
	}
	return "[" + scope + "] " + lc.BootstrapAddr
}
