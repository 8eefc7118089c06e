package kverrors

import (
	"errors"
	"fmt"
)

// KVError is the error type every KV operation returns. It always
// carries a Kind plus a human-readable message; Endpoint and cause are
// optional (§7: "carry kind, a one-line message, and the last-known
// endpoint (host:port) where relevant").
type KVError struct {
	Kind     Kind
	Message  string
	Endpoint string // host:port, when the error is endpoint-scoped
	Cause    error
}

func (e *KVError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Endpoint)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *KVError) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, kverrors.New(kind, "")) style sentinel
// comparisons keyed only on Kind, ignoring message/endpoint/cause.
func (e *KVError) Is(target error) bool {
	var other *KVError
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs a *KVError with no endpoint or cause.
func New(kind Kind, message string) *KVError {
	return &KVError{Kind: kind, Message: message}
}

// Wrap constructs a *KVError wrapping cause.
func Wrap(kind Kind, message string, cause error) *KVError {
	return &KVError{Kind: kind, Message: message, Cause: cause}
}

// WithEndpoint constructs a *KVError with an endpoint attached.
func WithEndpoint(kind Kind, message, endpoint string, cause error) *KVError {
	return &KVError{Kind: kind, Message: message, Endpoint: endpoint, Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *KVError,
// otherwise KindUnknown.
func KindOf(err error) Kind {
	var kvErr *KVError
	if errors.As(err, &kvErr) {
		return kvErr.Kind
	}
	return KindUnknown
}

// Is is a convenience wrapper over errors.Is for comparing against one of
// the sentinel kinds, e.g. kverrors.Is(err, kverrors.KindDocumentNotFound).
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
