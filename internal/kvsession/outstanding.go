package kvsession

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

// Handler is invoked exactly once per outstanding request, either with
// the matching response packet or with a terminal error (§8 "Cancellation
// is race-free"). It is never called while the session's outstanding-map
// mutex is held (§5 "handlers MUST NOT be called while any component
// mutex is held").
type Handler func(pkt mcbp.Packet, err error)

type outstandingReq struct {
	opcode       mcbp.Opcode
	handler      Handler
	dispatchedAt time.Time
	cancelled    atomic.Bool
}

// outstandingMap is the session's opaque→handler correlation table (§3
// "Outstanding request", §8 "Demultiplex correctness").
type outstandingMap struct {
	mu      sync.Mutex
	entries map[uint32]*outstandingReq
	counter atomic.Uint32
}

func newOutstandingMap() *outstandingMap {
	return &outstandingMap{entries: make(map[uint32]*outstandingReq)}
}

// NextOpaque draws the next opaque from the per-session monotonic
// counter (§3: "drawn from a per-session monotonically incrementing
// 32-bit counter", §8 "Opaque uniqueness").
func (m *outstandingMap) NextOpaque() uint32 {
	return m.counter.Add(1)
}

// Register records handler under opaque, to be invoked on the matching
// response or on cancellation/session stop.
func (m *outstandingMap) Register(opaque uint32, opcode mcbp.Opcode, handler Handler) {
	m.mu.Lock()
	m.entries[opaque] = &outstandingReq{opcode: opcode, handler: handler, dispatchedAt: time.Now()}
	m.mu.Unlock()
}

// Take removes and returns the entry for opaque, if any — used by the
// read loop to demultiplex exactly once per opaque (§8).
func (m *outstandingMap) Take(opaque uint32) (*outstandingReq, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.entries[opaque]
	if ok {
		delete(m.entries, opaque)
	}
	return req, ok
}

// Cancel removes opaque from the map and reports whether it was present
// (i.e. had not already been answered). The caller is responsible for
// invoking the handler with a cancellation result exactly once.
func (m *outstandingMap) Cancel(opaque uint32) (*outstandingReq, bool) {
	return m.Take(opaque)
}

// DrainAll removes every outstanding entry, returning them so the caller
// (session Stop) can fail each handler exactly once outside the lock.
func (m *outstandingMap) DrainAll() []*outstandingReq {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*outstandingReq, 0, len(m.entries))
	for _, req := range m.entries {
		out = append(out, req)
	}
	m.entries = make(map[uint32]*outstandingReq)
	return out
}

// Len reports the number of outstanding requests, mainly for tests and
// diagnostics.
func (m *outstandingMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
