package kvsession

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ryanfowler/gokv/internal/collections"
	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/logger"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
	"github.com/ryanfowler/gokv/internal/retry"
	"github.com/ryanfowler/gokv/internal/telemetry"
	"github.com/ryanfowler/gokv/internal/topology"
	"github.com/ryanfowler/gokv/pkg/bufpool"
)

// Session is one TCP (optionally TLS) connection to one KV node,
// bootstrapped for one bucket (or bucket-less). It satisfies
// topology.Session so the config tracker can own its lifecycle without
// importing this package (DESIGN.md "C6 Config tracker detail").
type Session struct {
	opts Options
	conn net.Conn

	id string

	state atomic.Int32

	lastBootstrapErrMu sync.Mutex
	lastBootstrapErr   error

	outstanding *outstandingMap
	collections *collections.Cache

	features mcbp.FeatureSet
	errorMap *mcbp.ErrorMap

	// Write path: writeMu guards the pending output buffer; flushMu
	// ensures only one physical write is ever in flight and is always
	// acquired before writeMu, giving a fixed lock order (§4.3.2
	// "two mutexes (output + writing), ordered acquisition").
	writeMu sync.Mutex
	output  []byte
	flushMu sync.Mutex

	stopOnce   sync.Once
	stopped    chan struct{}
	stopReason atomic.Value // string
}

// Dial connects to opts.Address and runs the bootstrap state machine
// (§4.3.1). In normal mode it blocks until the session is ready or
// bootstrap fails; with Options.BackgroundBootstrap it returns
// immediately and retries in the background.
func Dial(ctx context.Context, opts Options) (*Session, error) {
	s := &Session{
		opts:        opts,
		id:          fmt.Sprintf("%s-%d", opts.Address, time.Now().UnixNano()),
		outstanding: newOutstandingMap(),
		collections: collections.New(),
		stopped:     make(chan struct{}),
	}
	s.state.Store(int32(StateResolving))

	if opts.BackgroundBootstrap {
		go s.backgroundBootstrapLoop(ctx)
		return s, nil
	}

	if err := s.connectAndBootstrap(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) backgroundBootstrapLoop(ctx context.Context) {
	for {
		err := s.connectAndBootstrap(ctx)
		if err == nil {
			return
		}
		logger.Warn("kvsession: background bootstrap failed, retrying", "addr", s.opts.Address, "error", err)
		select {
		case <-s.stopped:
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Session) connectAndBootstrap(ctx context.Context) error {
	s.state.Store(int32(StateConnecting))

	bootstrapCtx, cancel := context.WithTimeout(ctx, s.opts.bootstrapTimeout())
	defer cancel()

	conn, err := s.dial(bootstrapCtx)
	if err != nil {
		s.fail(err, "")
		return err
	}
	s.conn = conn

	go s.readLoop()

	if err := s.bootstrap(bootstrapCtx); err != nil {
		s.fail(err, "")
		return err
	}

	s.state.Store(int32(StateReady))
	return nil
}

func (s *Session) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.opts.Address)
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindResolveFailure, "dial failed", err)
	}
	if s.opts.TLSConfig != nil {
		s.state.Store(int32(StateHandshaking))
		tlsConn := tls.Client(conn, s.opts.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, kverrors.Wrap(kverrors.KindHandshakeFailure, "tls handshake failed", err)
		}
		return tlsConn, nil
	}
	return conn, nil
}

// Addr implements topology.Session.
func (s *Session) Addr() string { return s.opts.Address }

// Done implements topology.Session.
func (s *Session) Done() <-chan struct{} { return s.stopped }

// SupportsGCCCP implements topology.Session: bucket-less sessions (or
// any bootstrapped session, since GET_CLUSTER_CONFIG is always valid
// once ready) can serve a GCCCP poll.
func (s *Session) SupportsGCCCP() bool {
	return State(s.state.Load()) == StateReady
}

// State returns the session's current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// LastBootstrapError returns the error from the most recent failed
// bootstrap attempt, if any.
func (s *Session) LastBootstrapError() error {
	s.lastBootstrapErrMu.Lock()
	defer s.lastBootstrapErrMu.Unlock()
	return s.lastBootstrapErr
}

func (s *Session) setBootstrapErr(err error) {
	s.lastBootstrapErrMu.Lock()
	s.lastBootstrapErr = err
	s.lastBootstrapErrMu.Unlock()
}

func (s *Session) fail(err error, reason string) {
	s.state.Store(int32(StateBootstrapFailed))
	s.setBootstrapErr(err)
	if reason == "" {
		reason = "bootstrap_failed"
	}
	s.Stop(reason)
}

// send encodes and writes pkt, registering handler under a freshly
// allocated opaque (§4.6 step 4 "assign opaque, encode, subscribe to the
// opaque, write_and_flush").
func (s *Session) send(pkt *mcbp.Packet, handler Handler) (uint32, error) {
	opaque := s.outstanding.NextOpaque()
	pkt.Header.Opaque = opaque

	buf, err := mcbp.Encode(pkt)
	if err != nil {
		return opaque, fmt.Errorf("kvsession: encode failed: %w", err)
	}

	if handler != nil {
		s.outstanding.Register(opaque, pkt.Header.Opcode, handler)
	}

	if err := s.write(buf); err != nil {
		if handler != nil {
			s.outstanding.Take(opaque)
		}
		return opaque, err
	}
	return opaque, nil
}

func (s *Session) write(buf []byte) error {
	s.writeMu.Lock()
	s.output = append(s.output, buf...)
	s.writeMu.Unlock()
	return s.flush()
}

// flush swaps the pending output buffer under both mutexes (in fixed
// order: flushMu then writeMu) and issues exactly one write (§4.3.2).
func (s *Session) flush() error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.writeMu.Lock()
	toWrite := s.output
	s.output = nil
	s.writeMu.Unlock()

	if len(toWrite) == 0 {
		return nil
	}
	if s.conn == nil {
		return fmt.Errorf("kvsession: write before connection established")
	}
	_, err := s.conn.Write(toWrite)
	if err != nil {
		return kverrors.Wrap(kverrors.KindProtocolError, "socket write failed", err)
	}
	return nil
}

func (s *Session) readLoop() {
	bufSize := s.opts.readBufferSize()
	tmp := bufpool.Get(bufSize)
	defer bufpool.Put(tmp)

	var pending []byte
	for {
		n, err := s.conn.Read(tmp)
		if n > 0 {
			pending = append(pending, tmp[:n]...)
			pending = s.drain(pending)
			if pending == nil && err == nil {
				// drain detected desync and already stopped the session.
				return
			}
		}
		if err != nil {
			s.Stop(string(retry.ReasonSocketClosedWhileInFlight))
			return
		}
	}
}

// drain decodes as many complete frames as pending holds, dispatching
// each, and returns the undecoded remainder. A nil return with no error
// from the caller's perspective signals a framing desync already handled
// by Stop.
func (s *Session) drain(pending []byte) []byte {
	for {
		if len(pending) >= mcbp.HeaderSize {
			if h := mcbp.ParseHeader(pending); h.Magic.IsValid() && h.BodyLen > s.opts.maxBodySize() {
				logger.Error("kvsession: response body exceeds configured limit, closing session",
					"addr", s.opts.Address, "body_len", h.BodyLen, "max_body_size", s.opts.maxBodySize())
				s.Stop("protocol_error")
				return nil
			}
		}

		res := mcbp.Decode(pending)
		switch res.Status {
		case mcbp.DecodeNeedData:
			return pending
		case mcbp.DecodeMalformed:
			logger.Error("kvsession: framing desync, closing session", "addr", s.opts.Address)
			s.Stop("protocol_error")
			return nil
		default:
			pending = pending[res.Consumed:]
			s.dispatch(res.Packet)
		}
	}
}

func (s *Session) dispatch(pkt mcbp.Packet) {
	if pkt.Header.Magic.IsServer() {
		s.handleServerPush(pkt)
		return
	}

	req, ok := s.outstanding.Take(pkt.Header.Opaque)
	if !ok {
		logger.Debug("kvsession: dropped response for unknown or cancelled opaque",
			"opaque", pkt.Header.Opaque, "opcode", pkt.Header.Opcode.String())
		return
	}
	if req.cancelled.Load() {
		return
	}
	req.handler(pkt, nil)
}

func (s *Session) handleServerPush(pkt mcbp.Packet) {
	if pkt.Header.Opcode != mcbp.OpClusterMapChangeNotification {
		logger.Debug("kvsession: dropped unrecognised server push", "opcode", pkt.Header.Opcode.String())
		return
	}
	if s.opts.OnConfig == nil {
		return
	}
	cfg, err := topology.ParseConfig(pkt.Value, s.opts.BootstrapHost)
	if err != nil {
		logger.Warn("kvsession: malformed cluster-map push", "error", err)
		return
	}
	s.opts.OnConfig(cfg)
}

// Ping issues a NOOP on an already-bootstrapped session (§4.3.6).
func (s *Session) Ping(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if s.State() != StateReady {
		if err := s.LastBootstrapError(); err != nil {
			return 0, err
		}
		return 0, kverrors.New(kverrors.KindConfigurationNotAvailable, "session not bootstrapped")
	}

	type result struct {
		dur time.Duration
		err error
	}
	resCh := make(chan result, 1)
	start := time.Now()

	pkt := &mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpNoop}}
	opaque, err := s.send(pkt, func(resp mcbp.Packet, err error) {
		if err != nil {
			resCh <- result{err: err}
			return
		}
		if !resp.Header.Status().Success() {
			resCh <- result{err: kverrors.New(kverrors.FromStatus(resp.Header.Status()), "noop failed")}
			return
		}
		resCh <- result{dur: time.Since(start)}
	})
	if err != nil {
		return 0, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-resCh:
		return res.dur, res.err
	case <-timer.C:
		s.outstanding.Cancel(opaque)
		return 0, kverrors.New(kverrors.KindUnambiguousTimeout, "ping timed out")
	case <-ctx.Done():
		s.outstanding.Cancel(opaque)
		return 0, kverrors.New(kverrors.KindRequestCancelled, "ping cancelled")
	case <-s.stopped:
		return 0, kverrors.New(kverrors.KindClusterClosed, "session stopped")
	}
}

// Send exposes the opaque-correlated send path to the command runtime
// (C7), which owns classification and retry decisions.
func (s *Session) Send(pkt *mcbp.Packet, handler Handler) (uint32, error) {
	return s.send(pkt, handler)
}

// CancelOutstanding removes opaque from the outstanding map (§4.6 step 6
// "attempt to cancel in the session (remove opaque)"). Returns true if it
// was present (not yet answered).
func (s *Session) CancelOutstanding(opaque uint32) bool {
	req, ok := s.outstanding.Cancel(opaque)
	if ok {
		req.cancelled.Store(true)
	}
	return ok
}

// Collections returns the session's collection-ID cache.
func (s *Session) Collections() *collections.Cache { return s.collections }

// Features returns the negotiated HELLO feature set.
func (s *Session) Features() mcbp.FeatureSet { return s.features }

// ErrorMap returns the session's loaded error map, or nil if XERROR
// wasn't negotiated.
func (s *Session) ErrorMap() *mcbp.ErrorMap { return s.errorMap }

// Stop closes the session idempotently (§4.3.5): cancels timers implicitly
// by closing stopped, closes the socket, fails every outstanding handler
// with request_cancelled, and invokes OnStop.
func (s *Session) Stop(reason string) {
	s.stopOnce.Do(func() {
		s.stopReason.Store(reason)
		s.state.Store(int32(StateDisconnecting))
		close(s.stopped)

		if s.conn != nil {
			s.conn.Close()
		}

		for _, req := range s.outstanding.DrainAll() {
			req.cancelled.Store(true)
			req.handler(mcbp.Packet{}, kverrors.New(kverrors.KindRequestCancelled, reason))
		}

		s.state.Store(int32(StateDisconnected))
		if s.opts.OnStop != nil {
			s.opts.OnStop(reason)
		}
	})
}

// StartSpan begins a tracer span tagged for this session, per §6.5.
func (s *Session) StartSpan(ctx context.Context, opcode mcbp.Opcode) (context.Context, func()) {
	ctx, span := telemetry.StartSessionSpan(ctx, "kv."+opcode.String(), s.id,
		telemetry.RemoteSocket(s.opts.Address))
	return ctx, func() { span.End() }
}
