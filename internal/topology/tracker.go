package topology

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ryanfowler/gokv/internal/logger"
)

// Options configures a Tracker.
type Options struct {
	Network      string // "default", "external", or "auto"
	TLS          bool
	PollInterval time.Duration
	PollFloor    time.Duration
	PollTimeout  time.Duration // round-trip budget for a single GCCCP poll; defaults to 5s
}

func (o Options) pollEvery() time.Duration {
	if o.PollInterval < o.PollFloor {
		return o.PollFloor
	}
	return o.PollInterval
}

func (o Options) pollTimeout() time.Duration {
	if o.PollTimeout <= 0 {
		return 5 * time.Second
	}
	return o.PollTimeout
}

// Tracker owns the current cluster configuration and the set of
// bootstrapped KV sessions it implies (C6). It never acquires a
// session's lock while holding its own (§5 deadlock avoidance).
type Tracker struct {
	factory Factory
	opts    Options

	mu            sync.Mutex
	current       *Config
	sessions      map[string]Session
	bootstrapping map[string]bool // addr keys currently mid-dial via Bootstrap
	network       string          // resolved network view, once chosen

	subMu       sync.Mutex
	subscribers []chan *Config

	gcccpIdx atomic.Uint64
	closed   atomic.Bool
	stopCh   chan struct{}

	readyCh   chan struct{}
	readyOnce sync.Once

	restartMu      sync.Mutex
	restartPending bool
}

// NewTracker constructs a Tracker that dials sessions via factory.
func NewTracker(factory Factory, opts Options) *Tracker {
	return &Tracker{
		factory:  factory,
		opts:     opts,
		sessions: make(map[string]Session),
		network:  opts.Network,
		stopCh:   make(chan struct{}),
		readyCh:  make(chan struct{}),
	}
}

// Bootstrap dials seed addresses in order until one succeeds, applies
// its configuration, and starts the GCCCP polling loop (§4.2
// "Bootstrap: Attempts one of the configured seed addresses").
func (t *Tracker) Bootstrap(ctx context.Context, seeds []string) error {
	var lastErr error
	for _, addr := range seeds {
		t.mu.Lock()
		if t.bootstrapping == nil {
			t.bootstrapping = make(map[string]bool)
		}
		t.bootstrapping[addr] = true
		t.mu.Unlock()

		sess, err := t.factory(ctx, addr, Node{Hostname: addr})

		t.mu.Lock()
		delete(t.bootstrapping, addr)
		t.mu.Unlock()

		if err != nil {
			lastErr = err
			logger.Warn("topology: seed bootstrap failed", "addr", addr, "error", err)
			continue
		}

		t.mu.Lock()
		t.sessions[addr] = sess
		t.mu.Unlock()

		t.readyOnce.Do(func() { close(t.readyCh) })
		go t.pollLoop()
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("topology: no seed addresses configured")
	}
	return fmt.Errorf("topology: bootstrap exhausted all seeds: %w", lastErr)
}

// Current returns the latest applied configuration, or nil before the
// first is accepted.
func (t *Tracker) Current() *Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Ready returns a channel that is closed the first time the tracker
// successfully bootstraps against the cluster (supplemental feature #6:
// a narrow "reachable for the first time" signal for callers that only
// care about initial readiness, distinct from Subscribe's per-update
// fan-out of every subsequent configuration).
func (t *Tracker) Ready() <-chan struct{} {
	return t.readyCh
}

// Subscribe registers a channel that receives every accepted
// configuration in (epoch, rev) order (§8 "Config monotonicity"). The
// channel is buffered; a slow subscriber drops updates rather than
// blocking the tracker (posted-task discipline, §5).
func (t *Tracker) Subscribe() <-chan *Config {
	ch := make(chan *Config, 8)
	t.subMu.Lock()
	t.subscribers = append(t.subscribers, ch)
	t.subMu.Unlock()
	return ch
}

// Apply accepts a new configuration if it supersedes the current one
// (§4.2) and reconciles the session set accordingly. It is safe to call
// concurrently from any session's read loop or from the GCCCP poller.
func (t *Tracker) Apply(ctx context.Context, cfg *Config) error {
	if t.closed.Load() {
		return nil
	}
	if cfg.VbucketMap != nil && len(cfg.VbucketMap) == 0 {
		// An explicitly-empty (non-nil) vbucket map is the defensive
		// drop case (§4.2); a nil map just means "not a bucket config".
		logger.Warn("topology: dropping configuration with empty vbucket map")
		return nil
	}

	t.mu.Lock()
	if !cfg.NewerThan(t.current) {
		t.mu.Unlock()
		return nil
	}
	current := t.sessions
	pending := make(map[string]bool, len(t.bootstrapping))
	for addr := range t.bootstrapping {
		pending[addr] = true
	}
	t.mu.Unlock()

	result, err := Reconcile(ctx, current, cfg, t.network, t.opts.TLS, t.factory, pending)
	if err != nil {
		return fmt.Errorf("topology: reconciliation failed: %w", err)
	}

	t.mu.Lock()
	t.current = cfg
	t.sessions = result.Sessions
	t.mu.Unlock()

	// Removed sessions are stopped outside the lock (§4.2).
	for _, sess := range result.Removed {
		sess.Stop("node removed from configuration")
	}

	t.publish(cfg)
	return nil
}

func (t *Tracker) publish(cfg *Config) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for _, ch := range t.subscribers {
		select {
		case ch <- cfg:
		default:
			logger.Warn("topology: subscriber channel full, dropping configuration update")
		}
	}
}

// SessionForNode returns the live session bootstrapped for cfg.Nodes[nodeIdx],
// if one is currently held. Used by the operation dispatcher (C8) to turn
// a vbucket-map node index into a session to send on.
func (t *Tracker) SessionForNode(cfg *Config, nodeIdx int) (Session, bool) {
	if nodeIdx < 0 || nodeIdx >= len(cfg.Nodes) {
		return nil, false
	}
	key := nodeKey(cfg.Nodes[nodeIdx])

	t.mu.Lock()
	defer t.mu.Unlock()
	sess, ok := t.sessions[key]
	return sess, ok
}

// NextGCCCPSession round-robins over sessions capable of serving a
// GET_CLUSTER_CONFIG poll (§4.2 "round-robin over currently
// bootstrapped, GCCCP-capable sessions"). Returns false if none qualify.
func (t *Tracker) NextGCCCPSession() (Session, bool) {
	t.mu.Lock()
	var candidates []Session
	for _, s := range t.sessions {
		if s.SupportsGCCCP() {
			candidates = append(candidates, s)
		}
	}
	t.mu.Unlock()

	if len(candidates) == 0 {
		return nil, false
	}
	idx := t.gcccpIdx.Add(1) % uint64(len(candidates))
	return candidates[idx], true
}

func (t *Tracker) pollLoop() {
	ticker := time.NewTicker(t.opts.pollEvery())
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			sess, ok := t.NextGCCCPSession()
			if !ok {
				continue // §4.2 "skip this round and wait for the next timer tick"
			}

			ctx, cancel := context.WithTimeout(context.Background(), t.opts.pollTimeout())
			cfg, err := sess.PollClusterConfig(ctx)
			cancel()
			if err != nil {
				logger.Warn("topology: GCCCP poll failed", "addr", sess.Addr(), "error", err)
				continue
			}
			if err := t.Apply(context.Background(), cfg); err != nil {
				logger.Warn("topology: GCCCP poll reconciliation failed", "addr", sess.Addr(), "error", err)
			}
		}
	}
}

// OnSessionStopped removes a session that reported itself stopped and
// schedules a single in-flight restart pass (§4.2 "Session loss").
func (t *Tracker) OnSessionStopped(addr string) {
	t.mu.Lock()
	delete(t.sessions, addr)
	cfg := t.current
	t.mu.Unlock()

	if cfg == nil || t.closed.Load() {
		return
	}

	t.restartMu.Lock()
	if t.restartPending {
		t.restartMu.Unlock()
		return
	}
	t.restartPending = true
	t.restartMu.Unlock()

	go func() {
		defer func() {
			t.restartMu.Lock()
			t.restartPending = false
			t.restartMu.Unlock()
		}()
		if err := t.Apply(context.Background(), cfg); err != nil {
			logger.Warn("topology: restart reconciliation failed", "error", err)
		}
	}()
}

// Close stops the tracker idempotently: cancels the poll loop, clears
// subscribers, and stops every session with do_not_retry (§4.2 "Close").
func (t *Tracker) Close() {
	if !t.closed.CompareAndSwap(false, true) {
		return
	}
	close(t.stopCh)

	t.mu.Lock()
	sessions := t.sessions
	t.sessions = nil
	t.mu.Unlock()

	t.subMu.Lock()
	for _, ch := range t.subscribers {
		close(ch)
	}
	t.subscribers = nil
	t.subMu.Unlock()

	for _, sess := range sessions {
		sess.Stop("do_not_retry")
	}
}
