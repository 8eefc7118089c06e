package topology

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerReadyClosesOnceAfterBootstrap(t *testing.T) {
	var dialed []string
	tr := NewTracker(fakeFactory(&dialed), Options{PollInterval: time.Hour, PollFloor: time.Hour})

	select {
	case <-tr.Ready():
		t.Fatal("ready closed before bootstrap")
	default:
	}

	require.NoError(t, tr.Bootstrap(context.Background(), []string{"seed.example.com:11210"}))

	select {
	case <-tr.Ready():
	default:
		t.Fatal("ready not closed after bootstrap")
	}
}

func TestTrackerBootstrapAndApply(t *testing.T) {
	var dialed []string
	tr := NewTracker(fakeFactory(&dialed), Options{Network: "default", PollInterval: time.Hour, PollFloor: time.Hour})

	require.NoError(t, tr.Bootstrap(context.Background(), []string{"seed.example.com:11210"}))
	assert.Contains(t, dialed, "seed.example.com:11210")

	sub := tr.Subscribe()

	cfg := &Config{
		Epoch: 1, Rev: 1,
		Nodes:      []Node{{Hostname: "node1.example.com", KVPort: 11210}},
		VbucketMap: VbucketMap{{0}},
	}
	require.NoError(t, tr.Apply(context.Background(), cfg))

	select {
	case got := <-sub:
		assert.Same(t, cfg, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber update")
	}
	assert.Same(t, cfg, tr.Current())
}

func TestTrackerIgnoresOlderConfig(t *testing.T) {
	var dialed []string
	tr := NewTracker(fakeFactory(&dialed), Options{PollInterval: time.Hour, PollFloor: time.Hour})

	newer := &Config{Epoch: 2, Rev: 1, VbucketMap: VbucketMap{{0}}}
	older := &Config{Epoch: 1, Rev: 1, VbucketMap: VbucketMap{{0}}}

	require.NoError(t, tr.Apply(context.Background(), newer))
	require.NoError(t, tr.Apply(context.Background(), older))

	assert.Same(t, newer, tr.Current())
}

func TestTrackerDropsEmptyVbucketMap(t *testing.T) {
	var dialed []string
	tr := NewTracker(fakeFactory(&dialed), Options{PollInterval: time.Hour, PollFloor: time.Hour})

	cfg := &Config{Epoch: 1, Rev: 1, VbucketMap: VbucketMap{}}
	require.NoError(t, tr.Apply(context.Background(), cfg))
	assert.Nil(t, tr.Current())
}

// TestTrackerBootstrapSynchronousConfigDoesNotRedialSeed reproduces a
// seed session whose bootstrap synchronously reports a configuration
// naming the seed itself (as a real KV session's GET_CLUSTER_CONFIG
// step does) before Bootstrap has registered it in t.sessions. The
// seed must not be dialed a second time by the Apply triggered from
// inside its own factory call.
func TestTrackerBootstrapSynchronousConfigDoesNotRedialSeed(t *testing.T) {
	var dialed []string
	var tr *Tracker
	const seed = "seed.example.com:11210"

	factory := func(ctx context.Context, addr string, node Node) (Session, error) {
		dialed = append(dialed, addr)
		sess := newFakeSession(addr)
		cfg := &Config{
			Epoch:      1,
			Rev:        1,
			Nodes:      []Node{{Hostname: "seed.example.com", KVPort: 11210}},
			VbucketMap: VbucketMap{{0}},
		}
		require.NoError(t, tr.Apply(context.Background(), cfg))
		return sess, nil
	}
	tr = NewTracker(factory, Options{Network: "default", PollInterval: time.Hour, PollFloor: time.Hour})

	require.NoError(t, tr.Bootstrap(context.Background(), []string{seed}))

	assert.Equal(t, []string{seed}, dialed)
	_, ok := tr.SessionForNode(tr.Current(), 0)
	assert.True(t, ok)
}

func TestTrackerPollLoopAppliesPolledConfig(t *testing.T) {
	polled := &Config{
		Epoch:      1,
		Rev:        1,
		Nodes:      []Node{{Hostname: "node1.example.com", KVPort: 11210}},
		VbucketMap: VbucketMap{{0}},
	}

	factory := func(ctx context.Context, addr string, node Node) (Session, error) {
		sess := newFakeSession(addr)
		sess.pollConfig = polled
		return sess, nil
	}
	tr := NewTracker(factory, Options{PollInterval: 10 * time.Millisecond, PollFloor: 10 * time.Millisecond})

	sub := tr.Subscribe()
	require.NoError(t, tr.Bootstrap(context.Background(), []string{"seed.example.com:11210"}))

	select {
	case got := <-sub:
		assert.Same(t, polled, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for GCCCP poll to apply a configuration")
	}
	assert.Same(t, polled, tr.Current())
}

func TestTrackerCloseStopsSessionsAndIsIdempotent(t *testing.T) {
	var dialed []string
	tr := NewTracker(fakeFactory(&dialed), Options{PollInterval: time.Hour, PollFloor: time.Hour})

	require.NoError(t, tr.Bootstrap(context.Background(), []string{"seed.example.com:11210"}))

	tr.Close()
	tr.Close() // idempotent, must not panic
}
