package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/topology"
)

type fakeSession struct {
	addr string
	done chan struct{}
}

func (f *fakeSession) Addr() string             { return f.addr }
func (f *fakeSession) Stop(reason string)       {}
func (f *fakeSession) Done() <-chan struct{}     { return f.done }
func (f *fakeSession) SupportsGCCCP() bool       { return true }

func TestVbucketIsStableAndBounded(t *testing.T) {
	vb1 := Vbucket([]byte("hello"), 1024)
	vb2 := Vbucket([]byte("hello"), 1024)
	assert.Equal(t, vb1, vb2)
	assert.Less(t, vb1, uint16(1024))
}

func TestSelectResolvesConfiguredOwner(t *testing.T) {
	factory := func(ctx context.Context, addr string, node topology.Node) (topology.Session, error) {
		return &fakeSession{addr: addr, done: make(chan struct{})}, nil
	}
	tracker := topology.NewTracker(factory, topology.Options{})

	ctx := context.Background()
	require.NoError(t, tracker.Bootstrap(ctx, []string{"127.0.0.1:11210"}))

	cfg := &topology.Config{
		Rev: 1,
		Nodes: []topology.Node{
			{Hostname: "127.0.0.1", KVPort: 11210},
		},
		VbucketMap: [][]int{{0}},
	}
	require.NoError(t, tracker.Apply(ctx, cfg))

	d := New(tracker)
	target, err := d.Select(ctx, []byte("some-key"), 0)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:11210", target.Session.Addr())
}

func TestSelectTimesOutWithoutConfig(t *testing.T) {
	factory := func(ctx context.Context, addr string, node topology.Node) (topology.Session, error) {
		return &fakeSession{addr: addr, done: make(chan struct{})}, nil
	}
	tracker := topology.NewTracker(factory, topology.Options{})
	d := New(tracker)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.Select(ctx, []byte("key"), 0)
	require.Error(t, err)
	assert.Equal(t, kverrors.KindRequestCancelled, kverrors.KindOf(err))
}
