package topology

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	addr    string
	stopped chan struct{}
	reason  string
	gcccp   bool

	pollConfig *Config
	pollErr    error
}

func newFakeSession(addr string) *fakeSession {
	return &fakeSession{addr: addr, stopped: make(chan struct{}), gcccp: true}
}

func (f *fakeSession) Addr() string         { return f.addr }
func (f *fakeSession) Done() <-chan struct{} { return f.stopped }
func (f *fakeSession) SupportsGCCCP() bool   { return f.gcccp }

func (f *fakeSession) PollClusterConfig(ctx context.Context) (*Config, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	if f.pollConfig != nil {
		return f.pollConfig, nil
	}
	return &Config{}, nil
}

func (f *fakeSession) Stop(reason string) {
	f.reason = reason
	select {
	case <-f.stopped:
	default:
		close(f.stopped)
	}
}

func fakeFactory(dialed *[]string) Factory {
	return func(ctx context.Context, addr string, node Node) (Session, error) {
		*dialed = append(*dialed, addr)
		return newFakeSession(addr), nil
	}
}

func TestReconcilePreservesUnchangedNodes(t *testing.T) {
	existing := newFakeSession("node1.example.com:11210")
	current := map[string]Session{"node1.example.com:11210": existing}

	cfg := &Config{Nodes: []Node{{Hostname: "node1.example.com", KVPort: 11210}}}

	var dialed []string
	result, err := Reconcile(context.Background(), current, cfg, "default", false, fakeFactory(&dialed), nil)
	require.NoError(t, err)

	assert.Empty(t, dialed)
	assert.Same(t, existing, result.Sessions["node1.example.com:11210"])
	assert.Empty(t, result.Removed)
}

func TestReconcileAddsAndRemovesNodes(t *testing.T) {
	kept := newFakeSession("node1.example.com:11210")
	removed := newFakeSession("node2.example.com:11210")
	current := map[string]Session{
		"node1.example.com:11210": kept,
		"node2.example.com:11210": removed,
	}

	cfg := &Config{Nodes: []Node{
		{Hostname: "node1.example.com", KVPort: 11210},
		{Hostname: "node3.example.com", KVPort: 11210},
	}}

	var dialed []string
	result, err := Reconcile(context.Background(), current, cfg, "default", false, fakeFactory(&dialed), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"node3.example.com:11210"}, dialed)
	assert.Same(t, kept, result.Sessions["node1.example.com:11210"])
	require.Len(t, result.Removed, 1)
	assert.Same(t, removed, result.Removed[0])
	_, stillPresent := result.Sessions["node3.example.com:11210"]
	assert.True(t, stillPresent)
}

func TestReconcileSkipsNodeOnBootstrapFailure(t *testing.T) {
	cfg := &Config{Nodes: []Node{{Hostname: "node1.example.com", KVPort: 11210}}}

	factory := func(ctx context.Context, addr string, node Node) (Session, error) {
		return nil, fmt.Errorf("connection refused")
	}

	result, err := Reconcile(context.Background(), map[string]Session{}, cfg, "default", false, factory, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Sessions)
}
