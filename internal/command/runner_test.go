package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanfowler/gokv/internal/collections"
	"github.com/ryanfowler/gokv/internal/dispatch"
	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
	"github.com/ryanfowler/gokv/internal/topology"
)

// fakeSession implements both topology.Session (so it can flow through
// the dispatcher) and command.Session (so the Runner's type assertion
// succeeds), letting tests drive the command runtime without a real
// socket.
type fakeSession struct {
	addr        string
	done        chan struct{}
	collections *collections.Cache
	features    mcbp.FeatureSet
	errorMap    *mcbp.ErrorMap

	respond func(pkt *mcbp.Packet) (mcbp.Packet, error)
}

func newFakeSession(addr string) *fakeSession {
	return &fakeSession{
		addr:        addr,
		done:        make(chan struct{}),
		collections: collections.New(),
		features:    mcbp.NewFeatureSet(mcbp.FeatureCollections, mcbp.FeatureXERROR),
	}
}

func (f *fakeSession) Addr() string          { return f.addr }
func (f *fakeSession) Stop(string)           {}
func (f *fakeSession) Done() <-chan struct{} { return f.done }
func (f *fakeSession) SupportsGCCCP() bool   { return true }

func (f *fakeSession) PollClusterConfig(ctx context.Context) (*topology.Config, error) {
	return &topology.Config{}, nil
}

func (f *fakeSession) Send(pkt *mcbp.Packet, handler Handler) (uint32, error) {
	resp, err := f.respond(pkt)
	handler(resp, err)
	return 1, nil
}
func (f *fakeSession) CancelOutstanding(uint32) bool { return false }
func (f *fakeSession) Collections() *collections.Cache { return f.collections }
func (f *fakeSession) Features() mcbp.FeatureSet       { return f.features }
func (f *fakeSession) ErrorMap() *mcbp.ErrorMap        { return f.errorMap }
func (f *fakeSession) StartSpan(ctx context.Context, opcode mcbp.Opcode) (context.Context, func()) {
	return ctx, func() {}
}

func newTestRunner(t *testing.T, sess *fakeSession) *Runner {
	factory := func(ctx context.Context, addr string, node topology.Node) (topology.Session, error) {
		return sess, nil
	}
	tracker := topology.NewTracker(factory, topology.Options{})
	require.NoError(t, tracker.Bootstrap(context.Background(), []string{sess.addr}))
	require.NoError(t, tracker.Apply(context.Background(), &topology.Config{
		Rev:        1,
		Nodes:      []topology.Node{{Hostname: "127.0.0.1", KVPort: 11210}},
		VbucketMap: [][]int{{0}},
	}))

	d := dispatch.New(tracker)
	return NewRunner(d, tracker, time.Millisecond, 10*time.Millisecond, 0.1)
}

func TestRunnerGetSuccess(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		require.Equal(t, mcbp.OpGet, pkt.Header.Opcode)
		return mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpGet, CAS: 42,
				VbucketOrStatus: uint16(mcbp.StatusSuccess)},
			Value: []byte("hello"),
		}, nil
	}
	r := newTestRunner(t, sess)

	res, err := r.Get(context.Background(), DocumentID{Key: "k1"}, Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res.CAS)
	assert.Equal(t, []byte("hello"), res.Value)
}

func TestRunnerGetDocumentNotFound(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		return mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpGet,
			VbucketOrStatus: uint16(mcbp.StatusKeyNotFound)}}, nil
	}
	r := newTestRunner(t, sess)

	_, err := r.Get(context.Background(), DocumentID{Key: "missing"}, Options{Timeout: time.Second})
	require.Error(t, err)
	assert.Equal(t, kverrors.KindDocumentNotFound, kverrors.KindOf(err))
}

func TestRunnerRetriesTemporaryFailureThenSucceeds(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	attempts := 0
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		attempts++
		if attempts == 1 {
			return mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpUpsert,
				VbucketOrStatus: uint16(mcbp.StatusTemporaryFailure)}}, nil
		}
		return mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpUpsert, CAS: 7,
			VbucketOrStatus: uint16(mcbp.StatusSuccess)}}, nil
	}
	r := newTestRunner(t, sess)

	res, err := r.Upsert(context.Background(), DocumentID{Key: "k1"}, []byte("v"), mcbp.DatatypeRaw,
		Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, uint64(7), res.CAS)
}

func TestRunnerRetriesOtherNodeAfterSocketClosedWhileInFlightForIdempotentOp(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	attempts := 0
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		attempts++
		if attempts == 1 {
			return mcbp.Packet{}, kverrors.New(kverrors.KindRequestCancelled, "socket_closed_while_in_flight")
		}
		return mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpGet, CAS: 9,
			VbucketOrStatus: uint16(mcbp.StatusSuccess)}, Value: []byte("v")}, nil
	}
	r := newTestRunner(t, sess)

	res, err := r.Get(context.Background(), DocumentID{Key: "k1"}, Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, uint64(9), res.CAS)
}

func TestRunnerDoesNotRetrySocketClosedWhileInFlightForNonIdempotentOp(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	attempts := 0
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		attempts++
		return mcbp.Packet{}, kverrors.New(kverrors.KindRequestCancelled, "socket_closed_while_in_flight")
	}
	r := newTestRunner(t, sess)

	_, err := r.Insert(context.Background(), DocumentID{Key: "k1"}, []byte("v"), mcbp.DatatypeRaw, Options{Timeout: time.Second})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRunnerResolvesNonDefaultCollectionID(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	var sawCollectionLookup bool
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		if pkt.Header.Opcode == mcbp.OpGetCollectionID {
			sawCollectionLookup = true
			extras := make([]byte, 12)
			extras[11] = 5 // collection uid 5
			return mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpGetCollectionID,
				VbucketOrStatus: uint16(mcbp.StatusSuccess)}, Extras: extras}, nil
		}
		collectionUID, _, ok := mcbp.DecodeCollectionKey(pkt.Key)
		require.True(t, ok)
		assert.EqualValues(t, 5, collectionUID)
		return mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpGet,
			VbucketOrStatus: uint16(mcbp.StatusSuccess)}}, nil
	}
	r := newTestRunner(t, sess)

	_, err := r.Get(context.Background(), DocumentID{Scope: "s", Collection: "c", Key: "k1"}, Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.True(t, sawCollectionLookup)
}
