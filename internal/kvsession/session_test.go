package kvsession

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanfowler/gokv/internal/kverrors"
	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

func newTestSession(t *testing.T) (*Session, net.Conn) {
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close(); serverConn.Close() })

	s := &Session{
		opts:        Options{Address: "test"},
		outstanding: newOutstandingMap(),
		stopped:     make(chan struct{}),
	}
	s.conn = clientConn
	go s.readLoop()
	return s, serverConn
}

func TestSendDispatchesMatchingResponse(t *testing.T) {
	s, serverConn := newTestSession(t)

	done := make(chan mcbp.Packet, 1)
	pkt := &mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpNoop}}
	opaque, err := s.send(pkt, func(resp mcbp.Packet, err error) {
		require.NoError(t, err)
		done <- resp
	})
	require.NoError(t, err)

	buf := make([]byte, 256)
	n, err := serverConn.Read(buf)
	require.NoError(t, err)
	res := mcbp.Decode(buf[:n])
	require.Equal(t, mcbp.DecodeOK, res.Status)
	assert.Equal(t, opaque, res.Packet.Header.Opaque)
	assert.Equal(t, mcbp.OpNoop, res.Packet.Header.Opcode)

	resp := mcbp.Packet{Header: mcbp.Header{
		Magic: mcbp.MagicResponse, Opcode: mcbp.OpNoop, Opaque: opaque,
	}}
	out, err := mcbp.Encode(&resp)
	require.NoError(t, err)
	_, err = serverConn.Write(out)
	require.NoError(t, err)

	select {
	case got := <-done:
		assert.Equal(t, opaque, got.Header.Opaque)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked")
	}
}

func TestStopDrainsOutstandingHandlersWithCancellation(t *testing.T) {
	s, _ := newTestSession(t)

	done := make(chan error, 1)
	pkt := &mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpNoop}}
	_, err := s.send(pkt, func(resp mcbp.Packet, err error) { done <- err })
	require.NoError(t, err)

	s.Stop("test_stop")

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, kverrors.KindRequestCancelled, kverrors.KindOf(err))
	case <-time.After(2 * time.Second):
		t.Fatal("handler never invoked on stop")
	}

	assert.Equal(t, 0, s.outstanding.Len())
	select {
	case <-s.Done():
	default:
		t.Fatal("stopped channel not closed")
	}
}

func TestCancelOutstandingPreventsLateDispatch(t *testing.T) {
	s, serverConn := newTestSession(t)

	called := make(chan struct{}, 1)
	pkt := &mcbp.Packet{Header: mcbp.Header{Magic: mcbp.MagicRequest, Opcode: mcbp.OpNoop}}
	opaque, err := s.send(pkt, func(resp mcbp.Packet, err error) { called <- struct{}{} })
	require.NoError(t, err)

	buf := make([]byte, 256)
	_, err = serverConn.Read(buf)
	require.NoError(t, err)

	ok := s.CancelOutstanding(opaque)
	assert.True(t, ok)

	resp := mcbp.Packet{Header: mcbp.Header{
		Magic: mcbp.MagicResponse, Opcode: mcbp.OpNoop, Opaque: opaque,
	}}
	out, err := mcbp.Encode(&resp)
	require.NoError(t, err)
	_, err = serverConn.Write(out)
	require.NoError(t, err)

	select {
	case <-called:
		t.Fatal("handler invoked after cancellation")
	case <-time.After(200 * time.Millisecond):
	}
}
