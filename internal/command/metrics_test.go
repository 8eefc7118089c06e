package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

type recordedOperation struct {
	opcode   mcbp.Opcode
	duration time.Duration
	err      error
}

type fakeRecorder struct {
	calls []recordedOperation
}

func (f *fakeRecorder) RecordOperation(opcode mcbp.Opcode, duration time.Duration, err error) {
	f.calls = append(f.calls, recordedOperation{opcode, duration, err})
}

func TestRunnerRecordsMetricsOnSuccess(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		return mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpGet, CAS: 1,
				VbucketOrStatus: uint16(mcbp.StatusSuccess)},
		}, nil
	}
	r := newTestRunner(t, sess)
	rec := &fakeRecorder{}
	r.SetMetrics(rec)

	_, err := r.Get(context.Background(), DocumentID{Key: "k1"}, Options{Timeout: time.Second})
	require.NoError(t, err)

	require.Len(t, rec.calls, 1)
	assert.Equal(t, mcbp.OpGet, rec.calls[0].opcode)
	assert.NoError(t, rec.calls[0].err)
}

func TestRunnerRecordsMetricsOnError(t *testing.T) {
	sess := newFakeSession("127.0.0.1:11210")
	sess.respond = func(pkt *mcbp.Packet) (mcbp.Packet, error) {
		return mcbp.Packet{
			Header: mcbp.Header{Magic: mcbp.MagicResponse, Opcode: mcbp.OpGet,
				VbucketOrStatus: uint16(mcbp.StatusKeyNotFound)},
		}, nil
	}
	r := newTestRunner(t, sess)
	rec := &fakeRecorder{}
	r.SetMetrics(rec)

	_, err := r.Get(context.Background(), DocumentID{Key: "k1"}, Options{Timeout: time.Second})
	require.Error(t, err)

	require.Len(t, rec.calls, 1)
	assert.Error(t, rec.calls[0].err)
}
