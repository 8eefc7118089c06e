package mcbp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameInfoRoundTrip(t *testing.T) {
	fis := []FrameInfo{
		{ID: FrameInfoBarrier, Payload: nil},
		{ID: FrameInfoDurabilityReq, Payload: EncodeDurabilityReq(DurabilityMajority, 1500)},
		{ID: FrameInfoImpersonatedUser, Payload: []byte("alice")},
	}

	var buf []byte
	for _, fi := range fis {
		buf = AppendFrameInfo(buf, fi)
	}

	decoded, err := ParseFrameInfos(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, fi := range fis {
		assert.Equal(t, fi.ID, decoded[i].ID)
		assert.Equal(t, fi.Payload, decoded[i].Payload)
	}
}

func TestFrameInfoLargePayloadEscapesLengthNibble(t *testing.T) {
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte(i)
	}
	buf := AppendFrameInfo(nil, FrameInfo{ID: FrameInfoOpenTracingContext, Payload: payload})

	decoded, err := ParseFrameInfos(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, FrameInfoOpenTracingContext, decoded[0].ID)
	assert.Equal(t, payload, decoded[0].Payload)
}

func TestParseFrameInfosTruncated(t *testing.T) {
	_, err := ParseFrameInfos([]byte{0x15}) // says 5-byte payload, none present
	assert.Error(t, err)
}

func TestOrderFrameInfosPutsWireOrderFirst(t *testing.T) {
	fis := []FrameInfo{
		{ID: FrameInfoImpersonatedUser, Payload: []byte("x")},
		{ID: FrameInfoBarrier},
		{ID: FrameInfoDurabilityReq, Payload: []byte{0x01}},
	}
	ordered := orderFrameInfos(fis)
	require.Len(t, ordered, 3)
	assert.Equal(t, FrameInfoBarrier, ordered[0].ID)
	assert.Equal(t, FrameInfoDurabilityReq, ordered[1].ID)
	assert.Equal(t, FrameInfoImpersonatedUser, ordered[2].ID)
}

func TestDecodeServerDuration(t *testing.T) {
	assert.Equal(t, float64(0), DecodeServerDuration(0))
	assert.Greater(t, DecodeServerDuration(1000), float64(0))
}
