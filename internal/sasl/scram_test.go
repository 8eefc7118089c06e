package sasl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSCRAMRFC5802Example drives the worked SCRAM-SHA-1 example from
// RFC 5802 §5 end to end, overriding the random client nonce with the
// RFC's fixed value so the transcript matches byte for byte.
func TestSCRAMRFC5802Example(t *testing.T) {
	s := NewSCRAM(SHA1, "user", "pencil")
	s.clientNonce = "fyko+d2lbbFgONRv9qkxdawL"

	first, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, "n,,n=user,r=fyko+d2lbbFgONRv9qkxdawL", string(first))

	serverFirst := "r=fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j,s=QSXCR+Q6sek8bf92,i=4096"
	final, done, err := s.Step([]byte(serverFirst))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t,
		"c=biws,r=fyko+d2lbbFgONRv9qkxdawL3rfcNHYJY1ZVvWVs7j,p=v0X8v3Bz2T0CJGbJQyF0X+HI4Ts=",
		string(final))

	serverFinal := "v=rmF9pqV8S7suAoZWja4dJRkFsKQ="
	_, done, err = s.Step([]byte(serverFinal))
	require.NoError(t, err)
	assert.True(t, done)
}

func TestSCRAMRejectsMismatchedServerNonce(t *testing.T) {
	s := NewSCRAM(SHA256, "user", "pencil")
	s.clientNonce = "abc123"
	_, err := s.Start()
	require.NoError(t, err)

	_, _, err = s.Step([]byte("r=totally-different,s=c2FsdA==,i=4096"))
	assert.ErrorContains(t, err, "nonce")
}

func TestSCRAMRejectsServerSignatureMismatch(t *testing.T) {
	s := NewSCRAM(SHA256, "user", "pencil")
	s.clientNonce = "abc123"
	_, err := s.Start()
	require.NoError(t, err)

	_, _, err = s.Step([]byte("r=abc123xyz,s=c2FsdA==,i=4096"))
	require.NoError(t, err)

	_, _, err = s.Step([]byte("v=bm90LXRoZS1yaWdodC1zaWc="))
	assert.ErrorContains(t, err, "signature mismatch")
}

func TestSCRAMReportsServerError(t *testing.T) {
	s := NewSCRAM(SHA512, "user", "pencil")
	s.clientNonce = "abc123"
	_, _ = s.Start()
	_, _, err := s.Step([]byte("r=abc123xyz,s=c2FsdA==,i=4096"))
	require.NoError(t, err)

	_, _, err = s.Step([]byte("e=invalid-proof"))
	assert.ErrorContains(t, err, "invalid-proof")
}

func TestSCRAMNameByVariant(t *testing.T) {
	assert.Equal(t, "SCRAM-SHA1", NewSCRAM(SHA1, "u", "p").Name())
	assert.Equal(t, "SCRAM-SHA256", NewSCRAM(SHA256, "u", "p").Name())
	assert.Equal(t, "SCRAM-SHA512", NewSCRAM(SHA512, "u", "p").Name())
}

func TestEscapeSaslName(t *testing.T) {
	assert.Equal(t, "a=3Db=2Cc", escapeSaslName("a=b,c"))
}

func TestRandomNonceIsSingleLineAndNonEmpty(t *testing.T) {
	n := randomNonce()
	assert.NotEmpty(t, n)
	assert.False(t, strings.ContainsAny(n, "\n\r"))
}
