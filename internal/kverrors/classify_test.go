package kverrors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanfowler/gokv/internal/protocol/mcbp"
)

func TestFromStatusKnownCodes(t *testing.T) {
	assert.Equal(t, KindDocumentNotFound, FromStatus(mcbp.StatusKeyNotFound))
	assert.Equal(t, KindCollectionNotFound, FromStatus(mcbp.StatusUnknownCollection))
	assert.Equal(t, KindDurableWriteInProgress, FromStatus(mcbp.StatusSyncWriteInProgress))
}

func TestFromStatusUnknownIsProtocolError(t *testing.T) {
	assert.Equal(t, KindProtocolError, FromStatus(mcbp.Status(0x7777)))
	assert.True(t, KindProtocolError.Fatal())
}

func TestFromErrorMapAttributesPrefersAuth(t *testing.T) {
	kind := FromErrorMapAttributes(mcbp.StatusTemporaryFailure, map[mcbp.ErrorMapAttribute]bool{
		mcbp.AttrAuth: true,
		mcbp.AttrTemp: true,
	})
	assert.Equal(t, KindAuthenticationFailure, kind)
}

func TestFromErrorMapAttributesFallsBackToStatus(t *testing.T) {
	kind := FromErrorMapAttributes(mcbp.StatusKeyNotFound, map[mcbp.ErrorMapAttribute]bool{
		mcbp.AttrItemOnly: true,
	})
	assert.Equal(t, KindDocumentNotFound, kind)
}
