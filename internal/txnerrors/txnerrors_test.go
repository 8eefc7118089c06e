package txnerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanfowler/gokv/internal/kverrors"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		kind  kverrors.Kind
		want  FailClass
	}{
		{"doc not found", kverrors.KindDocumentNotFound, FailDocNotFound},
		{"doc exists", kverrors.KindDocumentExists, FailDocAlreadyExists},
		{"cas mismatch", kverrors.KindCASMismatch, FailCASMismatch},
		{"temporary failure", kverrors.KindTemporaryFailure, FailTransient},
		{"ambiguous timeout", kverrors.KindAmbiguousTimeout, FailAmbiguous},
		{"path not found", kverrors.KindPathNotFound, FailPathNotFound},
		{"path exists", kverrors.KindPathExists, FailPathAlreadyExists},
		{"locked", kverrors.KindDocumentLocked, FailWriteWriteConflict},
		{"auth failure", kverrors.KindAuthenticationFailure, FailHard},
		{"unrecognised kind", kverrors.KindValueTooDeep, FailOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.kind, false))
		})
	}
}

func TestClassifyExpiredOverridesKind(t *testing.T) {
	assert.Equal(t, FailExpiry, Classify(kverrors.KindDocumentNotFound, true))
}
