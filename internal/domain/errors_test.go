package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_KindMatching(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("resolve role: %w", E(KindStoreError, "security.resolve", cause))

	assert.Equal(t, KindStoreError, KindOf(err))
	assert.True(t, IsKind(err, KindStoreError))
	assert.False(t, IsKind(err, KindProfileNotFound))
	assert.ErrorIs(t, err, &Error{Kind: KindStoreError})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{E(KindSecretMissing, "secrets.get", errors.New("x")), "secrets.get: secret_missing: x"},
		{E(KindSecretsNotInitialized, "secrets.get", nil), "secrets.get: secrets_not_initialized"},
		{E(KindForbidden, "", errors.New("role free")), "forbidden: role free"},
		{E(KindMissingToken, "", nil), "missing_token"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
	assert.Equal(t, "kind(99)", Kind(99).String())
}
