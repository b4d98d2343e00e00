package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dossard/pkg/domain-errors"
)

func TestGenerateHashVerifyRoundTrip(t *testing.T) {
	token, err := Generate()
	require.NoError(t, err)
	require.NotEmpty(t, token)

	hash, err := Hash(token)
	require.NoError(t, err)
	assert.NotEqual(t, token, hash)

	assert.NoError(t, Verify(token, hash))

	err = Verify("wrong-token", hash)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHash_EmptyTokenRejected(t *testing.T) {
	_, err := Hash("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestGenerate_TokensAreUnique(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
