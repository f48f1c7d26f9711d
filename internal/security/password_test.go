package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(4)

	digest, err := hasher.Hash("s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotContains(t, digest, "s3cret-pass")
	assert.True(t, strings.HasPrefix(digest, "$2"))

	assert.True(t, hasher.Verify("s3cret-pass", digest))
	assert.False(t, hasher.Verify("wrong-pass", digest))
}

func TestBcryptHasher_SaltedDigestsDiffer(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(4)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(4)

	assert.False(t, hasher.Verify("anything", ""))
	assert.False(t, hasher.Verify("anything", "not-a-bcrypt-digest"))
	assert.False(t, hasher.Verify("anything", "$2a$zz$broken"))
}

func TestNewBcryptHasher_CostOutOfRange(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(99)

	digest, err := hasher.Hash("password")
	require.NoError(t, err)
	assert.True(t, hasher.Verify("password", digest))
}
