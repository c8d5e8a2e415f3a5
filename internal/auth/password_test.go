package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", digest)
	assert.True(t, strings.HasPrefix(digest, "$2a$"))

	ok, err := hasher.Verify("secret1", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Verify("secret2", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = hasher.Verify("", digest)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_SaltedDigests(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-password")
	require.NoError(t, err)
	second, err := hasher.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	for _, digest := range []string{first, second} {
		ok, err := hasher.Verify("same-password", digest)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestBcryptHasher_Cost(t *testing.T) {
	t.Parallel()

	digest, err := NewBcryptHasher(6).Hash("secret1")
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, 6, cost)

	// out of range falls back to the default work factor
	assert.Equal(t, DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	ok, err := hasher.Verify("secret1", "not-a-bcrypt-digest")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBcryptHasher_TooLong(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = hasher.Hash(strings.Repeat("x", MaxPasswordBytes))
	assert.NoError(t, err)
}
