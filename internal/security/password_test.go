package security_test

import (
	"testing"

	"github.com/geocoder89/eventrest/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPasswordCost("c940429kk", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "c940429kk", hash)
	assert.NoError(t, security.CheckPassword(hash, "c940429kk"))
	assert.ErrorIs(t, security.CheckPassword(hash, "wrong"), security.ErrPasswordMismatch)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	err := security.CheckPassword("not-a-bcrypt-hash", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, security.ErrPasswordMismatch)
}
