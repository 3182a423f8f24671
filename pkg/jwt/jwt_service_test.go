package jwt

import (
	"foodgram/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.GenerateTokenUser(42, domain.RoleAdmin)
	require.NoError(t, err)

	id, role, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestUserTokenRejectsForeignSecret(t *testing.T) {
	token, err := NewJWTService("one").GenerateTokenUser(1, domain.RoleUser)
	require.NoError(t, err)

	_, _, err = NewJWTService("two").GetUserIDByToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, _, err = NewJWTService("one").GetUserIDByToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestResetPasswordToken(t *testing.T) {
	svc := NewJWTService("test-secret")
	hash := "$2a$10$abcdefghijklmnopqrstuv"

	token, err := svc.GenerateTokenResetPassword(7, hash, time.Minute)
	require.NoError(t, err)

	id, pwd, err := svc.ValidateTokenResetPassword(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.True(t, svc.MatchesPassword(pwd, hash))
	assert.False(t, svc.MatchesPassword(pwd, hash+"x"))
	assert.NotContains(t, pwd, hash[len(hash)-12:])
	assert.False(t, NewJWTService("other-secret").MatchesPassword(pwd, hash))

	expired, err := svc.GenerateTokenResetPassword(7, hash, -time.Minute)
	require.NoError(t, err)
	_, _, err = svc.ValidateTokenResetPassword(expired)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestUserTokenIsNotAResetToken(t *testing.T) {
	svc := NewJWTService("test-secret")
	token, err := svc.GenerateTokenUser(3, domain.RoleUser)
	require.NoError(t, err)

	_, _, err = svc.ValidateTokenResetPassword(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}
