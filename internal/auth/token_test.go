package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/adminportal/internal/rbac"
	"github.com/noah-isme/adminportal/internal/users"
)

func testUser() users.SafeUser {
	return users.SafeUser{ID: "user_abc12345", Username: "alice", Role: rbac.RoleAdmin, Status: rbac.StatusActive}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("s3cret", "adminportal", time.Hour, 24*time.Hour)
	pair, err := m.Issue(testUser())
	require.NoError(t, err)

	id, err := m.Verify(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user_abc12345", id)

	claims, err := m.Parse(pair.AccessToken, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, claims.Role)
	assert.Equal(t, "alice", claims.Username)

	claims, err = m.Parse(pair.RefreshToken, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user_abc12345", claims.Subject)
	assert.Empty(t, claims.Role)
}

func TestVerifyRejectsRefreshTokens(t *testing.T) {
	m := NewTokenManager("s3cret", "", time.Hour, time.Hour)
	pair, err := m.Issue(testUser())
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = m.Parse(pair.AccessToken, TokenRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := NewTokenManager("s3cret", "adminportal", time.Hour, time.Hour)
	other := NewTokenManager("different", "adminportal", time.Hour, time.Hour)
	foreign, err := other.Access(testUser())
	require.NoError(t, err)

	_, err = m.Verify(context.Background(), foreign)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.Verify(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	wrongIssuer := NewTokenManager("s3cret", "someone-else", time.Hour, time.Hour)
	token, err := wrongIssuer.Access(testUser())
	require.NoError(t, err)
	_, err = m.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Type: TokenAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: "user_abc12345"}})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	m := NewTokenManager("s3cret", "", time.Minute, time.Minute)
	issued := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issued }
	token, err := m.Access(testUser())
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
