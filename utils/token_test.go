package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return &TokenManager{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := newTestTokenManager()

	tok, err := m.Issue("user-123", TokenAccess)
	require.NoError(t, err)

	claims, err := m.Verify(tok, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, string(TokenAccess), claims.TokenType)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestTokenManager_KindConfusionRejected(t *testing.T) {
	m := newTestTokenManager()

	access, err := m.Issue("user-123", TokenAccess)
	require.NoError(t, err)
	refresh, err := m.Issue("user-123", TokenRefresh)
	require.NoError(t, err)

	_, err = m.Verify(access, TokenRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify(refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_ExpiredRejected(t *testing.T) {
	m := newTestTokenManager()
	m.AccessTTL = -time.Second

	tok, err := m.Issue("user-123", TokenAccess)
	require.NoError(t, err)

	_, err = m.Verify(tok, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecretRejected(t *testing.T) {
	m := newTestTokenManager()
	tok, err := m.Issue("user-123", TokenAccess)
	require.NoError(t, err)

	other := newTestTokenManager()
	other.AccessSecret = []byte("some-other-secret")

	_, err = other.Verify(tok, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_MalformedRejected(t *testing.T) {
	m := newTestTokenManager()

	for _, raw := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := m.Verify(raw, TokenAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
