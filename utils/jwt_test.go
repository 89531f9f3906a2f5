package utils

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager("secret", time.Hour)
	require.NoError(t, err)

	token, err := m.GenerateToken("user-1", "민지")
	require.NoError(t, err)

	for _, header := range []string{token, "Bearer " + token, "bearer " + token} {
		claims, err := m.ParseToken(header)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "민지", claims.UserName)
	}
}

func TestJWTManager_Rejects(t *testing.T) {
	m, err := NewJWTManager("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewJWTManager("other", time.Hour)
	require.NoError(t, err)

	foreign, err := other.GenerateToken("user-1", "")
	require.NoError(t, err)

	expiredMgr, err := NewJWTManager("secret", time.Nanosecond)
	require.NoError(t, err)
	expired, err := expiredMgr.GenerateToken("user-1", "")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	for name, token := range map[string]string{
		"empty":        "",
		"bearer only":  "Bearer ",
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.ParseToken(token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	_, err := NewJWTManager("", 0)
	assert.Error(t, err)
}

func TestGenerateID_Ordered(t *testing.T) {
	a := GenerateID()
	b := GenerateID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}
