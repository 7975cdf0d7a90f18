package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/mercadolivro/pkg/errors"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("secret", time.Hour, 24*time.Hour)

	pair, err := m.GenerateToken(7, "ana@example.com", []string{"CUSTOMER", "ADMIN"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), pair.ExpiresIn)

	claims, err := m.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.CustomerID)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, claims.HasRole("ADMIN"))
	assert.InDelta(t, time.Hour.Seconds(), m.Remaining(claims).Seconds(), 5)
}

func TestParseToken_RejectsRefreshToken(t *testing.T) {
	m := NewManager("secret", time.Hour, 24*time.Hour)
	pair, err := m.GenerateToken(7, "ana@example.com", nil)
	require.NoError(t, err)

	_, err = m.ParseToken(pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	m := NewManager("secret", time.Minute, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	pair, err := m.GenerateToken(1, "a@b.com", nil)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	pair, err := NewManager("secret", time.Hour, time.Hour).GenerateToken(1, "a@b.com", nil)
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour, time.Hour).ParseToken(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefreshAccessToken(t *testing.T) {
	m := NewManager("secret", time.Hour, 24*time.Hour)
	pair, err := m.GenerateToken(3, "old@example.com", []string{"CUSTOMER"})
	require.NoError(t, err)

	token, err := m.RefreshAccessToken(pair.RefreshToken, func(id uint) (string, []string, error) {
		assert.Equal(t, uint(3), id)
		return "new@example.com", []string{"CUSTOMER", "ADMIN"}, nil
	})
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", claims.Email)
	assert.True(t, claims.HasRole("ADMIN"))

	// Access Token不能用来刷新
	_, err = m.RefreshAccessToken(pair.AccessToken, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
