package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/gemmoherb/portal/pkg/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	salt, key, ok := strings.Cut(hash, ":")
	require.True(t, ok)
	assert.Len(t, salt, 32)
	assert.Len(t, key, 128)

	t.Run("verifies the right password", func(t *testing.T) {
		assert.True(t, VerifyPassword("s3cret!", hash))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		assert.False(t, VerifyPassword("s3cret", hash))
	})

	t.Run("salts differ between hashes", func(t *testing.T) {
		other, err := HashPassword("s3cret!")
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
		assert.True(t, VerifyPassword("s3cret!", other))
	})
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, h := range []string{"", "nocolon", ":abcd", "salt:zz", "salt:abcd"} {
		assert.False(t, VerifyPassword("pw", h), h)
	}
}

func TestUnknownUserHashIsWellFormed(t *testing.T) {
	salt, key, ok := strings.Cut(UnknownUserHash, ":")
	require.True(t, ok)
	assert.Len(t, salt, 2*saltBytes)
	assert.Len(t, key, 2*keyLength)
	assert.False(t, VerifyPassword("", UnknownUserHash))
	assert.False(t, VerifyPassword("s3cret!", UnknownUserHash))
}

func TestTokenManager(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC))
	tm, err := NewTokenManager("test-secret", 0, clk)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, tm.TTL())

	tok, err := tm.Issue(Session{UserID: 42, Role: "admin", Name: "Pharmacie Centrale"})
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		s, err := tm.Verify(tok)
		require.NoError(t, err)
		assert.Equal(t, uint(42), s.UserID)
		assert.Equal(t, "admin", s.Role)
		assert.Equal(t, "Pharmacie Centrale", s.Name)
	})

	t.Run("other secret fails", func(t *testing.T) {
		other, err := NewTokenManager("another-secret", 0, clk)
		require.NoError(t, err)
		_, err = other.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered token fails", func(t *testing.T) {
		_, err := tm.Verify(tok + "x")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expires after a year", func(t *testing.T) {
		clk.Advance(364 * 24 * time.Hour)
		_, err := tm.Verify(tok)
		require.NoError(t, err)

		clk.Advance(2 * 24 * time.Hour)
		_, err = tm.Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenManagerRejectsOtherAlgorithms(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour, nil)
	require.NoError(t, err)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tm.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour, nil)
	assert.Error(t, err)
}
