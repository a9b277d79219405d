package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	errs "github.com/jrsteele09/go-auth-session/internal/errors"
	"github.com/jrsteele09/go-auth-session/token"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("1234"))
	require.NoError(t, err)
	return raw
}

func TestDecode(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	raw := signed(t, jwt.MapClaims{
		"sub":    "user-1",
		"exp":    exp,
		"groups": []string{"ops", "sales"},
	})

	claims, err := token.Decode(raw)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	require.Equal(t, exp, *claims.ExpiresAt)
	require.Equal(t, []string{"ops", "sales"}, claims.Groups)
	require.Equal(t, "user-1", claims.Subject)
	require.True(t, claims.HasPermission("ops"))
	require.False(t, claims.HasPermission("admin"))
	require.True(t, claims.HasAnyPermission("admin", "sales"))
	require.False(t, claims.Expired(time.Now()))
}

func TestDecodeIgnoresSignature(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"groups": []string{"ops"}}).
		SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	claims, err := token.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"ops"}, claims.Groups)
	require.Nil(t, claims.ExpiresAt)
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-token", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		claims, err := token.Decode(raw)
		require.Error(t, err, raw)
		require.ErrorIs(t, err, errs.ErrDecode, raw)
		require.Equal(t, token.Claims{}, claims, raw)
	}

	claims := token.DecodeOrEmpty("not-a-token")
	require.Equal(t, token.Claims{}, claims)
	for _, p := range []string{"ops", "sales", "", "admin"} {
		require.False(t, claims.HasPermission(p))
	}
	require.False(t, claims.HasAnyPermission("ops", "sales"))
}

func TestExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	noExp := token.Claims{}
	_, ok := noExp.Expiry()
	require.False(t, ok)
	require.True(t, noExp.Expired(now))

	past := now.Add(-time.Second).Unix()
	require.True(t, token.Claims{ExpiresAt: &past}.Expired(now))

	future := now.Add(time.Hour).Unix()
	remaining, ok := token.Claims{ExpiresAt: &future}.RemainingSeconds(now)
	require.True(t, ok)
	require.Equal(t, int64(3600), remaining)
}

func TestDecodeSingleGroup(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"groups": "ops"}).
		SignedString([]byte("1234"))
	require.NoError(t, err)

	claims, err := token.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"ops"}, claims.Groups)
}
