package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	return NewTokenService("test-secret", time.Hour)
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.IssueToken("alice")
	require.NoError(t, err)

	subject, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestSigningKeyIsPadded(t *testing.T) {
	key := signingKey("short")
	require.Len(t, key, minKeyLength)
	assert.Equal(t, []byte("short"), key[:5])
	assert.Equal(t, byte(0), key[minKeyLength-1])

	long := make([]byte, 80)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, signingKey(string(long)), 80)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestService(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.IssueToken("alice")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	kind, ok := TokenKind(err)
	require.True(t, ok)
	assert.Equal(t, TokenExpired, kind)
}

func TestValidateTokenBadSignature(t *testing.T) {
	other := NewTokenService("another-secret", time.Hour)
	token, err := other.IssueToken("alice")
	require.NoError(t, err)

	_, err = newTestService(t).ValidateToken(token)
	kind, ok := TokenKind(err)
	require.True(t, ok)
	assert.Equal(t, TokenBadSignature, kind)
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := newTestService(t)

	for _, token := range []string{"", "   ", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(token)
		kind, ok := TokenKind(err)
		require.True(t, ok, token)
		assert.Equal(t, TokenMalformed, kind, token)
	}
}

func TestValidateTokenUnsupportedAlgorithm(t *testing.T) {
	svc := newTestService(t)
	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.key)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	kind, ok := TokenKind(err)
	require.True(t, ok)
	assert.Equal(t, TokenUnsupported, kind)
}

func TestValidateTokenMissingSubject(t *testing.T) {
	svc := newTestService(t)
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(svc.key)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	kind, ok := TokenKind(err)
	require.True(t, ok)
	assert.Equal(t, TokenUnsupported, kind)
}

func TestResolveIdentity(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.IssueToken("bob")
	require.NoError(t, err)

	username, ok, err := svc.ResolveIdentity("Bearer " + token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", username)

	_, ok, err = svc.ResolveIdentity("")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.ResolveIdentity("Basic abc")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = svc.ResolveIdentity("Bearer garbage")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestTokenPrefix(t *testing.T) {
	assert.Equal(t, "abcdefghij...", TokenPrefix("abcdefghijklmnop"))
	assert.Equal(t, "[redacted]", TokenPrefix("abc"))
	assert.Equal(t, "[redacted]", TokenPrefix("abcdefghij"))
	assert.Equal(t, "[redacted]", TokenPrefix(""))
}
