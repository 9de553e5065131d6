package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// minKeyLength is the HS512 minimum key size in bytes.
const minKeyLength = 64

const bearerPrefix = "Bearer "

var errUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// TokenErrorKind tells apart the ways a token can fail validation.
type TokenErrorKind string

const (
	TokenMalformed    TokenErrorKind = "malformed"
	TokenExpired      TokenErrorKind = "expired"
	TokenBadSignature TokenErrorKind = "bad_signature"
	TokenUnsupported  TokenErrorKind = "unsupported"
)

// TokenError is returned by ValidateToken.
type TokenError struct {
	Kind  TokenErrorKind
	Cause error
}

func (e *TokenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Cause)
	}
	return "token " + string(e.Kind)
}

func (e *TokenError) Unwrap() error { return e.Cause }

// TokenKind returns the kind of a *TokenError in err's chain.
func TokenKind(err error) (TokenErrorKind, bool) {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Kind, true
	}
	return "", false
}

// TokenService issues and validates HS512 bearer tokens.
type TokenService struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService builds a TokenService. A secret shorter than the HS512
// minimum is zero-padded up to it.
func NewTokenService(secret string, lifetime time.Duration) *TokenService {
	return &TokenService{
		key:      signingKey(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

func signingKey(secret string) []byte {
	key := []byte(secret)
	if len(key) >= minKeyLength {
		return key
	}
	padded := make([]byte, minKeyLength)
	copy(padded, key)
	return padded
}

// Lifetime returns the configured token lifetime.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// IssueToken signs a token whose subject is username.
func (s *TokenService) IssueToken(username string) (string, error) {
	issuedAt := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.lifetime)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature and expiry and returns the subject.
func (s *TokenService) ValidateToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", &TokenError{Kind: TokenMalformed, Cause: errors.New("empty token")}
	}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, fmt.Errorf("%w: %s", errUnsupportedAlgorithm, t.Method.Alg())
		}
		return s.key, nil
	})
	if err != nil {
		return "", classify(err)
	}
	if claims.Subject == "" {
		return "", &TokenError{Kind: TokenUnsupported, Cause: errors.New("missing subject claim")}
	}
	return claims.Subject, nil
}

// ResolveIdentity extracts and validates the token in an Authorization header
// value. A missing header or one without the Bearer prefix is anonymous: it
// returns ok=false and a nil error.
func (s *TokenService) ResolveIdentity(header string) (username string, ok bool, err error) {
	token, found := strings.CutPrefix(header, bearerPrefix)
	if !found {
		return "", false, nil
	}
	username, err = s.ValidateToken(token)
	if err != nil {
		return "", false, err
	}
	return username, true, nil
}

func classify(err error) *TokenError {
	switch {
	case errors.Is(err, errUnsupportedAlgorithm):
		return &TokenError{Kind: TokenUnsupported, Cause: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &TokenError{Kind: TokenMalformed, Cause: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: TokenExpired, Cause: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Kind: TokenBadSignature, Cause: err}
	default:
		return &TokenError{Kind: TokenUnsupported, Cause: err}
	}
}

const (
	logPrefixLength  = 10
	redactedTokenLog = "[redacted]"
)

// TokenPrefix shortens a token for logging. Tokens no longer than the prefix
// are never logged.
func TokenPrefix(token string) string {
	if len(token) <= logPrefixLength {
		return redactedTokenLog
	}
	return token[:logPrefixLength] + "..."
}
