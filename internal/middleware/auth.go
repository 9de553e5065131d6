package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"social-service/internal/apperrors"
	"social-service/internal/auth"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

const actorKey = "actor"

// UserLookup resolves a token subject to a stored user.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// Authenticator turns an Authorization header into an acting user.
type Authenticator struct {
	tokens *auth.TokenService
	users  UserLookup
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(tokens *auth.TokenService, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Identify resolves header to a user. ok=false with a nil error means the
// request carries no bearer token and is anonymous.
func (a *Authenticator) Identify(ctx context.Context, header string) (models.UserSummary, bool, error) {
	username, ok, err := a.tokens.ResolveIdentity(header)
	if err != nil || !ok {
		return models.UserSummary{}, false, err
	}

	user, err := a.users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.UserSummary{}, false, fmt.Errorf("token subject %q: %w", username, err)
	}
	if err != nil {
		return models.UserSummary{}, false, fmt.Errorf("load token subject: %w", err)
	}
	return user.Summary(), true, nil
}

// IsCredentialError reports whether err from Identify is caused by the
// presented credentials rather than by a failing dependency.
func IsCredentialError(err error) bool {
	if _, ok := auth.TokenKind(err); ok {
		return true
	}
	return errors.Is(err, repositories.ErrUserNotFound)
}

// Middleware validates the bearer token, when present, and stores the acting
// user in the gin context. Requests with bad credentials continue
// anonymously; RequireIdentity rejects them on protected routes. A failing
// user lookup aborts with 500.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		actor, ok, err := a.Identify(c.Request.Context(), header)
		if err != nil && !IsCredentialError(err) {
			logrus.WithFields(logrus.Fields{
				"function":   "Authenticator.Middleware",
				"path":       c.Request.URL.Path,
				"request_id": observability.RequestID(c),
				"error":      err.Error(),
			}).Error("cannot resolve token subject")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": apperrors.MessageOf(err)})
			return
		}
		if err != nil {
			logTokenFailure(c, header, err)
			c.Next()
			return
		}
		if ok {
			c.Set(actorKey, actor)
		}
		c.Next()
	}
}

// RequireIdentity aborts requests that reached it without an acting user.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Actor(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": apperrors.ErrUnauthenticated.Message})
			return
		}
		c.Next()
	}
}

// Actor returns the acting user stored by Middleware.
func Actor(c *gin.Context) (models.UserSummary, bool) {
	val, ok := c.Get(actorKey)
	if !ok {
		return models.UserSummary{}, false
	}
	actor, ok := val.(models.UserSummary)
	return actor, ok
}

// SetActor stores actor as the acting user.
func SetActor(c *gin.Context, actor models.UserSummary) {
	c.Set(actorKey, actor)
}

func logTokenFailure(c *gin.Context, header string, err error) {
	token := strings.TrimPrefix(header, "Bearer ")
	fields := logrus.Fields{
		"function":     "Authenticator.Middleware",
		"path":         c.Request.URL.Path,
		"token_prefix": auth.TokenPrefix(token),
		"request_id":   observability.RequestID(c),
	}
	kind, isTokenErr := auth.TokenKind(err)
	if isTokenErr {
		fields["kind"] = kind
		observability.IncTokenFailure(string(kind))
	} else if errors.Is(err, repositories.ErrUserNotFound) {
		fields["kind"] = "unknown_subject"
		observability.IncTokenFailure("unknown_subject")
	}
	logrus.WithFields(fields).WithError(err).Warn("cannot set user authentication")
}
