package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"social-service/internal/apperrors"
	"social-service/internal/auth"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

// Session is the result of a successful sign-in.
type Session struct {
	Token string
	User  models.UserSummary
}

// AccountService registers users and signs them in.
type AccountService struct {
	users  repositories.UserRepository
	tokens *auth.TokenService
}

// NewAccountService constructs an AccountService.
func NewAccountService(users repositories.UserRepository, tokens *auth.TokenService) *AccountService {
	return &AccountService{users: users, tokens: tokens}
}

// SignUp creates a user with a bcrypt-hashed password.
func (s *AccountService) SignUp(ctx context.Context, username, password string) (models.UserSummary, error) {
	if n := utf8.RuneCountInString(username); n < 3 || n > 20 {
		return models.UserSummary{}, apperrors.ErrInvalidUsername
	}
	// bcrypt only considers the first 72 bytes.
	if n := len(password); n < 6 || n > 72 {
		return models.UserSummary{}, apperrors.ErrInvalidPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.UserSummary{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, hash)
	if errors.Is(err, repositories.ErrUserExists) {
		return models.UserSummary{}, apperrors.ErrUsernameTaken
	}
	if err != nil {
		return models.UserSummary{}, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "AccountService.SignUp",
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")
	return user.Summary(), nil
}

// SignIn checks the credentials and issues a bearer token.
func (s *AccountService) SignIn(ctx context.Context, username, password string) (Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		auth.SpendPasswordCheck(password)
		return Session{}, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return Session{}, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "AccountService.SignIn",
			"username": username,
		}).Warn("sign-in rejected: bad password")
		return Session{}, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(user.Username)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user.Summary()}, nil
}
