package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"social-service/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserRepository is the user directory: accounts and the friends relation.
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, userID int64) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	ListFriends(ctx context.Context, userID int64) ([]models.UserSummary, error)
	AreFriends(ctx context.Context, userID, otherID int64) (bool, error)
	AddFriend(ctx context.Context, userID, friendID int64) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db sqlx.ExtContext
}

// NewUserRepo constructs a UserRepo over a connection or transaction.
func NewUserRepo(db sqlx.ExtContext) *UserRepo {
	return &UserRepo{db: db}
}

// Create registers a new user.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, username, password_hash, created_at`, username, passwordHash).
		StructScan(&user)
	if isUniqueViolation(err) {
		return models.User{}, ErrUserExists
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.db, &user, `SELECT id, username, password_hash, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByUsername fetches a user by its unique username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.db, &user, `SELECT id, username, password_hash, created_at FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// ListFriends returns the friend set of the user ordered by username.
func (r *UserRepo) ListFriends(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	friends := []models.UserSummary{}
	err := sqlx.SelectContext(ctx, r.db, &friends, `SELECT u.id, u.username FROM users_friends f
        INNER JOIN users u ON u.id = f.friend_id
        WHERE f.user_id=$1
        ORDER BY u.username ASC`, userID)
	return friends, err
}

// AreFriends reports whether both directions of the friendship are present.
func (r *UserRepo) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM users_friends
        WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)`, userID, otherID)
	return count == 2, err
}

// AddFriend inserts the single direction user -> friend. Adding an existing
// member is a no-op.
func (r *UserRepo) AddFriend(ctx context.Context, userID, friendID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users_friends (user_id, friend_id) VALUES ($1, $2)
        ON CONFLICT (user_id, friend_id) DO NOTHING`, userID, friendID)
	return err
}
