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
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrFriendRequestExists   = errors.New("friend request already exists")
)

const friendRequestColumns = `fr.id, fr.status, fr.created_at, fr.updated_at,
        s.id AS "sender.id", s.username AS "sender.username",
        r.id AS "receiver.id", r.username AS "receiver.username"`

// FriendRequestRepository defines persistence for friend requests.
type FriendRequestRepository interface {
	Create(ctx context.Context, senderID, receiverID int64) (models.FriendRequest, error)
	GetByID(ctx context.Context, requestID int64) (models.FriendRequest, error)
	GetByIDForUpdate(ctx context.Context, requestID int64) (models.FriendRequest, error)
	FindBetween(ctx context.Context, senderID, receiverID int64) (models.FriendRequest, error)
	UpdateStatus(ctx context.Context, requestID int64, status models.FriendRequestStatus) (models.FriendRequest, error)
	ListPendingForReceiver(ctx context.Context, receiverID int64) ([]models.FriendRequest, error)
}

// FriendRequestRepo is a sqlx implementation of FriendRequestRepository.
type FriendRequestRepo struct {
	db sqlx.ExtContext
}

// NewFriendRequestRepo constructs a FriendRequestRepo.
func NewFriendRequestRepo(db sqlx.ExtContext) *FriendRequestRepo {
	return &FriendRequestRepo{db: db}
}

// Create inserts a PENDING request from sender to receiver.
func (r *FriendRequestRepo) Create(ctx context.Context, senderID, receiverID int64) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := sqlx.GetContext(ctx, r.db, &req, `WITH fr AS (
            INSERT INTO friend_requests (sender_id, receiver_id, status) VALUES ($1, $2, $3)
            RETURNING id, sender_id, receiver_id, status, created_at, updated_at
        )
        SELECT `+friendRequestColumns+` FROM fr
        INNER JOIN users s ON s.id = fr.sender_id
        INNER JOIN users r ON r.id = fr.receiver_id`, senderID, receiverID, models.FriendRequestPending)
	if isUniqueViolation(err) {
		return models.FriendRequest{}, ErrFriendRequestExists
	}
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("insert friend request: %w", err)
	}
	return req, nil
}

// GetByID fetches a request with its sender and receiver.
func (r *FriendRequestRepo) GetByID(ctx context.Context, requestID int64) (models.FriendRequest, error) {
	return r.getOne(ctx, `SELECT `+friendRequestColumns+` FROM friend_requests fr
        INNER JOIN users s ON s.id = fr.sender_id
        INNER JOIN users r ON r.id = fr.receiver_id
        WHERE fr.id=$1`, requestID)
}

// GetByIDForUpdate is GetByID holding a row lock until the transaction ends.
func (r *FriendRequestRepo) GetByIDForUpdate(ctx context.Context, requestID int64) (models.FriendRequest, error) {
	return r.getOne(ctx, `SELECT `+friendRequestColumns+` FROM friend_requests fr
        INNER JOIN users s ON s.id = fr.sender_id
        INNER JOIN users r ON r.id = fr.receiver_id
        WHERE fr.id=$1
        FOR UPDATE OF fr`, requestID)
}

// FindBetween returns the request in the ordered direction sender -> receiver.
func (r *FriendRequestRepo) FindBetween(ctx context.Context, senderID, receiverID int64) (models.FriendRequest, error) {
	return r.getOne(ctx, `SELECT `+friendRequestColumns+` FROM friend_requests fr
        INNER JOIN users s ON s.id = fr.sender_id
        INNER JOIN users r ON r.id = fr.receiver_id
        WHERE fr.sender_id=$1 AND fr.receiver_id=$2`, senderID, receiverID)
}

// UpdateStatus sets the status and refreshes updated_at.
func (r *FriendRequestRepo) UpdateStatus(ctx context.Context, requestID int64, status models.FriendRequestStatus) (models.FriendRequest, error) {
	return r.getOne(ctx, `WITH fr AS (
            UPDATE friend_requests SET status=$2, updated_at=NOW() WHERE id=$1
            RETURNING id, sender_id, receiver_id, status, created_at, updated_at
        )
        SELECT `+friendRequestColumns+` FROM fr
        INNER JOIN users s ON s.id = fr.sender_id
        INNER JOIN users r ON r.id = fr.receiver_id`, requestID, status)
}

// ListPendingForReceiver returns pending requests addressed to the user, oldest first.
func (r *FriendRequestRepo) ListPendingForReceiver(ctx context.Context, receiverID int64) ([]models.FriendRequest, error) {
	reqs := []models.FriendRequest{}
	err := sqlx.SelectContext(ctx, r.db, &reqs, `SELECT `+friendRequestColumns+` FROM friend_requests fr
        INNER JOIN users s ON s.id = fr.sender_id
        INNER JOIN users r ON r.id = fr.receiver_id
        WHERE fr.receiver_id=$1 AND fr.status=$2
        ORDER BY fr.created_at ASC, fr.id ASC`, receiverID, models.FriendRequestPending)
	return reqs, err
}

func (r *FriendRequestRepo) getOne(ctx context.Context, query string, args ...interface{}) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := sqlx.GetContext(ctx, r.db, &req, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrFriendRequestNotFound
	}
	return req, err
}
