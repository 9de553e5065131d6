package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"social-service/internal/models"
)

const messageColumns = `m.id, m.content, m.sent_at, m.is_read,
        s.id AS "sender.id", s.username AS "sender.username",
        r.id AS "receiver.id", r.username AS "receiver.username"`

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error)
	ListConversation(ctx context.Context, userID, otherID int64) ([]models.Message, error)
	ListUnread(ctx context.Context, receiverID int64) ([]models.Message, error)
	MarkRead(ctx context.Context, receiverID int64, messageIDs []int64) (int64, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db sqlx.ExtContext
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db sqlx.ExtContext) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores an unread message.
func (r *MessageRepo) Create(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	var msg models.Message
	err := sqlx.GetContext(ctx, r.db, &msg, `WITH m AS (
            INSERT INTO messages (sender_id, receiver_id, content) VALUES ($1, $2, $3)
            RETURNING id, sender_id, receiver_id, content, sent_at, is_read
        )
        SELECT `+messageColumns+` FROM m
        INNER JOIN users s ON s.id = m.sender_id
        INNER JOIN users r ON r.id = m.receiver_id`, senderID, receiverID, content)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// ListConversation returns every message exchanged by the pair, oldest first.
func (r *MessageRepo) ListConversation(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	msgs := []models.Message{}
	err := sqlx.SelectContext(ctx, r.db, &msgs, `SELECT `+messageColumns+` FROM messages m
        INNER JOIN users s ON s.id = m.sender_id
        INNER JOIN users r ON r.id = m.receiver_id
        WHERE (m.sender_id=$1 AND m.receiver_id=$2) OR (m.sender_id=$2 AND m.receiver_id=$1)
        ORDER BY m.sent_at ASC, m.id ASC`, userID, otherID)
	return msgs, err
}

// ListUnread returns unread messages addressed to the user.
func (r *MessageRepo) ListUnread(ctx context.Context, receiverID int64) ([]models.Message, error) {
	msgs := []models.Message{}
	err := sqlx.SelectContext(ctx, r.db, &msgs, `SELECT `+messageColumns+` FROM messages m
        INNER JOIN users s ON s.id = m.sender_id
        INNER JOIN users r ON r.id = m.receiver_id
        WHERE m.receiver_id=$1 AND m.is_read = FALSE
        ORDER BY m.id ASC`, receiverID)
	return msgs, err
}

// MarkRead flags the given messages as read when addressed to receiverID.
// Messages already read are left untouched.
func (r *MessageRepo) MarkRead(ctx context.Context, receiverID int64, messageIDs []int64) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE
        WHERE receiver_id=$1 AND id = ANY($2) AND is_read = FALSE`, receiverID, pq.Array(messageIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
