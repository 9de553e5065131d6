package services

import (
	"context"

	"social-service/internal/models"
)

// Friends is the friend request surface used by HTTP handlers.
type Friends interface {
	SendRequest(ctx context.Context, actor models.UserSummary, targetUsername string) (SendResult, error)
	AcceptRequest(ctx context.Context, actor models.UserSummary, requestID int64) (models.FriendRequest, error)
	RejectRequest(ctx context.Context, actor models.UserSummary, requestID int64) (models.FriendRequest, error)
	ListFriends(ctx context.Context, actor models.UserSummary) ([]models.UserSummary, error)
	ListPendingReceived(ctx context.Context, actor models.UserSummary) ([]models.FriendRequest, error)
}

// Messaging is the direct message surface used by HTTP handlers.
type Messaging interface {
	SendMessage(ctx context.Context, actor models.UserSummary, targetUsername, content string) (models.Message, error)
	GetConversation(ctx context.Context, actor models.UserSummary, otherUsername string) ([]models.Message, error)
	GetUnread(ctx context.Context, actor models.UserSummary) ([]models.Message, error)
}

// Accounts registers and signs in users.
type Accounts interface {
	SignUp(ctx context.Context, username, password string) (models.UserSummary, error)
	SignIn(ctx context.Context, username, password string) (Session, error)
}

var (
	_ Friends   = (*FriendService)(nil)
	_ Messaging = (*MessageService)(nil)
	_ Accounts  = (*AccountService)(nil)
)
