package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/services"
)

type FriendsMock struct {
	mock.Mock
}

func (m *FriendsMock) SendRequest(ctx context.Context, actor models.UserSummary, targetUsername string) (services.SendResult, error) {
	args := m.Called(ctx, actor, targetUsername)
	var result services.SendResult
	if val := args.Get(0); val != nil {
		result = val.(services.SendResult)
	}
	return result, args.Error(1)
}

func (m *FriendsMock) AcceptRequest(ctx context.Context, actor models.UserSummary, requestID int64) (models.FriendRequest, error) {
	args := m.Called(ctx, actor, requestID)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendsMock) RejectRequest(ctx context.Context, actor models.UserSummary, requestID int64) (models.FriendRequest, error) {
	args := m.Called(ctx, actor, requestID)
	var req models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *FriendsMock) ListFriends(ctx context.Context, actor models.UserSummary) ([]models.UserSummary, error) {
	args := m.Called(ctx, actor)
	var list []models.UserSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.UserSummary)
	}
	return list, args.Error(1)
}

func (m *FriendsMock) ListPendingReceived(ctx context.Context, actor models.UserSummary) ([]models.FriendRequest, error) {
	args := m.Called(ctx, actor)
	var list []models.FriendRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.FriendRequest)
	}
	return list, args.Error(1)
}

type MessagingMock struct {
	mock.Mock
}

func (m *MessagingMock) SendMessage(ctx context.Context, actor models.UserSummary, targetUsername, content string) (models.Message, error) {
	args := m.Called(ctx, actor, targetUsername, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessagingMock) GetConversation(ctx context.Context, actor models.UserSummary, otherUsername string) ([]models.Message, error) {
	args := m.Called(ctx, actor, otherUsername)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessagingMock) GetUnread(ctx context.Context, actor models.UserSummary) ([]models.Message, error) {
	args := m.Called(ctx, actor)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

type AccountsMock struct {
	mock.Mock
}

func (m *AccountsMock) SignUp(ctx context.Context, username, password string) (models.UserSummary, error) {
	args := m.Called(ctx, username, password)
	var user models.UserSummary
	if val := args.Get(0); val != nil {
		user = val.(models.UserSummary)
	}
	return user, args.Error(1)
}

func (m *AccountsMock) SignIn(ctx context.Context, username, password string) (services.Session, error) {
	args := m.Called(ctx, username, password)
	var session services.Session
	if val := args.Get(0); val != nil {
		session = val.(services.Session)
	}
	return session, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, username, passwordHash string) (models.User, error) {
	args := m.Called(ctx, username, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListFriends(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.UserSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.UserSummary)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepositoryMock) AddFriend(ctx context.Context, userID, friendID int64) error {
	args := m.Called(ctx, userID, friendID)
	return args.Error(0)
}

var _ services.Friends = (*FriendsMock)(nil)
var _ services.Messaging = (*MessagingMock)(nil)
var _ services.Accounts = (*AccountsMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
