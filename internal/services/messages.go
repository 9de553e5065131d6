package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"social-service/internal/apperrors"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

const maxMessageLength = 4000

// MessageService handles direct messages between friends.
type MessageService struct {
	store repositories.Store
}

// NewMessageService constructs a MessageService.
func NewMessageService(store repositories.Store) *MessageService {
	return &MessageService{store: store}
}

// SendMessage stores an unread message from actor to targetUsername.
func (s *MessageService) SendMessage(ctx context.Context, actor models.UserSummary, targetUsername, content string) (models.Message, error) {
	ctx, span := tracer.Start(ctx, "messages.SendMessage", trace.WithAttributes(
		attribute.Int64("actor.id", actor.ID),
		attribute.String("target.username", targetUsername),
	))
	defer span.End()

	if strings.TrimSpace(content) == "" {
		return models.Message{}, apperrors.ErrBlankContent
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return models.Message{}, apperrors.ErrContentTooBig
	}

	target, err := s.friendByUsername(ctx, actor, targetUsername)
	if err != nil {
		recordSpanError(span, err)
		return models.Message{}, err
	}

	msg, err := s.store.Messages().Create(ctx, actor.ID, target.ID, content)
	if err != nil {
		recordSpanError(span, err)
		return models.Message{}, err
	}

	observability.IncMessageSent()
	logrus.WithFields(logrus.Fields{
		"function":   "MessageService.SendMessage",
		"sender":     actor.Username,
		"receiver":   target.Username,
		"message_id": msg.ID,
	}).Debug("message stored")
	return msg, nil
}

// GetConversation returns the conversation between actor and otherUsername,
// oldest first, and marks every message addressed to actor as read.
func (s *MessageService) GetConversation(ctx context.Context, actor models.UserSummary, otherUsername string) ([]models.Message, error) {
	ctx, span := tracer.Start(ctx, "messages.GetConversation", trace.WithAttributes(
		attribute.Int64("actor.id", actor.ID),
		attribute.String("other.username", otherUsername),
	))
	defer span.End()

	other, err := s.friendByUsername(ctx, actor, otherUsername)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	msgs, err := s.store.Messages().ListConversation(ctx, actor.ID, other.ID)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("list conversation: %w", err)
	}

	var unread []int64
	for _, m := range msgs {
		if m.Receiver.ID == actor.ID && !m.Read {
			unread = append(unread, m.ID)
		}
	}
	if len(unread) == 0 {
		return msgs, nil
	}

	marked, err := s.store.Messages().MarkRead(ctx, actor.ID, unread)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("mark messages read: %w", err)
	}
	for i := range msgs {
		if msgs[i].Receiver.ID == actor.ID {
			msgs[i].Read = true
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "MessageService.GetConversation",
		"reader":   actor.Username,
		"other":    other.Username,
		"marked":   marked,
	}).Debug("conversation marked read")
	return msgs, nil
}

// GetUnread returns unread messages addressed to actor.
func (s *MessageService) GetUnread(ctx context.Context, actor models.UserSummary) ([]models.Message, error) {
	msgs, err := s.store.Messages().ListUnread(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list unread: %w", err)
	}
	return msgs, nil
}

// friendByUsername resolves username and requires it to be actor's friend.
func (s *MessageService) friendByUsername(ctx context.Context, actor models.UserSummary, username string) (models.User, error) {
	users := s.store.Users()
	other, err := users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	friends, err := users.AreFriends(ctx, actor.ID, other.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("check friendship: %w", err)
	}
	if !friends {
		return models.User{}, apperrors.ErrNotFriends
	}
	return other, nil
}
