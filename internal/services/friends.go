package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"social-service/internal/apperrors"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
)

var tracer = otel.Tracer("social-service/services")

// SendOutcome describes what SendRequest did.
type SendOutcome string

const (
	// OutcomeCreated means a new PENDING request was stored.
	OutcomeCreated SendOutcome = "created"
	// OutcomeResent means a REJECTED request was reopened as PENDING.
	OutcomeResent SendOutcome = "resent"
	// OutcomeAutoAccepted means the target's PENDING request was accepted
	// instead of creating an opposing one.
	OutcomeAutoAccepted SendOutcome = "auto_accepted"
)

// Message returns the user-facing confirmation for the outcome.
func (o SendOutcome) Message() string {
	if o == OutcomeAutoAccepted {
		return "Friend request automatically accepted as the other user had already sent you a request"
	}
	return "Friend request sent successfully"
}

// SendResult is returned by SendRequest. Request is the record that was
// created, reopened or, on auto-accept, the reciprocal request.
type SendResult struct {
	Outcome SendOutcome
	Request models.FriendRequest
}

// FriendService runs the friend request state machine.
type FriendService struct {
	store repositories.Store
}

// NewFriendService constructs a FriendService.
func NewFriendService(store repositories.Store) *FriendService {
	return &FriendService{store: store}
}

// SendRequest asks targetUsername to become actor's friend. When the target
// already has a PENDING request to actor the two are merged into a single
// acceptance.
func (s *FriendService) SendRequest(ctx context.Context, actor models.UserSummary, targetUsername string) (SendResult, error) {
	ctx, span := tracer.Start(ctx, "friends.SendRequest", trace.WithAttributes(
		attribute.Int64("actor.id", actor.ID),
		attribute.String("target.username", targetUsername),
	))
	defer span.End()

	if actor.Username == targetUsername {
		return SendResult{}, apperrors.ErrSelfRequest
	}

	var result SendResult
	err := s.store.WithTx(ctx, func(repos repositories.Repos) error {
		var err error
		result, err = s.send(ctx, repos, actor, targetUsername)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return SendResult{}, err
	}

	observability.IncFriendRequest(string(result.Outcome))
	logrus.WithFields(logrus.Fields{
		"function":   "FriendService.SendRequest",
		"actor":      actor.Username,
		"target":     targetUsername,
		"outcome":    result.Outcome,
		"request_id": result.Request.ID,
	}).Info("friend request sent")
	return result, nil
}

func (s *FriendService) send(ctx context.Context, repos repositories.Repos, actor models.UserSummary, targetUsername string) (SendResult, error) {
	target, err := repos.Users().GetByUsername(ctx, targetUsername)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return SendResult{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return SendResult{}, fmt.Errorf("load target user: %w", err)
	}
	if target.ID == actor.ID {
		return SendResult{}, apperrors.ErrSelfRequest
	}

	friends, err := repos.Users().AreFriends(ctx, actor.ID, target.ID)
	if err != nil {
		return SendResult{}, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return SendResult{}, apperrors.ErrAlreadyFriends
	}

	requests := repos.FriendRequests()
	existing, err := requests.FindBetween(ctx, actor.ID, target.ID)
	hasExisting := err == nil
	if err != nil && !errors.Is(err, repositories.ErrFriendRequestNotFound) {
		return SendResult{}, fmt.Errorf("load existing request: %w", err)
	}
	if hasExisting && existing.Status == models.FriendRequestPending {
		return SendResult{}, apperrors.ErrDuplicatePending
	}

	// The reciprocal request wins over reopening our own rejected one so the
	// pair never holds two PENDING requests at once.
	reciprocal, err := requests.FindBetween(ctx, target.ID, actor.ID)
	if err != nil && !errors.Is(err, repositories.ErrFriendRequestNotFound) {
		return SendResult{}, fmt.Errorf("load reciprocal request: %w", err)
	}
	if err == nil && reciprocal.Status == models.FriendRequestPending {
		accepted, err := s.accept(ctx, repos, reciprocal)
		if err != nil {
			return SendResult{}, err
		}
		return SendResult{Outcome: OutcomeAutoAccepted, Request: accepted}, nil
	}

	if hasExisting {
		if !existing.Status.CanTransitionTo(models.FriendRequestPending) {
			return SendResult{}, apperrors.ErrNotPending
		}
		reopened, err := requests.UpdateStatus(ctx, existing.ID, models.FriendRequestPending)
		if err != nil {
			return SendResult{}, fmt.Errorf("reopen request: %w", err)
		}
		return SendResult{Outcome: OutcomeResent, Request: reopened}, nil
	}

	created, err := requests.Create(ctx, actor.ID, target.ID)
	if errors.Is(err, repositories.ErrFriendRequestExists) {
		return SendResult{}, apperrors.ErrDuplicatePending
	}
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{Outcome: OutcomeCreated, Request: created}, nil
}

// AcceptRequest accepts a PENDING request addressed to actor and makes both
// users friends.
func (s *FriendService) AcceptRequest(ctx context.Context, actor models.UserSummary, requestID int64) (models.FriendRequest, error) {
	ctx, span := tracer.Start(ctx, "friends.AcceptRequest", trace.WithAttributes(
		attribute.Int64("actor.id", actor.ID),
		attribute.Int64("request.id", requestID),
	))
	defer span.End()

	var accepted models.FriendRequest
	err := s.store.WithTx(ctx, func(repos repositories.Repos) error {
		req, err := s.loadActionable(ctx, repos, actor, requestID)
		if err != nil {
			return err
		}
		accepted, err = s.accept(ctx, repos, req)
		return err
	})
	if err != nil {
		recordSpanError(span, err)
		return models.FriendRequest{}, err
	}

	observability.IncFriendRequest("accepted")
	logrus.WithFields(logrus.Fields{
		"function":   "FriendService.AcceptRequest",
		"actor":      actor.Username,
		"request_id": requestID,
		"sender":     accepted.Sender.Username,
	}).Info("friend request accepted")
	return accepted, nil
}

// RejectRequest rejects a PENDING request addressed to actor.
func (s *FriendService) RejectRequest(ctx context.Context, actor models.UserSummary, requestID int64) (models.FriendRequest, error) {
	ctx, span := tracer.Start(ctx, "friends.RejectRequest", trace.WithAttributes(
		attribute.Int64("actor.id", actor.ID),
		attribute.Int64("request.id", requestID),
	))
	defer span.End()

	var rejected models.FriendRequest
	err := s.store.WithTx(ctx, func(repos repositories.Repos) error {
		req, err := s.loadActionable(ctx, repos, actor, requestID)
		if err != nil {
			return err
		}
		rejected, err = repos.FriendRequests().UpdateStatus(ctx, req.ID, models.FriendRequestRejected)
		if err != nil {
			return fmt.Errorf("reject request: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		return models.FriendRequest{}, err
	}

	observability.IncFriendRequest("rejected")
	logrus.WithFields(logrus.Fields{
		"function":   "FriendService.RejectRequest",
		"actor":      actor.Username,
		"request_id": requestID,
	}).Info("friend request rejected")
	return rejected, nil
}

// ListFriends returns the actor's friends.
func (s *FriendService) ListFriends(ctx context.Context, actor models.UserSummary) ([]models.UserSummary, error) {
	friends, err := s.store.Users().ListFriends(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// ListPendingReceived returns PENDING requests addressed to actor.
func (s *FriendService) ListPendingReceived(ctx context.Context, actor models.UserSummary) ([]models.FriendRequest, error) {
	reqs, err := s.store.FriendRequests().ListPendingForReceiver(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	return reqs, nil
}

// loadActionable locks the request and checks actor may accept or reject it.
func (s *FriendService) loadActionable(ctx context.Context, repos repositories.Repos, actor models.UserSummary, requestID int64) (models.FriendRequest, error) {
	req, err := repos.FriendRequests().GetByIDForUpdate(ctx, requestID)
	if errors.Is(err, repositories.ErrFriendRequestNotFound) {
		return models.FriendRequest{}, apperrors.ErrRequestNotFound
	}
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("load request: %w", err)
	}
	if req.Receiver.ID != actor.ID {
		return models.FriendRequest{}, apperrors.ErrNotReceiver
	}
	if req.Status != models.FriendRequestPending {
		return models.FriendRequest{}, apperrors.ErrNotPending
	}
	return req, nil
}

// accept marks req ACCEPTED and writes both directions of the friendship in
// the caller's transaction.
func (s *FriendService) accept(ctx context.Context, repos repositories.Repos, req models.FriendRequest) (models.FriendRequest, error) {
	if !req.Status.CanTransitionTo(models.FriendRequestAccepted) {
		return models.FriendRequest{}, apperrors.ErrNotPending
	}
	accepted, err := repos.FriendRequests().UpdateStatus(ctx, req.ID, models.FriendRequestAccepted)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("accept request: %w", err)
	}
	if err := repos.Users().AddFriend(ctx, req.Sender.ID, req.Receiver.ID); err != nil {
		return models.FriendRequest{}, fmt.Errorf("add friend: %w", err)
	}
	if err := repos.Users().AddFriend(ctx, req.Receiver.ID, req.Sender.ID); err != nil {
		return models.FriendRequest{}, fmt.Errorf("add friend: %w", err)
	}
	return accepted, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	if apperrors.KindOf(err) == apperrors.KindInternal {
		span.SetStatus(codes.Error, err.Error())
	}
}
