package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/apperrors"
	"social-service/internal/models"
)

type friendFixture struct {
	store *memStore
	svc   *FriendService
	alice models.UserSummary
	bob   models.UserSummary
	carol models.UserSummary
}

func newFriendFixture(t *testing.T) friendFixture {
	t.Helper()
	store := newMemStore()
	return friendFixture{
		store: store,
		svc:   NewFriendService(store),
		alice: store.addUser("alice"),
		bob:   store.addUser("bob"),
		carol: store.addUser("carol"),
	}
}

func (f friendFixture) areFriends(t *testing.T, a, b models.UserSummary) bool {
	t.Helper()
	ok, err := f.store.Users().AreFriends(context.Background(), a.ID, b.ID)
	require.NoError(t, err)
	return ok
}

func TestSendRequestCreatesPending(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, models.FriendRequestPending, res.Request.Status)
	assert.Equal(t, f.alice, res.Request.Sender)
	assert.Equal(t, f.bob, res.Request.Receiver)

	pending, err := f.svc.ListPendingReceived(ctx, f.bob)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, res.Request.ID, pending[0].ID)
}

func TestSendRequestValidation(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendRequest(ctx, f.alice, "alice")
	assert.ErrorIs(t, err, apperrors.ErrSelfRequest)

	_, err = f.svc.SendRequest(ctx, f.alice, "nobody")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)
	_, err = f.svc.SendRequest(ctx, f.alice, "bob")
	assert.ErrorIs(t, err, apperrors.ErrDuplicatePending)
	assert.Equal(t, 1, f.store.pendingBetween(f.alice.ID, f.bob.ID))
}

func TestAcceptMakesFriendshipSymmetric(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)

	accepted, err := f.svc.AcceptRequest(ctx, f.bob, res.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, accepted.Status)

	assert.True(t, f.areFriends(t, f.alice, f.bob))
	assert.True(t, f.areFriends(t, f.bob, f.alice))

	aliceFriends, err := f.svc.ListFriends(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{f.bob}, aliceFriends)
	bobFriends, err := f.svc.ListFriends(ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{f.alice}, bobFriends)

	_, err = f.svc.AcceptRequest(ctx, f.bob, res.Request.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotPending)

	_, err = f.svc.SendRequest(ctx, f.alice, "bob")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyFriends)
}

func TestAcceptRequiresReceiver(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)

	_, err = f.svc.AcceptRequest(ctx, f.alice, res.Request.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotReceiver)
	_, err = f.svc.RejectRequest(ctx, f.carol, res.Request.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotReceiver)

	_, err = f.svc.AcceptRequest(ctx, f.bob, 9999)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
	assert.False(t, f.areFriends(t, f.alice, f.bob))
}

func TestRejectThenResendReusesRequest(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)

	rejected, err := f.svc.RejectRequest(ctx, f.bob, res.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestRejected, rejected.Status)

	_, err = f.svc.RejectRequest(ctx, f.bob, res.Request.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotPending)

	again, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, OutcomeResent, again.Outcome)
	assert.Equal(t, res.Request.ID, again.Request.ID)
	assert.Equal(t, models.FriendRequestPending, again.Request.Status)
	assert.Len(t, f.store.state.requests, 1)
}

func TestReciprocalPendingAutoAccepts(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	first, err := f.svc.SendRequest(ctx, f.bob, "alice")
	require.NoError(t, err)

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAutoAccepted, res.Outcome)
	assert.Equal(t, first.Request.ID, res.Request.ID)
	assert.Equal(t, models.FriendRequestAccepted, res.Request.Status)

	assert.True(t, f.areFriends(t, f.alice, f.bob))
	assert.Len(t, f.store.state.requests, 1)
	assert.Zero(t, f.store.pendingBetween(f.alice.ID, f.bob.ID))
}

func TestRejectedReciprocalDoesNotMerge(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	first, err := f.svc.SendRequest(ctx, f.bob, "alice")
	require.NoError(t, err)
	_, err = f.svc.RejectRequest(ctx, f.alice, first.Request.ID)
	require.NoError(t, err)

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.NotEqual(t, first.Request.ID, res.Request.ID)
	assert.False(t, f.areFriends(t, f.alice, f.bob))
}

func TestResendPrefersPendingReciprocal(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	mine, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)
	_, err = f.svc.RejectRequest(ctx, f.bob, mine.Request.ID)
	require.NoError(t, err)

	_, err = f.svc.SendRequest(ctx, f.bob, "alice")
	require.NoError(t, err)

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAutoAccepted, res.Outcome)
	assert.True(t, f.areFriends(t, f.alice, f.bob))
	assert.Zero(t, f.store.pendingBetween(f.alice.ID, f.bob.ID))
}

func TestConcurrentOpposingRequestsLeaveOnePendingAtMost(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.svc.SendRequest(ctx, f.alice, "bob")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.svc.SendRequest(ctx, f.bob, "alice")
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.LessOrEqual(t, f.store.pendingBetween(f.alice.ID, f.bob.ID), 1)
	assert.True(t, f.areFriends(t, f.alice, f.bob))
}

func TestFailedTransactionRollsBack(t *testing.T) {
	f := newFriendFixture(t)
	ctx := context.Background()

	res, err := f.svc.SendRequest(ctx, f.alice, "bob")
	require.NoError(t, err)

	// Accepting as the wrong user must not leave partial state behind.
	_, err = f.svc.AcceptRequest(ctx, f.carol, res.Request.ID)
	require.Error(t, err)
	stored, err := f.store.FriendRequests().GetByID(ctx, res.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestPending, stored.Status)
	assert.Empty(t, f.store.state.friends)
}
