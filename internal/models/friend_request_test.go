package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFriendRequestTransitions(t *testing.T) {
	cases := []struct {
		from, to FriendRequestStatus
		want     bool
	}{
		{FriendRequestPending, FriendRequestAccepted, true},
		{FriendRequestPending, FriendRequestRejected, true},
		{FriendRequestPending, FriendRequestPending, false},
		{FriendRequestRejected, FriendRequestPending, true},
		{FriendRequestRejected, FriendRequestAccepted, false},
		{FriendRequestAccepted, FriendRequestPending, false},
		{FriendRequestAccepted, FriendRequestRejected, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
