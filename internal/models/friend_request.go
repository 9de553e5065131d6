package models

import "time"

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "PENDING"
	FriendRequestAccepted FriendRequestStatus = "ACCEPTED"
	FriendRequestRejected FriendRequestStatus = "REJECTED"
)

// CanTransitionTo reports whether a request may move from s to next.
// ACCEPTED is terminal; REJECTED may only be reopened as PENDING.
func (s FriendRequestStatus) CanTransitionTo(next FriendRequestStatus) bool {
	switch s {
	case FriendRequestPending:
		return next == FriendRequestAccepted || next == FriendRequestRejected
	case FriendRequestRejected:
		return next == FriendRequestPending
	default:
		return false
	}
}

// FriendRequest is a directed request from Sender to Receiver.
type FriendRequest struct {
	ID        int64               `db:"id" json:"id"`
	Sender    UserSummary         `db:"sender" json:"sender"`
	Receiver  UserSummary         `db:"receiver" json:"receiver"`
	Status    FriendRequestStatus `db:"status" json:"status"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}
