package models

import "time"

// Message represents a direct message between two friends.
type Message struct {
	ID       int64       `db:"id" json:"id"`
	Sender   UserSummary `db:"sender" json:"sender"`
	Receiver UserSummary `db:"receiver" json:"receiver"`
	Content  string      `db:"content" json:"content"`
	SentAt   time.Time   `db:"sent_at" json:"sent_at"`
	Read     bool        `db:"is_read" json:"read"`
}

// MessageEvent is pushed through websockets to the receiver.
type MessageEvent struct {
	Type          string         `json:"type"`
	Message       *Message       `json:"message,omitempty"`
	FriendRequest *FriendRequest `json:"friend_request,omitempty"`
}
