package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Domain event types.
const (
	EventFriendRequestSent         = "friend_request.sent"
	EventFriendRequestAccepted     = "friend_request.accepted"
	EventFriendRequestAutoAccepted = "friend_request.auto_accepted"
	EventFriendRequestRejected     = "friend_request.rejected"
	EventMessageSent               = "message.sent"
	EventUserRegistered            = "user.registered"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

type EventEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
}

type Envelope struct {
	SchemaVersion int    `json:"schema_version"`
	EventType     string `json:"event_type"`
	OccurredAt    string `json:"occurred_at"`
	Service       string `json:"service"`
	Environment   string `json:"environment"`
	RequestID     string `json:"request_id"`
	ActorID       *int64 `json:"actor_id,omitempty"`
	Payload       any    `json:"payload"`
}

func NewEventEmitter(publisher Publisher, routingKey, service, environment string) *EventEmitter {
	return &EventEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
	}
}

// Emit publishes a domain event. Publish failures are logged and swallowed so
// they never fail the request that produced the event.
func (e *EventEmitter) Emit(ctx context.Context, eventType, requestID string, actorID *int64, payload any) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := Envelope{
		SchemaVersion: 1,
		EventType:     eventType,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		ActorID:       actorID,
		Payload:       payload,
	}

	if err := e.publisher.Publish(ctx, e.routingKey+"."+eventType, envelope); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "EventEmitter.Emit",
			"event_type": eventType,
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("event publish failed")
	}
}
