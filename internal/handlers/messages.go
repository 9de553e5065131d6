package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/apperrors"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

// MessageHandler manages direct message endpoints.
type MessageHandler struct {
	messages services.Messaging
	hub      *ws.Hub
	events   *telemetry.EventEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages services.Messaging, hub *ws.Hub, events *telemetry.EventEmitter) *MessageHandler {
	return &MessageHandler{messages: messages, hub: hub, events: events}
}

// SendMessage stores a message to :username and pushes it to the receiver.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Invalid request body"))
		return
	}

	msg, err := h.messages.SendMessage(c.Request.Context(), actor, c.Param("username"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Emit(c.Request.Context(), telemetry.EventMessageSent, requestIDFromContext(c), actorIDFromContext(c), gin.H{
		"message_id":  msg.ID,
		"sender_id":   msg.Sender.ID,
		"receiver_id": msg.Receiver.ID,
	})
	h.hub.DeliverMessage(msg)

	c.JSON(http.StatusOK, msg)
}

// GetConversation returns the conversation with :username, marking incoming
// messages as read.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	msgs, err := h.messages.GetConversation(c.Request.Context(), actor, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilMessages(msgs))
}

// GetUnread returns unread messages addressed to the authenticated user.
func (h *MessageHandler) GetUnread(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	msgs, err := h.messages.GetUnread(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilMessages(msgs))
}

func nonNilMessages(msgs []models.Message) []models.Message {
	if msgs == nil {
		return []models.Message{}
	}
	return msgs
}
