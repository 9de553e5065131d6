package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-service/internal/apperrors"
	"social-service/internal/models"
	"social-service/internal/services"
	"social-service/internal/telemetry"
	"social-service/internal/ws"
)

// FriendHandler manages friend request endpoints.
type FriendHandler struct {
	friends services.Friends
	hub     *ws.Hub
	events  *telemetry.EventEmitter
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends services.Friends, hub *ws.Hub, events *telemetry.EventEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, hub: hub, events: events}
}

// ListFriends returns the authenticated user's friends.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	friends, err := h.friends.ListFriends(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	if friends == nil {
		friends = []models.UserSummary{}
	}
	c.JSON(http.StatusOK, friends)
}

// ListPending returns PENDING requests addressed to the authenticated user.
func (h *FriendHandler) ListPending(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	requests, err := h.friends.ListPendingReceived(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	if requests == nil {
		requests = []models.FriendRequest{}
	}
	c.JSON(http.StatusOK, requests)
}

// SendRequest sends a friend request to :username.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	result, err := h.friends.SendRequest(c.Request.Context(), actor, c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	req := result.Request
	if result.Outcome == services.OutcomeAutoAccepted {
		// req is the target's request to the actor, so its sender is the other party.
		h.emit(c, telemetry.EventFriendRequestAutoAccepted, req)
		h.hub.NotifyFriendRequest(req.Sender.ID, telemetry.EventFriendRequestAutoAccepted, req)
	} else {
		h.emit(c, telemetry.EventFriendRequestSent, req)
		h.hub.NotifyFriendRequest(req.Receiver.ID, telemetry.EventFriendRequestSent, req)
	}

	c.JSON(http.StatusOK, gin.H{"message": result.Outcome.Message()})
}

// AcceptRequest accepts the request identified by :id.
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	req, err := h.friends.AcceptRequest(c.Request.Context(), actor, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emit(c, telemetry.EventFriendRequestAccepted, req)
	h.hub.NotifyFriendRequest(req.Sender.ID, telemetry.EventFriendRequestAccepted, req)
	c.JSON(http.StatusOK, gin.H{"message": "Friend request accepted"})
}

// RejectRequest rejects the request identified by :id.
func (h *FriendHandler) RejectRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	req, err := h.friends.RejectRequest(c.Request.Context(), actor, requestID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emit(c, telemetry.EventFriendRequestRejected, req)
	c.JSON(http.StatusOK, gin.H{"message": "Friend request rejected"})
}

func (h *FriendHandler) emit(c *gin.Context, eventType string, req models.FriendRequest) {
	h.events.Emit(c.Request.Context(), eventType, requestIDFromContext(c), actorIDFromContext(c), gin.H{
		"request_id":  req.ID,
		"sender_id":   req.Sender.ID,
		"receiver_id": req.Receiver.ID,
		"status":      req.Status,
	})
}

func parseRequestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperrors.ErrInvalidRequestID)
		return 0, false
	}
	return id, true
}
