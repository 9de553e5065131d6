package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/apperrors"
	"social-service/internal/services"
	"social-service/internal/telemetry"
)

// AuthHandler serves sign-up and sign-in.
type AuthHandler struct {
	accounts services.Accounts
	events   *telemetry.EventEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(accounts services.Accounts, events *telemetry.EventEmitter) *AuthHandler {
	return &AuthHandler{accounts: accounts, events: events}
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp registers a new user.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Username and password are required"))
		return
	}

	user, err := h.accounts.SignUp(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	id := user.ID
	h.events.Emit(c.Request.Context(), telemetry.EventUserRegistered, requestIDFromContext(c), &id, gin.H{
		"user_id":  user.ID,
		"username": user.Username,
	})
	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully!"})
}

// SignIn exchanges credentials for a bearer token.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Username and password are required"))
		return
	}

	session, err := h.accounts.SignIn(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    session.Token,
		"type":     "Bearer",
		"id":       session.User.ID,
		"username": session.User.Username,
	})
}
