package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"social-service/internal/apperrors"
	"social-service/internal/middleware"
	"social-service/internal/models"
	"social-service/internal/observability"
)

// Identifier resolves an Authorization header value to a user.
type Identifier interface {
	Identify(ctx context.Context, header string) (models.UserSummary, bool, error)
}

// MessagesWebSocketHandler streams a user's incoming messages and friend
// request events.
type MessagesWebSocketHandler struct {
	hub      *Hub
	identity Identifier
}

// NewMessagesWebSocketHandler constructs a MessagesWebSocketHandler.
func NewMessagesWebSocketHandler(hub *Hub, identity Identifier) *MessagesWebSocketHandler {
	return &MessagesWebSocketHandler{hub: hub, identity: identity}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, upgrades the connection and registers the client.
func (h *MessagesWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("social-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	// Browsers cannot set headers on websocket upgrades.
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			header = "Bearer " + token
		}
	}

	actor, ok, err := h.identity.Identify(ctx, header)
	if err != nil && !middleware.IsCredentialError(err) {
		c.JSON(http.StatusInternalServerError, gin.H{"message": apperrors.MessageOf(err)})
		return
	}
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": apperrors.ErrUnauthenticated.Message})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      actor.ID,
		IP:          c.ClientIP(),
		RequestID:   observability.RequestID(c),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(actor.ID, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")

	log := logrus.WithFields(logrus.Fields{
		"function": "MessagesWebSocketHandler.Handle",
		"user_id":  info.UserID,
		"conn_id":  info.ConnID,
		"ip":       info.IP,
	})
	log.Info("websocket connected")

	// Inbound frames are ignored; reading detects the close.
	go func() {
		defer func() {
			h.hub.RemoveClient(actor.ID, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
					log.WithError(err).Warn("websocket read error")
				}
				log.WithField("duration_ms", time.Since(info.ConnectedAt).Milliseconds()).Info("websocket disconnected")
				return
			}
		}
	}()
}
