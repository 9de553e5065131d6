package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/models"
)

type staticIdentifier struct {
	header string
	user   models.UserSummary
}

func (s staticIdentifier) Identify(ctx context.Context, header string) (models.UserSummary, bool, error) {
	if header != s.header {
		return models.UserSummary{}, false, nil
	}
	return s.user, true, nil
}

func newWSServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewMessagesWebSocketHandler(hub, staticIdentifier{
		header: "Bearer good",
		user:   models.UserSummary{ID: 2, Username: "bob"},
	})
	r.GET("/ws/messages", handler.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestMessagesWebSocketRejectsAnonymous(t *testing.T) {
	srv := newWSServer(t, NewHub())

	resp, err := http.Get(srv.URL + "/ws/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMessagesWebSocketDeliversToReceiver(t *testing.T) {
	hub := NewHub()
	srv := newWSServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/messages?token=good"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(2) == 1 }, time.Second, 10*time.Millisecond)

	hub.DeliverMessage(models.Message{
		ID:       11,
		Sender:   models.UserSummary{ID: 1, Username: "alice"},
		Receiver: models.UserSummary{ID: 2, Username: "bob"},
		Content:  "hi",
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event models.MessageEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "message", event.Type)
	require.NotNil(t, event.Message)
	assert.Equal(t, "hi", event.Message.Content)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connections(2) == 0 }, time.Second, 10*time.Millisecond)
}

type failingIdentifier struct{}

func (failingIdentifier) Identify(ctx context.Context, header string) (models.UserSummary, bool, error) {
	return models.UserSummary{}, false, assert.AnError
}

func TestMessagesWebSocketLookupFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/messages", NewMessagesWebSocketHandler(NewHub(), failingIdentifier{}).Handle)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ws/messages?token=anything")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
