package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"social-service/internal/models"
	"social-service/internal/observability"
)

type client struct {
	info ConnInfo
	// gorilla connections allow a single concurrent writer.
	writeMu sync.Mutex
}

// Hub tracks websocket connections per user.
type Hub struct {
	users map[int64]map[*websocket.Conn]*client
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		users: make(map[int64]map[*websocket.Conn]*client),
	}
}

// AddClient registers a websocket connection for a user.
func (h *Hub) AddClient(userID int64, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.users[userID]; !ok {
		h.users[userID] = make(map[*websocket.Conn]*client)
	}
	h.users[userID][conn] = &client{info: info}
}

// RemoveClient removes a user's websocket connection.
func (h *Hub) RemoveClient(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.users[userID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.users, userID)
		}
	}
}

// Connections returns how many sockets the user has open.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// DeliverMessage pushes a new message to the receiver's connections.
func (h *Hub) DeliverMessage(msg models.Message) {
	h.notify(msg.Receiver.ID, models.MessageEvent{Type: "message", Message: &msg})
}

// NotifyFriendRequest tells userID about a friend request transition.
func (h *Hub) NotifyFriendRequest(userID int64, eventType string, req models.FriendRequest) {
	h.notify(userID, models.MessageEvent{Type: eventType, FriendRequest: &req})
}

func (h *Hub) notify(userID int64, event models.MessageEvent) {
	if h == nil {
		return
	}

	h.mu.RLock()
	targets := make(map[*websocket.Conn]*client, len(h.users[userID]))
	for conn, c := range h.users[userID] {
		targets[conn] = c
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	for conn, c := range targets {
		if conn == nil {
			continue
		}
		c.writeMu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, payload)
		c.writeMu.Unlock()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Hub.notify",
				"user_id":  userID,
				"conn_id":  c.info.ConnID,
				"error":    err.Error(),
			}).Warn("websocket write error")
			conn.Close()
			h.RemoveClient(userID, conn)
			observability.IncWSEvent("ws_error")
			continue
		}
		observability.IncWSEvent(event.Type)
	}
}
