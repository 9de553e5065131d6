package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

// memStore is an in-memory repositories.Store. WithTx holds a single lock for
// the whole unit of work and restores a snapshot when fn fails.
type memStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	users    map[int64]models.User
	friends  map[[2]int64]bool
	requests map[int64]models.FriendRequest
	messages []models.Message
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		users:    map[int64]models.User{},
		friends:  map[[2]int64]bool{},
		requests: map[int64]models.FriendRequest{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		users:    make(map[int64]models.User, len(s.users)),
		friends:  make(map[[2]int64]bool, len(s.friends)),
		requests: make(map[int64]models.FriendRequest, len(s.requests)),
		messages: append([]models.Message(nil), s.messages...),
		nextID:   s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.friends {
		c.friends[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	return c
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

func (m *memStore) Users() repositories.UserRepository { return memUsers{m.state} }
func (m *memStore) FriendRequests() repositories.FriendRequestRepository {
	return memRequests{m.state}
}
func (m *memStore) Messages() repositories.MessageRepository { return memMessages{m.state} }

func (m *memStore) WithTx(ctx context.Context, fn func(repositories.Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.state.clone()
	if err := fn(m); err != nil {
		*m.state = *snapshot
		return err
	}
	return nil
}

// addUser seeds a user directly.
func (m *memStore) addUser(username string) models.UserSummary {
	u, _ := m.Users().Create(context.Background(), username, "hash")
	return u.Summary()
}

func (m *memStore) pendingBetween(a, b int64) int {
	n := 0
	for _, r := range m.state.requests {
		if r.Status != models.FriendRequestPending {
			continue
		}
		if (r.Sender.ID == a && r.Receiver.ID == b) || (r.Sender.ID == b && r.Receiver.ID == a) {
			n++
		}
	}
	return n
}

type memUsers struct{ s *memState }

func (r memUsers) Create(ctx context.Context, username, passwordHash string) (models.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return models.User{}, repositories.ErrUserExists
		}
	}
	u := models.User{ID: r.s.id(), Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	r.s.users[u.ID] = u
	return u, nil
}

func (r memUsers) GetByID(ctx context.Context, userID int64) (models.User, error) {
	u, ok := r.s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r memUsers) GetByUsername(ctx context.Context, username string) (models.User, error) {
	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrUserNotFound
}

func (r memUsers) ListFriends(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	var out []models.UserSummary
	for pair := range r.s.friends {
		if pair[0] == userID {
			out = append(out, r.s.users[pair[1]].Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r memUsers) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	return r.s.friends[[2]int64{userID, otherID}] && r.s.friends[[2]int64{otherID, userID}], nil
}

func (r memUsers) AddFriend(ctx context.Context, userID, friendID int64) error {
	r.s.friends[[2]int64{userID, friendID}] = true
	return nil
}

type memRequests struct{ s *memState }

func (r memRequests) Create(ctx context.Context, senderID, receiverID int64) (models.FriendRequest, error) {
	if _, err := r.FindBetween(ctx, senderID, receiverID); err == nil {
		return models.FriendRequest{}, repositories.ErrFriendRequestExists
	}
	now := time.Now()
	req := models.FriendRequest{
		ID:        r.s.id(),
		Sender:    r.s.users[senderID].Summary(),
		Receiver:  r.s.users[receiverID].Summary(),
		Status:    models.FriendRequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.requests[req.ID] = req
	return req, nil
}

func (r memRequests) GetByID(ctx context.Context, requestID int64) (models.FriendRequest, error) {
	req, ok := r.s.requests[requestID]
	if !ok {
		return models.FriendRequest{}, repositories.ErrFriendRequestNotFound
	}
	return req, nil
}

func (r memRequests) GetByIDForUpdate(ctx context.Context, requestID int64) (models.FriendRequest, error) {
	return r.GetByID(ctx, requestID)
}

func (r memRequests) FindBetween(ctx context.Context, senderID, receiverID int64) (models.FriendRequest, error) {
	for _, req := range r.s.requests {
		if req.Sender.ID == senderID && req.Receiver.ID == receiverID {
			return req, nil
		}
	}
	return models.FriendRequest{}, repositories.ErrFriendRequestNotFound
}

func (r memRequests) UpdateStatus(ctx context.Context, requestID int64, status models.FriendRequestStatus) (models.FriendRequest, error) {
	req, ok := r.s.requests[requestID]
	if !ok {
		return models.FriendRequest{}, repositories.ErrFriendRequestNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now()
	r.s.requests[requestID] = req
	return req, nil
}

func (r memRequests) ListPendingForReceiver(ctx context.Context, receiverID int64) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for _, req := range r.s.requests {
		if req.Receiver.ID == receiverID && req.Status == models.FriendRequestPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memMessages struct{ s *memState }

func (r memMessages) Create(ctx context.Context, senderID, receiverID int64, content string) (models.Message, error) {
	msg := models.Message{
		ID:       r.s.id(),
		Sender:   r.s.users[senderID].Summary(),
		Receiver: r.s.users[receiverID].Summary(),
		Content:  content,
		SentAt:   time.Now(),
	}
	r.s.messages = append(r.s.messages, msg)
	return msg, nil
}

func (r memMessages) ListConversation(ctx context.Context, userID, otherID int64) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.s.messages {
		if (m.Sender.ID == userID && m.Receiver.ID == otherID) || (m.Sender.ID == otherID && m.Receiver.ID == userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memMessages) ListUnread(ctx context.Context, receiverID int64) ([]models.Message, error) {
	var out []models.Message
	for _, m := range r.s.messages {
		if m.Receiver.ID == receiverID && !m.Read {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memMessages) MarkRead(ctx context.Context, receiverID int64, messageIDs []int64) (int64, error) {
	ids := make(map[int64]bool, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = true
	}
	var n int64
	for i := range r.s.messages {
		m := &r.s.messages[i]
		if ids[m.ID] && m.Receiver.ID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

var _ repositories.Store = (*memStore)(nil)
