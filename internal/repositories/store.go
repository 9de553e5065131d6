package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const defaultTxAttempts = 5

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Users() UserRepository
	FriendRequests() FriendRequestRepository
	Messages() MessageRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	Repos
	// WithTx runs fn inside a serializable transaction. Serialization
	// failures are retried; any other error from fn rolls back and is
	// returned unchanged.
	WithTx(ctx context.Context, fn func(Repos) error) error
}

// SQLStore is the sqlx-backed Store.
type SQLStore struct {
	db          *sqlx.DB
	maxAttempts int
}

// NewStore constructs a SQLStore.
func NewStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, maxAttempts: defaultTxAttempts}
}

func (s *SQLStore) Users() UserRepository                   { return NewUserRepo(s.db) }
func (s *SQLStore) FriendRequests() FriendRequestRepository { return NewFriendRequestRepo(s.db) }
func (s *SQLStore) Messages() MessageRepository             { return NewMessageRepo(s.db) }

// WithTx implements Store.
func (s *SQLStore) WithTx(ctx context.Context, fn func(Repos) error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if !IsRetryable(err) {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"function": "SQLStore.WithTx",
			"attempt":  attempt,
			"error":    err.Error(),
		}).Debug("serializable transaction conflict, retrying")
	}
	return fmt.Errorf("transaction aborted after %d attempts: %w", s.maxAttempts, err)
}

func (s *SQLStore) runTx(ctx context.Context, fn func(Repos) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(txRepos{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type txRepos struct {
	tx *sqlx.Tx
}

func (r txRepos) Users() UserRepository                   { return NewUserRepo(r.tx) }
func (r txRepos) FriendRequests() FriendRequestRepository { return NewFriendRequestRepo(r.tx) }
func (r txRepos) Messages() MessageRepository             { return NewMessageRepo(r.tx) }

// IsRetryable reports whether err is a PostgreSQL serialization failure or
// deadlock, after which the whole transaction may be replayed.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
