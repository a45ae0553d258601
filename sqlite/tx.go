package sqlite

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/snarkipus/letterbox"
)

const (
	txOpen int32 = iota
	txCommitted
	txRolledBack
)

// Tx is a single open transaction. Its legal terminal actions are Commit,
// Rollback, or abandonment, in which case the deferred Close issues a
// best-effort asynchronous rollback.
type Tx struct {
	tx    *sqlx.Tx
	state int32
}

// InsertSubscriber writes the subscriber with status pending_confirmation.
func (t *Tx) InsertSubscriber(ctx context.Context, ns letterbox.NewSubscriber) (string, error) {
	id := uuid.NewV4().String()
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO subscriptions (id, email, name, subscribed_at, status) VALUES (?, ?, ?, ?, ?)`,
		id, ns.Email.String(), ns.Name.String(), time.Now().UTC(), letterbox.StatusPendingConfirmation)
	if err != nil {
		return "", errors.Wrap(err, "failed to insert subscriber")
	}

	return id, nil
}

// StoreToken links token to subscriberID inside the same transaction.
func (t *Tx) StoreToken(ctx context.Context, subscriberID, token string) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO subscription_tokens (subscription_token, subscriber_id) VALUES (?, ?)`,
		token, subscriberID)
	if err != nil {
		return errors.Wrap(err, "failed to store subscription token")
	}

	return nil
}

// Commit ends the transaction. Calling it on a handle that is no longer open
// is a programming error.
func (t *Tx) Commit() error {
	if !atomic.CompareAndSwapInt32(&t.state, txOpen, txCommitted) {
		return letterbox.ErrInvalidTransactionState
	}

	if err := t.tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	if !atomic.CompareAndSwapInt32(&t.state, txOpen, txRolledBack) {
		return letterbox.ErrInvalidTransactionState
	}

	if err := t.tx.Rollback(); err != nil {
		return errors.Wrap(err, "failed to roll back transaction")
	}

	return nil
}

// Close is the scope-exit guard: deferred at Begin time, it rolls the
// transaction back asynchronously if no terminal action ran. It never blocks
// the exiting code path.
func (t *Tx) Close() {
	if atomic.CompareAndSwapInt32(&t.state, txOpen, txRolledBack) {
		tx := t.tx
		go func() {
			_ = tx.Rollback()
		}()
	}
}
