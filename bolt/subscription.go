package bolt

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/snarkipus/letterbox"
)

const (
	txOpen int32 = iota
	txCommitted
	txRolledBack
)

type subscriberStore struct {
	db *DB
}

// NewSubscriberStore returns a SubscriberStore backed by storm.
func NewSubscriberStore(db *DB) letterbox.SubscriberStore {
	return &subscriberStore{
		db: db,
	}
}

// Tx wraps a writable storm node with the guarded terminal-action contract.
type Tx struct {
	node  storm.Node
	state int32
}

// Begin opens a writable storm transaction.
func (ss *subscriberStore) Begin(ctx context.Context) (letterbox.SubscriberTx, error) {
	node, err := ss.db.stormDB.Begin(true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	return &Tx{node: node}, nil
}

// InsertSubscriber saves the subscriber with status pending_confirmation.
func (t *Tx) InsertSubscriber(ctx context.Context, ns letterbox.NewSubscriber) (string, error) {
	s := letterbox.Subscriber{
		ID:           uuid.NewV4().String(),
		Email:        ns.Email.String(),
		Name:         ns.Name.String(),
		SubscribedAt: time.Now().UTC(),
		Status:       letterbox.StatusPendingConfirmation,
	}
	if err := t.node.Save(&s); err != nil {
		return "", errors.Wrap(err, "failed to save subscriber")
	}

	return s.ID, nil
}

// StoreToken saves the token record in the same transaction.
func (t *Tx) StoreToken(ctx context.Context, subscriberID, token string) error {
	st := letterbox.SubscriptionToken{
		Token:        token,
		SubscriberID: subscriberID,
	}
	if err := t.node.Save(&st); err != nil {
		return errors.Wrap(err, "failed to save subscription token")
	}

	return nil
}

// Commit ends the transaction.
func (t *Tx) Commit() error {
	if !atomic.CompareAndSwapInt32(&t.state, txOpen, txCommitted) {
		return letterbox.ErrInvalidTransactionState
	}

	if err := t.node.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	if !atomic.CompareAndSwapInt32(&t.state, txOpen, txRolledBack) {
		return letterbox.ErrInvalidTransactionState
	}

	if err := t.node.Rollback(); err != nil {
		return errors.Wrap(err, "failed to roll back transaction")
	}

	return nil
}

// Close rolls the transaction back asynchronously when the handle was
// abandoned while still open.
func (t *Tx) Close() {
	if atomic.CompareAndSwapInt32(&t.state, txOpen, txRolledBack) {
		node := t.node
		go func() {
			_ = node.Rollback()
		}()
	}
}

// SubscriberIDByToken resolves a confirmation token to its subscriber.
func (ss *subscriberStore) SubscriberIDByToken(ctx context.Context, token string) (string, error) {
	var st letterbox.SubscriptionToken
	if err := ss.db.stormDB.One("Token", token, &st); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return "", letterbox.ErrNoRecord
		}
		return "", errors.Wrap(err, "failed to find subscriber by token")
	}

	return st.SubscriberID, nil
}

// ConfirmSubscriber promotes the subscriber to confirmed; re-confirming is a
// no-op.
func (ss *subscriberStore) ConfirmSubscriber(ctx context.Context, subscriberID string) error {
	err := ss.db.stormDB.UpdateField(&letterbox.Subscriber{ID: subscriberID}, "Status", letterbox.StatusConfirmed)
	if err != nil {
		return errors.Wrap(err, "failed to confirm subscriber")
	}

	return nil
}

// ConfirmedEmails returns the addresses of confirmed subscribers.
func (ss *subscriberStore) ConfirmedEmails(ctx context.Context) ([]letterbox.SubscriberEmail, error) {
	var subscribers []letterbox.Subscriber
	if err := ss.db.stormDB.Find("Status", letterbox.StatusConfirmed, &subscribers); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list confirmed subscribers")
	}

	emails := make([]letterbox.SubscriberEmail, 0, len(subscribers))
	for _, s := range subscribers {
		email, err := letterbox.ParseSubscriberEmail(s.Email)
		if err != nil {
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// PendingSubscriptions lists still-pending subscribers with their tokens.
func (ss *subscriberStore) PendingSubscriptions(ctx context.Context) ([]letterbox.PendingSubscription, error) {
	var subscribers []letterbox.Subscriber
	if err := ss.db.stormDB.Find("Status", letterbox.StatusPendingConfirmation, &subscribers); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to list pending subscribers")
	}

	pending := make([]letterbox.PendingSubscription, 0, len(subscribers))
	for _, s := range subscribers {
		var st letterbox.SubscriptionToken
		if err := ss.db.stormDB.One("SubscriberID", s.ID, &st); err != nil {
			if errors.Is(err, storm.ErrNotFound) {
				continue
			}
			return nil, errors.Wrap(err, "failed to find token for pending subscriber")
		}
		pending = append(pending, letterbox.PendingSubscription{Email: s.Email, Token: st.Token})
	}

	return pending, nil
}

// UnsubscribeByEmail marks the subscriber unsubscribed.
func (ss *subscriberStore) UnsubscribeByEmail(ctx context.Context, email string) error {
	var s letterbox.Subscriber
	if err := ss.db.stormDB.One("Email", email, &s); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return letterbox.ErrNoRecord
		}
		return errors.Wrap(err, "failed to find subscriber by email")
	}

	if err := ss.db.stormDB.UpdateField(&s, "Status", letterbox.StatusUnsubscribed); err != nil {
		return errors.Wrap(err, "failed to unsubscribe")
	}

	return nil
}
