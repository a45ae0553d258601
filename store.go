package letterbox

import (
	"context"
	"errors"
)

// ErrNoRecord is returned by store lookups that match nothing.
var ErrNoRecord = errors.New("record not found")

// ErrInvalidTransactionState is returned when a terminal action is invoked on
// a transaction that is no longer open.
var ErrInvalidTransactionState = errors.New("transaction is not open")

// SubscriberTx is a single open transaction against the subscriber store.
// Exactly one of Commit or Rollback may be called; Close must be deferred as
// soon as the handle is obtained. If the handle is abandoned while still open
// (error return, panic), Close issues a best-effort asynchronous rollback so
// no code path leaves a transaction open on the server.
type SubscriberTx interface {
	// InsertSubscriber persists ns with status pending_confirmation and
	// returns the new record id.
	InsertSubscriber(ctx context.Context, ns NewSubscriber) (string, error)

	// StoreToken links token to an inserted subscriber in the same
	// transaction.
	StoreToken(ctx context.Context, subscriberID, token string) error

	Commit() error
	Rollback() error
	Close()
}

// SubscriberStore is the persistence boundary for subscriptions. One
// transaction handle belongs to one logical operation; handles are never
// shared across requests.
type SubscriberStore interface {
	Begin(ctx context.Context) (SubscriberTx, error)

	// SubscriberIDByToken returns ErrNoRecord for unknown tokens.
	SubscriberIDByToken(ctx context.Context, token string) (string, error)

	// ConfirmSubscriber marks the subscriber confirmed. Confirming an
	// already-confirmed subscriber is a no-op.
	ConfirmSubscriber(ctx context.Context, subscriberID string) error

	// ConfirmedEmails lists the addresses of confirmed subscribers only.
	ConfirmedEmails(ctx context.Context) ([]SubscriberEmail, error)

	// PendingSubscriptions lists subscribers still awaiting confirmation
	// together with their tokens.
	PendingSubscriptions(ctx context.Context) ([]PendingSubscription, error)

	// UnsubscribeByEmail marks the subscriber unsubscribed.
	UnsubscribeByEmail(ctx context.Context, email string) error
}

// Database is implemented by every storage backend.
type Database interface {
	Open() error
	Close() error
}
