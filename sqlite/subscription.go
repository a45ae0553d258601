package sqlite

import (
	"database/sql"

	"context"

	"github.com/pkg/errors"

	"github.com/snarkipus/letterbox"
)

type subscriberStore struct {
	db *DB
}

// NewSubscriberStore returns a SubscriberStore backed by SQLite.
func NewSubscriberStore(db *DB) letterbox.SubscriberStore {
	return &subscriberStore{
		db: db,
	}
}

// Begin opens a transaction and hands out its guarded handle.
func (ss *subscriberStore) Begin(ctx context.Context) (letterbox.SubscriberTx, error) {
	tx, err := ss.db.sqlDB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	return &Tx{tx: tx}, nil
}

// SubscriberIDByToken resolves a confirmation token to its subscriber.
func (ss *subscriberStore) SubscriberIDByToken(ctx context.Context, token string) (string, error) {
	var id string
	err := ss.db.sqlDB.GetContext(ctx, &id,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = ?`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", letterbox.ErrNoRecord
		}
		return "", errors.Wrap(err, "failed to find subscriber by token")
	}

	return id, nil
}

// ConfirmSubscriber promotes the subscriber to confirmed. The update is
// idempotent.
func (ss *subscriberStore) ConfirmSubscriber(ctx context.Context, subscriberID string) error {
	_, err := ss.db.sqlDB.ExecContext(ctx,
		`UPDATE subscriptions SET status = ? WHERE id = ?`,
		letterbox.StatusConfirmed, subscriberID)
	if err != nil {
		return errors.Wrap(err, "failed to confirm subscriber")
	}

	return nil
}

// ConfirmedEmails returns the addresses of confirmed subscribers. Rows that
// no longer parse are skipped; they were validated at enrollment, so this
// only guards against out-of-band edits.
func (ss *subscriberStore) ConfirmedEmails(ctx context.Context) ([]letterbox.SubscriberEmail, error) {
	var rows []string
	err := ss.db.sqlDB.SelectContext(ctx, &rows,
		`SELECT email FROM subscriptions WHERE status = ?`, letterbox.StatusConfirmed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list confirmed subscribers")
	}

	emails := make([]letterbox.SubscriberEmail, 0, len(rows))
	for _, raw := range rows {
		email, err := letterbox.ParseSubscriberEmail(raw)
		if err != nil {
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// PendingSubscriptions lists still-pending subscribers with their tokens.
func (ss *subscriberStore) PendingSubscriptions(ctx context.Context) ([]letterbox.PendingSubscription, error) {
	var pending []letterbox.PendingSubscription
	err := ss.db.sqlDB.SelectContext(ctx, &pending,
		`SELECT s.email, t.subscription_token
		 FROM subscriptions s
		 JOIN subscription_tokens t ON t.subscriber_id = s.id
		 WHERE s.status = ?`, letterbox.StatusPendingConfirmation)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending subscriptions")
	}

	return pending, nil
}

// UnsubscribeByEmail marks the subscriber unsubscribed.
func (ss *subscriberStore) UnsubscribeByEmail(ctx context.Context, email string) error {
	res, err := ss.db.sqlDB.ExecContext(ctx,
		`UPDATE subscriptions SET status = ? WHERE email = ?`,
		letterbox.StatusUnsubscribed, email)
	if err != nil {
		return errors.Wrap(err, "failed to unsubscribe")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to count unsubscribed rows")
	}
	if n == 0 {
		return letterbox.ErrNoRecord
	}

	return nil
}
