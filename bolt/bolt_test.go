package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snarkipus/letterbox"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db := NewDB(filepath.Join(t.TempDir(), "letterbox.db"))
	require.NoError(t, db.Open())
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func mustNewSubscriber(t *testing.T, email, name string) letterbox.NewSubscriber {
	t.Helper()

	ns, err := letterbox.SubscriptionForm{Email: email, Name: name}.Parse()
	require.NoError(t, err)
	return ns
}

func TestEnrollmentTransactionCommit(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewSubscriberStore(db)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Close()

	id, err := tx.InsertSubscriber(ctx, mustNewSubscriber(t, "ursula_le_guin@gmail.com", "le guin"))
	require.NoError(t, err)
	require.NoError(t, tx.StoreToken(ctx, id, "aToken"))
	require.NoError(t, tx.Commit())

	got, err := store.SubscriberIDByToken(ctx, "aToken")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, store.ConfirmSubscriber(ctx, id))
	require.NoError(t, store.ConfirmSubscriber(ctx, id))

	emails, err := store.ConfirmedEmails(ctx)
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "ursula_le_guin@gmail.com", emails[0].String())
}

func TestEnrollmentTransactionRollback(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewSubscriberStore(db)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Close()

	id, err := tx.InsertSubscriber(ctx, mustNewSubscriber(t, "ursula_le_guin@gmail.com", "le guin"))
	require.NoError(t, err)
	require.NoError(t, tx.StoreToken(ctx, id, "aToken"))
	require.NoError(t, tx.Rollback())

	_, err = store.SubscriberIDByToken(ctx, "aToken")
	assert.ErrorIs(t, err, letterbox.ErrNoRecord)
}

func TestAbandonedTransactionRollsBack(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewSubscriberStore(db)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	_, err = tx.InsertSubscriber(ctx, mustNewSubscriber(t, "ursula_le_guin@gmail.com", "le guin"))
	require.NoError(t, err)

	tx.Close()

	// The background rollback releases the single bolt writer; a new write
	// transaction succeeding proves the abandoned one is gone.
	require.Eventually(t, func() bool {
		next, err := store.Begin(ctx)
		if err != nil {
			return false
		}
		defer next.Close()
		return next.Rollback() == nil
	}, 2*time.Second, 10*time.Millisecond)

	pending, err := store.PendingSubscriptions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTerminalActionTwice(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	store := NewSubscriberStore(db)
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	defer tx.Close()

	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), letterbox.ErrInvalidTransactionState)
	assert.ErrorIs(t, tx.Rollback(), letterbox.ErrInvalidTransactionState)
}

func TestUserStore(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	users := NewUserStore(db)
	ctx := context.Background()

	require.NoError(t, db.stormDB.Save(&letterbox.User{
		ID:           "user-1",
		Username:     "editor",
		PasswordHash: "$argon2id$v=19$m=15000,t=2,p=1$c2FsdA$aGFzaA",
	}))

	u, err := users.UserByUsername(ctx, "editor")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)

	_, err = users.UserByUsername(ctx, "nonexistent-user")
	assert.ErrorIs(t, err, letterbox.ErrNoRecord)
}
