package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/snarkipus/letterbox"
)

type userStore struct {
	db *DB
}

// NewUserStore returns a read-only UserStore backed by SQLite. Operator
// accounts are seeded externally.
func NewUserStore(db *DB) letterbox.UserStore {
	return &userStore{
		db: db,
	}
}

// UserByUsername returns letterbox.ErrNoRecord for unknown usernames.
func (us *userStore) UserByUsername(ctx context.Context, username string) (*letterbox.User, error) {
	var u letterbox.User
	err := us.db.sqlDB.GetContext(ctx, &u,
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, letterbox.ErrNoRecord
		}
		return nil, errors.Wrap(err, "failed to find user by username")
	}

	return &u, nil
}
