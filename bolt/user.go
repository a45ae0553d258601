package bolt

import (
	"context"

	"github.com/asdine/storm/v3"
	"github.com/pkg/errors"

	"github.com/snarkipus/letterbox"
)

type userStore struct {
	db *DB
}

// NewUserStore returns a read-only UserStore backed by storm.
func NewUserStore(db *DB) letterbox.UserStore {
	return &userStore{
		db: db,
	}
}

// UserByUsername returns letterbox.ErrNoRecord for unknown usernames.
func (us *userStore) UserByUsername(ctx context.Context, username string) (*letterbox.User, error) {
	var u letterbox.User
	if err := us.db.stormDB.One("Username", username, &u); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return nil, letterbox.ErrNoRecord
		}
		return nil, errors.Wrap(err, "failed to find user by username")
	}

	return &u, nil
}
