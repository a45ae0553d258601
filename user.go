package letterbox

import "context"

// User is an operator account allowed to publish newsletters. Users are
// seeded externally; this service only ever reads them.
type User struct {
	ID           string `db:"id" storm:"id"`
	Username     string `db:"username" storm:"unique"`
	PasswordHash string `db:"password_hash"`
}

// Credentials is a transient username/password pair for a single
// authentication attempt. It is never persisted and never logged.
type Credentials struct {
	Username string
	Password string
}

// UserStore reads stored operator accounts.
type UserStore interface {
	// UserByUsername returns ErrNoRecord when the username is unknown.
	UserByUsername(ctx context.Context, username string) (*User, error)
}

// AuthService validates credentials for both the interactive login and the
// Basic-auth newsletter publication path.
type AuthService interface {
	// ValidateCredentials returns the user id on success. Unknown username,
	// wrong password and corrupt stored hash are indistinguishable to the
	// caller.
	ValidateCredentials(ctx context.Context, creds Credentials) (string, error)
}
