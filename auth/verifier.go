package auth

import (
	"context"
	"errors"
	"runtime"

	"github.com/snarkipus/letterbox"
)

// dummyPasswordHash equalizes the hashing work done for unknown usernames so
// response timing does not reveal whether a username exists. It matches no
// password.
const dummyPasswordHash = "$argon2id$v=19$m=15000,t=2,p=1$" +
	"gZiV/M1gPc22ElAH/Jh1Hw$" +
	"CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"

// ErrInvalidCredentials is the single failure every rejected authentication
// attempt maps to. Unknown username, wrong password and corrupt stored hash
// are deliberately indistinguishable.
var ErrInvalidCredentials = &letterbox.Error{
	Code:    letterbox.ErrUnauthorized,
	Message: "invalid username or password",
}

// Verifier implements letterbox.AuthService.
type Verifier struct {
	users  letterbox.UserStore
	hasher PasswordHasher
	sem    chan struct{}
}

// NewVerifier returns a Verifier whose hash computations are bounded to one
// per CPU so a burst of logins cannot starve request handling.
func NewVerifier(users letterbox.UserStore, hasher PasswordHasher) *Verifier {
	return &Verifier{
		users:  users,
		hasher: hasher,
		sem:    make(chan struct{}, runtime.GOMAXPROCS(0)),
	}
}

// ValidateCredentials returns the user id when the username exists and the
// password matches its stored hash. The hash verification runs exactly once
// per attempt, against the dummy hash when the username is unknown.
func (v *Verifier) ValidateCredentials(ctx context.Context, creds letterbox.Credentials) (string, error) {
	var (
		userID       string
		expectedHash = dummyPasswordHash
	)

	user, err := v.users.UserByUsername(ctx, creds.Username)
	switch {
	case err == nil:
		userID = user.ID
		expectedHash = user.PasswordHash
	case errors.Is(err, letterbox.ErrNoRecord):
		// Proceed with the dummy hash so the expensive comparison still runs.
	default:
		return "", &letterbox.Error{Code: letterbox.ErrInternal, Op: "auth.ValidateCredentials", Err: err}
	}

	match, err := v.verify(ctx, creds.Password, expectedHash)
	if err != nil {
		if ctx.Err() != nil {
			return "", &letterbox.Error{Code: letterbox.ErrInternal, Op: "auth.ValidateCredentials", Err: err}
		}
		// A hash that cannot be parsed must look like any other rejection.
		return "", ErrInvalidCredentials
	}
	if userID == "" || !match {
		return "", ErrInvalidCredentials
	}

	return userID, nil
}

// verify offloads the CPU-expensive comparison to its own goroutine, bounded
// by the semaphore, and honors cancellation while waiting.
func (v *Verifier) verify(ctx context.Context, password, encodedHash string) (bool, error) {
	select {
	case v.sem <- struct{}{}:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	type result struct {
		match bool
		err   error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() { <-v.sem }()
		match, err := v.hasher.Verify(password, encodedHash)
		ch <- result{match: match, err: err}
	}()

	select {
	case res := <-ch:
		return res.match, res.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
