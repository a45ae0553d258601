// Package mock provides testify mocks for the service interfaces.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/snarkipus/letterbox"
)

// SubscriptionService is a mock letterbox.SubscriptionService.
type SubscriptionService struct {
	mock.Mock
}

func (m *SubscriptionService) Enroll(ctx context.Context, form letterbox.SubscriptionForm) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

func (m *SubscriptionService) Confirm(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *SubscriptionService) Publish(ctx context.Context, n letterbox.Newsletter) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *SubscriptionService) Unsubscribe(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *SubscriptionService) RenotifyPending(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// AuthService is a mock letterbox.AuthService.
type AuthService struct {
	mock.Mock
}

func (m *AuthService) ValidateCredentials(ctx context.Context, creds letterbox.Credentials) (string, error) {
	args := m.Called(ctx, creds)
	return args.String(0), args.Error(1)
}

// EmailService is a mock letterbox.EmailService.
type EmailService struct {
	mock.Mock
}

func (m *EmailService) SendConfirmationEmail(to, confirmationLink string) error {
	args := m.Called(to, confirmationLink)
	return args.Error(0)
}

func (m *EmailService) Send(to, subject, htmlBody, textBody string) error {
	args := m.Called(to, subject, htmlBody, textBody)
	return args.Error(0)
}

// UserStore is a mock letterbox.UserStore.
type UserStore struct {
	mock.Mock
}

func (m *UserStore) UserByUsername(ctx context.Context, username string) (*letterbox.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*letterbox.User), args.Error(1)
	}
	return nil, args.Error(1)
}
