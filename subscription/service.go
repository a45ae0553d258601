// Package subscription orchestrates the subscriber lifecycle: enrollment,
// confirmation, newsletter publication and removal.
package subscription

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/snarkipus/letterbox"
)

// Service implements letterbox.SubscriptionService.
type Service struct {
	store   letterbox.SubscriberStore
	email   letterbox.EmailService
	baseURL string
	logger  zerolog.Logger
}

// NewService returns a Service building confirmation links against baseURL.
func NewService(store letterbox.SubscriberStore, email letterbox.EmailService, baseURL string, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		email:   email,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Enroll validates the form, persists the subscriber and its confirmation
// token in one transaction, and sends the confirmation email only after the
// commit succeeded. Sending mail is irreversible, so it must never precede
// the commit: a failed commit after a sent email would have notified someone
// about a subscription that does not exist.
func (s *Service) Enroll(ctx context.Context, form letterbox.SubscriptionForm) error {
	op := "subscription.Enroll"

	ns, err := form.Parse()
	if err != nil {
		return err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}
	defer tx.Close()

	subscriberID, err := tx.InsertSubscriber(ctx, ns)
	if err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	token, err := letterbox.GenerateSubscriptionToken()
	if err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}
	if err := tx.StoreToken(ctx, subscriberID, token); err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	if err := s.email.SendConfirmationEmail(ns.Email.String(), s.confirmationLink(token)); err != nil {
		// The enrollment is committed and stands. The distinct code lets
		// callers tell "nothing happened" apart from "enrolled but
		// unnotified"; RenotifyPending picks these up out of band.
		return &letterbox.Error{Code: letterbox.ErrEmailDelivery, Op: op, Err: err}
	}

	return nil
}

// Confirm promotes the subscriber bound to token. Unknown and malformed
// tokens are rejected identically; re-confirming succeeds.
func (s *Service) Confirm(ctx context.Context, token string) error {
	op := "subscription.Confirm"

	subscriberID, err := s.store.SubscriberIDByToken(ctx, token)
	if err != nil {
		if errors.Is(err, letterbox.ErrNoRecord) {
			return &letterbox.Error{Code: letterbox.ErrUnauthorized, Op: op, Message: "unknown subscription token"}
		}
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	if err := s.store.ConfirmSubscriber(ctx, subscriberID); err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	return nil
}

// Publish sends the newsletter to every confirmed subscriber. Pending and
// unsubscribed addresses receive nothing.
func (s *Service) Publish(ctx context.Context, n letterbox.Newsletter) error {
	op := "subscription.Publish"

	emails, err := s.store.ConfirmedEmails(ctx)
	if err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	for _, email := range emails {
		if err := s.email.Send(email.String(), n.Title, n.Content.HTML, n.Content.Text); err != nil {
			return &letterbox.Error{
				Code: letterbox.ErrEmailDelivery,
				Op:   op,
				Err:  errors.Wrapf(err, "failed to send newsletter to %s", email),
			}
		}
	}

	return nil
}

// Unsubscribe marks the subscriber unsubscribed.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	op := "subscription.Unsubscribe"

	if err := s.store.UnsubscribeByEmail(ctx, email); err != nil {
		if errors.Is(err, letterbox.ErrNoRecord) {
			return &letterbox.Error{Code: letterbox.ErrNotFound, Op: op, Message: "email is not subscribed"}
		}
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	return nil
}

// RenotifyPending re-sends confirmation emails to subscribers that are still
// pending. Send failures are logged and skipped so one bad address does not
// block the rest.
func (s *Service) RenotifyPending(ctx context.Context) error {
	op := "subscription.RenotifyPending"

	pending, err := s.store.PendingSubscriptions(ctx)
	if err != nil {
		return &letterbox.Error{Code: letterbox.ErrInternal, Op: op, Err: err}
	}

	for _, p := range pending {
		if err := s.email.SendConfirmationEmail(p.Email, s.confirmationLink(p.Token)); err != nil {
			s.logger.Error().Err(err).Msg("Failed to re-send confirmation email")
		}
	}

	return nil
}

func (s *Service) confirmationLink(token string) string {
	return fmt.Sprintf("%s/subscribe/confirm?subscription_token=%s", s.baseURL, token)
}
