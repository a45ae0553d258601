package letterbox

import (
	"net/mail"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

// Subscriber status values
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
	StatusUnsubscribed        = "unsubscribed"
)

const maxNameGraphemes = 256

// Characters that are never allowed in a subscriber name.
const forbiddenNameChars = "/()\"<>\\{}"

// SubscriberName is a validated subscriber display name. The zero value is
// invalid; go through ParseSubscriberName.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates raw and wraps it. The stored value is the
// original string, not the trimmed one.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	op := "ParseSubscriberName"
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, &Error{Code: ErrInvalid, Op: op, Message: "name must not be empty"}
	}
	if uniseg.GraphemeClusterCount(raw) > maxNameGraphemes {
		return SubscriberName{}, &Error{Code: ErrInvalid, Op: op, Message: "name must not be longer than 256 characters"}
	}
	if strings.ContainsAny(raw, forbiddenNameChars) {
		return SubscriberName{}, &Error{Code: ErrInvalid, Op: op, Message: "name contains a forbidden character"}
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string {
	return n.value
}

// SubscriberEmail is a validated email address.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail accepts a bare mailbox address. Display names and
// comments are rejected so the stored value is exactly what was submitted.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	op := "ParseSubscriberEmail"
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return SubscriberEmail{}, &Error{Code: ErrInvalid, Op: op, Message: "not a valid email address"}
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string {
	return e.value
}

// NewSubscriber is a fully validated enrollment request. It can only be
// produced by SubscriptionForm.Parse.
type NewSubscriber struct {
	Email SubscriberEmail
	Name  SubscriberName
}

// SubscriptionForm carries the raw form fields of POST /subscribe.
type SubscriptionForm struct {
	Email string
	Name  string
}

// Parse converts the raw form into a NewSubscriber or fails with an invalid
// error before anything touches the database.
func (f SubscriptionForm) Parse() (NewSubscriber, error) {
	name, err := ParseSubscriberName(f.Name)
	if err != nil {
		return NewSubscriber{}, err
	}
	email, err := ParseSubscriberEmail(f.Email)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Email: email, Name: name}, nil
}

// Subscriber is the persisted record. Created pending_confirmation, promoted
// to confirmed exactly once by the confirmation flow, never deleted.
type Subscriber struct {
	ID           string    `db:"id" storm:"id"`
	Email        string    `db:"email" storm:"unique"`
	Name         string    `db:"name"`
	SubscribedAt time.Time `db:"subscribed_at"`
	Status       string    `db:"status" storm:"index"`
}

// SubscriptionToken links an opaque confirmation token to a subscriber.
// Tokens are only ever created and read.
type SubscriptionToken struct {
	ID           int    `db:"id" storm:"id,increment"`
	Token        string `db:"subscription_token" storm:"unique"`
	SubscriberID string `db:"subscriber_id" storm:"index"`
}

// PendingSubscription pairs a pending subscriber with its confirmation token,
// for out-of-band re-notification.
type PendingSubscription struct {
	Email string `db:"email"`
	Token string `db:"subscription_token"`
}
