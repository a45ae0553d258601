package letterbox

import "context"

// SubscriptionService is the interface that wraps the subscription lifecycle:
// enrollment, confirmation, publication and removal.
type SubscriptionService interface {
	// Enroll validates the form, persists the subscriber and its confirmation
	// token atomically, then sends the confirmation email. A failed send does
	// not roll back the committed enrollment; it surfaces as ErrEmailDelivery.
	Enroll(ctx context.Context, form SubscriptionForm) error

	// Confirm promotes the subscriber bound to token to confirmed. Unknown
	// tokens fail with an unauthorized error; re-confirming succeeds.
	Confirm(ctx context.Context, token string) error

	// Publish sends the newsletter to every confirmed subscriber.
	Publish(ctx context.Context, n Newsletter) error

	// Unsubscribe removes email from future newsletters.
	Unsubscribe(ctx context.Context, email string) error

	// RenotifyPending re-sends the confirmation email to subscribers that
	// enrolled but never received or never clicked their link.
	RenotifyPending(ctx context.Context) error
}

// Newsletter is the payload of POST /newsletters.
type Newsletter struct {
	Title   string            `json:"title"`
	Content NewsletterContent `json:"content"`
}

// NewsletterContent carries both bodies of a newsletter issue.
type NewsletterContent struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

type SubscriptionResponse struct {
	Message string `json:"message"`
}
