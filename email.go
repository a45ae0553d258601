package letterbox

// EmailService is the outbound email boundary. Sending is an irreversible
// external action; callers decide where in their flow it is safe to invoke.
type EmailService interface {
	// SendConfirmationEmail delivers the confirmation link to a new
	// subscriber.
	SendConfirmationEmail(to, confirmationLink string) error

	// Send delivers one newsletter issue with both an HTML and a plain text
	// body.
	Send(to, subject, htmlBody, textBody string) error
}
