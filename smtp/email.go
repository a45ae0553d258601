// Package smtp delivers email over SMTP with hermes-generated bodies.
package smtp

import (
	"fmt"

	"github.com/matcornic/hermes/v2"
	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/snarkipus/letterbox"
)

type emailService struct {
	serverURL string
	*letterbox.Config
}

// NewEmailService returns the outbound email collaborator.
func NewEmailService(config *letterbox.Config, serverURL string) letterbox.EmailService {
	return &emailService{
		Config:    config,
		serverURL: serverURL,
	}
}

// SendConfirmationEmail sends a welcome email carrying the confirmation link.
func (es *emailService) SendConfirmationEmail(to, confirmationLink string) error {
	h := hermes.Hermes{
		Product: hermes.Product{
			Name: es.Config.Newsletter.Product.Name,
			Link: es.serverURL,
		},
	}

	email := hermes.Email{
		Body: hermes.Body{
			Name: "",
			Intros: []string{
				fmt.Sprintf("Welcome to %s", es.Config.Newsletter.Product.Name),
			},
			Actions: []hermes.Action{
				{
					Instructions: "Click the button below to confirm your subscription:",
					Button: hermes.Button{
						Color: "#22BC66",
						Text:  "Confirm your subscription",
						Link:  confirmationLink,
					},
				},
			},
		},
	}

	htmlBody, err := h.GenerateHTML(email)
	if err != nil {
		return errors.Errorf("failed to generate HTML email: %v", err)
	}

	textBody, err := h.GeneratePlainText(email)
	if err != nil {
		return errors.Errorf("failed to generate plain text email: %v", err)
	}

	return es.Send(to, "Confirm your subscription", htmlBody, textBody)
}

// Send delivers one message with an HTML body and a plain text alternative.
func (es *emailService) Send(to, subject, htmlBody, textBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", es.Config.Newsletter.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(es.Config.SMTP.Host, es.Config.SMTP.Port, es.Config.SMTP.Username, es.Config.SMTP.Password)
	if err := d.DialAndSend(m); err != nil {
		return errors.Errorf("failed to send mail to %s: %v", to, err)
	}

	return nil
}
