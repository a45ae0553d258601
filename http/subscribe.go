package http

import (
	"fmt"
	"net/http"

	"github.com/snarkipus/letterbox"
)

const (
	confirmationMessage = "A confirmation email has been sent to %s. Click the link in the email to confirm and activate your subscription. Check your spam folder if you don't see it within a couple of minutes."
	thankyouMessage     = "Thank you for subscribing to this newsletter."
)

func (s *Server) subscribeHandler(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return &letterbox.Error{Code: letterbox.ErrInvalid, Op: "subscribeHandler", Message: "malformed form body", Err: err}
	}

	form := letterbox.SubscriptionForm{
		Email: r.PostFormValue("email"),
		Name:  r.PostFormValue("name"),
	}

	if err := s.SubscriptionService.Enroll(r.Context(), form); err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, &letterbox.SubscriptionResponse{
		Message: fmt.Sprintf(confirmationMessage, form.Email),
	})

	return nil
}

func (s *Server) confirmHandler(w http.ResponseWriter, r *http.Request) error {
	// A missing token is treated like an unknown one: token guesses and
	// malformed links must be indistinguishable.
	token := r.URL.Query().Get("subscription_token")

	if err := s.SubscriptionService.Confirm(r.Context(), token); err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, &letterbox.SubscriptionResponse{
		Message: thankyouMessage,
	})

	return nil
}
