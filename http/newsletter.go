package http

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/snarkipus/letterbox"
)

const publishedMessage = "The newsletter has been sent to all confirmed subscribers."

// basicAuthChallenge is sent with every 401 on the publish endpoint.
const basicAuthChallenge = `Basic realm="publish"`

func (s *Server) publishNewsletterHandler(w http.ResponseWriter, r *http.Request) error {
	username, password, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", basicAuthChallenge)
		return &letterbox.Error{Code: letterbox.ErrUnauthorized, Op: "publishNewsletterHandler", Message: "invalid username or password"}
	}

	userID, err := s.AuthService.ValidateCredentials(r.Context(), letterbox.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		if letterbox.ErrorCode(err) == letterbox.ErrUnauthorized {
			w.Header().Set("WWW-Authenticate", basicAuthChallenge)
		}
		return err
	}

	hlog.FromRequest(r).Info().
		Str("username", username).
		Str("user_id", userID).
		Msg("Publishing a newsletter")

	var n letterbox.Newsletter
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		return &letterbox.Error{Code: letterbox.ErrInvalid, Op: "publishNewsletterHandler", Message: "malformed newsletter body", Err: err}
	}

	if err := s.SubscriptionService.Publish(r.Context(), n); err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, &letterbox.SubscriptionResponse{
		Message: publishedMessage,
	})

	return nil
}
