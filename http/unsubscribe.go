package http

import (
	"net/http"

	"github.com/snarkipus/letterbox"
	"github.com/snarkipus/letterbox/pkg/hash"
)

const (
	unsubscribeMessage        = "Unsubscribed"
	invalidUnsubscribeMessage = "Either email or hash is invalid."
)

// unsubscribeHandler removes a subscriber. The link is only valid when the
// email is signed with the newsletter HMAC secret.
func (s *Server) unsubscribeHandler(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	email := query.Get("email")
	hashValue := query.Get("hash")

	if !hash.VerifyHmac256(email, s.HMACSecret, hashValue) {
		writeJSONResponse(w, http.StatusBadRequest, &letterbox.SubscriptionResponse{
			Message: invalidUnsubscribeMessage,
		})
		return nil
	}

	if err := s.SubscriptionService.Unsubscribe(r.Context(), email); err != nil {
		return err
	}

	writeJSONResponse(w, http.StatusOK, &letterbox.SubscriptionResponse{
		Message: unsubscribeMessage,
	})

	return nil
}
