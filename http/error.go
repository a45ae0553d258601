package http

import (
	"encoding/json"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/hlog"

	"github.com/snarkipus/letterbox"
)

type appHandler func(w http.ResponseWriter, r *http.Request) error

// statusFromCode maps an application error code to an HTTP status code. It
// is deliberately a pure function so the mapping can be tested without the
// transport.
func statusFromCode(code string) int {
	switch code {
	case letterbox.ErrInvalid:
		return http.StatusBadRequest
	case letterbox.ErrUnauthorized:
		return http.StatusUnauthorized
	case letterbox.ErrNotFound:
		return http.StatusNotFound
	case letterbox.ErrEmailDelivery, letterbox.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error adapts an appHandler into an http.HandlerFunc. The full cause chain
// is logged and reported; the client only ever sees the code's status and
// the sanitized message.
func (s *Server) Error(fn appHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		hlog.FromRequest(r).Error().Msg(err.Error())
		sentry.CaptureException(err)

		writeJSONResponse(w, statusFromCode(letterbox.ErrorCode(err)), map[string]string{
			"error": letterbox.ErrorMessage(err),
		})
	}
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	//nolint:errcheck
	json.NewEncoder(w).Encode(response)
}
