package letterbox

import (
	"bytes"
	"errors"
	"fmt"
)

// Machine-readable error codes. Codes decide the HTTP status; messages are
// what a client may see.
const (
	ErrInvalid       = "invalid"
	ErrUnauthorized  = "unauthorized"
	ErrNotFound      = "not_found"
	ErrEmailDelivery = "email_delivery"
	ErrInternal      = "internal"
)

// Error carries an application error code and an optional operation name and
// wrapped cause. The cause chain is preserved for logging but never exposed
// to clients.
type Error struct {
	Code    string
	Message string
	Op      string
	Err     error
}

// ErrorCode walks the error chain and returns the first code it finds, or
// ErrInternal for unclassified errors.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		if e.Err != nil {
			return ErrorCode(e.Err)
		}
	}

	return ErrInternal
}

// ErrorMessage walks the error chain and returns the first client-facing
// message it finds.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err != nil {
			return ErrorMessage(e.Err)
		}
	}

	return "An internal error has occurred."
}

func (e *Error) Error() string {
	var buf bytes.Buffer

	if e.Op != "" {
		fmt.Fprintf(&buf, "%s: ", e.Op)
	}

	if e.Err != nil {
		buf.WriteString(e.Err.Error())
	} else {
		if e.Code != "" {
			fmt.Fprintf(&buf, "<%s> ", e.Code)
		}
		buf.WriteString(e.Message)
	}

	return buf.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}
