package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/pkg/errors"
)

// ComputeHmac256 computes HMAC-SHA256
func ComputeHmac256(message, secret string) (string, error) {
	key := []byte(secret)
	h := hmac.New(sha256.New, key)
	_, err := h.Write([]byte(message))
	if err != nil {
		return "", errors.Wrap(err, "hmac.Write")
	}

	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// VerifyHmac256 reports whether tag is the HMAC-SHA256 of message under
// secret, in constant time.
func VerifyHmac256(message, secret, tag string) bool {
	expected, err := ComputeHmac256(message, secret)
	if err != nil {
		return false
	}

	return hmac.Equal([]byte(expected), []byte(tag))
}
