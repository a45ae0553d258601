package letterbox

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength   = 25
)

// GenerateSubscriptionToken returns a 25-character confirmation token drawn
// uniformly from [a-zA-Z0-9] using a cryptographically strong source.
func GenerateSubscriptionToken() (string, error) {
	// 248 is the largest multiple of len(tokenAlphabet) that fits in a byte;
	// rejecting bytes above it keeps the distribution uniform.
	const limit = 248

	token := make([]byte, 0, tokenLength)
	buf := make([]byte, tokenLength)
	for {
		if _, err := rand.Read(buf); err != nil {
			return "", errors.Wrap(err, "failed to read random bytes")
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			token = append(token, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(token) == tokenLength {
				return string(token), nil
			}
		}
	}
}
