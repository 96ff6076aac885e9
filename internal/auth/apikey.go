package auth

import (
	"crypto/subtle"
	"errors"
)

var ErrInvalidAPIKey = errors.New("auth: invalid API key")

// APIKeyVerifier checks a caller-supplied key against one static key.
type APIKeyVerifier struct {
	key []byte
}

// NewAPIKeyVerifier accepts an empty key; the verifier then rejects every
// candidate, so API-key routes stay closed until a key is configured.
func NewAPIKeyVerifier(key string) *APIKeyVerifier {
	return &APIKeyVerifier{key: []byte(key)}
}

func (v *APIKeyVerifier) Verify(candidate string) error {
	if len(v.key) == 0 || candidate == "" {
		return ErrInvalidAPIKey
	}
	if subtle.ConstantTimeCompare(v.key, []byte(candidate)) != 1 {
		return ErrInvalidAPIKey
	}
	return nil
}
