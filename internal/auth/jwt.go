// Package auth holds the credential primitives of the notes API: bcrypt
// password hashing, HS256 access tokens, the static API key, and the route
// guard that enforces them per endpoint.
//
// Access tokens are JWTs of the form HEADER.PAYLOAD.SIGNATURE signed with
// HMAC-SHA256. The payload carries the username in "sub". An "exp" claim is
// only present when the TokenService was built with EmbedExpiry.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest HMAC secret NewTokenService accepts.
const MinSecretLength = 16

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, foreign
	// algorithms and expired tokens.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrNoSubject means the token verified but names nobody.
	ErrNoSubject = errors.New("auth: token has no subject")
)

type TokenOptions struct {
	// Expiry is the token lifetime, used only when EmbedExpiry is set.
	Expiry time.Duration
	// EmbedExpiry adds "exp" (and "iat") to issued tokens. Without it tokens
	// never expire.
	EmbedExpiry bool
}

// TokenService signs and verifies access tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	opts   TokenOptions
	now    func() time.Time
}

func NewTokenService(secret string, opts TokenOptions) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if opts.EmbedExpiry && opts.Expiry <= 0 {
		return nil, errors.New("auth: token expiry must be positive when embedded")
	}
	return &TokenService{secret: []byte(secret), opts: opts, now: time.Now}, nil
}

// Generate issues a token whose subject is username.
func (s *TokenService) Generate(username string) (string, error) {
	c := jwt.RegisteredClaims{Subject: username}
	if s.opts.EmbedExpiry {
		now := s.now()
		c.IssuedAt = jwt.NewNumericDate(now)
		c.ExpiresAt = jwt.NewNumericDate(now.Add(s.opts.Expiry))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns its subject.
//
// Only HS256 is accepted, which rules out "none" and key-confusion tricks.
// An "exp" claim is honoured when present but not required.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	if c.Subject == "" {
		return "", ErrNoSubject
	}
	return c.Subject, nil
}
