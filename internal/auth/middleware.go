package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sakif/notes-api/internal/apperror"
)

// Capability is the credential a route demands.
type Capability int

const (
	Public Capability = iota
	// APIKey requires the static key in a query parameter.
	APIKey
	// Bearer requires "Authorization: Bearer <token>" with a valid token.
	Bearer
)

func (c Capability) String() string {
	switch c {
	case Public:
		return "public"
	case APIKey:
		return "api_key"
	case Bearer:
		return "bearer"
	default:
		return "unknown"
	}
}

// contextKey keeps values stored by this package out of reach of other
// packages' context keys.
type contextKey string

const usernameKey contextKey = "username"

// ErrorWriter renders a rejected request. The guard hands it an
// *apperror.AppError.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Guard turns a route's Capability into middleware.
type Guard struct {
	tokens     *TokenService
	keys       *APIKeyVerifier
	apiKeyName string
	onError    ErrorWriter
}

// NewGuard builds a Guard. apiKeyName is the query parameter holding the key.
func NewGuard(tokens *TokenService, keys *APIKeyVerifier, apiKeyName string, onError ErrorWriter) *Guard {
	return &Guard{
		tokens:     tokens,
		keys:       keys,
		apiKeyName: apiKeyName,
		onError:    onError,
	}
}

// Require returns middleware that lets a request through only if it carries
// the credential c asks for.
//
//	Public  always passes
//	APIKey  missing or wrong key           → 403
//	Bearer  missing header                 → 401
//	        bad signature, malformed, expired → 403
//	        verified but no subject        → 401
//
// For Bearer routes the token subject is stored in the request context; read
// it with UsernameFromContext.
func (g *Guard) Require(c Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == Public {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch c {
			case APIKey:
				if err := g.keys.Verify(r.URL.Query().Get(g.apiKeyName)); err != nil {
					g.onError(w, r, apperror.Forbidden("Invalid API Key"))
					return
				}
			case Bearer:
				username, err := g.bearerSubject(r)
				if err != nil {
					g.onError(w, r, err)
					return
				}
				r = r.WithContext(WithUsername(r.Context(), username))
			default:
				g.onError(w, r, apperror.Forbidden("route has no known access rule"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) bearerSubject(r *http.Request) (string, error) {
	token, ok := BearerToken(r)
	if !ok {
		return "", apperror.Unauthorized("Not authenticated")
	}

	username, err := g.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, ErrNoSubject) {
			return "", apperror.Unauthorized("Invalid authentication credentials")
		}
		return "", apperror.Forbidden("Could not validate credentials")
	}
	return username, nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext returns the subject of the request's bearer token.
// It returns ("", false) on routes that are not Bearer-gated.
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok && name != ""
}
