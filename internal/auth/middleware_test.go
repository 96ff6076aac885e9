package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notes-api/internal/apperror"
)

// statusWriter mimics the handler package's error mapping closely enough to
// observe what the guard rejected with.
func statusWriter(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, apperror.ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	w.Write([]byte(err.Error()))
}

func newTestGuard(t *testing.T, apiKey string) (*Guard, *TokenService) {
	t.Helper()
	tokens := newTestTokenService(t, TokenOptions{})
	return NewGuard(tokens, NewAPIKeyVerifier(apiKey), "api_key", statusWriter), tokens
}

// echoUsername writes the context username so tests can see what the guard stored.
var echoUsername = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	name, _ := UsernameFromContext(r.Context())
	w.Write([]byte(name))
})

func TestGuard_Public(t *testing.T) {
	g, _ := newTestGuard(t, "")

	rec := httptest.NewRecorder()
	g.Require(Public)(echoUsername).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestGuard_APIKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		target     string
		wantStatus int
	}{
		{"correct key", "k3y", "/notes/1?api_key=k3y", http.StatusOK},
		{"wrong key", "k3y", "/notes/1?api_key=nope", http.StatusForbidden},
		{"missing key", "k3y", "/notes/1", http.StatusForbidden},
		{"key in wrong parameter", "k3y", "/notes/1?key=k3y", http.StatusForbidden},
		{"no key configured", "", "/notes/1?api_key=", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGuard(t, tt.configured)

			rec := httptest.NewRecorder()
			g.Require(APIKey)(echoUsername).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGuard_APIKeyCustomParameter(t *testing.T) {
	tokens := newTestTokenService(t, TokenOptions{})
	g := NewGuard(tokens, NewAPIKeyVerifier("k3y"), "access_key", statusWriter)

	rec := httptest.NewRecorder()
	g.Require(APIKey)(echoUsername).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?access_key=k3y", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_Bearer(t *testing.T) {
	g, tokens := newTestGuard(t, "")

	valid, err := tokens.Generate("alice")
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "x"}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "alice"},
		{"lowercase scheme", "bearer " + valid, http.StatusOK, "alice"},
		{"missing header", "", http.StatusUnauthorized, "Not authenticated"},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "Not authenticated"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "Not authenticated"},
		{"malformed token", "Bearer garbage", http.StatusForbidden, "Could not validate credentials"},
		{"no subject", "Bearer " + noSub, http.StatusUnauthorized, "Invalid authentication credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			g.Require(Bearer)(echoUsername).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestUsernameFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := UsernameFromContext(req.Context())
	assert.False(t, ok)

	name, ok := UsernameFromContext(WithUsername(req.Context(), "bob"))
	assert.True(t, ok)
	assert.Equal(t, "bob", name)
}

func TestCapability_String(t *testing.T) {
	assert.Equal(t, "public", Public.String())
	assert.Equal(t, "api_key", APIKey.String())
	assert.Equal(t, "bearer", Bearer.String())
}
