package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/model"
)

func newTestAccountService(t *testing.T) (*AccountService, *fakeStore, *auth.TokenService) {
	t.Helper()
	passwords, err := auth.NewPasswordService(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("service-test-secret-value", auth.TokenOptions{})
	require.NoError(t, err)

	store := newFakeStore()
	return NewAccountService(store, passwords, tokens, testLogger()), store, tokens
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_StoresHashNotPassword(t *testing.T) {
	svc, store, _ := newTestAccountService(t)

	require.NoError(t, svc.Register(context.Background(), Credentials{Username: "alice", Password: "pw"}))

	user := store.users["alice"]
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "pw", user.HashedPassword)
	assert.True(t, strings.HasPrefix(user.HashedPassword, "$2"))
}

func TestRegister_DuplicateKeepsOriginal(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, Credentials{Username: "alice", Password: "first"}))
	original := store.users["alice"].HashedPassword

	err := svc.Register(ctx, Credentials{Username: "alice", Password: "second"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, original, store.users["alice"].HashedPassword)

	_, err = svc.Login(ctx, Credentials{Username: "alice", Password: "first"})
	assert.NoError(t, err, "the original password must still work")
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		wantField string
	}{
		{"missing username", Credentials{Password: "pw"}, "username"},
		{"missing password", Credentials{Username: "alice"}, "password"},
		{"username too long", Credentials{Username: strings.Repeat("u", 51), Password: "pw"}, "username"},
		{"password over 72 bytes", Credentials{Username: "alice", Password: strings.Repeat("p", 73)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestAccountService(t)

			err := svc.Register(context.Background(), tt.creds)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Empty(t, store.users)
		})
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	store.err = errDatabaseDown

	err := svc.Register(context.Background(), Credentials{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, errDatabaseDown)
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_IssuesTokenForUser(t *testing.T) {
	svc, _, tokens := newTestAccountService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, Credentials{Username: "alice", Password: "pw"}))

	got, err := svc.Login(ctx, Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.TokenTypeBearer, got.TokenType)

	subject, err := tokens.Validate(got.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{"wrong password", Credentials{Username: "alice", Password: "nope"}},
		{"unknown user", Credentials{Username: "bob", Password: "pw"}},
		{"empty password", Credentials{Username: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestAccountService(t)
			require.NoError(t, svc.Register(context.Background(), Credentials{Username: "alice", Password: "pw"}))

			token, err := svc.Login(context.Background(), tt.creds)
			assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
			assert.EqualError(t, err, "Incorrect username or password")
			assert.Nil(t, token)
		})
	}
}

func TestLogin_CorruptHashIsInvalidCredentials(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	store.users["alice"] = model.User{ID: 1, Username: "alice", HashedPassword: "not-bcrypt"}

	_, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestLogin_RepositoryError(t *testing.T) {
	svc, store, _ := newTestAccountService(t)
	store.err = errDatabaseDown

	_, err := svc.Login(context.Background(), Credentials{Username: "alice", Password: "pw"})
	assert.ErrorIs(t, err, errDatabaseDown)
	assert.NotErrorIs(t, err, apperror.ErrInvalidCredentials)
}
