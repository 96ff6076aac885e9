package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/service"
)

type AccountService interface {
	Register(ctx context.Context, c service.Credentials) error
	Login(ctx context.Context, c service.Credentials) (*model.AccessToken, error)
}

var _ AccountService = (*service.AccountService)(nil)

// AccountHandler serves registration, login and the token check.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// HandleRegister creates an account.
//
// HTTP: POST /register
// BODY: {"username": "alice", "password": "..."}
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials
	if !decodeJSON(h.logger, w, r, &creds) {
		return
	}

	if err := h.accounts.Register(r.Context(), creds); err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, MessageResponse{Message: "User created successfully"})
}

// HandleToken exchanges credentials for a bearer token.
//
// HTTP: POST /token
// BODY: {"username": "alice", "password": "..."}
// RESPONSE: {"access_token": "<jwt>", "token_type": "bearer"}
func (h *AccountHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var creds service.Credentials
	if !decodeJSON(h.logger, w, r, &creds) {
		return
	}

	token, err := h.accounts.Login(r.Context(), creds)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, token)
}

// HandleMe reports whose token the request carried. Bearer gated.
//
// HTTP: GET /me
func (h *AccountHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	username, ok := auth.UsernameFromContext(r.Context())
	if !ok {
		writeError(h.logger, w, r, apperror.Unauthorized("Not authenticated"))
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"username": username})
}

// HandleRoot is a liveness greeting.
//
// HTTP: GET /
func (h *AccountHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(h.logger, w, http.StatusOK, MessageResponse{Message: "Hello"})
}
