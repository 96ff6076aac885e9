package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// Credentials is the body of both /register and /token.
type Credentials struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

// AccountService registers users and exchanges credentials for tokens.
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	logger    *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		logger:    logger,
	}
}

// Register creates an account. A taken username comes back from the store's
// unique constraint as apperror.ErrConflict; the existing account is untouched.
func (s *AccountService) Register(ctx context.Context, c Credentials) error {
	if err := validateStruct(c); err != nil {
		return err
	}

	hash, err := s.passwords.Hash(c.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return apperror.ValidationFailed("password",
				fmt.Sprintf("password must be at most %d bytes", auth.MaxPasswordBytes))
		}
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{Username: c.Username, HashedPassword: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Info("registration rejected, username taken", slog.String("username", c.Username))
			return err
		}
		s.logger.Error("failed to create user",
			slog.String("username", c.Username),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", slog.Int64("id", user.ID), slog.String("username", user.Username))
	return nil
}

// Login verifies c and issues an access token for the user.
//
// An unknown username and a wrong password both yield the same
// apperror.ErrInvalidCredentials, and no token is issued.
func (s *AccountService) Login(ctx context.Context, c Credentials) (*model.AccessToken, error) {
	user, err := s.users.GetUserByUsername(ctx, c.Username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("login failed", slog.String("username", c.Username), slog.String("reason", "unknown user"))
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.HashedPassword, c.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unreadable",
				slog.String("username", c.Username),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.Warn("login failed", slog.String("username", c.Username), slog.String("reason", "wrong password"))
		}
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))
	return &model.AccessToken{AccessToken: token, TokenType: model.TokenTypeBearer}, nil
}
