package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Username: "alice", HashedPassword: "$2a$04$hash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("CreateUser() did not set user.ID")
	}
}

func TestCreateUser_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.CreateUser(ctx, &model.User{Username: "alice", HashedPassword: "h1"}); err != nil {
		t.Fatalf("first CreateUser() error = %v", err)
	}

	err := db.CreateUser(ctx, &model.User{Username: "alice", HashedPassword: "h2"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second CreateUser() error = %v, want ErrConflict", err)
	}

	// The first account is untouched.
	got, err := db.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if got.HashedPassword != "h1" {
		t.Errorf("HashedPassword = %q, want %q", got.HashedPassword, "h1")
	}
}

func TestGetUserByUsername(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := &model.User{Username: "bob", HashedPassword: "secret-hash"}
	if err := db.CreateUser(ctx, created); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"existing user", "bob", nil},
		{"unknown user", "nobody", apperror.ErrNotFound},
		{"case sensitive", "BOB", apperror.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.GetUserByUsername(ctx, tt.username)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != created.ID || got.HashedPassword != "secret-hash" {
				t.Errorf("GetUserByUsername() = %+v, want %+v", got, created)
			}
		})
	}
}
