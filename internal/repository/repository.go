// Package repository declares the storage contracts the services depend on.
//
// Every method is one scoped unit of work: implementations acquire a
// connection or transaction for the call and release it (commit or rollback)
// before returning, whatever the outcome.
package repository

import (
	"context"
	"io"

	"github.com/sakif/notes-api/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

type NoteRepository interface {
	// CreateNote assigns ID and Timestamp on the passed note.
	CreateNote(ctx context.Context, note *model.Note) error
	GetNote(ctx context.Context, id int64) (*model.Note, error)
	// CountNotes counts notes whose username matches exactly.
	CountNotes(ctx context.Context, username string) (int, error)
	// ListNotes returns a page of a username's notes, newest id first.
	ListNotes(ctx context.Context, username string, opts ListOptions) ([]model.Note, error)
	// UpdateNote applies patch inside one transaction and returns the stored row.
	UpdateNote(ctx context.Context, id int64, patch model.NotePatch) (*model.Note, error)
	// DeleteNote removes the row and returns its last values.
	DeleteNote(ctx context.Context, id int64) (*model.Note, error)
}

type UserRepository interface {
	// CreateUser returns an apperror.ErrConflict error when the username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// Store is the storage handle created once at startup and passed to the server.
type Store interface {
	NoteRepository
	UserRepository
	io.Closer
}
