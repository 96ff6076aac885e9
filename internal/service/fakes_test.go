package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

// =========================================================================
// IN-MEMORY REPOSITORIES
// =========================================================================
//
// fakeStore implements repository.NoteRepository and UserRepository with the
// same observable behaviour as the SQL stores: ids increase, listing is
// newest-first, missing rows are apperror.ErrNotFound and duplicate usernames
// are apperror.ErrConflict. err, when set, is returned by every call.

type fakeStore struct {
	mu     sync.Mutex
	notes  map[int64]model.Note
	users  map[string]model.User
	nextID int64
	err    error

	listCalls int
}

var (
	_ repository.NoteRepository = (*fakeStore)(nil)
	_ repository.UserRepository = (*fakeStore)(nil)
)

var errDatabaseDown = errors.New("database is down")

func newFakeStore() *fakeStore {
	return &fakeStore{
		notes: make(map[int64]model.Note),
		users: make(map[string]model.User),
	}
}

func (f *fakeStore) CreateNote(_ context.Context, note *model.Note) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nextID++
	note.ID = f.nextID
	note.Timestamp = time.Now().UTC()
	f.notes[note.ID] = *note
	return nil
}

func (f *fakeStore) GetNote(_ context.Context, id int64) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n, ok := f.notes[id]
	if !ok {
		return nil, apperror.NotFound("note", strconv.FormatInt(id, 10))
	}
	return &n, nil
}

func (f *fakeStore) CountNotes(_ context.Context, username string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, n := range f.notes {
		if n.Username == username {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListNotes(_ context.Context, username string, opts repository.ListOptions) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}

	var matched []model.Note
	for _, n := range f.notes {
		if n.Username == username {
			matched = append(matched, n)
		}
	}
	slices.SortFunc(matched, func(a, b model.Note) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	if opts.Offset >= len(matched) || opts.Limit <= 0 {
		return []model.Note{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (f *fakeStore) UpdateNote(_ context.Context, id int64, patch model.NotePatch) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n, ok := f.notes[id]
	if !ok {
		return nil, apperror.NotFound("note", strconv.FormatInt(id, 10))
	}
	patch.Apply(&n)
	f.notes[id] = n
	return &n, nil
}

func (f *fakeStore) DeleteNote(_ context.Context, id int64) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	n, ok := f.notes[id]
	if !ok {
		return nil, apperror.NotFound("note", strconv.FormatInt(id, 10))
	}
	delete(f.notes, id)
	return &n, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, taken := f.users[user.Username]; taken {
		return apperror.Conflict("user", user.Username)
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.Username] = *user
	return nil
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	return &u, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
