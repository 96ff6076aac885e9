package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

const noteColumns = `id, title, body, url, timestamp, category, username`

// CreateNote inserts a note and fills in its ID and Timestamp.
func (db *DB) CreateNote(ctx context.Context, note *model.Note) error {
	note.Timestamp = time.Now().UTC().Truncate(time.Millisecond)

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO notes (title, body, url, timestamp, category, username)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.Title,
		note.Body,
		note.URL,
		note.Timestamp,
		note.Category,
		note.Username,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating note: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading note id: %w", err)
	}
	note.ID = id

	return nil
}

// GetNote retrieves a single note by its ID.
// Returns apperror.ErrNotFound if no row matches.
func (db *DB) GetNote(ctx context.Context, id int64) (*model.Note, error) {
	return getNote(ctx, db.conn, id)
}

func getNote(ctx context.Context, q querier, id int64) (*model.Note, error) {
	var n model.Note

	err := q.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`,
		id,
	).Scan(&n.ID, &n.Title, &n.Body, &n.URL, &n.Timestamp, &n.Category, &n.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("note", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting note %d: %w", id, err)
	}

	return &n, nil
}

// CountNotes counts the notes filed under username.
func (db *DB) CountNotes(ctx context.Context, username string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM notes WHERE username = ?`,
		username,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting notes for %q: %w", username, err)
	}
	return count, nil
}

// ListNotes returns one page of a username's notes, newest id first.
// The caller owns the paging arithmetic; a non-positive limit yields nothing.
func (db *DB) ListNotes(ctx context.Context, username string, opts repository.ListOptions) ([]model.Note, error) {
	if opts.Limit <= 0 {
		return []model.Note{}, nil
	}
	offset := max(opts.Offset, 0)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+`
		 FROM notes
		 WHERE username = ?
		 ORDER BY id DESC
		 LIMIT ? OFFSET ?`,
		username,
		opts.Limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0, min(opts.Limit, 64))
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(
			&n.ID, &n.Title, &n.Body, &n.URL,
			&n.Timestamp, &n.Category, &n.Username,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning note row: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notes: %w", err)
	}

	return notes, nil
}

// UpdateNote reads the note, writes only the patched columns and returns the
// result, all in one transaction. There is no version check: concurrent
// updates to the same row are last-writer-wins.
func (db *DB) UpdateNote(ctx context.Context, id int64, patch model.NotePatch) (*model.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning update of note %d: %w", id, err)
	}
	// Rollback after a successful Commit is a no-op returning sql.ErrTxDone.
	defer tx.Rollback()

	note, err := getNote(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if !patch.Empty() {
		sets, args := patchAssignments(patch)
		args = append(args, id)

		_, err = tx.ExecContext(ctx,
			`UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating note %d: %w", id, err)
		}
		patch.Apply(note)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing update of note %d: %w", id, err)
	}

	return note, nil
}

// patchAssignments turns the set fields of a patch into "col = ?" fragments.
// Column names come from this fixed list, never from input.
func patchAssignments(patch model.NotePatch) ([]string, []any) {
	var sets []string
	var args []any
	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *patch.Body)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	return sets, args
}

// DeleteNote removes a note and returns the values it had.
func (db *DB) DeleteNote(ctx context.Context, id int64) (*model.Note, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning delete of note %d: %w", id, err)
	}
	defer tx.Rollback()

	note, err := getNote(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("sqlite: deleting note %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing delete of note %d: %w", id, err)
	}

	return note, nil
}
