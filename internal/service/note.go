// Package service holds the business rules of the notes API. Services take
// and return plain Go values and apperror errors; they know nothing of HTTP.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// rawTitleLayout titles notes created from a non-JSON body.
const rawTitleLayout = "2006-01-02"

// NoteInput is a note as supplied by a client, after defaults are applied.
type NoteInput struct {
	Title    string `json:"title"    validate:"required,max=255"`
	Body     string `json:"body"     validate:"max=10240"`
	URL      string `json:"url"      validate:"max=255"`
	Category string `json:"category" validate:"max=255"`
	Username string `json:"username" validate:"max=255"`
}

// notePayload is the JSON shape accepted on create. Absent and null fields
// take their defaults; id and timestamp are server-assigned and ignored.
type notePayload struct {
	Title    *string `json:"title"`
	Body     *string `json:"body"`
	URL      *string `json:"url"`
	Category *string `json:"category"`
	Username *string `json:"username"`
}

func (p notePayload) input() NoteInput {
	in := NoteInput{
		Category: model.DefaultCategory,
		Username: model.DefaultUsername,
	}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Body != nil {
		in.Body = *p.Body
	}
	if p.URL != nil {
		in.URL = *p.URL
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Username != nil {
		in.Username = *p.Username
	}
	return in
}

// patchRules carries the length limits for NotePatch. omitnil leaves absent
// fields alone; "required" on a pointer only checks for nil, so min=1 is what
// rejects a present empty title.
type patchRules struct {
	Title    *string `json:"title"    validate:"omitnil,min=1,max=255"`
	Body     *string `json:"body"     validate:"omitnil,max=10240"`
	Category *string `json:"category" validate:"omitnil,max=255"`
}

type NoteService struct {
	repo   repository.NoteRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewNoteService(repo repository.NoteRepository, logger *slog.Logger) *NoteService {
	return &NoteService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// CreateFromPayload creates a note from a request body.
//
// A body that is a JSON object is read as note fields. Anything else (plain
// text, malformed JSON, a JSON array or scalar, an empty body) is stored
// verbatim as the note body, titled with today's date.
func (s *NoteService) CreateFromPayload(ctx context.Context, raw []byte) (*model.Note, error) {
	if isJSONObject(raw) {
		var p notePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, apperror.ValidationFailed("body", "invalid note fields: "+err.Error())
		}
		return s.Create(ctx, p.input())
	}

	if !utf8.Valid(raw) {
		return nil, apperror.ValidationFailed("body", "body must be valid UTF-8 text")
	}

	s.logger.Debug("storing non-JSON body as note text", slog.Int("bytes", len(raw)))

	return s.Create(ctx, NoteInput{
		Title:    s.now().Format(rawTitleLayout),
		Body:     string(raw),
		Category: model.DefaultCategory,
		Username: model.DefaultUsername,
	})
}

func isJSONObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}

// Create validates in and persists it. Lengths are counted in characters.
func (s *NoteService) Create(ctx context.Context, in NoteInput) (*model.Note, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	note := &model.Note{
		Title:    in.Title,
		Body:     in.Body,
		URL:      in.URL,
		Category: in.Category,
		Username: in.Username,
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		s.logger.Error("failed to create note",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating note: %w", err)
	}

	s.logger.Info("note created",
		slog.Int64("id", note.ID),
		slog.String("username", note.Username),
	)

	return note, nil
}

// Get returns apperror.ErrNotFound for an unknown id.
func (s *NoteService) Get(ctx context.Context, id int64) (*model.Note, error) {
	return s.repo.GetNote(ctx, id)
}

// List returns page `page` of username's notes, newest first.
//
// pageSize below 1 is treated as 1. page is clamped into [1, TotalPages], so
// asking past the end returns the last page and an empty result reports
// page 1 of 0.
func (s *NoteService) List(ctx context.Context, username string, page, pageSize int) (*model.NotePage, error) {
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	pageSize = max(1, pageSize)

	count, err := s.repo.CountNotes(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("counting notes: %w", err)
	}

	totalPages, currentPage, offset := paginate(count, page, pageSize)

	notes, err := s.repo.ListNotes(ctx, username, repository.ListOptions{
		Limit:  pageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	if notes == nil {
		notes = []model.Note{}
	}

	return &model.NotePage{
		TotalPages:  totalPages,
		CurrentPage: currentPage,
		Data:        notes,
	}, nil
}

// paginate computes ceil(count/pageSize) without overflowing for large
// page sizes. pageSize must be at least 1.
func paginate(count, page, pageSize int) (totalPages, currentPage, offset int) {
	totalPages = count / pageSize
	if count%pageSize != 0 {
		totalPages++
	}
	currentPage = max(1, min(page, totalPages))
	offset = (currentPage - 1) * pageSize
	return totalPages, currentPage, offset
}

// Update applies patch to note id. Only title, body and category can change.
func (s *NoteService) Update(ctx context.Context, id int64, patch model.NotePatch) (*model.Note, error) {
	err := validateStruct(patchRules{
		Title:    patch.Title,
		Body:     patch.Body,
		Category: patch.Category,
	})
	if err != nil {
		return nil, err
	}

	note, err := s.repo.UpdateNote(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("note updated", slog.Int64("id", id))
	return note, nil
}

// Delete removes note id and returns what it contained.
func (s *NoteService) Delete(ctx context.Context, id int64) (*model.Note, error) {
	note, err := s.repo.DeleteNote(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("note deleted", slog.Int64("id", id))
	return note, nil
}

// ParseID parses a path id. Non-numeric ids are a validation error.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("id", "id must be an integer")
	}
	return id, nil
}
