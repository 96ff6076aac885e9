package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/service"
)

// NoteService is what NotesHandler needs from the service layer.
type NoteService interface {
	CreateFromPayload(ctx context.Context, raw []byte) (*model.Note, error)
	Get(ctx context.Context, id int64) (*model.Note, error)
	List(ctx context.Context, username string, page, pageSize int) (*model.NotePage, error)
	Update(ctx context.Context, id int64, patch model.NotePatch) (*model.Note, error)
	Delete(ctx context.Context, id int64) (*model.Note, error)
}

var _ NoteService = (*service.NoteService)(nil)

// NotesHandler serves the /notes endpoints.
type NotesHandler struct {
	notes  NoteService
	logger *slog.Logger
}

func NewNotesHandler(notes NoteService, logger *slog.Logger) *NotesHandler {
	return &NotesHandler{notes: notes, logger: logger}
}

// HandleCreate stores a note.
//
// HTTP: POST /notes/
// BODY: a JSON object of note fields, or any other bytes, which become the
// body of a note titled with today's date.
func (h *NotesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	raw, ok := readBody(h.logger, w, r)
	if !ok {
		return
	}

	note, err := h.notes.CreateFromPayload(r.Context(), raw)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusCreated, note)
}

// HandleList pages through one user's notes.
//
// HTTP: GET /notes/?username=alice&page=1&page_size=10
func (h *NotesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), "page", service.DefaultPage)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}
	pageSize, err := intParam(q.Get("page_size"), "page_size", service.DefaultPageSize)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	result, err := h.notes.List(r.Context(), q.Get("username"), page, pageSize)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, result)
}

// HandleGet returns one note. The route is API-key gated.
//
// HTTP: GET /notes/{id}?api_key=...
func (h *NotesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	note, err := h.notes.Get(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, note)
}

// HandleUpdate patches title, body and/or category.
//
// HTTP: PUT /notes/{id}
// BODY: {"title": "...", "body": "...", "category": "..."}, all optional.
// Absent and null fields are left as they are.
func (h *NotesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	var patch model.NotePatch
	if !decodeJSON(h.logger, w, r, &patch) {
		return
	}

	note, err := h.notes.Update(r.Context(), id, patch)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, note)
}

// HandleDelete removes a note and echoes it back.
//
// HTTP: DELETE /notes/{id}
func (h *NotesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := service.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	note, err := h.notes.Delete(r.Context(), id)
	if err != nil {
		writeError(h.logger, w, r, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, note)
}

func intParam(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}
