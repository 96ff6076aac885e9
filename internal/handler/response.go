package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/apperror"
)

// MaxBodyBytes caps every request body the handlers read.
const MaxBodyBytes = 1 << 20

// ErrorResponse is the body of every error reply:
//
//	{"error": "not_found", "message": "note not found with id 7"}
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// MessageResponse is the body of replies that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sets headers and status before the body; header changes after
// the first write are ignored by net/http.
func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			logger.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// ErrorWriter returns the error renderer used by the handlers, for code
// outside this package that rejects requests (the auth guard).
func ErrorWriter(logger *slog.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(logger, w, r, err)
	}
}

// writeError maps err to a status code and writes it as an ErrorResponse.
// It is the only place where domain errors become HTTP statuses.
//
//	ErrValidation          400 validation_error
//	ErrInvalidCredentials  400 invalid_credentials
//	ErrUnauthorized        401 unauthorized
//	ErrForbidden           403 forbidden
//	ErrNotFound            404 not_found
//	ErrConflict            409 conflict
//	anything else          500 internal_error (details are logged, not sent)
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeJSON(logger, w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		status, errorType = http.StatusBadRequest, "invalid_credentials"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, errorType = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	}

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	writeJSON(logger, w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
	})
}

// readBody reads at most MaxBodyBytes. A larger body is answered with 413
// here and reported to the caller as ok=false.
func readBody(logger *slog.Logger, w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	buf, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(logger, w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "payload_too_large",
				Message: "request body must be at most 1 MiB",
			})
			return nil, false
		}
		writeError(logger, w, r, apperror.ValidationFailed("body", "could not read request body"))
		return nil, false
	}
	return buf, true
}

// decodeJSON reads the body into dst. Malformed JSON is a validation error.
func decodeJSON(logger *slog.Logger, w http.ResponseWriter, r *http.Request, dst any) bool {
	body, ok := readBody(logger, w, r)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		logger.Warn("failed to decode request body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(logger, w, r, apperror.ValidationFailed("body", "invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

// NotFound answers requests that matched no route.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "no route for " + r.URL.Path,
		})
	}
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusMethodNotAllowed, ErrorResponse{
			Error:   "method_not_allowed",
			Message: r.Method + " is not allowed on " + r.URL.Path,
		})
	}
}
