package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starford/stash/internal/apperr"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// validatable is implemented by request bodies.
type validatable interface {
	Validate() error
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", apperr.ErrValidation)
	}
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	return nil
}

// statusOf maps a domain error to an HTTP status; 0 means unexpected.
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrLockRequired):
		return http.StatusLocked
	case errors.Is(err, apperr.ErrPasswordRequired):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrInvalidPassword):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrMissingSecret), errors.Is(err, apperr.ErrNotSuggestable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway
	default:
		return 0
	}
}

// writeError writes the JSON error for err. Unexpected errors are logged and
// reported as 500 without details.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status == 0 {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}
