// Package validation holds request validation helpers and the JSON
// error writer shared by all handlers.
package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/moviemate/moviemate/lib/apperr"
)

// ParseID parses a URL id segment into a content/review id.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", apperr.ErrInvalidInput, raw)
	}
	return uint(id), nil
}

// ParseLimit parses an optional limit query parameter, falling back to
// the given default. Limits are capped at 100.
func ParseLimit(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", apperr.ErrInvalidInput)
	}
	if limit > 100 {
		limit = 100
	}
	return limit, nil
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	}); err != nil {
		slog.Error("Failed to encode error response", slog.Any("error", err))
	}
}
