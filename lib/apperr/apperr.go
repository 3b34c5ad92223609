// Package apperr defines the error taxonomy shared by the store,
// resolver and HTTP layers. Callers classify with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound means a referenced content, review or watch-history
	// row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput means the request is missing a required field or
	// carries a value outside its allowed range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvariantViolation means the request tried to mutate a field
	// that is read-only after creation, such as content_type.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrUpstreamUnavailable means an external capability failed. It is
	// never surfaced as a hard error by the generation path; it only
	// shows up as a degrade reason.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
