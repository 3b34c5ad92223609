// Package generate turns free-form viewing notes into review text. An
// external text-generation capability is optional; the deterministic
// fallback is the expected default path, not an error.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/moviemate/moviemate/lib/apperr"
	"github.com/moviemate/moviemate/models"
)

// Completer is the pluggable text-generation capability. It may fail
// for any reason; callers of Generate never see those failures as
// errors, only as degraded results.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error)
}

const (
	// MaxTokens caps the length of a generated review.
	MaxTokens = 150

	// Temperature is the fixed sampling temperature for review text.
	Temperature = 0.7

	// notesLimit is how much of the user's notes the fallback embeds.
	notesLimit = 200

	// callTimeout bounds the external call so a slow upstream cannot
	// hold a request open.
	callTimeout = 30 * time.Second
)

// Request carries the content context a review is generated for.
type Request struct {
	Title       string
	Genre       models.Genre
	ContentType models.ContentType
	Notes       string
}

// Result is the generated review. Degraded means the deterministic
// fallback produced the text; DegradeReason is only set when a
// configured capability failed.
type Result struct {
	Text          string `json:"generated_review"`
	Degraded      bool   `json:"degraded"`
	DegradeReason string `json:"degrade_reason,omitempty"`
}

type Generator struct {
	completer Completer
	logger    *slog.Logger
}

// New creates a Generator. completer may be nil, which is the valid
// "no capability configured" state.
func New(completer Completer, logger *slog.Logger) *Generator {
	return &Generator{completer: completer, logger: logger}
}

// Generate produces review text from the user's notes. Empty notes are
// the only error; everything the upstream can do wrong degrades to the
// fallback template instead.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Notes) == "" {
		return nil, fmt.Errorf("%w: notes are required to generate a review", apperr.ErrInvalidInput)
	}

	if g.completer == nil {
		return &Result{Text: fallbackReview(req.Title, req.Notes), Degraded: true}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"Based on these notes about '%s' (%s %s):\n\n%s\n\nGenerate a short, engaging review (2-3 sentences).",
		req.Title, req.Genre, req.ContentType, req.Notes)

	text, err := g.completer.Complete(ctx, prompt, MaxTokens, Temperature)
	if err != nil {
		err = fmt.Errorf("%w: %v", apperr.ErrUpstreamUnavailable, err)
		g.logger.Warn("Review generation degraded to fallback",
			slog.String("title", req.Title),
			slog.Any("error", err))
		return &Result{
			Text:          fallbackReview(req.Title, req.Notes),
			Degraded:      true,
			DegradeReason: err.Error(),
		}, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return &Result{
			Text:          fallbackReview(req.Title, req.Notes),
			Degraded:      true,
			DegradeReason: "empty completion from capability",
		}, nil
	}

	return &Result{Text: text}, nil
}

// fallbackReview is the deterministic template used whenever no
// capability is configured or the configured one fails. Notes are
// truncated on runes so multi-byte text stays valid UTF-8.
func fallbackReview(title, notes string) string {
	if runes := []rune(notes); len(runes) > notesLimit {
		notes = string(runes[:notesLimit])
	}
	return fmt.Sprintf("I watched %s and here are my thoughts: %s...", title, notes)
}
