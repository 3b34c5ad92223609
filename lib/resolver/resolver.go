// Package resolver decides which concrete shape a content id carries.
// The retrieve/update/delete paths go through here; the list and create
// paths already know their variant and use the store directly.
package resolver

import (
	"context"
	"errors"

	"log/slog"

	"github.com/moviemate/moviemate/lib/apperr"
	"github.com/moviemate/moviemate/lib/db"
	"github.com/moviemate/moviemate/models"
)

// Variant tags the concrete shape of a resolved content item.
type Variant string

const (
	VariantMovie  Variant = "movie"
	VariantTVShow Variant = "tv_show"

	// VariantGeneric means the base row exists but its specialization
	// is missing. Callers get the base shape instead of an error.
	VariantGeneric Variant = "generic"
)

// Resolved is the tagged union returned by Resolve. Content is always
// set; exactly one of Movie/TVShow is set for the matching variant.
type Resolved struct {
	Variant Variant
	Content *models.Content
	Movie   *models.Movie
	TVShow  *models.TVShow
}

type Resolver struct {
	store  *db.Store
	logger *slog.Logger
}

func New(store *db.Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve looks up the base content row and joins in its
// specialization. A missing base row is ErrNotFound. A missing
// specialization despite content_type pointing at one degrades to the
// generic shape; that leniency is deliberate and load-bearing.
func (r *Resolver) Resolve(ctx context.Context, id uint) (*Resolved, error) {
	content, err := r.store.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	switch content.ContentType {
	case models.TypeMovie:
		movie, err := r.store.GetMovie(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				r.logger.Warn("Movie row missing for content, serving generic shape",
					slog.Uint64("id", uint64(id)))
				return &Resolved{Variant: VariantGeneric, Content: content}, nil
			}
			return nil, err
		}
		return &Resolved{Variant: VariantMovie, Content: content, Movie: movie}, nil

	case models.TypeTVShow:
		show, err := r.store.GetTVShow(ctx, id)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				r.logger.Warn("TV show row missing for content, serving generic shape",
					slog.Uint64("id", uint64(id)))
				return &Resolved{Variant: VariantGeneric, Content: content}, nil
			}
			return nil, err
		}
		return &Resolved{Variant: VariantTVShow, Content: content, TVShow: show}, nil

	default:
		return &Resolved{Variant: VariantGeneric, Content: content}, nil
	}
}
