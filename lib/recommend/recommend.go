// Package recommend surfaces content-based recommendations from the
// user's own catalog. The heuristic is genre/platform affinity seeded
// by highly-rated items; there is no scoring or ranking.
package recommend

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/moviemate/moviemate/models"
	"gorm.io/gorm"
)

// HighRatingThreshold is the review rating at or above which a content
// item counts as "highly rated" and seeds the affinity sets.
const HighRatingThreshold = 8

// DefaultLimit is how many items Recommend returns when the caller
// does not ask for a specific count.
const DefaultLimit = 10

type Engine struct {
	db     *gorm.DB
	logger *slog.Logger
}

func New(db *gorm.DB, logger *slog.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Recommend returns up to limit content items the user is likely to
// enjoy. With no highly-rated reviews it falls back to the catalog in
// default order. Items the user already loves are never recommended
// back, even when they match their own genre or platform.
func (e *Engine) Recommend(ctx context.Context, limit int) ([]models.Content, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var highlyRated []uint
	err := e.db.WithContext(ctx).Model(&models.Review{}).
		Distinct("content_id").
		Where("rating >= ?", HighRatingThreshold).
		Pluck("content_id", &highlyRated).Error
	if err != nil {
		return nil, fmt.Errorf("failed to collect highly rated content: %w", err)
	}

	if len(highlyRated) == 0 {
		var items []models.Content
		err := e.db.WithContext(ctx).
			Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
			Order("created_at desc").
			Limit(limit).
			Find(&items).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list fallback recommendations: %w", err)
		}
		e.logger.Debug("No highly rated content, recommending catalog head", slog.Int("count", len(items)))
		return items, nil
	}

	var genres []models.Genre
	err = e.db.WithContext(ctx).Model(&models.Content{}).
		Distinct("genre").
		Where("id IN ?", highlyRated).
		Pluck("genre", &genres).Error
	if err != nil {
		return nil, fmt.Errorf("failed to collect genres: %w", err)
	}

	var platforms []models.Platform
	err = e.db.WithContext(ctx).Model(&models.Content{}).
		Distinct("platform").
		Where("id IN ?", highlyRated).
		Pluck("platform", &platforms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to collect platforms: %w", err)
	}

	var items []models.Content
	err = e.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Where("genre IN ? OR platform IN ?", genres, platforms).
		Where("id NOT IN ?", highlyRated).
		Order("created_at desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find similar content: %w", err)
	}

	e.logger.Debug("Generated recommendations",
		slog.Int("highly_rated", len(highlyRated)),
		slog.Int("genres", len(genres)),
		slog.Int("platforms", len(platforms)),
		slog.Int("count", len(items)))

	return items, nil
}
