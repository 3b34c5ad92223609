// Package db implements the content store on top of GORM and SQLite.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/moviemate/moviemate/lib/apperr"
	"github.com/moviemate/moviemate/models"
	"gorm.io/gorm"
)

// Store wraps a gorm.DB with the catalog's persistence operations.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by the given database handle.
func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// DB exposes the underlying handle for collaborators that run their
// own queries, like the recommendation engine and the health check.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ListOptions are the optional equality filters, free-text search and
// ordering for content listings. Zero values impose no constraint.
type ListOptions struct {
	Genre       string
	Platform    string
	Status      string
	ContentType string
	Search      string
	OrderBy     string
	Limit       int
}

// contentOrderColumns is the ordering whitelist for content listings.
var contentOrderColumns = map[string]bool{
	"title":        true,
	"created_at":   true,
	"release_year": true,
}

// reviewOrderColumns is the ordering whitelist for review listings.
var reviewOrderColumns = map[string]bool{
	"created_at": true,
	"rating":     true,
}

// orderClause turns an ordering field like "title" or "-release_year"
// into an ORDER BY clause, enforcing the given whitelist.
func orderClause(field, fallback string, allowed map[string]bool) (string, error) {
	if field == "" {
		return fallback, nil
	}

	column := field
	direction := "asc"
	if strings.HasPrefix(field, "-") {
		column = field[1:]
		direction = "desc"
	}

	if !allowed[column] {
		return "", fmt.Errorf("%w: cannot order by %q", apperr.ErrInvalidInput, field)
	}
	return column + " " + direction, nil
}

// GetContent loads a base content row with its reviews.
func (s *Store) GetContent(ctx context.Context, id uint) (*models.Content, error) {
	var content models.Content
	err := s.db.WithContext(ctx).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		First(&content, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &content, nil
}

// GetMovie loads the movie specialization for a content id.
func (s *Store) GetMovie(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.WithContext(ctx).Where("content_id = ?", id).First(&movie).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("movie %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}
	return &movie, nil
}

// GetTVShow loads the TV show specialization for a content id.
func (s *Store) GetTVShow(ctx context.Context, id uint) (*models.TVShow, error) {
	var show models.TVShow
	err := s.db.WithContext(ctx).Where("content_id = ?", id).First(&show).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tv show %d: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tv show: %w", err)
	}
	return &show, nil
}

// searchColumns are the fields the free-text search matches against.
var searchColumns = []string{"title", "director", "genre", "platform", "status"}

// ListContent returns content rows matching the given filters. Equality
// filters compose with AND; the free-text search is a case-insensitive
// substring match OR-ed across title/director/genre/platform/status.
func (s *Store) ListContent(ctx context.Context, opts ListOptions) ([]models.Content, error) {
	order, err := orderClause(opts.OrderBy, "created_at desc", contentOrderColumns)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Model(&models.Content{}).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB { return db.Order("created_at desc") }).
		Order(order)

	if opts.Genre != "" {
		q = q.Where("genre = ?", opts.Genre)
	}
	if opts.Platform != "" {
		q = q.Where("platform = ?", opts.Platform)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", opts.Status)
	}
	if opts.ContentType != "" {
		q = q.Where("content_type = ?", opts.ContentType)
	}

	if opts.Search != "" {
		pattern := "%" + strings.ToLower(opts.Search) + "%"
		clauses := make([]string, len(searchColumns))
		args := make([]interface{}, len(searchColumns))
		for i, col := range searchColumns {
			clauses[i] = "lower(" + col + ") LIKE ?"
			args[i] = pattern
		}
		q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var items []models.Content
	if err := q.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}
	return items, nil
}

// ListMovies returns movie content rows plus their specializations,
// keyed by content id.
func (s *Store) ListMovies(ctx context.Context, opts ListOptions) ([]models.Content, map[uint]models.Movie, error) {
	opts.ContentType = string(models.TypeMovie)
	items, err := s.ListContent(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, len(items))
	for i, c := range items {
		ids[i] = c.ID
	}

	var movies []models.Movie
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("content_id IN ?", ids).Find(&movies).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to list movies: %w", err)
		}
	}

	byID := make(map[uint]models.Movie, len(movies))
	for _, m := range movies {
		byID[m.ContentID] = m
	}
	return items, byID, nil
}

// ListTVShows returns TV show content rows plus their specializations,
// keyed by content id.
func (s *Store) ListTVShows(ctx context.Context, opts ListOptions) ([]models.Content, map[uint]models.TVShow, error) {
	opts.ContentType = string(models.TypeTVShow)
	items, err := s.ListContent(ctx, opts)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint, len(items))
	for i, c := range items {
		ids[i] = c.ID
	}

	var shows []models.TVShow
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("content_id IN ?", ids).Find(&shows).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to list tv shows: %w", err)
		}
	}

	byID := make(map[uint]models.TVShow, len(shows))
	for _, t := range shows {
		byID[t.ContentID] = t
	}
	return items, byID, nil
}

// CreateMovie writes the base content row and its movie specialization
// in one transaction. The content_type discriminator is forced here and
// never client-writable afterwards.
func (s *Store) CreateMovie(ctx context.Context, content *models.Content, movie *models.Movie) error {
	content.ContentType = models.TypeMovie
	if err := validateContent(content); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(content).Error; err != nil {
			return err
		}
		movie.ContentID = content.ID
		return tx.Omit("Content").Create(movie).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	s.logger.Info("Created movie", slog.Uint64("id", uint64(content.ID)), slog.String("title", content.Title))
	return nil
}

// CreateTVShow writes the base content row and its TV show
// specialization in one transaction, applying the show defaults for
// omitted counters.
func (s *Store) CreateTVShow(ctx context.Context, content *models.Content, show *models.TVShow) error {
	content.ContentType = models.TypeTVShow
	if err := validateContent(content); err != nil {
		return err
	}

	if show.TotalSeasons == 0 {
		show.TotalSeasons = 1
	}
	if show.TotalEpisodes == 0 {
		show.TotalEpisodes = 1
	}
	if show.AverageEpisodeDuration == 0 {
		show.AverageEpisodeDuration = 45
	}
	if err := validateTVShow(show); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(content).Error; err != nil {
			return err
		}
		show.ContentID = content.ID
		return tx.Omit("Content").Create(show).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create tv show: %w", err)
	}

	s.logger.Info("Created tv show", slog.Uint64("id", uint64(content.ID)), slog.String("title", content.Title))
	return nil
}

// contentColumns are the base fields the update path may touch.
var contentColumns = map[string]bool{
	"title":        true,
	"director":     true,
	"genre":        true,
	"platform":     true,
	"status":       true,
	"poster_url":   true,
	"description":  true,
	"release_year": true,
}

// movieColumns are the movie specialization fields the update path may touch.
var movieColumns = map[string]bool{
	"duration": true,
}

// tvShowColumns are the TV show specialization fields the update path may touch.
var tvShowColumns = map[string]bool{
	"total_seasons":            true,
	"total_episodes":           true,
	"seasons_watched":          true,
	"episodes_watched":         true,
	"average_episode_duration": true,
}

// Update applies a partial update to a content row and its
// specialization. Attempts to change content_type are rejected with
// ErrInvariantViolation; sending the stored value back is a no-op.
func (s *Store) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	content, err := s.GetContent(ctx, id)
	if err != nil {
		return err
	}

	if raw, ok := fields["content_type"]; ok {
		if ct, _ := raw.(string); ct != string(content.ContentType) {
			return fmt.Errorf("content_type is read-only: %w", apperr.ErrInvariantViolation)
		}
		delete(fields, "content_type")
	}

	base := map[string]interface{}{}
	special := map[string]interface{}{}
	for key, value := range fields {
		switch {
		case contentColumns[key]:
			base[key] = value
		case content.ContentType == models.TypeMovie && movieColumns[key]:
			special[key] = value
		case content.ContentType == models.TypeTVShow && tvShowColumns[key]:
			special[key] = value
		default:
			return fmt.Errorf("%w: unknown field %q", apperr.ErrInvalidInput, key)
		}
	}

	if err := validateUpdateFields(base); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(base) > 0 {
			if err := tx.Model(&models.Content{}).Where("id = ?", id).Updates(base).Error; err != nil {
				return fmt.Errorf("failed to update content: %w", err)
			}
		}
		if len(special) > 0 {
			var target interface{}
			if content.ContentType == models.TypeMovie {
				target = &models.Movie{}
			} else {
				target = &models.TVShow{}
			}
			if err := tx.Model(target).Where("content_id = ?", id).Updates(special).Error; err != nil {
				return fmt.Errorf("failed to update specialization: %w", err)
			}
		}
		return nil
	})
}

// UpdateProgress moves a TV show's watched counters. Counters may run
// past the totals; derived metrics clamp, the store does not.
func (s *Store) UpdateProgress(ctx context.Context, id uint, episodesWatched, seasonsWatched *int) (*models.TVShow, error) {
	show, err := s.GetTVShow(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if episodesWatched != nil {
		if *episodesWatched < 0 {
			return nil, fmt.Errorf("%w: episodes_watched must not be negative", apperr.ErrInvalidInput)
		}
		updates["episodes_watched"] = *episodesWatched
		show.EpisodesWatched = *episodesWatched
	}
	if seasonsWatched != nil {
		if *seasonsWatched < 0 {
			return nil, fmt.Errorf("%w: seasons_watched must not be negative", apperr.ErrInvalidInput)
		}
		updates["seasons_watched"] = *seasonsWatched
		show.SeasonsWatched = *seasonsWatched
	}

	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&models.TVShow{}).
			Where("content_id = ?", id).Updates(updates).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update progress: %w", err)
		}
	}
	return show, nil
}

// Delete removes a content row, its specialization and all owned
// reviews and watch history.
func (s *Store) Delete(ctx context.Context, id uint) error {
	content, err := s.GetContent(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.WatchHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.Movie{}).Error; err != nil {
			return err
		}
		if err := tx.Where("content_id = ?", id).Delete(&models.TVShow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Content{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete content: %w", err)
	}

	s.logger.Info("Deleted content", slog.Uint64("id", uint64(id)), slog.String("title", content.Title))
	return nil
}

// ListReviews returns the reviews for a content item, newest first by
// default. The ordering whitelist is {created_at, rating}.
func (s *Store) ListReviews(ctx context.Context, contentID uint, orderBy string) ([]models.Review, error) {
	if _, err := s.GetContent(ctx, contentID); err != nil {
		return nil, err
	}

	order, err := orderClause(orderBy, "created_at desc", reviewOrderColumns)
	if err != nil {
		return nil, err
	}

	var items []models.Review
	err = s.db.WithContext(ctx).Where("content_id = ?", contentID).Order(order).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return items, nil
}

// CreateReview attaches a review to an existing content item.
func (s *Store) CreateReview(ctx context.Context, contentID uint, review *models.Review) error {
	if review.Rating < 1 || review.Rating > 10 {
		return fmt.Errorf("%w: rating must be between 1 and 10", apperr.ErrInvalidInput)
	}
	if _, err := s.GetContent(ctx, contentID); err != nil {
		return err
	}

	review.ContentID = contentID
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// ListWatchHistory returns the viewing sessions for a content item,
// most recent first.
func (s *Store) ListWatchHistory(ctx context.Context, contentID uint) ([]models.WatchHistory, error) {
	if _, err := s.GetContent(ctx, contentID); err != nil {
		return nil, err
	}

	var items []models.WatchHistory
	err := s.db.WithContext(ctx).Where("content_id = ?", contentID).Order("date_watched desc").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list watch history: %w", err)
	}
	return items, nil
}

// CreateWatchHistory records a viewing session for an existing content
// item. DateWatched is set by the database at insert time.
func (s *Store) CreateWatchHistory(ctx context.Context, contentID uint, entry *models.WatchHistory) error {
	if _, err := s.GetContent(ctx, contentID); err != nil {
		return err
	}

	entry.ContentID = contentID
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create watch history: %w", err)
	}
	return nil
}

// validateContent checks the base fields shared by both create paths.
func validateContent(content *models.Content) error {
	if strings.TrimSpace(content.Title) == "" {
		return fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	if !content.Genre.Valid() {
		return fmt.Errorf("%w: unknown genre %q", apperr.ErrInvalidInput, content.Genre)
	}
	if !content.Platform.Valid() {
		return fmt.Errorf("%w: unknown platform %q", apperr.ErrInvalidInput, content.Platform)
	}
	if content.Status == "" {
		content.Status = models.StatusWishlist
	}
	if !content.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidInput, content.Status)
	}
	return nil
}

// validateTVShow checks the show counters after defaults are applied.
func validateTVShow(show *models.TVShow) error {
	if show.TotalSeasons < 1 {
		return fmt.Errorf("%w: total_seasons must be at least 1", apperr.ErrInvalidInput)
	}
	if show.TotalEpisodes < 1 {
		return fmt.Errorf("%w: total_episodes must be at least 1", apperr.ErrInvalidInput)
	}
	if show.SeasonsWatched < 0 || show.EpisodesWatched < 0 {
		return fmt.Errorf("%w: watched counters must not be negative", apperr.ErrInvalidInput)
	}
	return nil
}

// validateUpdateFields checks enum values arriving through the partial
// update path. Title is required at creation and must not be blanked
// later.
func validateUpdateFields(fields map[string]interface{}) error {
	if raw, ok := fields["title"]; ok {
		if title, _ := raw.(string); strings.TrimSpace(title) == "" {
			return fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
		}
	}
	if raw, ok := fields["genre"]; ok {
		if g, _ := raw.(string); !models.Genre(g).Valid() {
			return fmt.Errorf("%w: unknown genre %q", apperr.ErrInvalidInput, raw)
		}
	}
	if raw, ok := fields["platform"]; ok {
		if p, _ := raw.(string); !models.Platform(p).Valid() {
			return fmt.Errorf("%w: unknown platform %q", apperr.ErrInvalidInput, raw)
		}
	}
	if raw, ok := fields["status"]; ok {
		if st, _ := raw.(string); !models.Status(st).Valid() {
			return fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidInput, raw)
		}
	}
	return nil
}
