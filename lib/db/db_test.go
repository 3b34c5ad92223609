package db

import (
	"context"
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/moviemate/moviemate/lib/apperr"
	"github.com/moviemate/moviemate/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := testLogger()
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// One connection so every query sees the same in-memory database.
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, RunMigrations(gormDB, logger))
	return NewStore(gormDB, logger)
}

func createMovie(t *testing.T, store *Store, title string, genre models.Genre, platform models.Platform) *models.Content {
	t.Helper()

	content := models.Content{Title: title, Genre: genre, Platform: platform}
	movie := models.Movie{}
	require.NoError(t, store.CreateMovie(context.Background(), &content, &movie))
	return &content
}

func TestCreateMovieSetsContentType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := models.Content{Title: "Heat", Genre: models.GenreCrime, Platform: models.PlatformNetflix}
	duration := 170
	movie := models.Movie{Duration: &duration}
	require.NoError(t, store.CreateMovie(ctx, &content, &movie))

	assert.Equal(t, models.TypeMovie, content.ContentType)
	assert.Equal(t, content.ID, movie.ContentID)
	assert.Equal(t, models.StatusWishlist, content.Status, "status defaults to wishlist")

	got, err := store.GetMovie(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, 170, *got.Duration)
}

func TestCreateTVShowDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := models.Content{Title: "Severance", Genre: models.GenreSciFi, Platform: models.PlatformApple}
	show := models.TVShow{}
	require.NoError(t, store.CreateTVShow(ctx, &content, &show))

	assert.Equal(t, models.TypeTVShow, content.ContentType)
	assert.Equal(t, 1, show.TotalSeasons)
	assert.Equal(t, 1, show.TotalEpisodes)
	assert.Equal(t, 45, show.AverageEpisodeDuration)
}

func TestCreateTVShowRejectsBadTotals(t *testing.T) {
	store := newTestStore(t)

	content := models.Content{Title: "Bad", Genre: models.GenreDrama, Platform: models.PlatformHulu}
	show := models.TVShow{TotalEpisodes: -3}
	err := store.CreateTVShow(context.Background(), &content, &show)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestCreateRejectsUnknownEnums(t *testing.T) {
	store := newTestStore(t)

	content := models.Content{Title: "X", Genre: "western", Platform: models.PlatformNetflix}
	err := store.CreateMovie(context.Background(), &content, &models.Movie{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestListContentFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createMovie(t, store, "Alien", models.GenreSciFi, models.PlatformHulu)
	createMovie(t, store, "Heat", models.GenreCrime, models.PlatformNetflix)
	createMovie(t, store, "Blade Runner", models.GenreSciFi, models.PlatformNetflix)

	items, err := store.ListContent(ctx, ListOptions{Genre: "sci-fi"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// Filters compose with AND.
	items, err = store.ListContent(ctx, ListOptions{Genre: "sci-fi", Platform: "netflix"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Blade Runner", items[0].Title)
}

func TestListContentSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := models.Content{Title: "The Matrix", Director: "Wachowski", Genre: models.GenreSciFi, Platform: models.PlatformHBO}
	require.NoError(t, store.CreateMovie(ctx, &content, &models.Movie{}))
	createMovie(t, store, "Heat", models.GenreCrime, models.PlatformNetflix)

	// Case-insensitive substring over title.
	items, err := store.ListContent(ctx, ListOptions{Search: "matr"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "The Matrix", items[0].Title)

	// OR-ed across fields: director matches too.
	items, err = store.ListContent(ctx, ListOptions{Search: "WACHOWSKI"})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Platform is searchable as well.
	items, err = store.ListContent(ctx, ListOptions{Search: "netflix"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestListContentOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createMovie(t, store, "Zodiac", models.GenreThriller, models.PlatformNetflix)
	createMovie(t, store, "Alien", models.GenreSciFi, models.PlatformHulu)

	items, err := store.ListContent(ctx, ListOptions{OrderBy: "title"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Alien", items[0].Title)

	items, err = store.ListContent(ctx, ListOptions{OrderBy: "-title"})
	require.NoError(t, err)
	assert.Equal(t, "Zodiac", items[0].Title)

	_, err = store.ListContent(ctx, ListOptions{OrderBy: "rating; DROP TABLE contents"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "ordering is whitelisted")
}

func TestUpdateRejectsContentTypeMutation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := createMovie(t, store, "Heat", models.GenreCrime, models.PlatformNetflix)

	err := store.Update(ctx, content.ID, map[string]interface{}{"content_type": "tv_show"})
	assert.True(t, errors.Is(err, apperr.ErrInvariantViolation))

	// Echoing the stored value back is a no-op, not an error.
	err = store.Update(ctx, content.ID, map[string]interface{}{"content_type": "movie", "title": "Heat (1995)"})
	require.NoError(t, err)

	got, err := store.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TypeMovie, got.ContentType)
	assert.Equal(t, "Heat (1995)", got.Title)
}

func TestUpdateRejectsBlankTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := createMovie(t, store, "Heat", models.GenreCrime, models.PlatformNetflix)

	err := store.Update(ctx, content.ID, map[string]interface{}{"title": "   "})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	got, err := store.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, "Heat", got.Title)
}

func TestUpdateSpecializationFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := models.Content{Title: "Severance", Genre: models.GenreSciFi, Platform: models.PlatformApple}
	show := models.TVShow{TotalSeasons: 2, TotalEpisodes: 19}
	require.NoError(t, store.CreateTVShow(ctx, &content, &show))

	err := store.Update(ctx, content.ID, map[string]interface{}{
		"status":           "watching",
		"episodes_watched": 9,
	})
	require.NoError(t, err)

	got, err := store.GetTVShow(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.EpisodesWatched)

	base, err := store.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWatching, base.Status)

	// Movie fields are unknown on a tv show.
	err = store.Update(ctx, content.ID, map[string]interface{}{"duration": 120})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestUpdateProgressAllowsOverflow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := models.Content{Title: "Lost", Genre: models.GenreDrama, Platform: models.PlatformHulu}
	show := models.TVShow{TotalEpisodes: 10}
	require.NoError(t, store.CreateTVShow(ctx, &content, &show))

	episodes := 15
	got, err := store.UpdateProgress(ctx, content.ID, &episodes, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, got.EpisodesWatched, "counters are not clamped at write time")

	negative := -1
	_, err = store.UpdateProgress(ctx, content.ID, &negative, nil)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestDeleteCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := createMovie(t, store, "Heat", models.GenreCrime, models.PlatformNetflix)
	require.NoError(t, store.CreateReview(ctx, content.ID, &models.Review{Rating: 9}))
	require.NoError(t, store.CreateWatchHistory(ctx, content.ID, &models.WatchHistory{}))

	require.NoError(t, store.Delete(ctx, content.ID))

	_, err := store.GetContent(ctx, content.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	_, err = store.GetMovie(ctx, content.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	var count int64
	require.NoError(t, store.DB().Model(&models.Review{}).Where("content_id = ?", content.ID).Count(&count).Error)
	assert.Zero(t, count, "reviews cascade with their content")
	require.NoError(t, store.DB().Model(&models.WatchHistory{}).Where("content_id = ?", content.ID).Count(&count).Error)
	assert.Zero(t, count, "watch history cascades with its content")
}

func TestCreateReviewValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := createMovie(t, store, "Heat", models.GenreCrime, models.PlatformNetflix)

	err := store.CreateReview(ctx, content.ID, &models.Review{Rating: 11})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
	err = store.CreateReview(ctx, content.ID, &models.Review{Rating: 0})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	err = store.CreateReview(ctx, 9999, &models.Review{Rating: 5})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestListReviewsOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	content := createMovie(t, store, "Heat", models.GenreCrime, models.PlatformNetflix)
	require.NoError(t, store.CreateReview(ctx, content.ID, &models.Review{Rating: 4}))
	require.NoError(t, store.CreateReview(ctx, content.ID, &models.Review{Rating: 9}))

	items, err := store.ListReviews(ctx, content.ID, "rating")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 4, items[0].Rating)

	items, err = store.ListReviews(ctx, content.ID, "-rating")
	require.NoError(t, err)
	assert.Equal(t, 9, items[0].Rating)

	_, err = store.ListReviews(ctx, content.ID, "title")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "title is not in the review whitelist")
}
