package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/moviemate/moviemate/lib/db"
	"github.com/moviemate/moviemate/lib/generate"
	"github.com/moviemate/moviemate/lib/recommend"
	"github.com/moviemate/moviemate/lib/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(gormDB, logger))

	store := db.NewStore(gormDB, logger)
	res := resolver.New(store, logger)
	engine := recommend.New(gormDB, logger)
	gen := generate.New(nil, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/content", HandleListContent(store))
		r.Route("/content/{id}", func(r chi.Router) {
			r.Get("/", HandleGetContent(res))
			r.Patch("/", HandleUpdateContent(store, res))
			r.Delete("/", HandleDeleteContent(store))
			r.Post("/reviews", HandleCreateReview(store))
			r.Get("/reviews", HandleListReviews(store))
			r.Post("/progress", HandleUpdateProgress(store, res))
			r.Post("/generate-review", HandleGenerateReview(res, gen))
		})
		r.Post("/movies", HandleCreateMovie(store, nil))
		r.Get("/movies", HandleListMovies(store))
		r.Post("/tv-shows", HandleCreateTVShow(store, nil))
		r.Get("/tv-shows", HandleListTVShows(store))
		r.Get("/recommendations", HandleRecommendations(engine))
	})
	return r
}

func requestPath(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			// Lists decode elsewhere; ignore here.
			decoded = nil
		}
	}
	return rec, decoded
}

func TestCreateAndGetMovie(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/movies",
		`{"title": "Heat", "genre": "crime", "platform": "netflix", "duration": 170}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "movie", body["content_type"])
	assert.Equal(t, float64(170), body["duration"])
	assert.Nil(t, body["average_rating"], "unrated content serializes a null average")

	id := body["id"].(float64)
	rec, body = doJSON(t, router, http.MethodGet, requestPath("/api/content/%v", id), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Heat", body["title"])
	assert.Equal(t, float64(170), body["duration"])
}

func TestCreateTVShowIncludesProgress(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/tv-shows",
		`{"title": "Severance", "genre": "sci-fi", "platform": "apple", "total_seasons": 2, "total_episodes": 19}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "tv_show", body["content_type"])
	assert.Equal(t, float64(0), body["progress_percentage"])
	assert.Equal(t, float64(19), body["remaining_episodes"])
}

func TestUpdateProgress(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/tv-shows",
		`{"title": "Severance", "genre": "sci-fi", "platform": "apple", "total_episodes": 10, "average_episode_duration": 60}`)
	id := body["id"].(float64)

	rec, body := doJSON(t, router, http.MethodPost, requestPath("/api/content/%v/progress", id),
		`{"episodes_watched": 4}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(40), body["progress_percentage"])
	assert.Equal(t, float64(6), body["remaining_episodes"])
	assert.Equal(t, float64(6), body["estimated_time_to_complete"])
}

func TestUpdateProgressRejectsMovies(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/movies",
		`{"title": "Heat", "genre": "crime", "platform": "netflix"}`)
	id := body["id"].(float64)

	rec, _ := doJSON(t, router, http.MethodPost, requestPath("/api/content/%v/progress", id),
		`{"episodes_watched": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContentTypeIsImmutableOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/movies",
		`{"title": "Heat", "genre": "crime", "platform": "netflix"}`)
	id := body["id"].(float64)

	rec, _ := doJSON(t, router, http.MethodPatch, requestPath("/api/content/%v", id),
		`{"content_type": "tv_show"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, body = doJSON(t, router, http.MethodGet, requestPath("/api/content/%v", id), "")
	assert.Equal(t, "movie", body["content_type"], "stored value must not change")
}

func TestGenerateReviewFallback(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/movies",
		`{"title": "Dune", "genre": "sci-fi", "platform": "hbo"}`)
	id := body["id"].(float64)

	rec, body := doJSON(t, router, http.MethodPost, requestPath("/api/content/%v/generate-review", id),
		`{"notes": "loved the sandworms"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["degraded"])
	assert.Equal(t, "I watched Dune and here are my thoughts: loved the sandworms...", body["generated_review"])

	rec, _ = doJSON(t, router, http.MethodPost, requestPath("/api/content/%v/generate-review", id),
		`{"notes": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMissingContent(t *testing.T) {
	router := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/content/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteContent(t *testing.T) {
	router := newTestRouter(t)

	_, body := doJSON(t, router, http.MethodPost, "/api/movies",
		`{"title": "Heat", "genre": "crime", "platform": "netflix"}`)
	id := body["id"].(float64)

	rec, _ := doJSON(t, router, http.MethodDelete, requestPath("/api/content/%v", id), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, requestPath("/api/content/%v", id), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecommendationsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	doJSON(t, router, http.MethodPost, "/api/movies",
		`{"title": "Heat", "genre": "crime", "platform": "netflix"}`)
	doJSON(t, router, http.MethodPost, "/api/movies",
		`{"title": "Alien", "genre": "sci-fi", "platform": "hulu"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/recommendations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}
