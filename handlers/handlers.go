// Package handlers exposes the catalog as a JSON API. Handlers close
// over their collaborators and stay free of business logic: shapes are
// picked by the resolver, math lives in progress/reviews, and the
// store owns persistence.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/moviemate/moviemate/lib/apperr"
	"github.com/moviemate/moviemate/lib/db"
	"github.com/moviemate/moviemate/lib/generate"
	"github.com/moviemate/moviemate/lib/progress"
	"github.com/moviemate/moviemate/lib/recommend"
	"github.com/moviemate/moviemate/lib/resolver"
	"github.com/moviemate/moviemate/lib/reviews"
	"github.com/moviemate/moviemate/lib/tmdb"
	"github.com/moviemate/moviemate/lib/validation"
	"github.com/moviemate/moviemate/models"
)

// contentResponse is the base serialization shape. average_rating is
// null (not zero) when the item has no reviews.
type contentResponse struct {
	models.Content
	AverageRating *float64 `json:"average_rating"`
}

type movieResponse struct {
	contentResponse
	Duration *int `json:"duration,omitempty"`
}

type tvShowResponse struct {
	contentResponse
	TotalSeasons           int `json:"total_seasons"`
	TotalEpisodes          int `json:"total_episodes"`
	SeasonsWatched         int `json:"seasons_watched"`
	EpisodesWatched        int `json:"episodes_watched"`
	AverageEpisodeDuration int `json:"average_episode_duration"`
	progress.Metrics
}

func contentBody(c *models.Content) contentResponse {
	resp := contentResponse{Content: *c}
	if avg, ok := reviews.AverageRating(c.Reviews); ok {
		resp.AverageRating = &avg
	}
	return resp
}

func movieBody(c *models.Content, m *models.Movie) movieResponse {
	return movieResponse{contentResponse: contentBody(c), Duration: m.Duration}
}

func tvShowBody(c *models.Content, t *models.TVShow) tvShowResponse {
	return tvShowResponse{
		contentResponse:        contentBody(c),
		TotalSeasons:           t.TotalSeasons,
		TotalEpisodes:          t.TotalEpisodes,
		SeasonsWatched:         t.SeasonsWatched,
		EpisodesWatched:        t.EpisodesWatched,
		AverageEpisodeDuration: t.AverageEpisodeDuration,
		Metrics:                progress.Calculate(*t),
	}
}

// resolvedBody picks the serialization shape for a resolved item. The
// generic shape covers both untyped rows and rows whose specialization
// is missing.
func resolvedBody(res *resolver.Resolved) interface{} {
	switch res.Variant {
	case resolver.VariantMovie:
		return movieBody(res.Content, res.Movie)
	case resolver.VariantTVShow:
		return tvShowBody(res.Content, res.TVShow)
	default:
		return contentBody(res.Content)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}

// writeDomainError maps the error taxonomy to HTTP statuses. Anything
// outside the taxonomy is a store/internal failure and is not leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		validation.WriteError(w, err, http.StatusNotFound)
	case errors.Is(err, apperr.ErrInvalidInput):
		validation.WriteError(w, err, http.StatusBadRequest)
	case errors.Is(err, apperr.ErrInvariantViolation):
		validation.WriteError(w, err, http.StatusConflict)
	default:
		slog.Error("Request failed", slog.Any("error", err))
		validation.WriteError(w, errors.New("internal server error"), http.StatusInternalServerError)
	}
}

func listOptionsFromQuery(r *http.Request) db.ListOptions {
	q := r.URL.Query()
	return db.ListOptions{
		Genre:       q.Get("genre"),
		Platform:    q.Get("platform"),
		Status:      q.Get("status"),
		ContentType: q.Get("content_type"),
		Search:      q.Get("search"),
		OrderBy:     q.Get("ordering"),
	}
}

func idFromRequest(r *http.Request) (uint, error) {
	return validation.ParseID(chi.URLParam(r, "id"))
}

// HandleListContent lists the whole catalog with optional filters,
// search and ordering.
func HandleListContent(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.ListContent(r.Context(), listOptionsFromQuery(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]contentResponse, len(items))
		for i := range items {
			resp[i] = contentBody(&items[i])
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleGetContent returns one item in its resolved shape: movie, TV
// show, or the generic base shape when the specialization is missing.
func HandleGetContent(res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resolved, err := res.Resolve(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resolvedBody(resolved))
	}
}

// HandleUpdateContent applies a partial update and returns the updated
// resolved shape. content_type changes are rejected, never applied.
func HandleUpdateContent(store *db.Store, res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		var fields map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			validation.WriteError(w, errors.New("malformed JSON body"), http.StatusBadRequest)
			return
		}

		if err := store.Update(r.Context(), id, fields); err != nil {
			writeDomainError(w, err)
			return
		}

		resolved, err := res.Resolve(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resolvedBody(resolved))
	}
}

// HandleDeleteContent deletes an item along with its reviews and watch
// history.
func HandleDeleteContent(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if err := store.Delete(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type moviePayload struct {
	Title       string `json:"title"`
	Director    string `json:"director"`
	Genre       string `json:"genre"`
	Platform    string `json:"platform"`
	Status      string `json:"status"`
	ContentType string `json:"content_type"`
	PosterURL   string `json:"poster_url"`
	Description string `json:"description"`
	ReleaseYear *int   `json:"release_year"`
	Duration    *int   `json:"duration"`
}

type tvShowPayload struct {
	moviePayload
	TotalSeasons           int `json:"total_seasons"`
	TotalEpisodes          int `json:"total_episodes"`
	SeasonsWatched         int `json:"seasons_watched"`
	EpisodesWatched        int `json:"episodes_watched"`
	AverageEpisodeDuration int `json:"average_episode_duration"`
}

func (p moviePayload) content() models.Content {
	return models.Content{
		Title:       p.Title,
		Director:    p.Director,
		Genre:       models.Genre(p.Genre),
		Platform:    models.Platform(p.Platform),
		Status:      models.Status(p.Status),
		PosterURL:   p.PosterURL,
		Description: p.Description,
		ReleaseYear: p.ReleaseYear,
	}
}

// HandleCreateMovie creates a movie. The content row and its
// specialization are written atomically; content_type in the payload
// is ignored. Poster enrichment runs when a TMDb client is configured
// and the payload carries no poster.
func HandleCreateMovie(store *db.Store, posters *tmdb.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			validation.WriteError(w, errors.New("failed to read body"), http.StatusBadRequest)
			return
		}
		if err := validation.ValidatePayload(validation.MovieSchema, body); err != nil {
			writeDomainError(w, err)
			return
		}

		var payload moviePayload
		if err := json.Unmarshal(body, &payload); err != nil {
			validation.WriteError(w, errors.New("malformed JSON body"), http.StatusBadRequest)
			return
		}

		content := payload.content()
		content.ContentType = models.TypeMovie
		if posters != nil && content.PosterURL == "" {
			content.PosterURL = posters.PosterFor(r.Context(), &content)
		}

		movie := models.Movie{Duration: payload.Duration}
		if err := store.CreateMovie(r.Context(), &content, &movie); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, movieBody(&content, &movie))
	}
}

// HandleListMovies lists movies in their specialized shape.
func HandleListMovies(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, byID, err := store.ListMovies(r.Context(), listOptionsFromQuery(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]movieResponse, len(items))
		for i := range items {
			movie := byID[items[i].ID]
			resp[i] = movieBody(&items[i], &movie)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCreateTVShow creates a TV show with the usual counter defaults
// (one season, one episode, 45-minute episodes).
func HandleCreateTVShow(store *db.Store, posters *tmdb.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			validation.WriteError(w, errors.New("failed to read body"), http.StatusBadRequest)
			return
		}
		if err := validation.ValidatePayload(validation.TVShowSchema, body); err != nil {
			writeDomainError(w, err)
			return
		}

		var payload tvShowPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			validation.WriteError(w, errors.New("malformed JSON body"), http.StatusBadRequest)
			return
		}

		content := payload.content()
		content.ContentType = models.TypeTVShow
		if posters != nil && content.PosterURL == "" {
			content.PosterURL = posters.PosterFor(r.Context(), &content)
		}

		show := models.TVShow{
			TotalSeasons:           payload.TotalSeasons,
			TotalEpisodes:          payload.TotalEpisodes,
			SeasonsWatched:         payload.SeasonsWatched,
			EpisodesWatched:        payload.EpisodesWatched,
			AverageEpisodeDuration: payload.AverageEpisodeDuration,
		}
		if err := store.CreateTVShow(r.Context(), &content, &show); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tvShowBody(&content, &show))
	}
}

// HandleListTVShows lists TV shows in their specialized shape,
// including derived progress metrics.
func HandleListTVShows(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, byID, err := store.ListTVShows(r.Context(), listOptionsFromQuery(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]tvShowResponse, len(items))
		for i := range items {
			show := byID[items[i].ID]
			resp[i] = tvShowBody(&items[i], &show)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleListReviews lists a content item's reviews, newest first unless
// the ordering parameter says otherwise.
func HandleListReviews(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		items, err := store.ListReviews(r.Context(), id, r.URL.Query().Get("ordering"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

type reviewPayload struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
	Notes      string `json:"notes"`
}

// HandleCreateReview attaches a review to a content item.
func HandleCreateReview(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			validation.WriteError(w, errors.New("failed to read body"), http.StatusBadRequest)
			return
		}
		if err := validation.ValidatePayload(validation.ReviewSchema, body); err != nil {
			writeDomainError(w, err)
			return
		}

		var payload reviewPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			validation.WriteError(w, errors.New("malformed JSON body"), http.StatusBadRequest)
			return
		}

		review := models.Review{
			Rating:     payload.Rating,
			ReviewText: payload.ReviewText,
			Notes:      payload.Notes,
		}
		if err := store.CreateReview(r.Context(), id, &review); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, review)
	}
}

type progressPayload struct {
	EpisodesWatched *int `json:"episodes_watched"`
	SeasonsWatched  *int `json:"seasons_watched"`
}

// HandleUpdateProgress moves a show's watched counters. Movies get a
// 400; progress tracking only exists for TV shows.
func HandleUpdateProgress(store *db.Store, res *resolver.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resolved, err := res.Resolve(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if resolved.Variant != resolver.VariantTVShow {
			validation.WriteError(w, errors.New("progress tracking is only available for TV shows"), http.StatusBadRequest)
			return
		}

		var payload progressPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			validation.WriteError(w, errors.New("malformed JSON body"), http.StatusBadRequest)
			return
		}

		show, err := store.UpdateProgress(r.Context(), id, payload.EpisodesWatched, payload.SeasonsWatched)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tvShowBody(resolved.Content, show))
	}
}

// HandleListWatchHistory lists a content item's viewing sessions, most
// recent first.
func HandleListWatchHistory(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		items, err := store.ListWatchHistory(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

type watchHistoryPayload struct {
	WatchDuration *int `json:"watch_duration"`
}

// HandleCreateWatchHistory records a viewing session. The watch date is
// set server-side and is immutable.
func HandleCreateWatchHistory(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		var payload watchHistoryPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			validation.WriteError(w, errors.New("malformed JSON body"), http.StatusBadRequest)
			return
		}

		entry := models.WatchHistory{WatchDuration: payload.WatchDuration}
		if err := store.CreateWatchHistory(r.Context(), id, &entry); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	}
}

// HandleRecommendations returns up to limit recommended items in the
// base content shape. The endpoint never fails into an empty body; an
// empty catalog yields an empty list.
func HandleRecommendations(engine *recommend.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validation.ParseLimit(r.URL.Query().Get("limit"), recommend.DefaultLimit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		items, err := engine.Recommend(r.Context(), limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]contentResponse, len(items))
		for i := range items {
			resp[i] = contentBody(&items[i])
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type generatePayload struct {
	Notes string `json:"notes"`
}

// HandleGenerateReview produces review text for a content item from
// the caller's notes. Upstream failures degrade to the deterministic
// fallback; only missing notes are an error.
func HandleGenerateReview(res *resolver.Resolver, gen *generate.Generator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idFromRequest(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resolved, err := res.Resolve(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		var payload generatePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			validation.WriteError(w, errors.New("malformed JSON body"), http.StatusBadRequest)
			return
		}

		result, err := gen.Generate(r.Context(), generate.Request{
			Title:       resolved.Content.Title,
			Genre:       resolved.Content.Genre,
			ContentType: resolved.Content.ContentType,
			Notes:       payload.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
