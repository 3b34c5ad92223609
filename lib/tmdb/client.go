// Package tmdb looks up poster art for catalog entries. Enrichment is
// advisory: lookup failures are logged and the entry is saved without
// a poster.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"log/slog"

	"github.com/moviemate/moviemate/models"
)

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type SearchResult struct {
	Results []struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		ReleaseDate string  `json:"release_date"`
		PosterPath  string  `json:"poster_path"`
		VoteAverage float64 `json:"vote_average"`
	} `json:"results"`
}

type TVSearchResult struct {
	Results []struct {
		ID           int     `json:"id"`
		Name         string  `json:"name"`
		FirstAirDate string  `json:"first_air_date"`
		PosterPath   string  `json:"poster_path"`
		VoteAverage  float64 `json:"vote_average"`
	} `json:"results"`
}

func NewClient(apiKey string, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    "https://api.themoviedb.org/3",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*SearchResult, error) {
	reqURL := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s", c.baseURL, c.apiKey, url.QueryEscape(title))
	if year > 0 {
		reqURL += fmt.Sprintf("&year=%d", year)
	}

	var result SearchResult
	if err := c.get(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) SearchTVShow(ctx context.Context, title string, year int) (*TVSearchResult, error) {
	reqURL := fmt.Sprintf("%s/search/tv?api_key=%s&query=%s", c.baseURL, c.apiKey, url.QueryEscape(title))
	if year > 0 {
		reqURL += fmt.Sprintf("&first_air_date_year=%d", year)
	}

	var result TVSearchResult
	if err := c.get(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", slog.Any("error", err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from TMDb", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetPosterURL turns a TMDb poster path into a full image URL.
func (c *Client) GetPosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return fmt.Sprintf("https://image.tmdb.org/t/p/w500%s", posterPath)
}

// PosterFor finds a poster URL for a catalog entry, or "" when nothing
// matches. Errors are swallowed after logging; a missing poster never
// blocks a create.
func (c *Client) PosterFor(ctx context.Context, content *models.Content) string {
	year := 0
	if content.ReleaseYear != nil {
		year = *content.ReleaseYear
	}

	switch content.ContentType {
	case models.TypeMovie:
		result, err := c.SearchMovie(ctx, content.Title, year)
		if err != nil {
			c.logger.Warn("Poster lookup failed", slog.String("title", content.Title), slog.Any("error", err))
			return ""
		}
		if len(result.Results) > 0 {
			return c.GetPosterURL(result.Results[0].PosterPath)
		}
	case models.TypeTVShow:
		result, err := c.SearchTVShow(ctx, content.Title, year)
		if err != nil {
			c.logger.Warn("Poster lookup failed", slog.String("title", content.Title), slog.Any("error", err))
			return ""
		}
		if len(result.Results) > 0 {
			return c.GetPosterURL(result.Results[0].PosterPath)
		}
	}
	return ""
}
