package validation

import (
	"errors"
	"testing"

	"github.com/moviemate/moviemate/lib/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(raw)
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "raw=%q", raw)
	}
}

func TestParseLimit(t *testing.T) {
	limit, err := ParseLimit("", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, limit)

	limit, err = ParseLimit("5", 10)
	require.NoError(t, err)
	assert.Equal(t, 5, limit)

	limit, err = ParseLimit("500", 10)
	require.NoError(t, err)
	assert.Equal(t, 100, limit, "limits cap at 100")

	_, err = ParseLimit("nope", 10)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestValidateMoviePayload(t *testing.T) {
	ok := []byte(`{"title": "Heat", "genre": "crime", "platform": "netflix", "duration": 170}`)
	require.NoError(t, ValidatePayload(MovieSchema, ok))

	missingTitle := []byte(`{"genre": "crime", "platform": "netflix"}`)
	err := ValidatePayload(MovieSchema, missingTitle)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	badGenre := []byte(`{"title": "Heat", "genre": "western", "platform": "netflix"}`)
	err = ValidatePayload(MovieSchema, badGenre)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	unknownField := []byte(`{"title": "Heat", "genre": "crime", "platform": "netflix", "total_episodes": 3}`)
	err = ValidatePayload(MovieSchema, unknownField)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "movie payloads reject show fields")
}

func TestValidateTVShowPayload(t *testing.T) {
	ok := []byte(`{"title": "Severance", "genre": "sci-fi", "platform": "apple", "total_seasons": 2, "total_episodes": 19, "episodes_watched": 25}`)
	require.NoError(t, ValidatePayload(TVShowSchema, ok), "watched counters may exceed totals")

	badTotals := []byte(`{"title": "Severance", "genre": "sci-fi", "platform": "apple", "total_episodes": 0}`)
	err := ValidatePayload(TVShowSchema, badTotals)
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestValidateReviewPayload(t *testing.T) {
	require.NoError(t, ValidatePayload(ReviewSchema, []byte(`{"rating": 8, "notes": "good"}`)))

	for _, body := range []string{`{"rating": 0}`, `{"rating": 11}`, `{}`, `not json`} {
		err := ValidatePayload(ReviewSchema, []byte(body))
		assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "body=%s", body)
	}
}
