package validation

import (
	"fmt"
	"strings"

	"github.com/moviemate/moviemate/lib/apperr"
	"github.com/xeipuuv/gojsonschema"
)

const genreEnum = `["action", "comedy", "drama", "horror", "sci-fi", "thriller", "romance", "documentary", "animation", "fantasy", "crime", "adventure"]`

const platformEnum = `["netflix", "prime", "disney", "hulu", "hbo", "apple", "paramount", "other"]`

const statusEnum = `["watching", "completed", "wishlist"]`

// contentProperties are the base payload fields shared by the movie and
// TV show create schemas. content_type is accepted and ignored; the
// create path always derives it.
var contentProperties = `
		"title": {"type": "string", "minLength": 1, "maxLength": 200},
		"director": {"type": "string", "maxLength": 100},
		"genre": {"type": "string", "enum": ` + genreEnum + `},
		"platform": {"type": "string", "enum": ` + platformEnum + `},
		"status": {"type": "string", "enum": ` + statusEnum + `},
		"content_type": {"type": "string"},
		"poster_url": {"type": "string"},
		"description": {"type": "string"},
		"release_year": {"type": "integer", "minimum": 1878}`

// MovieSchema validates the create-movie payload.
var MovieSchema = `{
	"type": "object",
	"properties": {` + contentProperties + `,
		"duration": {"type": "integer", "minimum": 1}
	},
	"required": ["title", "genre", "platform"],
	"additionalProperties": false
}`

// TVShowSchema validates the create-TV-show payload. Watched counters
// may exceed the totals; only derived metrics clamp.
var TVShowSchema = `{
	"type": "object",
	"properties": {` + contentProperties + `,
		"total_seasons": {"type": "integer", "minimum": 1},
		"total_episodes": {"type": "integer", "minimum": 1},
		"seasons_watched": {"type": "integer", "minimum": 0},
		"episodes_watched": {"type": "integer", "minimum": 0},
		"average_episode_duration": {"type": "integer", "minimum": 1}
	},
	"required": ["title", "genre", "platform"],
	"additionalProperties": false
}`

// ReviewSchema validates the create-review payload.
var ReviewSchema = `{
	"type": "object",
	"properties": {
		"rating": {"type": "integer", "minimum": 1, "maximum": 10},
		"review_text": {"type": "string"},
		"notes": {"type": "string"}
	},
	"required": ["rating"],
	"additionalProperties": false
}`

// ValidatePayload validates a JSON request body against one of the
// schemas above, mapping violations to ErrInvalidInput.
func ValidatePayload(schema string, body []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalidInput)
	}

	if !result.Valid() {
		var messages []string
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return fmt.Errorf("%w: %s", apperr.ErrInvalidInput, strings.Join(messages, "; "))
	}

	return nil
}
