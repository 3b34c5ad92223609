// Package reviews aggregates ratings for a content item.
package reviews

import (
	"math"

	"github.com/moviemate/moviemate/models"
)

// AverageRating returns the arithmetic mean rating over the given
// reviews, rounded to one decimal place. ok is false when there are no
// reviews, so callers can tell "unrated" apart from a zero rating.
func AverageRating(reviews []models.Review) (avg float64, ok bool) {
	if len(reviews) == 0 {
		return 0, false
	}

	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}

	avg = float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10, true
}
