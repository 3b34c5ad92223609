// Package progress derives episodic progress metrics from a TVShow
// snapshot. Everything here is pure; metrics are recomputed on every
// read and never cached on the record.
package progress

import (
	"math"

	"github.com/moviemate/moviemate/models"
)

// Metrics holds the derived progress values for a TV show.
type Metrics struct {
	ProgressPercentage      int     `json:"progress_percentage"`
	RemainingEpisodes       int     `json:"remaining_episodes"`
	EstimatedTimeToComplete float64 `json:"estimated_time_to_complete"` // hours
}

// Percentage returns how far through a show the viewer is, floored to
// a whole percent. A show with zero total episodes reports 0.
func Percentage(show models.TVShow) int {
	if show.TotalEpisodes == 0 {
		return 0
	}
	return int(float64(show.EpisodesWatched) / float64(show.TotalEpisodes) * 100)
}

// RemainingEpisodes returns how many episodes are left, clamped to
// zero when the watched counter has run past the total.
func RemainingEpisodes(show models.TVShow) int {
	remaining := show.TotalEpisodes - show.EpisodesWatched
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EstimatedHours returns the hours left to finish the show, rounded to
// one decimal place.
func EstimatedHours(show models.TVShow) float64 {
	remaining := RemainingEpisodes(show)
	hours := float64(remaining*show.AverageEpisodeDuration) / 60
	return math.Round(hours*10) / 10
}

// Calculate bundles all derived metrics for a show.
func Calculate(show models.TVShow) Metrics {
	return Metrics{
		ProgressPercentage:      Percentage(show),
		RemainingEpisodes:       RemainingEpisodes(show),
		EstimatedTimeToComplete: EstimatedHours(show),
	}
}
