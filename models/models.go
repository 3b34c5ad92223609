package models

import (
	"time"
)

// Genre is the catalog genre for a piece of content.
type Genre string

const (
	GenreAction      Genre = "action"
	GenreComedy      Genre = "comedy"
	GenreDrama       Genre = "drama"
	GenreHorror      Genre = "horror"
	GenreSciFi       Genre = "sci-fi"
	GenreThriller    Genre = "thriller"
	GenreRomance     Genre = "romance"
	GenreDocumentary Genre = "documentary"
	GenreAnimation   Genre = "animation"
	GenreFantasy     Genre = "fantasy"
	GenreCrime       Genre = "crime"
	GenreAdventure   Genre = "adventure"
)

// Genres lists every valid genre value.
var Genres = []Genre{
	GenreAction, GenreComedy, GenreDrama, GenreHorror, GenreSciFi,
	GenreThriller, GenreRomance, GenreDocumentary, GenreAnimation,
	GenreFantasy, GenreCrime, GenreAdventure,
}

func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// Platform is the streaming service a piece of content lives on.
type Platform string

const (
	PlatformNetflix   Platform = "netflix"
	PlatformPrime     Platform = "prime"
	PlatformDisney    Platform = "disney"
	PlatformHulu      Platform = "hulu"
	PlatformHBO       Platform = "hbo"
	PlatformApple     Platform = "apple"
	PlatformParamount Platform = "paramount"
	PlatformOther     Platform = "other"
)

// Platforms lists every valid platform value.
var Platforms = []Platform{
	PlatformNetflix, PlatformPrime, PlatformDisney, PlatformHulu,
	PlatformHBO, PlatformApple, PlatformParamount, PlatformOther,
}

func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// Status tracks where a piece of content sits in the user's queue.
type Status string

const (
	StatusWatching  Status = "watching"
	StatusCompleted Status = "completed"
	StatusWishlist  Status = "wishlist"
)

func (s Status) Valid() bool {
	return s == StatusWatching || s == StatusCompleted || s == StatusWishlist
}

// ContentType discriminates the specialization of a Content row. It is
// set once by the create path and never client-writable afterwards.
type ContentType string

const (
	TypeMovie  ContentType = "movie"
	TypeTVShow ContentType = "tv_show"
)

func (t ContentType) Valid() bool {
	return t == TypeMovie || t == TypeTVShow
}

// Content is the base catalog entry shared by movies and TV shows.
type Content struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"not null;size:200"`
	Director    string      `json:"director,omitempty" gorm:"size:100"`
	Genre       Genre       `json:"genre" gorm:"size:50;index"`
	Platform    Platform    `json:"platform" gorm:"size:50;index"`
	Status      Status      `json:"status" gorm:"size:20;default:wishlist"`
	ContentType ContentType `json:"content_type" gorm:"size:20;index"`
	PosterURL   string      `json:"poster_url,omitempty"`
	Description string      `json:"description,omitempty"`
	ReleaseYear *int        `json:"release_year,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	Reviews      []Review       `json:"reviews,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	WatchHistory []WatchHistory `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

func (c Content) GetTitle() string {
	return c.Title
}

// Movie extends a Content row via a shared primary key.
type Movie struct {
	ContentID uint `json:"-" gorm:"primaryKey"`
	Duration  *int `json:"duration,omitempty"` // minutes

	Content Content `json:"-" gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE"`
}

// TVShow extends a Content row via a shared primary key. Watched
// counters are deliberately not clamped to the totals; derived metrics
// clamp instead.
type TVShow struct {
	ContentID              uint `json:"-" gorm:"primaryKey"`
	TotalSeasons           int  `json:"total_seasons" gorm:"default:1"`
	TotalEpisodes          int  `json:"total_episodes" gorm:"default:1"`
	SeasonsWatched         int  `json:"seasons_watched" gorm:"default:0"`
	EpisodesWatched        int  `json:"episodes_watched" gorm:"default:0"`
	AverageEpisodeDuration int  `json:"average_episode_duration" gorm:"default:45"` // minutes

	Content Content `json:"-" gorm:"foreignKey:ContentID;constraint:OnDelete:CASCADE"`
}

// Review is a rating plus free-form text owned by exactly one Content.
type Review struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ContentID  uint      `json:"content_id" gorm:"index;not null"`
	Rating     int       `json:"rating"` // 1..10
	ReviewText string    `json:"review_text,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WatchHistory records a single viewing session. DateWatched is set at
// creation and immutable afterwards.
type WatchHistory struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ContentID     uint      `json:"content_id" gorm:"index;not null"`
	DateWatched   time.Time `json:"date_watched" gorm:"autoCreateTime"`
	WatchDuration *int      `json:"watch_duration,omitempty"` // minutes
}

func (WatchHistory) TableName() string {
	return "watch_history"
}
