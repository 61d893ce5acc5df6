package models

import (
	"time"

	"github.com/lib/pq"
)

// Song is a catalog entry. URL may be empty, in which case the track exists
// but is not playable.
type Song struct {
	ID          int            `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Artist      string         `json:"artist" db:"artist"`
	Duration    int            `json:"duration" db:"duration"`
	URL         *string        `json:"url,omitempty" db:"url"`
	Album       *string        `json:"album,omitempty" db:"album"`
	ReleaseYear *int           `json:"release_year,omitempty" db:"release_year"`
	Genre       pq.StringArray `json:"genre,omitempty" db:"genre"`
	Language    *string        `json:"language,omitempty" db:"language"`
	IsExplicit  bool           `json:"is_explicit" db:"is_explicit"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

type Playlist struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CoverImage  string    `json:"cover_image" db:"cover_image"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	Version     int       `json:"version" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	Songs       []Song    `json:"songs"`
}

type PlaylistSong struct {
	ID         int       `json:"id" db:"id"`
	PlaylistID int       `json:"playlist_id" db:"playlist_id"`
	SongID     int       `json:"song_id" db:"song_id"`
	Position   int       `json:"position" db:"position"`
	AddedAt    time.Time `json:"added_at" db:"added_at"`
}
