package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sonore/internal/artwork"
	"sonore/internal/cache"
	"sonore/internal/database"
	"sonore/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

const songColumns = `id, title, artist, duration, url, album, release_year, genre, language, is_explicit, created_at`

const artworkCacheTTL = 12 * time.Hour

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSong(row rowScanner) (models.Song, error) {
	var song models.Song
	var url, album, language sql.NullString
	var releaseYear sql.NullInt64

	err := row.Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.Duration,
		&url,
		&album,
		&releaseYear,
		&song.Genre,
		&language,
		&song.IsExplicit,
		&song.CreatedAt,
	)
	if err != nil {
		return models.Song{}, err
	}

	if url.Valid && url.String != "" {
		song.URL = &url.String
	}
	if album.Valid {
		song.Album = &album.String
	}
	if language.Valid {
		song.Language = &language.String
	}
	if releaseYear.Valid {
		year := int(releaseYear.Int64)
		song.ReleaseYear = &year
	}

	return song, nil
}

// ListSongs returns the catalog, paginated. Public: the catalog is not
// user-owned.
func ListSongs(c *gin.Context) {
	db := database.DB
	params := parseListQueryParams(c.Query("limit"), c.Query("offset"), c.Query("search"))

	countQuery := `
		SELECT COUNT(*)
		FROM songs
		WHERE ($1 = '' OR lower(title) LIKE $1 OR lower(artist) LIKE $1)
	`

	var totalCount int
	if err := db.QueryRow(countQuery, params.Pattern).Scan(&totalCount); err != nil {
		log.Printf("Error counting songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving songs"})
		return
	}

	query := `
		SELECT ` + songColumns + `
		FROM songs
		WHERE ($1 = '' OR lower(title) LIKE $1 OR lower(artist) LIKE $1)
		ORDER BY id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := db.Query(query, params.Pattern, params.Limit, params.Offset)
	if err != nil {
		log.Printf("Error retrieving songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving songs"})
		return
	}
	defer rows.Close()

	songs := make([]models.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			log.Printf("Error scanning song: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning song"})
			return
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving songs"})
		return
	}

	pageCount := len(songs)
	c.JSON(http.StatusOK, gin.H{
		"songs":    songs,
		"count":    pageCount,
		"total":    totalCount,
		"limit":    params.Limit,
		"offset":   params.Offset,
		"has_more": params.Offset+pageCount < totalCount,
	})
}

// GetSongByID returns a single catalog entry along with best-effort artwork
// derived from the track file's embedded tags. Artwork failures never fail
// the request.
func GetSongByID(c *gin.Context) {
	songID, err := strconv.Atoi(c.Param("id"))
	if err != nil || songID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid song ID"})
		return
	}

	row := database.DB.QueryRow(`SELECT `+songColumns+` FROM songs WHERE id = $1`, songID)
	song, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Song not found"})
			return
		}
		log.Printf("Error retrieving song: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving song"})
		return
	}

	response := gin.H{"song": song}
	if uri := resolveArtwork(c, song); uri != "" {
		response["artwork"] = uri
	}

	c.JSON(http.StatusOK, response)
}

func resolveArtwork(c *gin.Context, song models.Song) string {
	if song.URL == nil || *song.URL == "" {
		return ""
	}

	cacheKey := "artwork:" + strconv.Itoa(song.ID)
	var cached string
	if cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		return cached
	}

	data, mime, err := artwork.FromURL(c.Request.Context(), *song.URL)
	if err != nil {
		// No artwork is a degraded response, not a failure.
		return ""
	}

	uri := artwork.DataURI(data, mime)
	cache.SetJSON(c.Request.Context(), cacheKey, uri, artworkCacheTTL)
	return uri
}

type createSongRequest struct {
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	URL         string   `json:"url"`
	Duration    int      `json:"duration"`
	Album       *string  `json:"album"`
	ReleaseYear *int     `json:"release_year"`
	Genre       []string `json:"genre"`
	Language    *string  `json:"language"`
	IsExplicit  bool     `json:"is_explicit"`
}

// CreateSong adds a catalog entry. Entries are immutable afterwards except
// for administrative correction directly in the database.
func CreateSong(c *gin.Context) {
	var req createSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	title := strings.TrimSpace(req.Title)
	artist := strings.TrimSpace(req.Artist)
	url := strings.TrimSpace(req.URL)
	if title == "" || artist == "" || url == "" || req.Duration <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, artist, url, and a positive duration are required"})
		return
	}

	query := `
		INSERT INTO songs (title, artist, duration, url, album, release_year, genre, language, is_explicit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + songColumns

	row := database.DB.QueryRow(
		query,
		title,
		artist,
		req.Duration,
		url,
		req.Album,
		req.ReleaseYear,
		pq.Array(req.Genre),
		req.Language,
		req.IsExplicit,
	)

	song, err := scanSong(row)
	if err != nil {
		log.Printf("Error creating song: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating song"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Song created",
		"song":    song,
	})
}
