package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"sonore/internal/cache"
	"sonore/internal/database"
	"sonore/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	searchResultLimit = 10
	searchCacheTTL    = time.Minute
	maxSearchQueryLen = 200
)

// SearchSongs returns up to ten case-insensitive substring matches on title
// or artist. Results are cached briefly when Redis is configured; the
// catalog changes rarely enough that a stale minute is acceptable.
func SearchSongs(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}
	if len(q) > maxSearchQueryLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is too long"})
		return
	}

	cacheKey := "search:" + strings.ToLower(q)
	var cached []models.Song
	if cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, gin.H{"songs": cached})
		return
	}

	pattern := "%" + strings.ToLower(q) + "%"
	query := `
		SELECT ` + songColumns + `
		FROM songs
		WHERE lower(title) LIKE $1 OR lower(artist) LIKE $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := database.DB.Query(query, pattern, searchResultLimit)
	if err != nil {
		log.Printf("Error searching songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error searching songs"})
		return
	}
	defer rows.Close()

	songs := make([]models.Song, 0, searchResultLimit)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			log.Printf("Error scanning search result: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error searching songs"})
			return
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating search results: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error searching songs"})
		return
	}

	cache.SetJSON(c.Request.Context(), cacheKey, songs, searchCacheTTL)
	c.JSON(http.StatusOK, gin.H{"songs": songs})
}
