package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"

	"sonore/internal/database"
	"sonore/internal/middleware"
	"sonore/internal/models"

	"github.com/gin-gonic/gin"
)

// uniform body for "missing" and "not yours"; existence must not leak
const playlistNotFoundMessage = "Playlist not found or access denied"

func scanPlaylist(row rowScanner) (models.Playlist, error) {
	var playlist models.Playlist
	err := row.Scan(
		&playlist.ID,
		&playlist.Name,
		&playlist.Description,
		&playlist.CoverImage,
		&playlist.OwnerID,
		&playlist.IsPublic,
		&playlist.Version,
		&playlist.CreatedAt,
		&playlist.UpdatedAt,
	)
	return playlist, err
}

const playlistColumns = `id, name, description, cover_image, owner_id, is_public, version, created_at, updated_at`

// loadPlaylistSongs returns the playlist's songs in stored order. Positions
// may have gaps after removals; only the relative order matters.
func loadPlaylistSongs(db *sql.DB, playlistID int) ([]models.Song, error) {
	query := `
		SELECT s.id, s.title, s.artist, s.duration, s.url, s.album, s.release_year, s.genre, s.language, s.is_explicit, s.created_at
		FROM songs s
		JOIN playlist_songs ps ON ps.song_id = s.id
		WHERE ps.playlist_id = $1
		ORDER BY ps.position ASC
	`

	rows, err := db.Query(query, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := make([]models.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

func loadPlaylistWithSongs(db *sql.DB, playlistID int) (models.Playlist, error) {
	row := db.QueryRow(`SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, playlistID)
	playlist, err := scanPlaylist(row)
	if err != nil {
		return models.Playlist{}, err
	}

	songs, err := loadPlaylistSongs(db, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.Songs = songs
	return playlist, nil
}

// GetUserPlaylists returns the caller's playlists with songs populated in
// stored order.
func GetUserPlaylists(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	db := database.DB
	rows, err := db.Query(
		`SELECT `+playlistColumns+` FROM playlists WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		log.Printf("Error retrieving playlists: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving playlists"})
		return
	}
	defer rows.Close()

	playlists := make([]models.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			log.Printf("Error scanning playlist: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error scanning playlist"})
			return
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Error iterating playlists: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving playlists"})
		return
	}

	for i := range playlists {
		songs, err := loadPlaylistSongs(db, playlists[i].ID)
		if err != nil {
			log.Printf("Error loading playlist songs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving playlists"})
			return
		}
		playlists[i].Songs = songs
	}

	c.JSON(http.StatusOK, gin.H{"playlists": playlists})
}

type createPlaylistRequest struct {
	Name          string  `json:"name"`
	Description   *string `json:"description"`
	CoverImageURL *string `json:"coverImageUrl"`
	IsPublic      *bool   `json:"is_public"`
}

// CreatePlaylist creates an empty playlist owned by the caller.
func CreatePlaylist(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req createPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Playlist name is required"})
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	coverImage := ""
	if req.CoverImageURL != nil {
		coverImage = strings.TrimSpace(*req.CoverImageURL)
	}
	isPublic := req.IsPublic != nil && *req.IsPublic

	query := `
		INSERT INTO playlists (name, description, cover_image, owner_id, is_public)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + playlistColumns

	row := database.DB.QueryRow(query, name, description, coverImage, userID, isPublic)
	playlist, err := scanPlaylist(row)
	if err != nil {
		log.Printf("Error creating playlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating playlist"})
		return
	}
	playlist.Songs = []models.Song{}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Playlist created",
		"playlist": playlist,
	})
}

type updatePlaylistRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	CoverImageURL *string `json:"coverImageUrl"`
	IsPublic      *bool   `json:"is_public"`
}

// UpdatePlaylist applies a partial update to name/description/cover/
// visibility. A supplied name must be non-empty.
func UpdatePlaylist(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	playlistID, err := strconv.Atoi(c.Param("playlist_id"))
	if err != nil || playlistID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid playlist ID"})
		return
	}

	var req updatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	assignments := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Playlist name is required"})
			return
		}
		args = append(args, name)
		assignments = append(assignments, "name = $"+itoa(len(args)))
	}
	if req.Description != nil {
		args = append(args, *req.Description)
		assignments = append(assignments, "description = $"+itoa(len(args)))
	}
	if req.CoverImageURL != nil {
		args = append(args, strings.TrimSpace(*req.CoverImageURL))
		assignments = append(assignments, "cover_image = $"+itoa(len(args)))
	}
	if req.IsPublic != nil {
		args = append(args, *req.IsPublic)
		assignments = append(assignments, "is_public = $"+itoa(len(args)))
	}

	if len(assignments) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	args = append(args, playlistID)
	playlistArg := len(args)
	args = append(args, userID)
	ownerArg := len(args)

	query := "UPDATE playlists SET " + strings.Join(assignments, ", ") +
		", updated_at = CURRENT_TIMESTAMP WHERE id = $" + itoa(playlistArg) +
		" AND owner_id = $" + itoa(ownerArg)

	result, err := database.DB.Exec(query, args...)
	if err != nil {
		log.Printf("Error updating playlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": playlistNotFoundMessage})
		return
	}

	playlist, err := loadPlaylistWithSongs(database.DB, playlistID)
	if err != nil {
		log.Printf("Error reloading playlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Playlist updated",
		"playlist": playlist,
	})
}

// DeletePlaylist removes a playlist owned by the caller.
func DeletePlaylist(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	playlistID, err := strconv.Atoi(c.Param("playlist_id"))
	if err != nil || playlistID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid playlist ID"})
		return
	}

	result, err := database.DB.Exec(
		`DELETE FROM playlists WHERE id = $1 AND owner_id = $2`,
		playlistID,
		userID,
	)
	if err != nil {
		log.Printf("Error deleting playlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting playlist"})
		return
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": playlistNotFoundMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist deleted successfully"})
}

// GetPublicPlaylist returns a playlist exposed through the public catalog,
// songs populated. Private playlists are indistinguishable from missing ones.
func GetPublicPlaylist(c *gin.Context) {
	playlistID, err := strconv.Atoi(c.Param("playlist_id"))
	if err != nil || playlistID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid playlist ID"})
		return
	}

	db := database.DB
	row := db.QueryRow(
		`SELECT `+playlistColumns+` FROM playlists WHERE id = $1 AND is_public = TRUE`,
		playlistID,
	)
	playlist, err := scanPlaylist(row)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Public playlist not found"})
			return
		}
		log.Printf("Error retrieving public playlist: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving playlist"})
		return
	}

	songs, err := loadPlaylistSongs(db, playlistID)
	if err != nil {
		log.Printf("Error loading public playlist songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving playlist"})
		return
	}
	playlist.Songs = songs

	c.JSON(http.StatusOK, gin.H{
		"message":  "Public playlist retrieved successfully",
		"playlist": playlist,
	})
}
