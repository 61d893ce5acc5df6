package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"

	"sonore/internal/database"
	"sonore/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

const playlistVersionConflictMessage = "Playlist was modified concurrently, please retry"

type playlistSongsRequest struct {
	PlaylistID int   `json:"playlistId"`
	SongIDs    []int `json:"songIds"`
	Version    *int  `json:"version"`
}

// lockPlaylist locks the playlist row for the duration of tx and enforces
// ownership and, when the client supplied one, the expected version. The
// bool reports whether the caller may proceed; on false a response has
// already been written.
func lockPlaylist(c *gin.Context, tx *sql.Tx, playlistID, userID int, expectedVersion *int) bool {
	var ownerID, version int
	err := tx.QueryRow(
		`SELECT owner_id, version FROM playlists WHERE id = $1 FOR UPDATE`,
		playlistID,
	).Scan(&ownerID, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": playlistNotFoundMessage})
			return false
		}
		log.Printf("Error locking playlist %d: %v", playlistID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return false
	}

	if ownerID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": playlistNotFoundMessage})
		return false
	}

	if expectedVersion != nil && *expectedVersion != version {
		c.JSON(http.StatusConflict, gin.H{
			"error":   playlistVersionConflictMessage,
			"version": version,
		})
		return false
	}

	return true
}

func bumpPlaylistVersion(tx *sql.Tx, playlistID int) error {
	_, err := tx.Exec(
		`UPDATE playlists SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		playlistID,
	)
	return err
}

func respondWithPlaylist(c *gin.Context, playlistID int, message string) {
	playlist, err := loadPlaylistWithSongs(database.DB, playlistID)
	if err != nil {
		log.Printf("Error reloading playlist %d: %v", playlistID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving playlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"playlist": playlist,
	})
}

// AddSongsToPlaylist appends catalog songs to a playlist. Resolution is
// all-or-nothing: if any requested id is unknown, nothing is added. Ids
// already present in the playlist are skipped; the rest append in request
// order after the current last position.
func AddSongsToPlaylist(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req playlistSongsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlaylistID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.SongIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "songIds is required"})
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}
	defer tx.Rollback()

	if !lockPlaylist(c, tx, req.PlaylistID, userID, req.Version) {
		return
	}

	// all-or-nothing: every requested id must resolve in the catalog
	rows, err := tx.Query(`SELECT id FROM songs WHERE id = ANY($1)`, pq.Array(req.SongIDs))
	if err != nil {
		log.Printf("Error resolving songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}
	known := make(map[int]bool, len(req.SongIDs))
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			log.Printf("Error scanning song id: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
			return
		}
		known[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Printf("Error resolving songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	missing := make([]int, 0)
	for _, id := range req.SongIDs {
		if !known[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "One or more songs do not exist",
			"missingIds": missing,
		})
		return
	}

	present := make(map[int]bool)
	var maxPosition sql.NullInt64
	err = tx.QueryRow(
		`SELECT MAX(position) FROM playlist_songs WHERE playlist_id = $1`,
		req.PlaylistID,
	).Scan(&maxPosition)
	if err != nil {
		log.Printf("Error reading playlist positions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	presentRows, err := tx.Query(
		`SELECT song_id FROM playlist_songs WHERE playlist_id = $1`,
		req.PlaylistID,
	)
	if err != nil {
		log.Printf("Error reading playlist songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}
	for presentRows.Next() {
		var id int
		if err := presentRows.Scan(&id); err != nil {
			presentRows.Close()
			log.Printf("Error scanning playlist song: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
			return
		}
		present[id] = true
	}
	presentRows.Close()
	if err := presentRows.Err(); err != nil {
		log.Printf("Error reading playlist songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	nextPosition := 1
	if maxPosition.Valid {
		nextPosition = int(maxPosition.Int64) + 1
	}

	added := 0
	for _, id := range req.SongIDs {
		if present[id] {
			continue
		}
		present[id] = true
		_, err := tx.Exec(
			`INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES ($1, $2, $3)`,
			req.PlaylistID, id, nextPosition,
		)
		if err != nil {
			log.Printf("Error inserting playlist song: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
			return
		}
		nextPosition++
		added++
	}

	if added > 0 {
		if err := bumpPlaylistVersion(tx, req.PlaylistID); err != nil {
			log.Printf("Error bumping playlist version: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Error committing transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	respondWithPlaylist(c, req.PlaylistID, "Songs added to playlist")
}

// RemoveSongsFromPlaylist deletes every occurrence of the given songs from
// the playlist. Remaining entries keep their relative order; ids absent
// from the playlist are ignored.
func RemoveSongsFromPlaylist(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req playlistSongsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlaylistID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.SongIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "songIds is required"})
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}
	defer tx.Rollback()

	if !lockPlaylist(c, tx, req.PlaylistID, userID, req.Version) {
		return
	}

	result, err := tx.Exec(
		`DELETE FROM playlist_songs WHERE playlist_id = $1 AND song_id = ANY($2)`,
		req.PlaylistID, pq.Array(req.SongIDs),
	)
	if err != nil {
		log.Printf("Error removing playlist songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	removed, err := result.RowsAffected()
	if err == nil && removed > 0 {
		if err := bumpPlaylistVersion(tx, req.PlaylistID); err != nil {
			log.Printf("Error bumping playlist version: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Error committing transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	respondWithPlaylist(c, req.PlaylistID, "Songs removed from playlist")
}

type reorderPlaylistRequest struct {
	SongIDs []int `json:"songIds"`
	Version *int  `json:"version"`
}

// ReorderPlaylist replaces the stored order wholesale. The payload must be
// an exact permutation of the current sequence: same length, same ids,
// same multiplicity. Anything else is rejected and the stored order stays
// untouched.
func ReorderPlaylist(c *gin.Context) {
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

	var req reorderPlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	tx, err := database.DB.Begin()
	if err != nil {
		log.Printf("Error starting transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}
	defer tx.Rollback()

	if !lockPlaylist(c, tx, playlistID, userID, req.Version) {
		return
	}

	rows, err := tx.Query(
		`SELECT song_id FROM playlist_songs WHERE playlist_id = $1 ORDER BY position ASC`,
		playlistID,
	)
	if err != nil {
		log.Printf("Error reading playlist songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}
	stored := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			log.Printf("Error scanning playlist song: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
			return
		}
		stored = append(stored, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		log.Printf("Error reading playlist songs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	if !isPermutation(stored, req.SongIDs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "songIds must be a permutation of the playlist contents"})
		return
	}

	// Two passes keep the UNIQUE(playlist_id, position) constraint happy
	// while positions shuffle.
	if _, err := tx.Exec(
		`UPDATE playlist_songs SET position = -position WHERE playlist_id = $1`,
		playlistID,
	); err != nil {
		log.Printf("Error clearing playlist positions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}
	for i, id := range req.SongIDs {
		if _, err := tx.Exec(
			`UPDATE playlist_songs SET position = $1 WHERE playlist_id = $2 AND song_id = $3`,
			i+1, playlistID, id,
		); err != nil {
			log.Printf("Error updating playlist position: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
			return
		}
	}

	if err := bumpPlaylistVersion(tx, playlistID); err != nil {
		log.Printf("Error bumping playlist version: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	if err := tx.Commit(); err != nil {
		log.Printf("Error committing transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating playlist"})
		return
	}

	respondWithPlaylist(c, playlistID, "Playlist reordered")
}

func isPermutation(stored, proposed []int) bool {
	if len(stored) != len(proposed) {
		return false
	}
	counts := make(map[int]int, len(stored))
	for _, id := range stored {
		counts[id]++
	}
	for _, id := range proposed {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}
