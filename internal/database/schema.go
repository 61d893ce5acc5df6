package database

import (
	"log"
)

// CreateTables creates all required tables in the database
func CreateTables() {
	createUsersTable()
	createSongsTable()
	createPlaylistsTable()
	createPlaylistSongsTable()
}

func createUsersTable() {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255),
		username VARCHAR(255) UNIQUE,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := DB.Exec(query); err != nil {
		log.Fatal("Failed to create users table:", err)
	}
}

func createSongsTable() {
	query := `
	CREATE TABLE IF NOT EXISTS songs (
		id SERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255) NOT NULL,
		duration INTEGER NOT NULL CHECK (duration > 0),
		url TEXT,
		album VARCHAR(255),
		release_year INTEGER,
		genre TEXT[],
		language VARCHAR(100),
		is_explicit BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := DB.Exec(query); err != nil {
		log.Fatal("Failed to create songs table:", err)
	}

	ensureSongsSchema()
}

func createPlaylistsTable() {
	query := `
	CREATE TABLE IF NOT EXISTS playlists (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		cover_image TEXT NOT NULL DEFAULT '',
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		is_public BOOLEAN DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := DB.Exec(query); err != nil {
		log.Fatal("Failed to create playlists table:", err)
	}

	ensurePlaylistsSchema()
}

// Note: no UNIQUE(playlist_id, song_id). The add endpoint deduplicates, but
// the storage model stays lenient about repeated references.
func createPlaylistSongsTable() {
	query := `
	CREATE TABLE IF NOT EXISTS playlist_songs (
		id SERIAL PRIMARY KEY,
		playlist_id INTEGER NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
		song_id INTEGER NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(playlist_id, position)
	);
	`

	if _, err := DB.Exec(query); err != nil {
		log.Fatal("Failed to create playlist_songs table:", err)
	}

	ensurePlaylistSongsSchema()
}

func ensureSongsSchema() {
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS songs_title_lower_idx ON songs(lower(title))`); err != nil {
		log.Fatal("Failed to ensure songs title index:", err)
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS songs_artist_lower_idx ON songs(lower(artist))`); err != nil {
		log.Fatal("Failed to ensure songs artist index:", err)
	}
}

func ensurePlaylistsSchema() {
	if _, err := DB.Exec(`ALTER TABLE playlists ADD COLUMN IF NOT EXISTS version INTEGER NOT NULL DEFAULT 1`); err != nil {
		log.Fatal("Failed to ensure playlists.version column:", err)
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS playlists_owner_created_idx ON playlists(owner_id, created_at DESC, id DESC)`); err != nil {
		log.Fatal("Failed to ensure playlists owner/sort index:", err)
	}
}

func ensurePlaylistSongsSchema() {
	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS playlist_songs_playlist_position_idx ON playlist_songs(playlist_id, position)`); err != nil {
		log.Fatal("Failed to ensure playlist_songs playlist/position index:", err)
	}

	if _, err := DB.Exec(`CREATE INDEX IF NOT EXISTS playlist_songs_song_idx ON playlist_songs(song_id)`); err != nil {
		log.Fatal("Failed to ensure playlist_songs song index:", err)
	}
}
