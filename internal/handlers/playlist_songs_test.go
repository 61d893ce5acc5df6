package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

const (
	lockPlaylistQuery   = `SELECT owner_id, version FROM playlists WHERE id = $1 FOR UPDATE`
	resolveSongsQuery   = `SELECT id FROM songs WHERE id = ANY($1)`
	maxPositionQuery    = `SELECT MAX(position) FROM playlist_songs WHERE playlist_id = $1`
	presentSongsQuery   = `SELECT song_id FROM playlist_songs WHERE playlist_id = $1`
	orderedSongsQuery   = `SELECT song_id FROM playlist_songs WHERE playlist_id = $1 ORDER BY position ASC`
	insertSongQuery     = `INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES ($1, $2, $3)`
	deleteSongsQuery    = `DELETE FROM playlist_songs WHERE playlist_id = $1 AND song_id = ANY($2)`
	bumpVersionQuery    = `UPDATE playlists SET version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	negatePositionQuery = `UPDATE playlist_songs SET position = -position WHERE playlist_id = $1`
	setPositionQuery    = `UPDATE playlist_songs SET position = $1 WHERE playlist_id = $2 AND song_id = $3`
)

func idRows(column string, ids ...int) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{column})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

func expectLock(mock sqlmock.Sqlmock, playlistID, ownerID, version int) {
	mock.
		ExpectQuery(regexp.QuoteMeta(lockPlaylistQuery)).
		WithArgs(playlistID).
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "version"}).AddRow(ownerID, version))
}

func TestAddSongsRejectsUnknownIds(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	expectLock(mock, 10, 55, 1)
	mock.
		ExpectQuery(regexp.QuoteMeta(resolveSongsQuery)).
		WithArgs(pq.Array([]int{1, 99})).
		WillReturnRows(idRows("id", 1))
	mock.ExpectRollback()

	router := gin.New()
	router.POST("/api/playlists/addSongsToPlaylist", withTestUserID(55), AddSongsToPlaylist)

	resp := postJSON(t, router, "/api/playlists/addSongsToPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{1, 99},
	})
	mustStatus(t, resp.Code, http.StatusBadRequest)

	var out struct {
		MissingIDs []int `json:"missingIds"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if len(out.MissingIDs) != 1 || out.MissingIDs[0] != 99 {
		t.Errorf("expected missing id 99, got %v", out.MissingIDs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestAddSongsSkipsIdsAlreadyPresent(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	expectLock(mock, 10, 55, 1)
	mock.
		ExpectQuery(regexp.QuoteMeta(resolveSongsQuery)).
		WithArgs(pq.Array([]int{2, 4})).
		WillReturnRows(idRows("id", 2, 4))
	mock.
		ExpectQuery(regexp.QuoteMeta(maxPositionQuery)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.
		ExpectQuery(regexp.QuoteMeta(presentSongsQuery)).
		WithArgs(10).
		WillReturnRows(idRows("song_id", 1, 2, 3))
	// only the absent id appends, right after the current last position
	mock.
		ExpectExec(regexp.QuoteMeta(insertSongQuery)).
		WithArgs(10, 4, 4).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.
		ExpectExec(regexp.QuoteMeta(bumpVersionQuery)).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPlaylistReload(mock, 10, 55, 2, 1, 2, 3, 4)

	router := gin.New()
	router.POST("/api/playlists/addSongsToPlaylist", withTestUserID(55), AddSongsToPlaylist)

	resp := postJSON(t, router, "/api/playlists/addSongsToPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{2, 4},
	})
	expectHTTP200(t, resp.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestAddSongsVersionMismatch(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	expectLock(mock, 10, 55, 5)
	mock.ExpectRollback()

	router := gin.New()
	router.POST("/api/playlists/addSongsToPlaylist", withTestUserID(55), AddSongsToPlaylist)

	resp := postJSON(t, router, "/api/playlists/addSongsToPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{1},
		"version":    3,
	})
	mustStatus(t, resp.Code, http.StatusConflict)

	var out struct {
		Version int `json:"version"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out.Version != 5 {
		t.Errorf("conflict body should carry the stored version, got %d", out.Version)
	}
}

func TestAddSongsNotOwned(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	expectLock(mock, 10, 999, 1)
	mock.ExpectRollback()

	router := gin.New()
	router.POST("/api/playlists/addSongsToPlaylist", withTestUserID(55), AddSongsToPlaylist)

	resp := postJSON(t, router, "/api/playlists/addSongsToPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{1},
	})
	mustStatus(t, resp.Code, http.StatusNotFound)

	var out map[string]string
	_ = json.Unmarshal(resp.Body.Bytes(), &out)
	if out["error"] != "Playlist not found or access denied" {
		t.Errorf("ownership failure must use the uniform body, got %q", out["error"])
	}
}

func TestRemoveSongsFiltersAndKeepsOrder(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	expectLock(mock, 10, 55, 2)
	mock.
		ExpectExec(regexp.QuoteMeta(deleteSongsQuery)).
		WithArgs(10, pq.Array([]int{1})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.
		ExpectExec(regexp.QuoteMeta(bumpVersionQuery)).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPlaylistReload(mock, 10, 55, 3, 3, 2)

	router := gin.New()
	router.POST("/api/playlists/removeSongsFromPlaylist", withTestUserID(55), RemoveSongsFromPlaylist)

	resp := postJSON(t, router, "/api/playlists/removeSongsFromPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{1},
	})
	expectHTTP200(t, resp.Code)

	var out struct {
		Playlist struct {
			Songs []struct {
				ID int `json:"id"`
			} `json:"songs"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	got := out.Playlist.Songs
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 2 {
		t.Errorf("remaining songs lost their order: %+v", got)
	}
}

func TestRemoveSongsAbsentIdsNoVersionBump(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	expectLock(mock, 10, 55, 2)
	mock.
		ExpectExec(regexp.QuoteMeta(deleteSongsQuery)).
		WithArgs(10, pq.Array([]int{77})).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	expectPlaylistReload(mock, 10, 55, 2, 1, 2, 3)

	router := gin.New()
	router.POST("/api/playlists/removeSongsFromPlaylist", withTestUserID(55), RemoveSongsFromPlaylist)

	resp := postJSON(t, router, "/api/playlists/removeSongsFromPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{77},
	})
	expectHTTP200(t, resp.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestReorderAppliesPermutation(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	expectLock(mock, 10, 55, 1)
	mock.
		ExpectQuery(regexp.QuoteMeta(orderedSongsQuery)).
		WithArgs(10).
		WillReturnRows(idRows("song_id", 1, 2, 3))
	mock.
		ExpectExec(regexp.QuoteMeta(negatePositionQuery)).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(setPositionQuery)).WithArgs(1, 10, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setPositionQuery)).WithArgs(2, 10, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setPositionQuery)).WithArgs(3, 10, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.
		ExpectExec(regexp.QuoteMeta(bumpVersionQuery)).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPlaylistReload(mock, 10, 55, 2, 3, 1, 2)

	router := gin.New()
	router.POST("/api/playlists/:playlist_id/reorder", withTestUserID(55), ReorderPlaylist)

	resp := postJSON(t, router, "/api/playlists/10/reorder", map[string]any{
		"songIds": []int{3, 1, 2},
	})
	expectHTTP200(t, resp.Code)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestReorderRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name    string
		songIDs []int
	}{
		{"missing id", []int{1, 2}},
		{"foreign id", []int{1, 2, 99}},
		{"duplicated id", []int{1, 2, 2}},
		{"too long", []int{1, 2, 3, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, mock, cleanup := setupMockDB(t)
			defer cleanup()

			mock.ExpectBegin()
			expectLock(mock, 10, 55, 1)
			mock.
				ExpectQuery(regexp.QuoteMeta(orderedSongsQuery)).
				WithArgs(10).
				WillReturnRows(idRows("song_id", 1, 2, 3))
			// no position writes: the stored order stays untouched
			mock.ExpectRollback()

			router := gin.New()
			router.POST("/api/playlists/:playlist_id/reorder", withTestUserID(55), ReorderPlaylist)

			resp := postJSON(t, router, "/api/playlists/10/reorder", map[string]any{
				"songIds": tc.songIDs,
			})
			mustStatus(t, resp.Code, http.StatusBadRequest)

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("sql expectations: %v", err)
			}
		})
	}
}

// Walks the reorder, remove, re-add sequence over one playlist and checks
// the re-added song lands at the end rather than its old slot.
func TestReorderRemoveReaddAppendsAtEnd(t *testing.T) {
	_, mock, cleanup := setupMockDB(t)
	defer cleanup()

	const (
		songA = 1
		songB = 2
		songC = 3
	)

	router := gin.New()
	router.POST("/api/playlists/:playlist_id/reorder", withTestUserID(55), ReorderPlaylist)
	router.POST("/api/playlists/removeSongsFromPlaylist", withTestUserID(55), RemoveSongsFromPlaylist)
	router.POST("/api/playlists/addSongsToPlaylist", withTestUserID(55), AddSongsToPlaylist)

	// reorder [A,B,C] -> [C,A,B]
	mock.ExpectBegin()
	expectLock(mock, 10, 55, 1)
	mock.
		ExpectQuery(regexp.QuoteMeta(orderedSongsQuery)).
		WithArgs(10).
		WillReturnRows(idRows("song_id", songA, songB, songC))
	mock.ExpectExec(regexp.QuoteMeta(negatePositionQuery)).WithArgs(10).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(setPositionQuery)).WithArgs(1, 10, songC).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setPositionQuery)).WithArgs(2, 10, songA).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(setPositionQuery)).WithArgs(3, 10, songB).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(bumpVersionQuery)).WithArgs(10).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPlaylistReload(mock, 10, 55, 2, songC, songA, songB)

	resp := postJSON(t, router, "/api/playlists/10/reorder", map[string]any{
		"songIds": []int{songC, songA, songB},
	})
	expectHTTP200(t, resp.Code)

	// remove A -> [C,B]
	mock.ExpectBegin()
	expectLock(mock, 10, 55, 2)
	mock.
		ExpectExec(regexp.QuoteMeta(deleteSongsQuery)).
		WithArgs(10, pq.Array([]int{songA})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(bumpVersionQuery)).WithArgs(10).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPlaylistReload(mock, 10, 55, 3, songC, songB)

	resp = postJSON(t, router, "/api/playlists/removeSongsFromPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{songA},
	})
	expectHTTP200(t, resp.Code)

	// add A back -> [C,B,A], appended after the last position
	mock.ExpectBegin()
	expectLock(mock, 10, 55, 3)
	mock.
		ExpectQuery(regexp.QuoteMeta(resolveSongsQuery)).
		WithArgs(pq.Array([]int{songA})).
		WillReturnRows(idRows("id", songA))
	mock.
		ExpectQuery(regexp.QuoteMeta(maxPositionQuery)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.
		ExpectQuery(regexp.QuoteMeta(presentSongsQuery)).
		WithArgs(10).
		WillReturnRows(idRows("song_id", songC, songB))
	mock.
		ExpectExec(regexp.QuoteMeta(insertSongQuery)).
		WithArgs(10, songA, 4).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(bumpVersionQuery)).WithArgs(10).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectPlaylistReload(mock, 10, 55, 4, songC, songB, songA)

	resp = postJSON(t, router, "/api/playlists/addSongsToPlaylist", map[string]any{
		"playlistId": 10,
		"songIds":    []int{songA},
	})
	expectHTTP200(t, resp.Code)

	var out struct {
		Playlist struct {
			Songs []struct {
				ID int `json:"id"`
			} `json:"songs"`
		} `json:"playlist"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	got := out.Playlist.Songs
	if len(got) != 3 || got[0].ID != songC || got[1].ID != songB || got[2].ID != songA {
		t.Errorf("expected [C,B,A], got %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}
