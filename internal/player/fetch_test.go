package player

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newSongsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/songs/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"song":{"id":1,"title":"Golden Hour","artist":"Nova","duration":215,"url":"http://cdn/1.mp3"}}`))
	})
	mux.HandleFunc("/api/songs/2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"song":{"id":2,"title":"Silent Side","artist":"Nova","duration":180,"url":null}}`))
	})
	mux.HandleFunc("/api/songs/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Song not found"}`, http.StatusNotFound)
	})
	return httptest.NewServer(mux)
}

func TestHTTPFetcherFetchTrack(t *testing.T) {
	server := newSongsServer(t)
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL)
	track, err := fetcher.FetchTrack(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchTrack failed: %v", err)
	}
	if track.ID != 1 || track.Title != "Golden Hour" || track.Duration != 215 {
		t.Errorf("Unexpected track: %+v", track)
	}
}

func TestHTTPFetcherNotFound(t *testing.T) {
	server := newSongsServer(t)
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL)
	if _, err := fetcher.FetchTrack(context.Background(), 99); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("Expected ErrTrackNotFound, got %v", err)
	}
}

func TestHTTPFetcherUnplayable(t *testing.T) {
	server := newSongsServer(t)
	defer server.Close()

	fetcher := NewHTTPFetcher(server.URL)
	if _, err := fetcher.FetchTrack(context.Background(), 2); !errors.Is(err, ErrTrackUnplayable) {
		t.Errorf("Expected ErrTrackUnplayable, got %v", err)
	}
}
