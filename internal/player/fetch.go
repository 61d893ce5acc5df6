package player

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultFetchTimeout = 10 * time.Second

// HTTPFetcher resolves tracks against the songs API.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher builds a fetcher for the given base URL, falling back to
// SONGS_BASE_URL when the argument is empty.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	if baseURL == "" {
		baseURL = os.Getenv("SONGS_BASE_URL")
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultFetchTimeout},
	}
}

type fetchedSong struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Duration int     `json:"duration"`
	URL      *string `json:"url"`
}

// FetchTrack loads one song record. A missing song and a song without a
// playable URL are distinct failures so callers can message them apart.
func (f *HTTPFetcher) FetchTrack(ctx context.Context, id int) (*Track, error) {
	url := f.baseURL + "/api/songs/" + strconv.Itoa(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrTrackNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("player: unexpected status %d fetching track %d", resp.StatusCode, id)
	}

	var body struct {
		Song fetchedSong `json:"song"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("player: decoding track %d: %w", id, err)
	}

	if body.Song.URL == nil || strings.TrimSpace(*body.Song.URL) == "" {
		return nil, ErrTrackUnplayable
	}

	return &Track{
		ID:       body.Song.ID,
		Title:    body.Song.Title,
		Artist:   body.Song.Artist,
		Duration: body.Song.Duration,
		URL:      *body.Song.URL,
	}, nil
}
