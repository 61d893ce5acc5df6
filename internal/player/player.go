// Package player models a client-side playback session: an ordered queue
// of track ids, a cursor into it, seek position, and volume with a mute
// overlay. Track metadata comes through a Fetcher at load time.
//
// A Player is event-driven and single-threaded; it is not safe for
// concurrent use.
package player

import (
	"context"
	"errors"
)

var (
	// ErrTrackNotFound means the id resolved to nothing in the catalog.
	ErrTrackNotFound = errors.New("player: track not found")
	// ErrTrackUnplayable means the track exists but has no playable source.
	ErrTrackUnplayable = errors.New("player: track has no playable source")
	// ErrNothingLoaded is returned by position operations before any
	// successful load.
	ErrNothingLoaded = errors.New("player: no track loaded")
)

// Track is the metadata the player needs to drive playback.
type Track struct {
	ID       int
	Title    string
	Artist   string
	Duration int // seconds
	URL      string
}

// Fetcher resolves a track id into playable metadata. Implementations
// must be read-only and idempotent.
type Fetcher interface {
	FetchTrack(ctx context.Context, id int) (*Track, error)
}

// Player holds the queue and playback state.
type Player struct {
	fetcher Fetcher

	queue  []int
	cursor int // -1 while the queue is empty

	current  *Track
	position int // seconds into current
	playing  bool

	volume float64 // stored level, [0,1]
	muted  bool

	fetchSeq uint64
}

func New(fetcher Fetcher) *Player {
	return &Player{
		fetcher: fetcher,
		cursor:  -1,
		volume:  1,
	}
}

// load fetches id and installs it as the current track. Each load takes a
// sequence number; a result arriving after a newer load started is
// discarded so a slow fetch can never clobber a later one.
func (p *Player) load(ctx context.Context, id int) error {
	p.fetchSeq++
	seq := p.fetchSeq

	p.current = nil
	p.position = 0
	p.playing = false

	track, err := p.fetcher.FetchTrack(ctx, id)
	if seq != p.fetchSeq {
		return nil
	}
	if err != nil {
		return err
	}

	p.current = track
	p.playing = true
	return nil
}

// EnqueueAndPlay makes id the active track. An id already in the queue is
// not appended again; the cursor jumps to its existing slot. A new id is
// appended and becomes the last slot. The cursor move sticks even when the
// fetch fails; only the loaded track is lost.
func (p *Player) EnqueueAndPlay(ctx context.Context, id int) error {
	at := -1
	for i, queued := range p.queue {
		if queued == id {
			at = i
			break
		}
	}
	if at < 0 {
		p.queue = append(p.queue, id)
		at = len(p.queue) - 1
	}
	p.cursor = at

	return p.load(ctx, id)
}

// Advance moves to the next queued track. At the end of the queue it does
// nothing, not even a fetch.
func (p *Player) Advance(ctx context.Context) error {
	if p.cursor < 0 || p.cursor >= len(p.queue)-1 {
		return nil
	}
	p.cursor++
	return p.load(ctx, p.queue[p.cursor])
}

// Retreat moves to the previous queued track, or does nothing at the
// start of the queue.
func (p *Player) Retreat(ctx context.Context) error {
	if p.cursor <= 0 {
		return nil
	}
	p.cursor--
	return p.load(ctx, p.queue[p.cursor])
}

// Seek sets the playback position, clamped to [0, duration].
func (p *Player) Seek(offset int) error {
	if p.current == nil {
		return ErrNothingLoaded
	}
	if offset < 0 {
		offset = 0
	}
	if offset > p.current.Duration {
		offset = p.current.Duration
	}
	p.position = offset
	return nil
}

// SetVolume stores a level clamped to [0,1]. The stored level survives
// mute round trips untouched.
func (p *Player) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.volume = v
}

// ToggleMute flips the mute overlay and reports the new state.
func (p *Player) ToggleMute() bool {
	p.muted = !p.muted
	return p.muted
}

// EffectiveVolume is what the output stage should use: zero while muted,
// the stored level otherwise.
func (p *Player) EffectiveVolume() float64 {
	if p.muted {
		return 0
	}
	return p.volume
}

// Volume returns the stored level regardless of mute.
func (p *Player) Volume() float64 { return p.volume }

// Muted reports the overlay state.
func (p *Player) Muted() bool { return p.muted }

// Current returns the loaded track, nil when nothing is loaded.
func (p *Player) Current() *Track { return p.current }

// Position returns seconds into the current track.
func (p *Player) Position() int { return p.position }

// Playing reports whether playback is active.
func (p *Player) Playing() bool { return p.playing }

// Cursor returns the active queue index, -1 when empty.
func (p *Player) Cursor() int { return p.cursor }

// Len returns the number of queued tracks.
func (p *Player) Len() int { return len(p.queue) }

// IsEmpty reports whether the queue holds no tracks.
func (p *Player) IsEmpty() bool { return len(p.queue) == 0 }

// Queue returns a copy of the queued ids in order.
func (p *Player) Queue() []int {
	out := make([]int, len(p.queue))
	copy(out, p.queue)
	return out
}

// Upcoming returns the ids after the cursor, in play order.
func (p *Player) Upcoming() []int {
	if p.cursor < 0 || p.cursor+1 >= len(p.queue) {
		return nil
	}
	out := make([]int, len(p.queue)-p.cursor-1)
	copy(out, p.queue[p.cursor+1:])
	return out
}
