// Package events carries the core's typed notifications to whatever
// surfaces are attached (HTTP, GUI). The core never calls a surface
// directly; it publishes and forgets.
package events

import (
	"sync"

	"github.com/Swapnanilb/Svara/internal/library"
)

type Event interface {
	Type() string
}

// SongChanged fires when a new song becomes current (including the
// loading phase before its stream URL resolves).
type SongChanged struct {
	PlaylistID string       `json:"playlist_id"`
	Index      int          `json:"index"`
	Song       library.Song `json:"song"`
	Loading    bool         `json:"loading"`
}

func (SongChanged) Type() string { return "song_changed" }

// ProgressUpdated reports playback position.
type ProgressUpdated struct {
	PositionMs int `json:"position_ms"`
	DurationMs int `json:"duration_ms"`
}

func (ProgressUpdated) Type() string { return "progress_updated" }

// SyncProgress streams reconciliation progress, one event per processed
// entry.
type SyncProgress struct {
	PlaylistID string `json:"playlist_id"`
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Title      string `json:"title"`
}

func (SyncProgress) Type() string { return "sync_progress" }

// PlaylistsChanged fires on any playlist store mutation a surface would
// want to re-render for.
type PlaylistsChanged struct{}

func (PlaylistsChanged) Type() string { return "playlists_changed" }

// PlayerError surfaces a per-song playback failure.
type PlayerError struct {
	Message string `json:"message"`
}

func (PlayerError) Type() string { return "player_error" }

// StateChanged reports orchestrator state transitions.
type StateChanged struct {
	State string `json:"state"`
}

func (StateChanged) Type() string { return "state_changed" }

const subscriberBuffer = 32

// Bus is a fan-out of Event values. Publish never blocks; a subscriber
// that stops draining loses events rather than stalling the core.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: map[int]chan Event{}}
}

// Subscribe returns a receive channel and a cancel function. The channel
// is closed on cancel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
