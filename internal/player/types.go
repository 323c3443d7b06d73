// Package player orchestrates playback: which song is current, how the
// next one is picked, and when stream URLs get resolved. It drives an
// audio Engine but owns no audio code itself.
package player

import "time"

type Status int

const (
	StatusStopped Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Track is audio Load has fetched and decoded, ready to start. A track
// that never reaches Play must be Closed to release its resources.
type Track interface {
	Close() error
}

// Engine is the audio backend. Load does the network and decode work
// and is safe to call from any goroutine; Play and the rest only touch
// the output device and must stay cheap, since the orchestrator calls
// them from its serialized loop. Implementations must call the function
// registered with OnTrackEnd exactly once per track that plays to its
// natural end (not after Stop).
type Engine interface {
	Load(url string) (Track, error)
	Play(t Track) error
	Pause()
	Resume()
	Stop()
	Seek(ms int) error
	PositionMs() int
	LengthMs() int
	SetVolume(v float64)
	OnTrackEnd(fn func())
}

// Recorder receives a row per song that actually starts playing.
type Recorder interface {
	Record(songID, title, playlistID string, playedAt time.Time) error
}
