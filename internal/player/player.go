package player

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Swapnanilb/Svara/internal/cache"
	"github.com/Swapnanilb/Svara/internal/config"
	"github.com/Swapnanilb/Svara/internal/events"
	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/resolver"
)

// message is what background work posts back to the Run loop. Every
// message carries the sequence tag of the load it belongs to; the loop
// drops messages whose tag no longer matches.
type message struct {
	seq uint64

	resolved bool
	index    int
	song     library.Song
	track    Track
	err      error

	ended bool
}

const progressInterval = time.Second

type Player struct {
	cfg    *config.Config
	store  *library.Store
	cache  *cache.Cache
	res    resolver.Resolver
	bus    *events.Bus
	engine Engine
	rec    Recorder

	mu         sync.Mutex
	sess       *session
	status     Status
	volume     float64
	muted      bool
	lastVolume float64
	seq        uint64

	msgs chan message
}

// New wires a player. rec may be nil to skip history recording.
func New(cfg *config.Config, store *library.Store, c *cache.Cache, res resolver.Resolver, bus *events.Bus, engine Engine, rec Recorder) *Player {
	p := &Player{
		cfg:    cfg,
		store:  store,
		cache:  c,
		res:    res,
		bus:    bus,
		engine: engine,
		rec:    rec,
		volume: cfg.DefaultVolume,
		msgs:   make(chan message, 16),
	}
	engine.OnTrackEnd(p.trackEnded)
	return p
}

// Run drains resolution results and track-end notifications until ctx
// is cancelled. It must run for playback to advance.
func (p *Player) Run(ctx context.Context) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return
		case m := <-p.msgs:
			switch {
			case m.resolved:
				p.applyResolved(m)
			case m.ended:
				p.applyEnded(m)
			}
		case <-ticker.C:
			p.publishProgress()
		}
	}
}

// Play starts the given song of the given playlist. Starting a song in
// another playlist replaces the session; within the same playlist the
// shuffle and repeat settings survive.
func (p *Player) Play(playlistID string, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	songs := p.store.Songs(playlistID)
	if p.sess != nil && p.sess.playlistID == playlistID {
		p.sess.songs = songs
		if p.sess.shuffle && len(p.sess.perm) != len(songs) {
			p.sess.reshuffle()
		}
	} else {
		p.sess = newSession(playlistID, songs, 0)
	}
	if !p.sess.jump(index) {
		return library.ErrSongNotFound
	}
	p.startLoadLocked()
	return nil
}

// startLoadLocked bumps the sequence tag and hands the current song to
// a background worker: stream-URL resolution and the engine's fetch and
// decode both happen there, never on the loop. Caller holds p.mu.
func (p *Player) startLoadLocked() {
	song, ok := p.sess.current()
	if !ok {
		return
	}
	p.seq++
	seq := p.seq
	p.status = StatusLoading
	p.engine.Stop()
	p.bus.Publish(events.SongChanged{PlaylistID: p.sess.playlistID, Index: p.sess.index, Song: song, Loading: true})
	p.bus.Publish(events.StateChanged{State: p.status.String()})

	index := p.sess.index
	go func() {
		var track Track
		url, err := p.resolveStream(context.Background(), song.ID)
		if err == nil {
			track, err = p.engine.Load(url)
		}
		p.msgs <- message{seq: seq, resolved: true, index: index, song: song, track: track, err: err}
	}()
}

func (p *Player) resolveStream(ctx context.Context, songID string) (string, error) {
	if url, ok := p.cache.GetStreamURL(songID, time.Now()); ok {
		return url, nil
	}
	url, err := p.res.ResolveStreamURL(ctx, songID)
	if err != nil {
		return "", err
	}
	p.cache.PutStreamURL(songID, url, time.Now())
	return url, nil
}

func (p *Player) applyResolved(m message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.seq != p.seq {
		slog.Debug("dropping stale resolution", "seq", m.seq, "current", p.seq, "song", m.song.ID)
		if m.track != nil {
			m.track.Close()
		}
		return
	}
	if m.err != nil {
		slog.Warn("stream load failed", "song", m.song.ID, "err", m.err)
		p.bus.Publish(events.PlayerError{Message: m.song.Title + ": " + m.err.Error()})
		p.stopLocked()
		return
	}
	if err := p.engine.Play(m.track); err != nil {
		slog.Error("engine play failed", "song", m.song.ID, "err", err)
		m.track.Close()
		p.bus.Publish(events.PlayerError{Message: err.Error()})
		p.stopLocked()
		return
	}
	p.engine.SetVolume(p.effectiveVolume())
	p.status = StatusPlaying
	p.bus.Publish(events.SongChanged{PlaylistID: p.sess.playlistID, Index: m.index, Song: m.song, Loading: false})
	p.bus.Publish(events.StateChanged{State: p.status.String()})
	if p.rec != nil {
		if err := p.rec.Record(m.song.ID, m.song.Title, p.sess.playlistID, time.Now()); err != nil {
			slog.Warn("history record failed", "song", m.song.ID, "err", err)
		}
	}
	p.prefetchLocked()
}

func (p *Player) trackEnded() {
	p.mu.Lock()
	seq := p.seq
	p.mu.Unlock()
	p.msgs <- message{seq: seq, ended: true}
}

func (p *Player) applyEnded(m message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m.seq != p.seq || p.status != StatusPlaying {
		return
	}
	if _, ok := p.sess.next(false); ok {
		p.startLoadLocked()
		return
	}
	p.stopLocked()
}

// prefetchLocked warms the stream-URL cache for the next few songs in
// play order. Caller holds p.mu.
func (p *Player) prefetchLocked() {
	for _, idx := range p.sess.peek(p.cfg.PrefetchCount) {
		song := p.sess.songs[idx]
		go func(id string) {
			if _, err := p.resolveStream(context.Background(), id); err != nil {
				slog.Debug("prefetch failed", "song", id, "err", err)
			}
		}(song.ID)
	}
}

func (p *Player) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return
	}
	if _, ok := p.sess.next(true); ok {
		p.startLoadLocked()
	}
}

func (p *Player) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return
	}
	if _, ok := p.sess.previous(); ok {
		p.startLoadLocked()
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPlaying {
		return
	}
	p.engine.Pause()
	p.status = StatusPaused
	p.bus.Publish(events.StateChanged{State: p.status.String()})
}

func (p *Player) Unpause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPaused {
		return
	}
	p.engine.Resume()
	p.status = StatusPlaying
	p.bus.Publish(events.StateChanged{State: p.status.String()})
}

func (p *Player) TogglePause() {
	p.mu.Lock()
	status := p.status
	p.mu.Unlock()
	if status == StatusPaused {
		p.Unpause()
	} else {
		p.Pause()
	}
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	p.seq++
	p.engine.Stop()
	if p.status == StatusStopped {
		return
	}
	p.status = StatusStopped
	p.bus.Publish(events.StateChanged{State: p.status.String()})
}

func (p *Player) Seek(ms int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPlaying && p.status != StatusPaused {
		return nil
	}
	return p.engine.Seek(ms)
}

// SeekBy moves by a signed delta, clamped to the track bounds.
func (p *Player) SeekBy(deltaMs int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusPlaying && p.status != StatusPaused {
		return nil
	}
	target := p.engine.PositionMs() + deltaMs
	if target < 0 {
		target = 0
	}
	if l := p.engine.LengthMs(); l > 0 && target > l {
		target = l
	}
	return p.engine.Seek(target)
}

// SetVolume sets the absolute volume in [0,1]. A positive value also
// unmutes.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clamp01(v)
	if p.volume > 0 {
		p.muted = false
	}
	p.engine.SetVolume(p.effectiveVolume())
}

func (p *Player) VolumeStep(delta float64) {
	p.mu.Lock()
	v := p.volume
	p.mu.Unlock()
	p.SetVolume(v + delta)
}

// ToggleMute silences playback while remembering the level, and
// restores it on the next toggle.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted {
		p.muted = false
		p.volume = p.lastVolume
	} else {
		p.muted = true
		p.lastVolume = p.volume
	}
	p.engine.SetVolume(p.effectiveVolume())
}

func (p *Player) ToggleShuffle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return false
	}
	p.sess.setShuffle(!p.sess.shuffle)
	return p.sess.shuffle
}

func (p *Player) ToggleRepeat() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return false
	}
	p.sess.setRepeat(!p.sess.repeat)
	return p.sess.repeat
}

func (p *Player) effectiveVolume() float64 {
	if p.muted {
		return 0
	}
	return p.volume
}

func (p *Player) publishProgress() {
	p.mu.Lock()
	playing := p.status == StatusPlaying
	p.mu.Unlock()
	if !playing {
		return
	}
	p.bus.Publish(events.ProgressUpdated{PositionMs: p.engine.PositionMs(), DurationMs: p.engine.LengthMs()})
}

// State is a point-in-time snapshot for surfaces.
type State struct {
	Status     string        `json:"status"`
	PlaylistID string        `json:"playlist_id,omitempty"`
	Index      int           `json:"index"`
	Song       *library.Song `json:"song,omitempty"`
	PositionMs int           `json:"position_ms"`
	DurationMs int           `json:"duration_ms"`
	Volume     float64       `json:"volume"`
	Muted      bool          `json:"muted"`
	Shuffle    bool          `json:"shuffle"`
	Repeat     bool          `json:"repeat"`
}

func (p *Player) Status() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := State{
		Status: p.status.String(),
		Volume: p.volume,
		Muted:  p.muted,
	}
	if p.sess != nil {
		st.PlaylistID = p.sess.playlistID
		st.Index = p.sess.index
		st.Shuffle = p.sess.shuffle
		st.Repeat = p.sess.repeat
		if song, ok := p.sess.current(); ok {
			st.Song = &song
		}
	}
	if p.status == StatusPlaying || p.status == StatusPaused {
		st.PositionMs = p.engine.PositionMs()
		st.DurationMs = p.engine.LengthMs()
	}
	return st
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
