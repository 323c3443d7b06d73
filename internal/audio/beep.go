// Package audio implements the playback engine on beep. Load spools the
// stream URL to a temp file and decodes it, so it carries all the
// network cost and can run on any goroutine; Play only swaps the
// speaker's streamer. The speaker is initialized once on the first
// track's sample rate and later tracks are resampled to it.
package audio

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"github.com/Swapnanilb/Svara/internal/player"
)

const speakerBuffer = time.Second / 10

// Track is one fetched and decoded stream, not yet started.
type Track struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	path     string

	mu     sync.Mutex
	closed bool
}

func (t *Track) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	err := t.streamer.Close()
	os.Remove(t.path)
	return err
}

type Engine struct {
	client *http.Client

	mu      sync.Mutex
	current *Track
	ctrl    *beep.Ctrl
	vol     *effects.Volume
	volume  float64
	onEnd   func()

	speakerRate beep.SampleRate
}

func NewEngine() *Engine {
	return &Engine{
		client: &http.Client{Timeout: 0},
		volume: 1,
	}
}

func (e *Engine) OnTrackEnd(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnd = fn
}

// Load fetches the stream body and decodes it. No engine state changes;
// the caller owns the returned track until it is handed to Play.
func (e *Engine) Load(url string) (player.Track, error) {
	path, err := e.spool(url)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("decode stream: %w", err)
	}
	return &Track{streamer: streamer, format: format, path: path}, nil
}

// Play starts a loaded track, replacing whatever was playing. Cheap:
// no network, no decode.
func (e *Engine) Play(pt player.Track) error {
	t, ok := pt.(*Track)
	if !ok {
		return fmt.Errorf("unexpected track type %T", pt)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.speakerRate == 0 {
		e.speakerRate = t.format.SampleRate
		if err := speaker.Init(t.format.SampleRate, t.format.SampleRate.N(speakerBuffer)); err != nil {
			return fmt.Errorf("init speaker: %w", err)
		}
	}

	speaker.Clear()
	if e.current != nil {
		e.current.Close()
	}
	e.current = t

	var src beep.Streamer = beep.Seq(t.streamer, beep.Callback(e.fireTrackEnd))
	if t.format.SampleRate != e.speakerRate {
		src = beep.Resample(4, t.format.SampleRate, e.speakerRate, src)
	}
	e.ctrl = &beep.Ctrl{Streamer: src}
	e.vol = &effects.Volume{Streamer: e.ctrl, Base: 2}
	e.applyVolumeLocked()

	speaker.Play(e.vol)
	return nil
}

// spool downloads the stream body to a temp file.
func (e *Engine) spool(url string) (string, error) {
	resp, err := e.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return "", fmt.Errorf("fetch stream: status %d", resp.StatusCode)
	}

	f, err := os.CreateTemp("", "svara-audio-*.mp3")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("spool stream: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (e *Engine) fireTrackEnd() {
	e.mu.Lock()
	fn := e.onEnd
	e.mu.Unlock()
	if fn != nil {
		go fn()
	}
}

func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
}

func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return
	}
	speaker.Clear()
	e.current.Close()
	e.current = nil
	e.ctrl = nil
	e.vol = nil
}

func (e *Engine) Seek(ms int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	n := e.current.format.SampleRate.N(time.Duration(ms) * time.Millisecond)
	if n < 0 {
		n = 0
	}
	if l := e.current.streamer.Len(); n > l {
		n = l
	}
	return e.current.streamer.Seek(n)
}

func (e *Engine) PositionMs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return 0
	}
	speaker.Lock()
	pos := e.current.streamer.Position()
	speaker.Unlock()
	return int(e.current.format.SampleRate.D(pos).Milliseconds())
}

func (e *Engine) LengthMs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return 0
	}
	return int(e.current.format.SampleRate.D(e.current.streamer.Len()).Milliseconds())
}

// SetVolume maps linear [0,1] onto beep's exponential volume; zero is
// full silence rather than -inf gain.
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = v
	e.applyVolumeLocked()
}

func (e *Engine) applyVolumeLocked() {
	if e.vol == nil {
		return
	}
	speaker.Lock()
	if e.volume <= 0 {
		e.vol.Silent = true
	} else {
		e.vol.Silent = false
		e.vol.Volume = math.Log2(e.volume)
	}
	speaker.Unlock()
}

func (e *Engine) Close() {
	e.Stop()
}
