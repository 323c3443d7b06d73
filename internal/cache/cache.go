// Package cache holds the two per-video key-value stores: song metadata
// (no expiry) and resolved stream URLs (time-boxed). Both are
// write-through to their own JSON file; a missing or corrupt file means
// an empty cache, never a startup failure.
package cache

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/storage"
)

const schemaVersion = 1

type Stats struct {
	MetadataEntries  int   `json:"metadata_entries"`
	StreamURLEntries int   `json:"stream_url_entries"`
	Hits             int64 `json:"hits"`
	Misses           int64 `json:"misses"`
}

type metadataFile struct {
	Version int                     `json:"version"`
	Songs   map[string]library.Song `json:"songs"`
}

type streamEntry struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
}

type streamFile struct {
	Version int                    `json:"version"`
	URLs    map[string]streamEntry `json:"urls"`
}

// Cache owns both stores. TTL applies to stream URLs only; metadata is
// treated as immutable once fetched.
type Cache struct {
	metaPath   string
	streamPath string
	ttl        time.Duration

	mu     sync.Mutex
	meta   map[string]library.Song
	stream map[string]streamEntry
	hits   int64
	misses int64
}

func loadOrEmpty[T any](path string, v *T, what string) {
	err := storage.LoadJSON(path, v)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("cache file unreadable, starting empty", "file", what, "err", err)
	}
}

func New(metaPath, streamPath string, ttl time.Duration) *Cache {
	c := &Cache{
		metaPath:   metaPath,
		streamPath: streamPath,
		ttl:        ttl,
		meta:       map[string]library.Song{},
		stream:     map[string]streamEntry{},
	}

	var mf metadataFile
	loadOrEmpty(metaPath, &mf, "metadata")
	if mf.Songs != nil {
		c.meta = mf.Songs
	}

	var sf streamFile
	loadOrEmpty(streamPath, &sf, "stream urls")
	if sf.URLs != nil {
		c.stream = sf.URLs
	}
	return c
}

func (c *Cache) GetMetadata(id string) (library.Song, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	song, ok := c.meta[id]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return song, ok
}

// PutMetadata is write-through: the in-memory map and the backing file
// update together. Metadata writes happen once per new song, so the
// write amplification is acceptable and a crash loses nothing.
func (c *Cache) PutMetadata(id string, song library.Song) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[id] = song
	c.persistMetaLocked()
}

// GetStreamURL returns the cached URL only while it is fresh. Expired
// entries are treated as absent; stale stream URLs must never be served.
func (c *Cache) GetStreamURL(id string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.stream[id]
	if !ok || now.Sub(e.FetchedAt) >= c.ttl {
		c.misses++
		return "", false
	}
	c.hits++
	return e.URL, true
}

func (c *Cache) PutStreamURL(id, url string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stream[id] = streamEntry{URL: url, FetchedAt: now}
	c.persistStreamLocked()
}

// Clear drops both maps and deletes the backing files. Safe to call with
// resolves in flight; late completions simply repopulate.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta = map[string]library.Song{}
	c.stream = map[string]streamEntry{}
	_ = os.Remove(c.metaPath)
	_ = os.Remove(c.streamPath)
	slog.Info("cache cleared")
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		MetadataEntries:  len(c.meta),
		StreamURLEntries: len(c.stream),
		Hits:             c.hits,
		Misses:           c.misses,
	}
}

func (c *Cache) persistMetaLocked() {
	if err := storage.SaveJSON(c.metaPath, metadataFile{Version: schemaVersion, Songs: c.meta}); err != nil {
		slog.Warn("metadata cache persist failed", "err", err)
	}
}

func (c *Cache) persistStreamLocked() {
	if err := storage.SaveJSON(c.streamPath, streamFile{Version: schemaVersion, URLs: c.stream}); err != nil {
		slog.Warn("stream cache persist failed", "err", err)
	}
}
