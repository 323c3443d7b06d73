package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Swapnanilb/Svara/internal/library"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, string) {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "meta.json"), filepath.Join(dir, "stream.json"), ttl), dir
}

func TestStreamURLTTL(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	t0 := time.Now()

	c.PutStreamURL("vid1", "https://cdn/stream", t0)

	if url, ok := c.GetStreamURL("vid1", t0.Add(time.Hour-time.Second)); !ok || url != "https://cdn/stream" {
		t.Errorf("fresh entry = (%q, %v), want hit", url, ok)
	}
	if _, ok := c.GetStreamURL("vid1", t0.Add(time.Hour+time.Second)); ok {
		t.Error("expired entry served, want miss")
	}
	if _, ok := c.GetStreamURL("absent", t0); ok {
		t.Error("absent entry served")
	}
}

func TestMetadataRoundTripAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.json")
	streamPath := filepath.Join(dir, "stream.json")

	c := New(metaPath, streamPath, time.Hour)
	c.PutMetadata("vid1", library.Song{ID: "vid1", Title: "T", Duration: 42})

	c2 := New(metaPath, streamPath, time.Hour)
	song, ok := c2.GetMetadata("vid1")
	if !ok || song.Title != "T" || song.Duration != 42 {
		t.Errorf("after restart: (%+v, %v)", song, ok)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.json")
	if err := os.WriteFile(metaPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(metaPath, filepath.Join(dir, "stream.json"), time.Hour)
	if _, ok := c.GetMetadata("anything"); ok {
		t.Error("corrupt cache returned a hit")
	}
	// Must still accept writes after a corrupt load.
	c.PutMetadata("vid1", library.Song{ID: "vid1"})
	if _, ok := c.GetMetadata("vid1"); !ok {
		t.Error("cache unusable after corrupt load")
	}
}

func TestClear(t *testing.T) {
	c, dir := newTestCache(t, time.Hour)
	now := time.Now()
	c.PutMetadata("vid1", library.Song{ID: "vid1"})
	c.PutStreamURL("vid1", "url", now)

	c.Clear()

	if _, ok := c.GetMetadata("vid1"); ok {
		t.Error("metadata survived Clear")
	}
	if _, ok := c.GetStreamURL("vid1", now); ok {
		t.Error("stream url survived Clear")
	}
	if _, err := os.Stat(filepath.Join(dir, "meta.json")); !os.IsNotExist(err) {
		t.Error("metadata file survived Clear")
	}

	// Resolves completing after a clear repopulate.
	c.PutStreamURL("vid1", "url2", now)
	if url, ok := c.GetStreamURL("vid1", now); !ok || url != "url2" {
		t.Errorf("repopulate after Clear = (%q, %v)", url, ok)
	}
}

func TestStats(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	now := time.Now()
	c.PutMetadata("a", library.Song{ID: "a"})
	c.GetMetadata("a")
	c.GetMetadata("b")
	c.PutStreamURL("a", "u", now)

	st := c.Stats()
	if st.MetadataEntries != 1 || st.StreamURLEntries != 1 {
		t.Errorf("entry counts: %+v", st)
	}
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("hit/miss counts: %+v", st)
	}
}
