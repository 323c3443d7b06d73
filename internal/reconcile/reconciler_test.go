package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Swapnanilb/Svara/internal/cache"
	"github.com/Swapnanilb/Svara/internal/config"
	"github.com/Swapnanilb/Svara/internal/events"
	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/resolver"
)

type fakeResolver struct {
	snapshots map[string]*resolver.Snapshot
	songs     map[string]library.Song
	streams   map[string]string
	failMeta  map[string]bool
	metaCalls int
	listCalls int
}

func (f *fakeResolver) ResolveMetadata(_ context.Context, ref string) (library.Song, error) {
	f.metaCalls++
	if f.failMeta[ref] {
		return library.Song{}, errors.New("video unavailable")
	}
	if s, ok := f.songs[ref]; ok {
		return s, nil
	}
	return library.Song{}, fmt.Errorf("no fake song for %q", ref)
}

func (f *fakeResolver) ResolveStreamURL(_ context.Context, videoID string) (string, error) {
	if u, ok := f.streams[videoID]; ok {
		return u, nil
	}
	return "", errors.New("no stream")
}

func (f *fakeResolver) ResolvePlaylist(_ context.Context, url string) (*resolver.Snapshot, error) {
	f.listCalls++
	if snap, ok := f.snapshots[url]; ok {
		return snap, nil
	}
	return nil, errors.New("playlist unavailable")
}

func entry(id, title string) resolver.Entry {
	return resolver.Entry{
		ID:       id,
		Title:    title,
		WatchURL: "https://www.youtube.com/watch?v=" + id,
	}
}

func song(id, title string) library.Song {
	return library.Song{ID: id, Title: title, Duration: 180, Thumbnail: "https://i.ytimg.com/" + id + ".jpg"}
}

func testSetup(t *testing.T) (*config.Config, *library.Store, *cache.Cache, *events.Bus) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		StreamURLTTL:        time.Hour,
		FuzzyOverlap:        0.8,
		DefaultPlaylistName: "My Songs",
	}
	store, err := library.OpenStore(filepath.Join(dir, "playlists.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	c := cache.New(filepath.Join(dir, "meta.json"), filepath.Join(dir, "stream.json"), cfg.StreamURLTTL)
	return cfg, store, c, events.NewBus()
}

func newFake(sourceURL string, entries ...resolver.Entry) *fakeResolver {
	f := &fakeResolver{
		snapshots: map[string]*resolver.Snapshot{},
		songs:     map[string]library.Song{},
		streams:   map[string]string{},
		failMeta:  map[string]bool{},
	}
	f.snapshots[sourceURL] = &resolver.Snapshot{Title: "Live Title", SourceURL: sourceURL, Entries: entries}
	for _, e := range entries {
		f.songs[e.WatchURL] = song(e.ID, e.Title)
	}
	return f
}

func TestReconcileReorderAddRemove(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLx"
	fake := newFake(src, entry("ccccccccccc", "C"), entry("aaaaaaaaaaa", "A"), entry("ddddddddddd", "D"))

	id, err := store.Create("Mine", []library.Song{
		song("aaaaaaaaaaa", "A"), song("bbbbbbbbbbb", "B"), song("ccccccccccc", "C"),
	}, src, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r := New(cfg, store, c, fake, bus, nil)
	summary, err := r.ReconcileWait(context.Background(), id)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Added != 1 || summary.Removed != 1 || summary.Total != 3 {
		t.Fatalf("summary = %+v, want added=1 removed=1 total=3", summary)
	}

	got := store.Songs(id)
	wantOrder := []string{"ccccccccccc", "aaaaaaaaaaa", "ddddddddddd"}
	for i, w := range wantOrder {
		if got[i].ID != w {
			t.Fatalf("song[%d].ID = %q, want %q", i, got[i].ID, w)
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLy"
	fake := newFake(src, entry("aaaaaaaaaaa", "A"), entry("bbbbbbbbbbb", "B"))

	id, err := store.Create("Mine", nil, src, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r := New(cfg, store, c, fake, bus, nil)

	if _, err := r.ReconcileWait(context.Background(), id); err != nil {
		t.Fatalf("first reconcile: %v", err)
	}
	before := store.Songs(id)

	summary, err := r.ReconcileWait(context.Background(), id)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if summary.Added != 0 || summary.Removed != 0 {
		t.Fatalf("second reconcile summary = %+v, want no changes", summary)
	}
	after := store.Songs(id)
	if len(before) != len(after) {
		t.Fatalf("song count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("song[%d] changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestReconcilePlaceholderForFailedNewSong(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLz"
	fake := newFake(src, entry("aaaaaaaaaaa", "A"), entry("xxxxxxxxxxx", "Broken Song"))
	fake.failMeta["https://www.youtube.com/watch?v=xxxxxxxxxxx"] = true

	id, _ := store.Create("Mine", nil, src, "")
	r := New(cfg, store, c, fake, bus, nil)

	summary, err := r.ReconcileWait(context.Background(), id)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Substituted != 1 {
		t.Fatalf("substituted = %d, want 1", summary.Substituted)
	}
	got := store.Songs(id)
	if got[1].ID != "xxxxxxxxxxx" || got[1].Title != "Broken Song" || got[1].Duration != 0 {
		t.Fatalf("placeholder = %+v", got[1])
	}
}

func TestReconcileSurvivorKeepsStoredRecordOnFailure(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLw"
	fake := newFake(src, entry("aaaaaaaaaaa", "A (live name)"))
	fake.failMeta["https://www.youtube.com/watch?v=aaaaaaaaaaa"] = true

	stored := song("aaaaaaaaaaa", "A (stored name)")
	id, _ := store.Create("Mine", []library.Song{stored}, src, "")
	r := New(cfg, store, c, fake, bus, nil)

	summary, err := r.ReconcileWait(context.Background(), id)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if summary.Substituted != 0 {
		t.Fatalf("substituted = %d, want 0 for surviving song", summary.Substituted)
	}
	got := store.Songs(id)
	if got[0] != stored {
		t.Fatalf("survivor = %+v, want stored record %+v", got[0], stored)
	}
}

func TestReconcileNoSourceURL(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	id, _ := store.Create("Local only", nil, "", "")
	r := New(cfg, store, c, &fakeResolver{}, bus, nil)

	_, err := r.ReconcileWait(context.Background(), id)
	if !errors.Is(err, ErrNoSourceURL) {
		t.Fatalf("err = %v, want ErrNoSourceURL", err)
	}
}

func TestReconcileSourceUnavailable(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	id, _ := store.Create("Mine", nil, "https://www.youtube.com/playlist?list=GONE", "")
	r := New(cfg, store, c, &fakeResolver{snapshots: map[string]*resolver.Snapshot{}}, bus, nil)

	_, err := r.ReconcileWait(context.Background(), id)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestReconcileUsesMetadataCache(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLv"
	fake := newFake(src, entry("aaaaaaaaaaa", "A"))
	c.PutMetadata("aaaaaaaaaaa", song("aaaaaaaaaaa", "A cached"))

	id, _ := store.Create("Mine", nil, src, "")
	r := New(cfg, store, c, fake, bus, nil)
	if _, err := r.ReconcileWait(context.Background(), id); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if fake.metaCalls != 0 {
		t.Fatalf("resolver called %d times despite warm cache", fake.metaCalls)
	}
	if got := store.Songs(id)[0].Title; got != "A cached" {
		t.Fatalf("title = %q, want cached record", got)
	}
}

func TestFindSimilar(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	songs := []library.Song{
		song("aaaaaaaaaaa", "A"), song("bbbbbbbbbbb", "B"),
		song("ccccccccccc", "C"), song("ddddddddddd", "D"), song("eeeeeeeeeee", "E"),
	}
	id, _ := store.Create("Mine", songs, "https://www.youtube.com/playlist?list=OLD", "")
	r := New(cfg, store, c, &fakeResolver{}, bus, nil)

	// 4 of 5 overlap: above the 0.8 threshold
	entries := []resolver.Entry{
		entry("aaaaaaaaaaa", "A"), entry("bbbbbbbbbbb", "B"),
		entry("ccccccccccc", "C"), entry("ddddddddddd", "D"), entry("fffffffffff", "F"),
	}
	if got := r.FindSimilar(entries); got != id {
		t.Fatalf("FindSimilar = %q, want %q", got, id)
	}

	// 2 of 5 overlap: below threshold
	entries = []resolver.Entry{
		entry("aaaaaaaaaaa", "A"), entry("bbbbbbbbbbb", "B"),
		entry("xxxxxxxxxxx", "X"), entry("yyyyyyyyyyy", "Y"), entry("zzzzzzzzzzz", "Z"),
	}
	if got := r.FindSimilar(entries); got != "" {
		t.Fatalf("FindSimilar = %q, want no match", got)
	}
}

func TestImportSingleToDefaultPlaylist(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	fake := &fakeResolver{
		songs: map[string]library.Song{
			"https://www.youtube.com/watch?v=aaaaaaaaaaa": song("aaaaaaaaaaa", "A"),
		},
	}
	r := New(cfg, store, c, fake, bus, nil)

	res, err := r.ImportFromLink(context.Background(), "https://www.youtube.com/watch?v=aaaaaaaaaaa", "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Song == nil || !res.Added {
		t.Fatalf("result = %+v, want song added", res)
	}
	if store.FindFirstWithName(cfg.DefaultPlaylistName) != res.PlaylistID {
		t.Fatalf("song not placed in default playlist")
	}

	// same link again dedups
	res2, err := r.ImportFromLink(context.Background(), "https://www.youtube.com/watch?v=aaaaaaaaaaa", "")
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if res2.Added {
		t.Fatal("duplicate add reported Added=true")
	}
}

func TestImportPlaylistLinkReconcilesExisting(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLq"
	fake := newFake(src, entry("aaaaaaaaaaa", "A"), entry("bbbbbbbbbbb", "B"))

	id, _ := store.Create("Mine", []library.Song{song("aaaaaaaaaaa", "A")}, src, "")
	r := New(cfg, store, c, fake, bus, nil)

	res, err := r.ImportFromLink(context.Background(), src, "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Created {
		t.Fatal("existing playlist was recreated")
	}
	if res.PlaylistID != id {
		t.Fatalf("playlist id = %q, want %q", res.PlaylistID, id)
	}
	if res.Summary.Added != 1 {
		t.Fatalf("summary = %+v, want added=1", res.Summary)
	}
}

func TestImportFuzzyMatchReusesListing(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const oldSrc = "https://www.youtube.com/playlist?list=OLD"
	const newSrc = "https://www.youtube.com/playlist?list=NEW"
	fake := newFake(newSrc,
		entry("aaaaaaaaaaa", "A"), entry("bbbbbbbbbbb", "B"),
		entry("ccccccccccc", "C"), entry("ddddddddddd", "D"), entry("fffffffffff", "F"))

	// Same songs, stale source URL: the new link must fold into this
	// playlist without a second listing fetch.
	id, _ := store.Create("Mine", []library.Song{
		song("aaaaaaaaaaa", "A"), song("bbbbbbbbbbb", "B"),
		song("ccccccccccc", "C"), song("ddddddddddd", "D"), song("eeeeeeeeeee", "E"),
	}, oldSrc, "")
	r := New(cfg, store, c, fake, bus, nil)

	res, err := r.ImportFromLink(context.Background(), newSrc, "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Created || res.PlaylistID != id {
		t.Fatalf("result = %+v, want overlap match onto %q", res, id)
	}
	if fake.listCalls != 1 {
		t.Fatalf("listing fetched %d times, want 1", fake.listCalls)
	}
	p, err := store.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.SourceURL != newSrc {
		t.Fatalf("source url = %q, want repointed to %q", p.SourceURL, newSrc)
	}
	if res.Summary.Added != 1 || res.Summary.Removed != 1 || res.Summary.Total != 5 {
		t.Fatalf("summary = %+v, want added=1 removed=1 total=5", res.Summary)
	}
}

func TestImportPlaylistLinkCreatesNew(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLnew"
	fake := newFake(src, entry("aaaaaaaaaaa", "A"), entry("bbbbbbbbbbb", "B"))
	r := New(cfg, store, c, fake, bus, nil)

	res, err := r.ImportFromLink(context.Background(), src, "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !res.Created {
		t.Fatal("want a newly created playlist")
	}
	p, err := store.Get(res.PlaylistID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p.Name != "Live Title" || p.SourceURL != src || len(p.Songs) != 2 {
		t.Fatalf("playlist = %+v", p)
	}
}

func TestReconcileStreamsEveryProgress(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	const src = "https://www.youtube.com/playlist?list=PLbig"
	entries := make([]resolver.Entry, 20)
	for i := range entries {
		entries[i] = entry(fmt.Sprintf("vid%08d", i), fmt.Sprintf("Song %d", i))
	}
	fake := newFake(src, entries...)

	id, _ := store.Create("Mine", nil, src, "")
	r := New(cfg, store, c, fake, bus, nil)

	// A slow consumer must still see one Progress per entry; none may be
	// dropped once the channel buffer fills.
	progress := 0
	var summary *Summary
	for ev := range r.Reconcile(context.Background(), id) {
		time.Sleep(time.Millisecond) // let the producer run ahead of us
		switch {
		case ev.Err != nil:
			t.Fatalf("reconcile: %v", ev.Err)
		case ev.Progress != nil:
			if summary != nil {
				t.Fatal("progress after summary")
			}
			progress++
		case ev.Summary != nil:
			summary = ev.Summary
		}
	}
	if progress != len(entries) {
		t.Fatalf("got %d progress events, want %d", progress, len(entries))
	}
	if summary == nil || summary.Total != len(entries) {
		t.Fatalf("summary = %+v, want total=%d", summary, len(entries))
	}
}

func TestWarmCache(t *testing.T) {
	cfg, store, c, bus := testSetup(t)
	fake := &fakeResolver{streams: map[string]string{
		"aaaaaaaaaaa": "https://cdn/a",
		"bbbbbbbbbbb": "https://cdn/b",
	}}
	id, _ := store.Create("Mine", []library.Song{
		song("aaaaaaaaaaa", "A"), song("bbbbbbbbbbb", "B"), song("zzzzzzzzzzz", "Z"),
	}, "", "")
	r := New(cfg, store, c, fake, bus, nil)

	cached, total, err := r.WarmCache(context.Background(), id)
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if cached != 2 || total != 3 {
		t.Fatalf("cached=%d total=%d, want 2/3", cached, total)
	}
	if _, ok := c.GetStreamURL("aaaaaaaaaaa", time.Now()); !ok {
		t.Fatal("stream url not cached")
	}
}
