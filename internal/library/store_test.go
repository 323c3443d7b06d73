package library

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "playlists.json"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	return s
}

func TestCreateAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlists.json")

	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	id, err := s.Create("Mix", []Song{{ID: "a", Title: "A"}}, "https://example.com/list", "thumb")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reloaded, err := OpenStore(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	p, err := reloaded.Get(id)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if p.Name != "Mix" || len(p.Songs) != 1 || p.Songs[0].ID != "a" {
		t.Errorf("unexpected playlist after reload: %+v", p)
	}
	if p.SourceThumbnail != "thumb" {
		t.Errorf("source thumbnail not recorded: %+v", p)
	}
}

func TestAddSongDedup(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.Create("Mix", nil, "", "")

	added, err := s.AddSong(id, Song{ID: "a", Title: "A"})
	if err != nil || !added {
		t.Fatalf("first add = (%v, %v), want (true, nil)", added, err)
	}
	added, err = s.AddSong(id, Song{ID: "a", Title: "A again"})
	if err != nil || added {
		t.Fatalf("duplicate add = (%v, %v), want (false, nil)", added, err)
	}

	songs := s.Songs(id)
	count := 0
	for _, song := range songs {
		if song.ID == "a" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("song a occurs %d times, want 1", count)
	}
}

func TestSongsUnknownPlaylist(t *testing.T) {
	s := newTestStore(t)
	if got := s.Songs("nope"); got == nil || len(got) != 0 {
		t.Errorf("Songs(unknown) = %v, want empty list", got)
	}
}

func TestReplaceSongs(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.Create("Mix", []Song{{ID: "a"}, {ID: "b"}}, "", "")

	if err := s.ReplaceSongs(id, []Song{{ID: "c"}, {ID: "a"}}); err != nil {
		t.Fatalf("ReplaceSongs: %v", err)
	}
	songs := s.Songs(id)
	if len(songs) != 2 || songs[0].ID != "c" || songs[1].ID != "a" {
		t.Errorf("ReplaceSongs order = %v", songs)
	}

	if err := s.ReplaceSongs("nope", nil); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("ReplaceSongs(unknown) = %v, want ErrPlaylistNotFound", err)
	}
}

func TestRemoveSong(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.Create("Mix", []Song{{ID: "a"}, {ID: "b"}, {ID: "c"}}, "", "")

	if err := s.RemoveSong(id, 1); err != nil {
		t.Fatalf("RemoveSong: %v", err)
	}
	songs := s.Songs(id)
	if len(songs) != 2 || songs[0].ID != "a" || songs[1].ID != "c" {
		t.Errorf("after remove: %v", songs)
	}
	if err := s.RemoveSong(id, 5); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("RemoveSong(out of range) = %v, want ErrSongNotFound", err)
	}
}

func TestRemovePlaylist(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.Create("Mix", nil, "", "")
	if err := s.Remove(id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get(id); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("Get after Remove = %v, want ErrPlaylistNotFound", err)
	}
	if err := s.Remove(id); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("double Remove = %v, want ErrPlaylistNotFound", err)
	}
}

func TestFindBySourceURL(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.Create("Mix", nil, "https://example.com/list?id=1", "")
	s.Create("Local", nil, "", "")

	if got := s.FindBySourceURL("https://example.com/list?id=1"); got != id {
		t.Errorf("FindBySourceURL = %q, want %q", got, id)
	}
	if got := s.FindBySourceURL("https://example.com/other"); got != "" {
		t.Errorf("FindBySourceURL(miss) = %q, want empty", got)
	}
	// local-only playlists must never match on their empty URL
	if got := s.FindBySourceURL(""); got != "" {
		t.Errorf("FindBySourceURL(empty) = %q, want empty", got)
	}
}

func TestEnsureDefault(t *testing.T) {
	s := newTestStore(t)
	id1, err := s.EnsureDefault("My Songs")
	if err != nil {
		t.Fatalf("EnsureDefault: %v", err)
	}
	id2, err := s.EnsureDefault("My Songs")
	if err != nil {
		t.Fatalf("EnsureDefault second: %v", err)
	}
	if id1 != id2 {
		t.Errorf("EnsureDefault created twice: %q vs %q", id1, id2)
	}
}

func TestThumbnailOverride(t *testing.T) {
	s := newTestStore(t)
	id, _ := s.Create("Mix", nil, "src", "source-thumb")

	if err := s.SetThumbnail(id, "custom"); err != nil {
		t.Fatalf("SetThumbnail: %v", err)
	}
	p, _ := s.Get(id)
	if p.Thumbnail != "custom" {
		t.Errorf("Thumbnail = %q, want custom", p.Thumbnail)
	}

	// A sync-time source thumbnail change must not clobber the override.
	if err := s.UpdateMeta(id, "", "new-source-thumb"); err != nil {
		t.Fatalf("UpdateMeta: %v", err)
	}
	p, _ = s.Get(id)
	if p.Thumbnail != "custom" || p.SourceThumbnail != "new-source-thumb" {
		t.Errorf("after UpdateMeta: %+v", p)
	}

	if err := s.ClearThumbnail(id); err != nil {
		t.Fatalf("ClearThumbnail: %v", err)
	}
	p, _ = s.Get(id)
	if p.Thumbnail != "new-source-thumb" {
		t.Errorf("ClearThumbnail restored %q, want new-source-thumb", p.Thumbnail)
	}
}
