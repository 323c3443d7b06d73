// Package library owns the durable playlist data. It is the sole writer
// of the playlists file; every mutation rewrites the file through the
// atomic storage helpers.
package library

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/Swapnanilb/Svara/internal/storage"
)

const schemaVersion = 1

var (
	ErrPlaylistNotFound = errors.New("library: playlist not found")
	ErrSongNotFound     = errors.New("library: song not found")
)

type fileData struct {
	Version   int                  `json:"version"`
	Playlists map[string]*Playlist `json:"playlists"`
}

type Store struct {
	path string
	mu   sync.RWMutex
	data *fileData
}

// OpenStore loads the playlists file, starting empty when it is missing.
// A corrupt file is an error here: unlike the caches, silently dropping
// the user's playlists is not acceptable.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path, data: &fileData{Version: schemaVersion, Playlists: map[string]*Playlist{}}}
	err := storage.LoadJSON(path, s.data)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	}
	if s.data.Playlists == nil {
		s.data.Playlists = map[string]*Playlist{}
	}
	s.data.Version = schemaVersion
	return s, nil
}

func (s *Store) persistLocked() error {
	return storage.SaveJSON(s.path, s.data)
}

// Create adds a new playlist and persists immediately. The generated ID is
// stable for the playlist's lifetime.
func (s *Store) Create(name string, songs []Song, sourceURL, thumbnail string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	p := &Playlist{
		ID:              id,
		Name:            name,
		Songs:           append([]Song(nil), songs...),
		SourceURL:       sourceURL,
		Thumbnail:       thumbnail,
		SourceThumbnail: thumbnail,
	}
	s.data.Playlists[id] = p
	if err := s.persistLocked(); err != nil {
		delete(s.data.Playlists, id)
		return "", err
	}
	slog.Info("playlist created", "id", id, "name", name, "songs", len(songs))
	return id, nil
}

// Get returns a copy of the playlist record.
func (s *Store) Get(id string) (Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return Playlist{}, ErrPlaylistNotFound
	}
	cp := *p
	cp.Songs = append([]Song(nil), p.Songs...)
	return cp, nil
}

// Playlists returns copies of all playlists.
func (s *Store) Playlists() []Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Playlist, 0, len(s.data.Playlists))
	for _, p := range s.data.Playlists {
		cp := *p
		cp.Songs = append([]Song(nil), p.Songs...)
		out = append(out, cp)
	}
	return out
}

// Songs returns the ordered song list; an unknown ID yields an empty
// list, not an error.
func (s *Store) Songs(id string) []Song {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return []Song{}
	}
	return append([]Song(nil), p.Songs...)
}

// AddSong appends the song unless one with the same identifier is already
// present. Dedup lives here, not in callers.
func (s *Store) AddSong(id string, song Song) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return false, ErrPlaylistNotFound
	}
	for _, existing := range p.Songs {
		if existing.ID == song.ID {
			return false, nil
		}
	}
	p.Songs = append(p.Songs, song)
	if err := s.persistLocked(); err != nil {
		p.Songs = p.Songs[:len(p.Songs)-1]
		return false, err
	}
	return true, nil
}

// ReplaceSongs swaps the entire song list. The reconciler does the
// diffing; from the store's perspective this is atomic.
func (s *Store) ReplaceSongs(id string, songs []Song) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	old := p.Songs
	p.Songs = append([]Song(nil), songs...)
	if err := s.persistLocked(); err != nil {
		p.Songs = old
		return err
	}
	return nil
}

func (s *Store) RemoveSong(id string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	if index < 0 || index >= len(p.Songs) {
		return ErrSongNotFound
	}
	old := append([]Song(nil), p.Songs...)
	p.Songs = append(p.Songs[:index], p.Songs[index+1:]...)
	if err := s.persistLocked(); err != nil {
		p.Songs = old
		return err
	}
	return nil
}

// Remove deletes the playlist. Deletion is immediate and irreversible.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	delete(s.data.Playlists, id)
	if err := s.persistLocked(); err != nil {
		s.data.Playlists[id] = p
		return err
	}
	slog.Info("playlist removed", "id", id, "name", p.Name)
	return nil
}

// FindBySourceURL returns the ID of the playlist with exactly this source
// URL, or "". Fuzzy matching is the reconciler's job.
func (s *Store) FindBySourceURL(url string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.data.Playlists {
		if p.SourceURL != "" && p.SourceURL == url {
			return id
		}
	}
	return ""
}

// FindFirstWithName returns the ID of some playlist with the given
// display name, or "".
func (s *Store) FindFirstWithName(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, p := range s.data.Playlists {
		if p.Name == name {
			return id
		}
	}
	return ""
}

// EnsureDefault returns the default playlist's ID, creating it when
// missing. Used for single-song adds with no target playlist.
func (s *Store) EnsureDefault(name string) (string, error) {
	if id := s.FindFirstWithName(name); id != "" {
		return id, nil
	}
	return s.Create(name, nil, "", "")
}

// UpdateMeta changes the display name and/or source thumbnail. Empty
// arguments leave the field alone. A playlist with no custom thumbnail
// override follows the source thumbnail.
func (s *Store) UpdateMeta(id, name, sourceThumbnail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	if name != "" {
		p.Name = name
	}
	if sourceThumbnail != "" {
		if p.Thumbnail == p.SourceThumbnail {
			p.Thumbnail = sourceThumbnail
		}
		p.SourceThumbnail = sourceThumbnail
	}
	return s.persistLocked()
}

// SetSourceURL repoints a playlist at a different live source link.
func (s *Store) SetSourceURL(id, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	p.SourceURL = url
	return s.persistLocked()
}

// SetThumbnail installs a custom thumbnail override.
func (s *Store) SetThumbnail(id, thumbnail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	p.Thumbnail = thumbnail
	return s.persistLocked()
}

// ClearThumbnail drops the override and falls back to the source
// thumbnail.
func (s *Store) ClearThumbnail(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.Playlists[id]
	if !ok {
		return ErrPlaylistNotFound
	}
	p.Thumbnail = p.SourceThumbnail
	return s.persistLocked()
}
