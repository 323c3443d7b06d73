package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Swapnanilb/Svara/internal/events"
	"github.com/Swapnanilb/Svara/internal/library"
	spot "github.com/Swapnanilb/Svara/internal/spotify"
	"github.com/Swapnanilb/Svara/internal/utils"
)

var ErrSpotifyUnconfigured = errors.New("reconcile: spotify credentials not configured")

// ImportResult describes what a link turned into. Either PlaylistID is
// set (playlist import, Created tells whether it is new) or Song is set
// (single video, Added tells whether it was new to the target).
type ImportResult struct {
	PlaylistID string        `json:"playlist_id,omitempty"`
	Created    bool          `json:"created"`
	Summary    *Summary      `json:"summary,omitempty"`
	NotFound   int           `json:"not_found,omitempty"`
	Song       *library.Song `json:"song,omitempty"`
	Added      bool          `json:"added"`
}

// ImportFromLink takes anything a user can paste: a YouTube playlist
// URL, a Spotify playlist or album link, or a single video URL/ID.
// Playlist links that match an existing playlist exactly by source URL,
// or fuzzily by song overlap, reconcile that playlist instead of
// creating a duplicate. Single videos land in targetPlaylistID, or the
// default playlist when empty.
func (r *Reconciler) ImportFromLink(ctx context.Context, link, targetPlaylistID string) (*ImportResult, error) {
	switch {
	case utils.IsSpotifyURL(link):
		return r.importFromSpotify(ctx, link)
	case utils.IsPlaylistURL(link):
		return r.importPlaylist(ctx, link)
	default:
		return r.importSingle(ctx, link, targetPlaylistID)
	}
}

func (r *Reconciler) importPlaylist(ctx context.Context, link string) (*ImportResult, error) {
	if id := r.store.FindBySourceURL(link); id != "" {
		summary, err := r.ReconcileWait(ctx, id)
		if err != nil {
			return nil, err
		}
		return &ImportResult{PlaylistID: id, Summary: summary}, nil
	}

	snap, err := r.res.ResolvePlaylist(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	if id := r.FindSimilar(snap.Entries); id != "" {
		slog.Info("playlist link matched existing playlist by overlap", "playlist", id)
		p, err := r.store.Get(id)
		if err != nil {
			return nil, err
		}
		// The pasted link is the one known to work; remember it so future
		// syncs do not go through a possibly dead stored URL.
		if p.SourceURL != link {
			if err := r.store.SetSourceURL(id, link); err != nil {
				return nil, err
			}
		}
		summary, err := r.applySnapshot(ctx, id, &p, snap, nil)
		if err != nil {
			return nil, err
		}
		return &ImportResult{PlaylistID: id, Summary: summary}, nil
	}

	songs := make([]library.Song, 0, len(snap.Entries))
	substituted := 0
	for i, entry := range snap.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.bus.Publish(events.SyncProgress{Current: i + 1, Total: len(snap.Entries), Title: entry.Title})
		song, placeholder := r.hydrate(ctx, entry, nil)
		if placeholder {
			substituted++
		}
		songs = append(songs, song)
	}

	name := snap.Title
	if name == "" {
		name = "Imported Playlist"
	}
	id, err := r.store.Create(name, songs, snap.SourceURL, snap.Thumbnail)
	if err != nil {
		return nil, err
	}
	r.bus.Publish(events.PlaylistsChanged{})
	return &ImportResult{
		PlaylistID: id,
		Created:    true,
		Summary:    &Summary{Added: len(songs), Total: len(songs), Substituted: substituted},
	}, nil
}

func (r *Reconciler) importSingle(ctx context.Context, link, targetPlaylistID string) (*ImportResult, error) {
	song, err := r.res.ResolveMetadata(ctx, link)
	if err != nil {
		return nil, err
	}
	r.cache.PutMetadata(song.ID, song)

	id := targetPlaylistID
	if id == "" {
		id, err = r.store.EnsureDefault(r.cfg.DefaultPlaylistName)
		if err != nil {
			return nil, err
		}
	}
	added, err := r.store.AddSong(id, song)
	if err != nil {
		return nil, err
	}
	if added {
		r.bus.Publish(events.PlaylistsChanged{})
	}
	return &ImportResult{PlaylistID: id, Song: &song, Added: added}, nil
}

// importFromSpotify turns a Spotify playlist or album into a local
// playlist by searching YouTube for each track. Tracks with no usable
// search hit are counted, not fatal.
func (r *Reconciler) importFromSpotify(ctx context.Context, link string) (*ImportResult, error) {
	if r.spotify == nil {
		return nil, ErrSpotifyUnconfigured
	}
	typ, sid, err := spot.ParseID(link)
	if err != nil {
		return nil, err
	}

	var tracks []spot.Track
	var meta spot.PlaylistMeta
	switch typ {
	case "playlist":
		tracks, meta, err = r.spotify.GetPlaylist(ctx, sid)
	case "album":
		tracks, meta, err = r.spotify.GetAlbum(ctx, sid)
	default:
		return nil, fmt.Errorf("unsupported spotify type: %s", typ)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	songs := make([]library.Song, 0, len(tracks))
	notFound := 0
	for i, t := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.bus.Publish(events.SyncProgress{Current: i + 1, Total: len(tracks), Title: t.Name})
		query := fmt.Sprintf("ytsearch1:%q %q", t.Name, t.Artist)
		song, err := r.res.ResolveMetadata(ctx, query)
		if err != nil {
			slog.Warn("no youtube match for spotify track", "track", t.Name, "artist", t.Artist, "err", err)
			notFound++
			continue
		}
		r.cache.PutMetadata(song.ID, song)
		songs = append(songs, song)
	}

	name := meta.Title
	if name == "" {
		name = "Spotify Import"
	}
	id, err := r.store.Create(name, songs, "", meta.Thumbnail)
	if err != nil {
		return nil, err
	}
	r.bus.Publish(events.PlaylistsChanged{})
	return &ImportResult{
		PlaylistID: id,
		Created:    true,
		NotFound:   notFound,
		Summary:    &Summary{Added: len(songs), Total: len(songs)},
	}, nil
}
