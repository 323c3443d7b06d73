// Package reconcile brings stored playlists into agreement with their
// live sources. The reconciler is the only component that diffs; the
// store replaces wholesale and the resolver lists flatly.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Swapnanilb/Svara/internal/cache"
	"github.com/Swapnanilb/Svara/internal/config"
	"github.com/Swapnanilb/Svara/internal/events"
	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/resolver"
	spot "github.com/Swapnanilb/Svara/internal/spotify"
)

var (
	ErrNoSourceURL       = errors.New("reconcile: playlist has no source url")
	ErrSourceUnavailable = errors.New("reconcile: source listing unavailable")
)

// Progress is emitted once per live entry as it is processed.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Title   string `json:"title"`
}

// Summary reports the outcome of one reconciliation. Substituted counts
// songs that got a placeholder record because their metadata fetch
// failed; they are still in the playlist.
type Summary struct {
	Added       int `json:"added"`
	Removed     int `json:"removed"`
	Total       int `json:"total"`
	Substituted int `json:"substituted"`
}

// Event is one message on the stream a Reconcile call returns. Exactly
// one of the fields is set; the channel closes after Summary or Err.
type Event struct {
	Progress *Progress
	Summary  *Summary
	Err      error
}

type Reconciler struct {
	cfg     *config.Config
	store   *library.Store
	cache   *cache.Cache
	res     resolver.Resolver
	bus     *events.Bus
	spotify *spot.Client
}

// New wires a reconciler. The spotify client may be nil; Spotify links
// then fail with ErrSpotifyUnconfigured.
func New(cfg *config.Config, store *library.Store, c *cache.Cache, res resolver.Resolver, bus *events.Bus, sp *spot.Client) *Reconciler {
	return &Reconciler{cfg: cfg, store: store, cache: c, res: res, bus: bus, spotify: sp}
}

// Reconcile rebuilds the playlist's song list to match its live source:
// live ordering wins, vanished songs are pruned, new songs are hydrated
// cache-first. Progress streams on the returned channel, ending with a
// Summary or an Err. Running it twice with an unchanged source yields
// added=0, removed=0 and an identical song list.
func (r *Reconciler) Reconcile(ctx context.Context, playlistID string) <-chan Event {
	ch := make(chan Event, 8)
	go func() {
		defer close(ch)
		summary, err := r.reconcile(ctx, playlistID, ch)
		if err != nil {
			ch <- Event{Err: err}
			return
		}
		ch <- Event{Summary: summary}
	}()
	return ch
}

// ReconcileWait drains Reconcile and returns the final result.
func (r *Reconciler) ReconcileWait(ctx context.Context, playlistID string) (*Summary, error) {
	var summary *Summary
	for ev := range r.Reconcile(ctx, playlistID) {
		if ev.Err != nil {
			return nil, ev.Err
		}
		if ev.Summary != nil {
			summary = ev.Summary
		}
	}
	return summary, nil
}

func (r *Reconciler) reconcile(ctx context.Context, playlistID string, ch chan<- Event) (*Summary, error) {
	p, err := r.store.Get(playlistID)
	if err != nil {
		return nil, err
	}
	if !p.HasSource() {
		return nil, ErrNoSourceURL
	}

	snap, err := r.res.ResolvePlaylist(ctx, p.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return r.applySnapshot(ctx, playlistID, &p, snap, ch)
}

// applySnapshot rewrites the playlist to match an already-fetched
// listing. Callers that obtained the listing themselves (the importer's
// overlap match) reuse it here instead of fetching twice.
func (r *Reconciler) applySnapshot(ctx context.Context, playlistID string, p *library.Playlist, snap *resolver.Snapshot, ch chan<- Event) (*Summary, error) {
	oldByID := make(map[string]library.Song, len(p.Songs))
	for _, s := range p.Songs {
		oldByID[s.ID] = s
	}
	liveIDs := make(map[string]bool, len(snap.Entries))
	for _, e := range snap.Entries {
		liveIDs[e.ID] = true
	}

	added, removed := 0, 0
	for _, e := range snap.Entries {
		if _, ok := oldByID[e.ID]; !ok {
			added++
		}
	}
	for id := range oldByID {
		if !liveIDs[id] {
			removed++
		}
	}

	newList := make([]library.Song, 0, len(snap.Entries))
	substituted := 0
	for i, entry := range snap.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		prog := Progress{Current: i + 1, Total: len(snap.Entries), Title: entry.Title}
		if ch != nil {
			select {
			case ch <- Event{Progress: &prog}:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		r.bus.Publish(events.SyncProgress{PlaylistID: playlistID, Current: prog.Current, Total: prog.Total, Title: prog.Title})

		song, placeholder := r.hydrate(ctx, entry, oldByID)
		if placeholder {
			substituted++
		}
		newList = append(newList, song)
	}

	if err := r.store.ReplaceSongs(playlistID, newList); err != nil {
		return nil, err
	}
	r.updateMeta(playlistID, p, snap)
	r.bus.Publish(events.PlaylistsChanged{})

	slog.Info("playlist reconciled",
		"playlist", playlistID,
		"added", added,
		"removed", removed,
		"total", len(newList),
		"substituted", substituted)
	return &Summary{Added: added, Removed: removed, Total: len(newList), Substituted: substituted}, nil
}

// hydrate produces the full song record for one live entry. The second
// return value reports whether a placeholder was substituted.
func (r *Reconciler) hydrate(ctx context.Context, entry resolver.Entry, oldByID map[string]library.Song) (library.Song, bool) {
	if song, ok := r.cache.GetMetadata(entry.ID); ok {
		return song, false
	}
	song, err := r.res.ResolveMetadata(ctx, entry.WatchURL)
	if err == nil {
		r.cache.PutMetadata(song.ID, song)
		return song, false
	}

	// A song still present on the source must survive a transient fetch
	// failure: fall back to its previously stored record.
	if prev, ok := oldByID[entry.ID]; ok {
		return prev, false
	}

	slog.Warn("metadata resolve failed, substituting placeholder", "id", entry.ID, "err", err)
	return library.Song{
		ID:        entry.ID,
		Title:     entry.Title,
		Duration:  0,
		Thumbnail: entry.Thumbnail,
	}, true
}

func (r *Reconciler) updateMeta(playlistID string, p *library.Playlist, snap *resolver.Snapshot) {
	name, thumb := "", ""
	if snap.Title != "" && snap.Title != p.Name {
		name = snap.Title
	}
	if snap.Thumbnail != "" && snap.Thumbnail != p.SourceThumbnail {
		thumb = snap.Thumbnail
	}
	if name == "" && thumb == "" {
		return
	}
	if err := r.store.UpdateMeta(playlistID, name, thumb); err != nil {
		slog.Warn("playlist meta update failed", "playlist", playlistID, "err", err)
	}
}

// FindSimilar looks for an existing playlist whose song-identifier set
// overlaps the listing enough to be the same playlist under a different
// URL. The threshold is a tuned heuristic (config FUZZY_OVERLAP), not a
// hard law.
func (r *Reconciler) FindSimilar(entries []resolver.Entry) string {
	incoming := make(map[string]bool, len(entries))
	for _, e := range entries {
		incoming[e.ID] = true
	}
	if len(incoming) == 0 {
		return ""
	}
	for _, p := range r.store.Playlists() {
		existing := p.IDSet()
		if len(existing) == 0 {
			continue
		}
		inter := 0
		for id := range incoming {
			if existing[id] {
				inter++
			}
		}
		denom := max(len(incoming), len(existing))
		if float64(inter)/float64(denom) >= r.cfg.FuzzyOverlap {
			return p.ID
		}
	}
	return ""
}

// WarmCache resolves stream URLs for every song of a playlist so forward
// playback is cache-hot. Failures are counted, never fatal.
func (r *Reconciler) WarmCache(ctx context.Context, playlistID string) (cached, total int, err error) {
	songs := r.store.Songs(playlistID)
	for _, s := range songs {
		if err := ctx.Err(); err != nil {
			return cached, len(songs), err
		}
		if _, ok := r.cache.GetStreamURL(s.ID, time.Now()); ok {
			cached++
			continue
		}
		url, err := r.res.ResolveStreamURL(ctx, s.ID)
		if err != nil {
			slog.Debug("warm cache resolve failed", "id", s.ID, "err", err)
			continue
		}
		r.cache.PutStreamURL(s.ID, url, time.Now())
		cached++
	}
	return cached, len(songs), nil
}
