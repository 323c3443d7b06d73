package library

// Song is the durable record for one track. ID is the opaque source
// identifier (YouTube video ID) and is unique within a playlist. Stream
// URLs are short-lived cache state and are never persisted here.
type Song struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"` // seconds, 0 = unknown
	Thumbnail string `json:"thumbnail_url,omitempty"`
}

type Playlist struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Songs           []Song `json:"songs"`
	SourceURL       string `json:"source_url,omitempty"`
	Thumbnail       string `json:"thumbnail,omitempty"`
	SourceThumbnail string `json:"source_thumbnail,omitempty"`
}

// HasSource reports whether the playlist is linked to a remote source and
// can therefore be synced.
func (p *Playlist) HasSource() bool { return p.SourceURL != "" }

// IDSet returns the set of song identifiers currently in the playlist.
func (p *Playlist) IDSet() map[string]bool {
	set := make(map[string]bool, len(p.Songs))
	for _, s := range p.Songs {
		set[s.ID] = true
	}
	return set
}
