package resolver

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	ytdlp "github.com/lrstanley/go-ytdlp"

	"github.com/Swapnanilb/Svara/internal/config"
	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/utils"
)

// Resolver turns source references into song metadata, playable stream
// URLs and flat playlist listings. Implemented by YTDLP; faked in tests.
type Resolver interface {
	ResolveMetadata(ctx context.Context, ref string) (library.Song, error)
	ResolveStreamURL(ctx context.Context, videoID string) (string, error)
	ResolvePlaylist(ctx context.Context, url string) (*Snapshot, error)
}

// Entry is one lightweight member of a flat playlist listing. No stream
// resolution has happened for it.
type Entry struct {
	ID        string
	Title     string
	Thumbnail string
	WatchURL  string
}

// Snapshot is the result of a flat playlist extraction: one remote call
// regardless of playlist size.
type Snapshot struct {
	Title     string
	SourceURL string
	Thumbnail string
	Entries   []Entry
}

type format struct {
	url    string
	acodec string
	vcodec string
}

type extracted struct {
	id        string
	title     string
	duration  float64
	thumbnail string
	formats   []format
}

// YTDLP wraps the yt-dlp extractor binary via go-ytdlp.
type YTDLP struct {
	cfg *config.Config
}

func NewYTDLP(cfg *config.Config) *YTDLP { return &YTDLP{cfg: cfg} }

var installOnce sync.Once

func ensureInstalled(ctx context.Context) {
	installOnce.Do(func() {
		ytdlp.MustInstall(ctx, nil)
	})
}

// helpers to safely read pointer fields with defaults
func s(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func f(ptr *float64) float64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}

func lastThumb(ts []*ytdlp.ExtractedThumbnail) string {
	for i := len(ts) - 1; i >= 0; i-- {
		if ts[i] != nil && ts[i].URL != "" {
			return ts[i].URL
		}
	}
	return ""
}

func mapFormats(fs []*ytdlp.ExtractedFormat) []format {
	out := make([]format, 0, len(fs))
	for _, ff := range fs {
		if ff == nil {
			continue
		}
		out = append(out, format{url: ff.URL, acodec: s(ff.ACodec), vcodec: s(ff.VCodec)})
	}
	return out
}

func (y *YTDLP) applyYouTubeArgs(cmd *ytdlp.Command, url string) *ytdlp.Command {
	if y.cfg.YouTubeCookiesPath != "" {
		cmd = cmd.Cookies(y.cfg.YouTubeCookiesPath)
	}
	if strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be") {
		extractorArgs := "youtube:player-client=default,mweb"
		if y.cfg.YouTubePOToken != "" {
			extractorArgs += ";po_token=" + y.cfg.YouTubePOToken
		}
		cmd = cmd.ExtractorArgs(extractorArgs)
	}
	return cmd
}

func (y *YTDLP) extractFull(ctx context.Context, url string) (*extracted, error) {
	ensureInstalled(ctx)

	cmd := ytdlp.New().
		Format("bestaudio/best").
		NoCheckCertificates().
		DumpJSON()
	cmd = y.applyYouTubeArgs(cmd, url)

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, err
	}
	infos, err := res.GetExtractedInfo()
	if err != nil || len(infos) == 0 || infos[0] == nil {
		return nil, err
	}
	ext := infos[0]
	// A watch URL never yields a container, but a full extraction of a
	// playlist URL does; take the first member in that case.
	if len(ext.Entries) > 0 {
		for _, e := range ext.Entries {
			if e != nil {
				ext = e
				break
			}
		}
	}
	return &extracted{
		id:        ext.ID,
		title:     s(ext.Title),
		duration:  f(ext.Duration),
		thumbnail: lastThumb(ext.Thumbnails),
		formats:   mapFormats(ext.Formats),
	}, nil
}

// ResolveMetadata performs a full extraction of a watch URL or video ID
// and returns the song's durable metadata. The stream URL is deliberately
// not part of the result; it expires too fast to store with the song.
func (y *YTDLP) ResolveMetadata(ctx context.Context, ref string) (library.Song, error) {
	// Bare video IDs become watch URLs; full URLs and ytsearch: queries
	// pass through untouched.
	url := ref
	if !strings.HasPrefix(ref, "http") && !strings.Contains(ref, ":") {
		url = utils.WatchURL(ref)
	}
	ext, err := y.extractFull(ctx, url)
	if err != nil {
		return library.Song{}, failure(ref, err)
	}
	if ext == nil || ext.id == "" {
		return library.Song{}, &Failure{Kind: Unavailable, Ref: ref}
	}
	return library.Song{
		ID:        ext.id,
		Title:     ext.title,
		Duration:  max(0, int(ext.duration)),
		Thumbnail: ext.thumbnail,
	}, nil
}

// ResolveStreamURL performs a full extraction and picks the best
// audio-only format: first format with an audio codec and no video codec,
// in extractor order. Returns a NoAudioFormat failure when none matches.
func (y *YTDLP) ResolveStreamURL(ctx context.Context, videoID string) (string, error) {
	url := utils.WatchURL(videoID)
	ext, err := y.extractFull(ctx, url)
	if err != nil {
		return "", failure(videoID, err)
	}
	if ext == nil {
		return "", &Failure{Kind: Unavailable, Ref: videoID}
	}
	for _, fm := range ext.formats {
		if fm.acodec != "" && fm.acodec != "none" && (fm.vcodec == "" || fm.vcodec == "none") {
			if strings.HasPrefix(fm.url, "http") {
				return fm.url, nil
			}
		}
	}
	slog.Debug("no audio-only format", "videoID", videoID, "formats", len(ext.formats))
	return "", &Failure{Kind: NoAudioFormat, Ref: videoID}
}

// ResolvePlaylist performs a flat extraction: one remote call that lists
// the playlist's members without resolving any of their streams.
func (y *YTDLP) ResolvePlaylist(ctx context.Context, url string) (*Snapshot, error) {
	ensureInstalled(ctx)

	cmd := ytdlp.New().
		FlatPlaylist().
		DumpJSON()
	cmd = y.applyYouTubeArgs(cmd, url)

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, failure(url, err)
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, failure(url, err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, &Failure{Kind: Unavailable, Ref: url}
	}
	pl := infos[0]

	snap := &Snapshot{
		Title:     s(pl.Title),
		SourceURL: url,
		Thumbnail: lastThumb(pl.Thumbnails),
	}
	if canonical := s(pl.WebpageURL); canonical != "" {
		snap.SourceURL = canonical
	}
	for _, e := range pl.Entries {
		if e == nil || e.ID == "" {
			continue
		}
		snap.Entries = append(snap.Entries, Entry{
			ID:        e.ID,
			Title:     s(e.Title),
			Thumbnail: lastThumb(e.Thumbnails),
			WatchURL:  utils.WatchURL(e.ID),
		})
	}
	slog.Debug("playlist listed", "url", url, "entries", len(snap.Entries))
	return snap, nil
}
