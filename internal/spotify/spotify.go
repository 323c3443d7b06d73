// Package spotify wraps the Spotify Web API for playlist import. Tracks
// come back as name/artist pairs; actual audio is resolved through
// YouTube search like everything else.
package spotify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

type Track struct {
	Name   string
	Artist string
}

type PlaylistMeta struct {
	Title     string
	Source    string
	Thumbnail string
}

func firstImage(images []spotify.Image) string {
	if len(images) > 0 {
		return images[0].URL
	}
	return ""
}

type Client struct {
	raw *spotify.Client
}

func NewClientCredentials(clientID, clientSecret string) (*Client, error) {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	httpClient := cfg.Client(context.Background())
	cl := spotify.New(httpClient, spotify.WithRetry(true))
	return &Client{raw: cl}, nil
}

// ParseID classifies a spotify: URI or open.spotify.com URL.
func ParseID(raw string) (typ string, id spotify.ID, err error) {
	if strings.HasPrefix(raw, "spotify:") {
		parts := strings.Split(raw, ":")
		if len(parts) == 3 {
			return parts[1], spotify.ID(parts[2]), nil
		}
		return "", "", fmt.Errorf("invalid spotify URI")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	if u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com" {
		return "", "", fmt.Errorf("not a spotify URL")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("invalid spotify URL path")
	}
	switch parts[0] {
	case "album", "playlist":
		return parts[0], spotify.ID(parts[1]), nil
	}
	return "", "", fmt.Errorf("unsupported spotify type: %s", parts[0])
}

func firstArtist(artists []spotify.SimpleArtist) string {
	if len(artists) > 0 {
		return artists[0].Name
	}
	return ""
}

func (c *Client) GetPlaylist(ctx context.Context, id spotify.ID) ([]Track, PlaylistMeta, error) {
	pl, err := c.raw.GetPlaylist(ctx, id)
	if err != nil {
		return nil, PlaylistMeta{}, err
	}
	page, err := c.raw.GetPlaylistItems(ctx, id)
	if err != nil {
		return nil, PlaylistMeta{}, err
	}
	out := make([]Track, 0, page.Total)
	add := func(items []spotify.PlaylistItem) {
		for _, it := range items {
			if t := it.Track.Track; t != nil {
				out = append(out, Track{Name: t.Name, Artist: firstArtist(t.Artists)})
			}
		}
	}
	add(page.Items)
	for page.Next != "" {
		if err := c.raw.NextPage(ctx, page); err != nil {
			break
		}
		add(page.Items)
	}
	meta := PlaylistMeta{Title: pl.Name, Source: pl.ExternalURLs["spotify"], Thumbnail: firstImage(pl.Images)}
	return out, meta, nil
}

func (c *Client) GetAlbum(ctx context.Context, id spotify.ID) ([]Track, PlaylistMeta, error) {
	alb, err := c.raw.GetAlbum(ctx, id)
	if err != nil {
		return nil, PlaylistMeta{}, err
	}
	page, err := c.raw.GetAlbumTracks(ctx, id)
	if err != nil {
		return nil, PlaylistMeta{}, err
	}
	out := make([]Track, 0, page.Total)
	add := func(items []spotify.SimpleTrack) {
		for _, t := range items {
			out = append(out, Track{Name: t.Name, Artist: firstArtist(t.Artists)})
		}
	}
	add(page.Tracks)
	for page.Next != "" {
		if err := c.raw.NextPage(ctx, page); err != nil {
			break
		}
		add(page.Tracks)
	}
	meta := PlaylistMeta{Title: alb.Name, Source: alb.ExternalURLs["spotify"], Thumbnail: firstImage(alb.Images)}
	return out, meta, nil
}
