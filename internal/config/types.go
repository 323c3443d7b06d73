package config

import "time"

type Config struct {
	DataDir             string
	PlaylistsPath       string
	MetadataCachePath   string
	StreamCachePath     string
	HistoryDBPath       string
	HTTPAddr            string
	StreamURLTTL        time.Duration
	SyncTimeout         time.Duration
	PrefetchCount       int
	FuzzyOverlap        float64
	DefaultPlaylistName string
	DefaultVolume       float64
	SpotifyClientID     string
	SpotifyClientSecret string
	YouTubePOToken      string
	YouTubeCookiesPath  string
}
