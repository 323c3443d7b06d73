package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getenvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getenv("DATA_DIR", "./data")

	cfg := &Config{
		DataDir:             dataDir,
		PlaylistsPath:       filepath.Join(dataDir, "playlists.json"),
		MetadataCachePath:   filepath.Join(dataDir, "song_cache.json"),
		StreamCachePath:     filepath.Join(dataDir, "stream_cache.json"),
		HistoryDBPath:       filepath.Join(dataDir, "history.db"),
		HTTPAddr:            getenv("HTTP_ADDR", "127.0.0.1:5001"),
		StreamURLTTL:        getenvDuration("STREAM_URL_TTL", time.Hour),
		SyncTimeout:         getenvDuration("SYNC_TIMEOUT", 45*time.Second),
		PrefetchCount:       getenvInt("PREFETCH_COUNT", 3),
		FuzzyOverlap:        getenvFloat("FUZZY_OVERLAP", 0.8),
		DefaultPlaylistName: getenv("DEFAULT_PLAYLIST_NAME", "My Songs"),
		DefaultVolume:       getenvFloat("DEFAULT_VOLUME", 0.5),
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		YouTubePOToken:      os.Getenv("YOUTUBE_PO_TOKEN"),
		YouTubeCookiesPath:  os.Getenv("YOUTUBE_COOKIES"),
	}

	if cfg.StreamURLTTL <= 0 {
		return nil, ErrConfig("STREAM_URL_TTL must be positive")
	}
	if cfg.FuzzyOverlap <= 0 || cfg.FuzzyOverlap > 1 {
		return nil, ErrConfig("FUZZY_OVERLAP must be in (0, 1]")
	}
	_ = os.MkdirAll(cfg.DataDir, 0o755)
	return cfg, nil
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
