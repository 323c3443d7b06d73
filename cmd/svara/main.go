package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Swapnanilb/Svara/internal/audio"
	"github.com/Swapnanilb/Svara/internal/cache"
	"github.com/Swapnanilb/Svara/internal/config"
	"github.com/Swapnanilb/Svara/internal/events"
	"github.com/Swapnanilb/Svara/internal/history"
	"github.com/Swapnanilb/Svara/internal/httpd"
	"github.com/Swapnanilb/Svara/internal/library"
	"github.com/Swapnanilb/Svara/internal/player"
	"github.com/Swapnanilb/Svara/internal/reconcile"
	"github.com/Swapnanilb/Svara/internal/resolver"
	"github.com/Swapnanilb/Svara/internal/spotify"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	store, err := library.OpenStore(cfg.PlaylistsPath)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := store.EnsureDefault(cfg.DefaultPlaylistName); err != nil {
		log.Fatal(err)
	}

	c := cache.New(cfg.MetadataCachePath, cfg.StreamCachePath, cfg.StreamURLTTL)
	bus := events.NewBus()
	res := resolver.NewYTDLP(cfg)

	var sp *spotify.Client
	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		sp, err = spotify.NewClientCredentials(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		if err != nil {
			log.Fatal(err)
		}
	}
	rec := reconcile.New(cfg, store, c, res, bus, sp)

	db, err := history.OpenDB(cfg.HistoryDBPath)
	if err != nil {
		log.Fatal(err)
	}
	hist := history.NewStore(db)
	defer hist.Close()

	engine := audio.NewEngine()
	defer engine.Close()

	p := player.New(cfg, store, c, res, bus, engine, hist)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go p.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpd.NewServer(cfg, store, c, p, rec, hist, bus).Router(),
	}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	slog.Info("svara listening", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
