// Package main is the acrd daemon entrypoint: it wires every component
// from SPEC_FULL.md together and serves the HTTP/WebSocket surface until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/audiocontrol/acrd/internal/alog"
	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/audiocontrol/acrd/internal/cache"
	"github.com/audiocontrol/acrd/internal/config"
	"github.com/audiocontrol/acrd/internal/controller"
	"github.com/audiocontrol/acrd/internal/controllers/generic"
	"github.com/audiocontrol/acrd/internal/controllers/librespot"
	"github.com/audiocontrol/acrd/internal/controllers/mpd"
	"github.com/audiocontrol/acrd/internal/controllers/raat"
	"github.com/audiocontrol/acrd/internal/coverart"
	"github.com/audiocontrol/acrd/internal/favourites"
	"github.com/audiocontrol/acrd/internal/httpapi"
	"github.com/audiocontrol/acrd/internal/httpmw"
	"github.com/audiocontrol/acrd/internal/jobs"
	"github.com/audiocontrol/acrd/internal/pipeline"
	"github.com/audiocontrol/acrd/internal/settings"
	"github.com/audiocontrol/acrd/internal/volume"
	"github.com/audiocontrol/acrd/internal/workers"
)

var (
	version   = "0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

// playerSeed describes one controller to register at startup. The daemon
// has no dynamic player-discovery mechanism (spec.md §5.1 names a fixed set
// of controller kinds); which ids/kinds exist is a deployment decision,
// expressed here as a small built-in seed list until a config loader for
// this exists (tracked as an Open Question in DESIGN.md).
type playerSeed struct {
	id          string
	displayName string
	kind        string
}

func defaultPlayerSeeds() []playerSeed {
	return []playerSeed{
		{id: "spotify", displayName: "Spotify Connect", kind: "librespot"},
		{id: "roon", displayName: "Roon", kind: "raat"},
		{id: "mpd", displayName: "MPD", kind: "mpd"},
		{id: "generic", displayName: "Generic Player", kind: "generic"},
	}
}

func newController(seed playerSeed, sink controller.Sink) (controller.Controller, error) {
	switch seed.kind {
	case "librespot":
		return librespot.New(seed.id, seed.displayName, sink), nil
	case "raat":
		return raat.New(seed.id, seed.displayName, sink), nil
	case "mpd":
		return mpd.New(seed.id, seed.displayName, sink), nil
	case "generic":
		return generic.New(seed.id, seed.displayName, sink), nil
	default:
		return nil, fmt.Errorf("unknown controller kind %q for player %q", seed.kind, seed.id)
	}
}

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("acrd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg := config.FromEnv()

	alog.Configure(alog.Config{
		Level:   cfg.LogLevel,
		Output:  os.Stdout,
		Service: "acrd",
		Version: version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		alog.L().Fatal().Err(err).Str("event", "startup.failed").Msg("acrd failed to start")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := alog.WithComponent("main")
	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.ListenAddr).
		Msg("starting acrd")

	st, err := settings.Open(cfg.SettingsPath)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("settings store close failed")
		}
	}()

	disk, err := cache.OpenBadgerDiskStore(cfg.CacheDiskRoot)
	if err != nil {
		return fmt.Errorf("open disk cache at %s: %w", cfg.CacheDiskRoot, err)
	}
	c := cache.New(cfg.CacheMemoryLimitBytes, disk)

	jr := jobs.New(cfg.BackgroundJobIdle)
	defer jr.Close()

	b := bus.New(cfg.EventBusQueueSize)
	pl := pipeline.New(b, cfg.ActivePlayerTTL)

	for _, seed := range defaultPlayerSeeds() {
		sink := pl.NewSink(seed.id)
		ctrl, err := newController(seed, sink)
		if err != nil {
			return err
		}
		pl.Register(ctrl)
		logger.Info().Str("player_id", seed.id).Str("kind", seed.kind).Msg("registered player controller")
	}

	fav := favourites.New(
		favourites.NewLocalProvider(st),
		favourites.NewRemoteProvider("lastfm", false),
	)

	downloader := workers.NewHTTPDownloader()
	ca := coverart.New(
		[]coverart.Provider{coverart.NewArchiveProvider(&http.Client{Timeout: cfg.ProviderTimeout}, true)},
		c, st, jr, downloader,
	)

	vol := volume.New(b, volume.DefaultRange)

	mwConfig := httpmw.StackConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}
	server := httpapi.New(version, pl, b, fav, ca, vol, c, st, jr, mwConfig)

	artistImages := workers.NewArtistImageUpdater(b, pl, ca, jr)
	go artistImages.Run(ctx)

	for _, seed := range defaultPlayerSeeds() {
		if seed.kind != "generic" {
			continue
		}
		fetcher := workers.NewPlaylistFetcher(seed.id, st, c, jr)
		go fetcher.Run(ctx)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown failed, forcing close")
		return httpServer.Close()
	}

	logger.Info().Msg("acrd exited cleanly")
	return nil
}
