package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"cuegrid/internal/api"
	"cuegrid/internal/cache"
	"cuegrid/internal/config"
	"cuegrid/internal/events"
	"cuegrid/internal/media"
	"cuegrid/internal/output"
	"cuegrid/internal/playback"
	"cuegrid/internal/server"
	"cuegrid/internal/slots"
	"cuegrid/internal/storage"
	"cuegrid/internal/transition"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", api.Version).
		Msg("starting cuegrid controller")

	// Slot grid and media helpers
	grid := slots.NewGrid()
	prober := media.NewProber(logger)
	if prober.IsAvailable() {
		logger.Info().Msg("ffprobe available - duration probing enabled")
	} else {
		logger.Warn().Msg("ffprobe not found - asset durations unavailable")
	}

	// Outputs: primary preview plus the mirrored audience display
	primary := output.NewSimPort("primary", logger)
	visual := output.NewMirror(primary, logger)
	visual.SetStretch(output.ParseStretchMode(cfg.Outputs.Stretch))
	visual.SetDriftPolicy(cfg.Outputs.DriftThreshold, cfg.Outputs.DriftMinInterval)
	if cfg.Outputs.Secondary {
		visual.AttachSecondary(output.NewSimPort("secondary", logger))
		logger.Info().Str("stretch", cfg.Outputs.Stretch).Msg("secondary output attached")
	}

	newAudio := func() output.Port {
		return output.NewSimPort("audio", logger)
	}

	// Event bus feeding the SSE endpoint
	bus := events.NewBus(logger)

	// Playback engine
	engine := playback.NewEngine(
		playback.Config{
			Transition:         transition.ParseKind(cfg.Playback.Transition),
			TransitionDuration: cfg.Playback.TransitionDuration,
			AutoAdvance:        cfg.Playback.AutoAdvance,
			AutoAdvanceDelay:   cfg.Playback.AutoAdvanceDelay,
			ResumeCapacity:     cfg.Playback.ResumeCapacity,
		},
		grid,
		visual,
		newAudio,
		transition.NewEngine(logger),
		bus,
		logger,
	)

	// Resume-position persistence
	store, err := storage.NewResumeStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open resume store")
	}
	defer store.Close()
	engine.SetResumeStore(store)

	// Initial layout
	if len(cfg.Layout) > 0 {
		entries := make([]slots.Entry, 0, len(cfg.Layout))
		for _, e := range cfg.Layout {
			entries = append(entries, slots.Entry{
				Column: e.Column,
				Row:    e.Row,
				Path:   e.Path,
				Text:   e.Text,
			})
		}
		slots.NewLoader(grid, prober, logger).Load(entries)
	}

	// Preview generation
	previews := media.NewPreviewGenerator(cfg.Previews.OutputDir, logger)
	if previews.IsAvailable() {
		logger.Info().Msg("ffmpeg available - slot previews enabled")
	} else {
		logger.Warn().Msg("ffmpeg not found - slot previews disabled")
	}

	// Control API
	handler := api.NewHandler(engine, grid, bus, prober, logger)
	handler.SetPreviews(previews, cache.NewLRU[[]byte](cfg.Previews.CacheCapacity))

	srv := server.New(cfg, logger, handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic drift correction between the two outputs
	if cfg.Outputs.Secondary && cfg.Outputs.DriftTick > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Outputs.DriftTick)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					engine.CorrectDrift()
				}
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("received shutdown signal")
		engine.StopAll()
		cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	logger.Info().Msg("controller stopped")
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
