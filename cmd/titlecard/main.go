// Package main is the entry point for the title card demo.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/assets"
	"github.com/Faultbox/titlecard/internal/config"
	"github.com/Faultbox/titlecard/internal/engine/audio"
	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/backend/headless"
	"github.com/Faultbox/titlecard/internal/engine/backend/opengl"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
	"github.com/Faultbox/titlecard/internal/engine/input"
	"github.com/Faultbox/titlecard/internal/game"
	"github.com/Faultbox/titlecard/internal/logger"
	"github.com/Faultbox/titlecard/internal/title"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if path := config.SavePath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Initialize logger
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	log.Info("=== Title Card ===")
	log.Sugar().Debugf("Config: %+v", cfg)

	if err := run(cfg, log); err != nil {
		log.Error("game error", zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}

	log.Info("game closed normally")
	logger.Sync(log)
}

func run(cfg *config.Config, log *zap.Logger) (err error) {
	b, err := newBackend(cfg, log)
	if err != nil {
		return err
	}
	gfx := graphics.NewContext(b, log)
	defer func() { err = multierr.Append(err, gfx.Close()) }()

	// The primary window stays hidden until the title screen is ready.
	if _, err := gfx.CreateWindow(graphics.WindowConfig{
		Title:  cfg.Game.Title,
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
		VSync:  cfg.Graphics.VSync,
		Hidden: true,
	}); err != nil {
		return err
	}

	sounds := audio.New(newMixer(cfg, log), log)
	defer func() { err = multierr.Append(err, sounds.Close()) }()
	sounds.SetMasterVolume(cfg.Audio.MasterVolume)
	sounds.SetCategoryVolume(audio.Music, cfg.Audio.MusicVolume)
	sounds.SetCategoryVolume(audio.Effect, cfg.Audio.SFXVolume)
	sounds.SetMuted(cfg.Audio.Muted)

	am := assets.NewManager(cfg.Assets.Dir, log)
	defer am.Close()

	var mf *assets.Manifest
	if cfg.Assets.Manifest != "" {
		mf, err = am.LoadManifest(cfg.Assets.Manifest)
		switch {
		case errors.Is(err, assets.ErrNotFound):
			log.Debug("no asset manifest, using built-in list", zap.String("manifest", cfg.Assets.Manifest))
			mf = nil
		case err != nil:
			return err
		}
	}

	if cfg.Assets.Watch {
		w, err := am.Watch(func(p string) {
			log.Info("asset changed on disk, restart to see it", zap.String("path", p))
		})
		if err != nil {
			return fmt.Errorf("watching assets: %w", err)
		}
		defer w.Close()
	}

	state := title.NewState(title.Options{
		Assets:        am,
		Sounds:        sounds,
		Manifest:      mf,
		VariantChance: cfg.Game.ThemeVariantChance,
		Log:           log,
	})
	app := title.NewApp(title.AppConfig{
		Title:         cfg.Game.Title,
		Width:         cfg.Graphics.Width,
		Height:        cfg.Graphics.Height,
		Fullscreen:    cfg.Graphics.Fullscreen,
		ScreenWidth:   cfg.Graphics.ScreenWidth,
		ScreenHeight:  cfg.Graphics.ScreenHeight,
		ShowFPS:       cfg.Game.ShowFPS,
		ScreenshotDir: cfg.Game.ScreenshotDir,
	}, state)

	g, err := game.New(app, game.Config{Graphics: gfx, Log: log})
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, g.Destroy()) }()

	// Headless runs press Enter straight away so the outro plays and the
	// game ends on its own.
	if h, ok := b.(*headless.Backend); ok {
		h.Push(input.Event{Type: input.EventKeyDown, Key: input.KeyEnter})
	}

	return g.Run()
}

func newBackend(cfg *config.Config, log *zap.Logger) (backend.Backend, error) {
	switch cfg.Graphics.Backend {
	case "headless":
		return headless.New(log), nil
	default:
		return opengl.New(opengl.Config{VSync: cfg.Graphics.VSync}, log)
	}
}

// newMixer opens the speaker, falling back to silence when there is no
// audio device or no display.
func newMixer(cfg *config.Config, log *zap.Logger) audio.Mixer {
	if cfg.Graphics.Backend == "headless" {
		return audio.NewSilentMixer(audio.DefaultSampleRate)
	}
	m, err := audio.NewSpeakerMixer(audio.DefaultSampleRate, 100*time.Millisecond)
	if err != nil {
		log.Warn("audio unavailable, continuing without sound", zap.Error(err))
		return audio.NewSilentMixer(audio.DefaultSampleRate)
	}
	return m
}
