package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagAssets     = flag.String("assets", "", "Asset directory")
	flagHeadless   = flag.Bool("headless", false, "Run without a display")
	flagWatch      = flag.Bool("watch", false, "Drop cached asset files when they change on disk; already loaded sprites and sounds are kept until restart")
	flagSaveConfig = flag.String("save-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Game.ShowFPS = true
	}
	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagAssets != "" {
		cfg.Assets.Dir = *flagAssets
	}
	if *flagHeadless {
		cfg.Graphics.Backend = "headless"
	}
	if *flagWatch {
		cfg.Assets.Watch = true
	}
}
