// Package config handles game configuration loading and management.
package config

// Config holds all game settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Audio    AudioConfig    `yaml:"audio"`
	Game     GameConfig     `yaml:"game"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Backend      string `yaml:"backend"` // "opengl" or "headless"
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	ScreenWidth  int    `yaml:"screen_width"`  // Logical resolution
	ScreenHeight int    `yaml:"screen_height"` // Logical resolution
	Fullscreen   bool   `yaml:"fullscreen"`
	VSync        bool   `yaml:"vsync"`
}

// AudioConfig holds audio settings.
type AudioConfig struct {
	MasterVolume float64 `yaml:"master_volume"`
	MusicVolume  float64 `yaml:"music_volume"`
	SFXVolume    float64 `yaml:"sfx_volume"`
	Muted        bool    `yaml:"muted"`
}

// GameConfig holds gameplay settings.
type GameConfig struct {
	Title   string `yaml:"title"`
	ShowFPS bool   `yaml:"show_fps"`
	// ThemeVariantChance is the 1-in-N chance of the alternate title theme; 0 disables it.
	ThemeVariantChance int `yaml:"theme_variant_chance"`
	// ScreenshotDir receives F12 screenshots; empty disables them.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// AssetsConfig holds asset locations.
type AssetsConfig struct {
	Dir      string `yaml:"dir"`
	Manifest string `yaml:"manifest"` // Relative to Dir
	Watch    bool   `yaml:"watch"`    // Invalidate cached files on change
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Backend:      "opengl",
			Width:        1024,
			Height:       768,
			ScreenWidth:  256,
			ScreenHeight: 224,
			Fullscreen:   false,
			VSync:        true,
		},
		Audio: AudioConfig{
			MasterVolume: 1.0,
			MusicVolume:  0.8,
			SFXVolume:    1.0,
			Muted:        false,
		},
		Game: GameConfig{
			Title:              "Title Card",
			ShowFPS:            false,
			ThemeVariantChance: 10,
			ScreenshotDir:      "screenshots",
		},
		Assets: AssetsConfig{
			Dir:      "assets",
			Manifest: "manifest.yaml",
			Watch:    false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
