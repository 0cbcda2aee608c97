package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Load builds the configuration: defaults, then the config file, then flags.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first config.yaml in the working directory or
// ConfigDir, or "" when there is none.
func findConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		path := filepath.Join(dir, "config.yaml")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user directory titlecard keeps its config in.
func ConfigDir() string {
	const name = "titlecard"
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "TitleCard")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "TitleCard")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, name)
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", name)
	}
}

// filePaths lists the directory-like settings a config file may set. They
// are decoded separately so only values present in the file get resolved.
type filePaths struct {
	Game struct {
		ScreenshotDir *string `yaml:"screenshot_dir"`
	} `yaml:"game"`
	Assets struct {
		Dir *string `yaml:"dir"`
	} `yaml:"assets"`
	Logging struct {
		LogFile *string `yaml:"log_file"`
	} `yaml:"logging"`
}

// loadFromFile merges the YAML file at path into cfg. Unknown keys are an
// error. Relative paths set in the file are taken relative to the file's
// directory, so a config next to its assets works from any working
// directory. assets.manifest stays relative to assets.dir.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", fault.ErrIO, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", fault.ErrIllegalArgument, err)
	}

	var set filePaths
	if err := yaml.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("%w: %v", fault.ErrIllegalArgument, err)
	}
	base := filepath.Dir(path)
	resolve := func(dst *string, v *string) {
		if v != nil && *v != "" && !filepath.IsAbs(*v) {
			*dst = filepath.Join(base, *v)
		}
	}
	resolve(&cfg.Assets.Dir, set.Assets.Dir)
	resolve(&cfg.Game.ScreenshotDir, set.Game.ScreenshotDir)
	resolve(&cfg.Logging.LogFile, set.Logging.LogFile)
	return nil
}
