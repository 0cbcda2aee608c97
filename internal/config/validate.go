package config

import (
	"fmt"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Validate checks the settings that cannot be corrected silently.
func (c *Config) Validate() error {
	switch c.Graphics.Backend {
	case "opengl", "headless":
	default:
		return fmt.Errorf("%w: graphics backend %q", fault.ErrUnsupported, c.Graphics.Backend)
	}
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", fault.ErrIllegalArgument, c.Graphics.Width, c.Graphics.Height)
	}
	if c.Graphics.ScreenWidth <= 0 || c.Graphics.ScreenHeight <= 0 {
		return fmt.Errorf("%w: screen size %dx%d", fault.ErrIllegalArgument, c.Graphics.ScreenWidth, c.Graphics.ScreenHeight)
	}
	if c.Game.ThemeVariantChance < 0 {
		return fmt.Errorf("%w: theme variant chance %d", fault.ErrIllegalArgument, c.Game.ThemeVariantChance)
	}
	for name, v := range map[string]float64{
		"master": c.Audio.MasterVolume,
		"music":  c.Audio.MusicVolume,
		"sfx":    c.Audio.SFXVolume,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s volume %v outside [0, 1]", fault.ErrIllegalArgument, name, v)
		}
	}
	return nil
}
