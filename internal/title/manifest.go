package title

import (
	"time"

	"github.com/Faultbox/titlecard/internal/assets"
)

// Logical screen size the title is laid out for.
const (
	ScreenWidth  = 256
	ScreenHeight = 224
)

const (
	object = "title"

	bustAppearFrames   = 5
	bustAppearDuration = 250 * time.Millisecond
	fingerWagFrames    = 4
	fingerWagDuration  = 150 * time.Millisecond
)

var sprites = []string{
	"banner",
	"bg",
	"black",
	"c_sega_1993",
	"clouds",
	"flash",
	"lake",
	"little_planet",
	"medal",
	"press_enter",
	"press_start",
	"sky",
	"sonic_bust",
	"sonic_bust_raised_eyebrow",
	"tm",
}

// Theme names the intro and loop tracks of a title theme.
type Theme struct {
	Intro string
	Loop  string
}

var (
	theme        = Theme{Intro: "title_theme_intro", Loop: "title_theme_loop"}
	themeVariant = Theme{Intro: "title_theme_ym2612_intro", Loop: "title_theme_ym2612_loop"}
)

// Manifest returns the assets the title screen loads. Only the chosen
// theme is included.
func Manifest(variant bool) *assets.Manifest {
	t := theme
	if variant {
		t = themeVariant
	}
	return &assets.Manifest{
		Sprites: map[string][]string{object: sprites},
		Animations: map[string]map[string]assets.AnimationSpec{
			object: {
				"sonic_bust_appear": {Frames: bustAppearFrames, Duration: bustAppearDuration},
				"sonic_finger_wag":  {Frames: fingerWagFrames, Duration: fingerWagDuration},
			},
		},
		Sounds: assets.SoundSpecs{
			OST: map[string][]string{object: {t.Intro, t.Loop}},
			SFX: map[string][]string{"menu": {"select"}},
		},
	}
}
