// Package title implements the title screen: an intro reveal over a blank
// sky, the animated title card with its scrolling backdrop, and an outro
// fade once the player presses Enter.
package title

import (
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/assets"
	"github.com/Faultbox/titlecard/internal/engine/anim"
	"github.com/Faultbox/titlecard/internal/engine/audio"
	"github.com/Faultbox/titlecard/internal/engine/clock"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
	"github.com/Faultbox/titlecard/internal/engine/input"
	"github.com/Faultbox/titlecard/internal/game"
)

// Options configures the title state.
type Options struct {
	Assets *assets.Manager
	// Sounds plays the theme and menu effects. Sounds are skipped when nil.
	Sounds *audio.Manager
	// Manifest overrides the built-in asset list.
	Manifest *assets.Manifest
	// VariantChance is the 1-in-N chance of the alternate theme. Zero or
	// less disables it.
	VariantChance int
	Rand          *rand.Rand
	Log           *zap.Logger
}

// State is the title screen game state. Enter expects the *graphics.Scene
// to draw into.
type State struct {
	opts Options
	log  *zap.Logger

	lib     *assets.Library
	variant bool
	sprites map[string]*graphics.Sprite
	appear  *anim.Animation
	wag     *anim.Animation

	themeIntro *audio.Sound
	themeLoop  *audio.Sound
	selectSFX  *audio.Sound

	target *graphics.Scene
	bust   bust
	intro  intro
	outro  outro
	sky    sky
	fg     foreground
}

// NewState creates a title state. Assets load when the state is added to
// a game.
func NewState(opts Options) *State {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	return &State{opts: opts, log: opts.Log.Named("title")}
}

// Variant reports whether the alternate theme was picked.
func (s *State) Variant() bool { return s.variant }

// Finished reports whether the outro has completed.
func (s *State) Finished() bool { return s.outro.finished }

// Init loads the title assets and rolls the theme variant.
func (s *State) Init(g *game.Game) error {
	if s.opts.Assets == nil {
		return fmt.Errorf("%w: title state needs an asset manager", fault.ErrIllegalArgument)
	}
	if n := s.opts.VariantChance; n > 0 {
		s.variant = s.opts.Rand.IntN(n) == 0
	}

	mf := s.opts.Manifest
	if mf == nil {
		mf = Manifest(s.variant)
	}
	lib, err := s.opts.Assets.LoadLibrary(g.Graphics(), s.opts.Sounds, mf)
	if err != nil {
		return fmt.Errorf("loading title assets: %w", err)
	}
	s.lib = lib

	s.sprites = make(map[string]*graphics.Sprite, len(sprites))
	for _, name := range sprites {
		sprite := lib.Sprite(object, name)
		if sprite == nil {
			err = multierr.Append(err, fmt.Errorf("%w: sprite %s", assets.ErrNotFound, assets.Key(object, name)))
			continue
		}
		s.sprites[name] = sprite
	}
	s.appear = lib.Animation(object, "sonic_bust_appear")
	s.wag = lib.Animation(object, "sonic_finger_wag")
	if s.appear == nil || s.wag == nil {
		err = multierr.Append(err, fmt.Errorf("%w: title animations", assets.ErrNotFound))
	}
	if err != nil {
		return multierr.Append(err, s.Deinit(g))
	}

	t := theme
	if s.variant {
		t = themeVariant
	}
	s.themeIntro = lib.Sound(object, t.Intro)
	s.themeLoop = lib.Sound(object, t.Loop)
	if s.variant && (s.themeIntro == nil || s.themeLoop == nil) {
		s.themeIntro = lib.Sound(object, theme.Intro)
		s.themeLoop = lib.Sound(object, theme.Loop)
	}
	s.selectSFX = lib.Sound("menu", "select")

	s.log.Info("title state initialized", zap.Bool("variant", s.variant))
	return nil
}

// Deinit releases everything Init loaded.
func (s *State) Deinit(g *game.Game) error {
	if s.lib == nil {
		return nil
	}
	err := s.lib.Close()
	s.lib = nil
	s.sprites = nil
	s.appear, s.wag = nil, nil
	s.themeIntro, s.themeLoop, s.selectSFX = nil, nil, nil
	return err
}

// Enter starts the title sequence. args must be the *graphics.Scene to
// render into.
func (s *State) Enter(g *game.Game, args any) error {
	target, ok := args.(*graphics.Scene)
	if !ok || target == nil {
		return fmt.Errorf("%w: title state needs a target scene, got %T", fault.ErrIllegalArgument, args)
	}
	s.target = target

	if err := s.bust.init(g.Graphics(), s); err != nil {
		return err
	}
	s.intro.init(s)
	s.outro.init(s)
	if err := s.sky.init(g.Graphics(), s); err != nil {
		return multierr.Append(err, s.bust.deinit())
	}
	s.fg.init(s)
	return nil
}

// Exit stops the theme and frees the bust and sky scenes.
func (s *State) Exit(g *game.Game) error {
	s.stopSound(s.themeIntro)
	s.stopSound(s.themeLoop)
	err := multierr.Combine(s.bust.deinit(), s.sky.deinit())
	s.intro = intro{}
	s.outro = outro{}
	s.fg = foreground{}
	s.target = nil
	return err
}

// Update advances the sequence and starts the outro on Enter.
func (s *State) Update(g *game.Game, delta time.Duration) error {
	ms := float32(clock.In(delta, clock.Millis))

	s.bust.update(s, delta)
	s.intro.update(s, delta, ms)
	s.outro.update(s, ms)
	s.fg.update(delta)
	s.sky.update(ms)

	if g.Input().IsKeyJustPressed(input.KeyEnter) && !s.outro.inProgress {
		s.outro.start()
		s.fg.prompt.display = fastBlink
		s.playSound(s.selectSFX)
	}

	if s.outro.finished {
		s.log.Info("title screen finished")
		err := g.ExitState()
		g.Stop()
		return err
	}
	return nil
}

// Render draws the current phase into the target scene.
func (s *State) Render(g *game.Game) error {
	if s.intro.phase != introDone {
		return s.intro.render(s)
	}
	now := clock.In(g.Clock().Now(), clock.Secs)
	return multierr.Combine(
		s.sky.render(s.target, now),
		s.fg.render(s),
		s.outro.render(s.target),
	)
}

func (s *State) playSound(snd *audio.Sound) {
	if snd == nil {
		return
	}
	if err := snd.Play(); err != nil {
		s.log.Warn("playing sound", zap.String("sound", snd.Name()), zap.Error(err))
	}
}

func (s *State) stopSound(snd *audio.Sound) {
	if snd != nil {
		snd.Stop()
	}
}
