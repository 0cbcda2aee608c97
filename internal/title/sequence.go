package title

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/Faultbox/titlecard/internal/engine/audio"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

type introPhase int

const (
	introSuspense introPhase = iota
	introReveal
	introDone
)

const (
	suspenseWait = 1000 * time.Millisecond
	// The reveal trails the theme slightly to line up with the music.
	revealWait = suspenseWait + 25*time.Millisecond

	flashFadeMs = 2000 // alpha 1 to 0 at 0.0005 per ms

	outroFadeMs  = 1250
	outroFadeEnd = 1.25
)

// intro shows the character from behind, starts the theme, plays the turn
// around and fades the white flash out over the title card.
type intro struct {
	phase    introPhase
	suspense time.Duration

	startedIntro bool
	startedLoop  bool

	flash      *graphics.Sprite
	flashAlpha float32
	flashFade  *gween.Tween
	backdrop   *graphics.Sprite
}

func (in *intro) init(s *State) {
	*in = intro{
		phase:      introSuspense,
		flash:      s.sprites["flash"],
		flashAlpha: 1,
		backdrop:   s.sprites["sky"],
	}
	in.flash.SetAlpha(1)
}

func (in *intro) update(s *State, delta time.Duration, ms float32) {
	if in.phase == introSuspense {
		in.suspense += delta

		if in.suspense >= suspenseWait && !in.startedIntro {
			s.stopSound(s.themeIntro)
			s.playSound(s.themeIntro)
			in.startedIntro = true
		}
		if in.suspense >= revealWait {
			s.bust.appear.Restart()
			s.bust.wag.Restart()
			in.phase = introReveal
		}
	}

	if in.phase == introReveal {
		s.bust.appear.Update(delta)
		if s.bust.appear.Finished() {
			in.flashAlpha = 1
			in.flashFade = gween.New(1, 0, flashFadeMs, ease.Linear)
			in.phase = introDone
		}
	}

	if in.phase == introDone && in.flashFade != nil {
		in.flashAlpha, _ = in.flashFade.Update(ms)
		in.flash.SetAlpha(in.flashAlpha)
	}

	// The loop starts once the intro has played through, so the intro is
	// heard only once.
	if !in.startedLoop && in.startedIntro {
		if s.themeIntro == nil || s.themeIntro.State() != audio.Playing {
			s.stopSound(s.themeLoop)
			if s.themeLoop != nil {
				s.themeLoop.SetLooping(true)
			}
			s.playSound(s.themeLoop)
			in.startedLoop = true
		}
	}
}

func (in *intro) render(s *State) error {
	if err := s.bust.render(bustSuspense); err != nil {
		return err
	}
	if err := s.target.DrawSpriteAtOffset(in.backdrop); err != nil {
		return err
	}
	return s.target.DrawScene(s.bust.scene, 0, 0, 0)
}

// outro fades to black and fades the theme out.
type outro struct {
	black      *graphics.Sprite
	inProgress bool
	progress   float32
	fade       *gween.Tween
	finished   bool
}

func (o *outro) init(s *State) {
	*o = outro{black: s.sprites["black"]}
}

func (o *outro) start() {
	o.inProgress = true
	o.fade = gween.New(0, outroFadeEnd, outroFadeMs, ease.Linear)
}

func (o *outro) update(s *State, ms float32) {
	if o.inProgress {
		var done bool
		o.progress, done = o.fade.Update(ms)
		o.black.SetAlpha(o.progress)

		volume := float64(1 - o.progress)
		if s.themeIntro != nil {
			s.themeIntro.SetVolume(volume)
		}
		if s.themeLoop != nil {
			s.themeLoop.SetVolume(volume)
		}
		if done {
			o.progress = outroFadeEnd
		}
	}
	if o.progress >= outroFadeEnd {
		o.finished = true
	}
}

func (o *outro) render(target *graphics.Scene) error {
	if !o.inProgress {
		return nil
	}
	return target.DrawSpriteAtOffset(o.black)
}
