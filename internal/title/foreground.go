package title

import (
	"time"

	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

const (
	promptBlink = 500 * time.Millisecond
	fastBlink   = 5 * time.Millisecond
)

type prompt struct {
	sprite  *graphics.Sprite
	timer   time.Duration
	display time.Duration
	show    bool
}

// foreground is the title card laid over the sky.
type foreground struct {
	bg        *graphics.Sprite
	medal     *graphics.Sprite
	banner    *graphics.Sprite
	tm        *graphics.Sprite
	copyright *graphics.Sprite
	flash     *graphics.Sprite
	prompt    prompt
}

func size(s *graphics.Sprite) (float32, float32) {
	w, h := s.Size()
	return float32(w), float32(h)
}

func (f *foreground) init(s *State) {
	*f = foreground{
		bg:        s.sprites["bg"],
		medal:     s.sprites["medal"],
		banner:    s.sprites["banner"],
		tm:        s.sprites["tm"],
		copyright: s.sprites["c_sega_1993"],
		flash:     s.sprites["flash"],
		prompt: prompt{
			sprite:  s.sprites["press_enter"],
			display: promptBlink,
			show:    true,
		},
	}

	// Medal centered, banner centered across its bottom edge.
	medalW, medalH := size(f.medal)
	f.medal.SetOffset((ScreenWidth-medalW)/2, (ScreenHeight-medalH)/2, 1)
	medalY := f.medal.Offset().Y()

	bannerW, bannerH := size(f.banner)
	f.banner.SetOffset((ScreenWidth-bannerW)/2, medalY+medalH-bannerH+19, 1)
	banner := f.banner.Offset()

	tmW, _ := size(f.tm)
	f.tm.SetOffset(banner.X()+bannerW-tmW, banner.Y(), 1)

	promptW, _ := size(f.prompt.sprite)
	f.prompt.sprite.SetOffset((ScreenWidth-promptW)/2, medalY+medalH+6, 1)

	copyW, copyH := size(f.copyright)
	f.copyright.SetOffset((ScreenWidth-copyW)/2, ScreenHeight-copyH-5, 1)
}

// update blinks the prompt. A display time of zero hides it.
func (f *foreground) update(delta time.Duration) {
	p := &f.prompt
	p.timer += delta
	if p.display <= 0 {
		p.show = false
		return
	}
	if p.timer >= p.display {
		p.timer -= p.display
		p.show = !p.show
	}
}

func (f *foreground) render(s *State) error {
	if err := s.bust.render(bustNatural); err != nil {
		return err
	}

	target := s.target
	for _, sprite := range []*graphics.Sprite{f.bg, f.medal} {
		if err := target.DrawSpriteAtOffset(sprite); err != nil {
			return err
		}
	}
	if err := target.DrawScene(s.bust.scene, 0, 0, 0); err != nil {
		return err
	}
	for _, sprite := range []*graphics.Sprite{f.banner, f.tm, f.copyright} {
		if err := target.DrawSpriteAtOffset(sprite); err != nil {
			return err
		}
	}
	if f.prompt.show {
		if err := target.DrawSpriteAtOffset(f.prompt.sprite); err != nil {
			return err
		}
	}
	return target.DrawSpriteAtOffset(f.flash)
}
