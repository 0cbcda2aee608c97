package title

import (
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/titlecard/internal/engine/anim"
	"github.com/Faultbox/titlecard/internal/engine/graphics"
)

// The bust image is wider than what the game shows, so the whole bust scene
// is squeezed and placed by hand.
const (
	bustX      = 92
	bustY      = 20
	bustXScale = 0.75
	eyebrowX   = 4
	eyebrowY   = 24
)

var wagOffsets = [fingerWagFrames][2]float32{
	{59, 49},
	{59, 43},
	{58, 43},
	{49, 43},
}

// bust renders the character into its own scene so it can be scaled as one.
type bust struct {
	appear  *anim.Animation
	wag     *anim.Animation
	sprite  *graphics.Sprite
	eyebrow *graphics.Sprite

	wags   int
	wagged bool

	proj  *graphics.Projection
	scene *graphics.Scene
}

type bustMode int

const (
	bustSuspense bustMode = iota
	bustNatural
)

func (b *bust) init(ctx *graphics.Context, s *State) error {
	*b = bust{
		appear:  s.appear,
		wag:     s.wag,
		sprite:  s.sprites["sonic_bust"],
		eyebrow: s.sprites["sonic_bust_raised_eyebrow"],
	}

	for i := 0; i < b.wag.Len() && i < len(wagOffsets); i++ {
		frame, err := b.wag.Sprite(i)
		if err != nil {
			return err
		}
		frame.SetOffset(wagOffsets[i][0], wagOffsets[i][1], 0)
	}
	b.eyebrow.SetOffset(eyebrowX, eyebrowY, 0)

	// Both animations run once so the intro can tell when they end.
	b.appear.SetLooping(false, false)
	b.wag.SetLooping(false, false)

	// The scene fits the largest appear frame.
	var width, height int
	for i := range b.appear.Len() {
		frame, err := b.appear.Sprite(i)
		if err != nil {
			return err
		}
		w, h := frame.Size()
		width = max(width, w)
		height = max(height, h)
	}

	proj, err := graphics.NewScreenOrtho(float32(width), float32(height), 100)
	if err != nil {
		return err
	}
	scene, err := ctx.CreateScene(proj, width, height)
	if err != nil {
		return multierr.Append(err, proj.Destroy())
	}
	b.proj, b.scene = proj, scene

	sprite := scene.Sprite()
	sprite.SetScale(bustXScale, 1, 1)
	sprite.SetOffset(bustX, bustY, 1)
	return nil
}

func (b *bust) deinit() error {
	var err error
	if b.scene != nil {
		err = b.scene.Destroy()
	}
	if b.proj != nil {
		err = multierr.Append(err, b.proj.Destroy())
	}
	*b = bust{}
	return err
}

// update wags the finger forward then back, twice, once the flash is gone.
func (b *bust) update(s *State, delta time.Duration) {
	if s.intro.flashAlpha <= 0 && !b.wagged {
		b.wags += 2
		b.wagged = true
	}
	if b.wags <= 0 {
		return
	}

	playing := !b.wag.Finished()
	backwards := b.wag.Backwards()

	if !playing && !backwards {
		b.wag.PlayBackwards(true)
		b.wag.Restart()
		playing = true
	}
	if playing {
		b.wag.Update(delta)
	}
	if !playing && backwards {
		b.wag.PlayBackwards(false)
		b.wag.Restart()
		b.wags--
	}
}

func (b *bust) render(mode bustMode) error {
	if err := b.scene.Clear(); err != nil {
		return err
	}
	if mode == bustSuspense {
		return b.appear.DrawAtOffset(b.scene)
	}

	if err := b.scene.DrawSpriteAtOffset(b.sprite); err != nil {
		return err
	}
	if b.wags > 0 {
		if err := b.scene.DrawSpriteAtOffset(b.eyebrow); err != nil {
			return err
		}
	}
	return b.wag.DrawAtOffset(b.scene)
}
