package graphics

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Sprite is a drawable image plus the transform applied when drawing it.
type Sprite struct {
	ctx     *Context
	texture backend.Texture

	width  int
	height int

	section  backend.Rect
	offset   mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3
	color    mgl32.Vec4

	flipH bool
	flipV bool

	// scene is set when the sprite wraps a scene's render target.
	scene    *Scene
	unloaded bool
}

func newSprite(ctx *Context, tex backend.Texture, width, height int) *Sprite {
	return &Sprite{
		ctx:     ctx,
		texture: tex,
		width:   width,
		height:  height,
		section: backend.Rect{Width: width, Height: height},
		scale:   mgl32.Vec3{1, 1, 1},
		color:   mgl32.Vec4{1, 1, 1, 1},
	}
}

// LoadSpritePixels creates a sprite from raw pixels with 3 (RGB) or 4 (RGBA)
// channels, rows top to bottom.
func (c *Context) LoadSpritePixels(width, height, channels int, pixels []byte) (*Sprite, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: sprite size %dx%d", fault.ErrIllegalArgument, width, height)
	}
	if channels != 3 && channels != 4 {
		return nil, fmt.Errorf("%w: %d channel images", fault.ErrUnsupported, channels)
	}
	if len(pixels) != width*height*channels {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%dx%d image",
			fault.ErrIllegalArgument, len(pixels), width, height, channels)
	}

	rgba := pixels
	if channels == 3 {
		rgba = make([]byte, width*height*4)
		for i, j := 0, 0; i < len(pixels); i, j = i+3, j+4 {
			rgba[j+0] = pixels[i+0]
			rgba[j+1] = pixels[i+1]
			rgba[j+2] = pixels[i+2]
			rgba[j+3] = 0xff
		}
	}

	return c.loadSprite(width, height, rgba)
}

// LoadSpriteImage creates a sprite from a decoded image.
func (c *Context) LoadSpriteImage(img image.Image) (*Sprite, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", fault.ErrIllegalArgument)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != 4*b.Dx() {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	return c.loadSprite(b.Dx(), b.Dy(), nrgba.Pix)
}

func (c *Context) loadSprite(width, height int, rgba []byte) (*Sprite, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	tex, err := c.backend.LoadTexture(width, height, rgba)
	if err != nil {
		return nil, fmt.Errorf("%w: load texture: %w", fault.ErrPlatform, err)
	}
	return newSprite(c, tex, width, height), nil
}

// Unload releases the sprite's texture. Sprites that belong to a scene are
// released by destroying the scene instead.
func (s *Sprite) Unload() error {
	if s.scene != nil {
		return fmt.Errorf("%w: cannot unload the sprite of a scene", fault.ErrIllegalArgument)
	}
	return s.release()
}

func (s *Sprite) release() error {
	if s.unloaded {
		return fmt.Errorf("%w: sprite already unloaded", fault.ErrIllegalState)
	}
	s.unloaded = true
	if s.scene != nil {
		// The texture belongs to the scene's target.
		return nil
	}
	if err := s.ctx.backend.UnloadTexture(s.texture); err != nil {
		return fmt.Errorf("%w: unload texture: %w", fault.ErrPlatform, err)
	}
	return nil
}

// Loaded reports whether the sprite can still be drawn.
func (s *Sprite) Loaded() bool {
	return !s.unloaded
}

// Scene returns the scene the sprite wraps, or nil for image sprites.
func (s *Sprite) Scene() *Scene {
	return s.scene
}

// Size returns the dimensions of the backing image.
func (s *Sprite) Size() (width, height int) {
	return s.width, s.height
}

// Section returns the drawn part of the image.
func (s *Sprite) Section() backend.Rect {
	return s.section
}

// UseSection restricts drawing to part of the image.
func (s *Sprite) UseSection(x, y, width, height int) error {
	if x < 0 || y < 0 || width <= 0 || height <= 0 {
		return fmt.Errorf("%w: section %dx%d at %d,%d", fault.ErrIllegalArgument, width, height, x, y)
	}
	if x+width > s.width || y+height > s.height {
		return fmt.Errorf("%w: section %dx%d at %d,%d exceeds %dx%d sprite",
			fault.ErrOutOfBounds, width, height, x, y, s.width, s.height)
	}
	s.section = backend.Rect{X: x, Y: y, Width: width, Height: height}
	return nil
}

// Flipped returns the flip flags.
func (s *Sprite) Flipped() (horizontally, vertically bool) {
	return s.flipH, s.flipV
}

// FlipHorizontally mirrors the sprite around its vertical axis.
func (s *Sprite) FlipHorizontally(flip bool) { s.flipH = flip }

// FlipVertically mirrors the sprite around its horizontal axis.
func (s *Sprite) FlipVertically(flip bool) { s.flipV = flip }

// Offset returns the offset added to every draw position.
func (s *Sprite) Offset() mgl32.Vec3 {
	return s.offset
}

// SetOffset sets the offset added to every draw position.
func (s *Sprite) SetOffset(x, y, z float32) {
	s.offset = mgl32.Vec3{x, y, z}
}

// MoveOffset adds to the draw offset.
func (s *Sprite) MoveOffset(x, y, z float32) {
	s.offset = s.offset.Add(mgl32.Vec3{x, y, z})
}

// Rotation returns the rotation in degrees, each axis in [0, 360).
func (s *Sprite) Rotation() mgl32.Vec3 {
	return s.rotation
}

// RotateTo sets the rotation in degrees.
func (s *Sprite) RotateTo(x, y, z float32) {
	s.rotation = mgl32.Vec3{wrapDegrees(x), wrapDegrees(y), wrapDegrees(z)}
}

// RotateBy adds to the rotation in degrees.
func (s *Sprite) RotateBy(x, y, z float32) {
	s.RotateTo(s.rotation[0]+x, s.rotation[1]+y, s.rotation[2]+z)
}

func wrapDegrees(d float32) float32 {
	r := float32(math.Mod(float64(d), 360))
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}

// Scale returns the scale factors.
func (s *Sprite) Scale() mgl32.Vec3 {
	return s.scale
}

// SetScale sets the scale factors.
func (s *Sprite) SetScale(x, y, z float32) {
	s.scale = mgl32.Vec3{x, y, z}
}

// ScaleBySize scales the sprite so its image spans width by height pixels.
func (s *Sprite) ScaleBySize(width, height, z float32) {
	s.scale = mgl32.Vec3{width / float32(s.width), height / float32(s.height), z}
}

// Color returns the RGBA multiplier.
func (s *Sprite) Color() mgl32.Vec4 {
	return s.color
}

// SetColor sets red, green and blue, keeping alpha.
func (s *Sprite) SetColor(r, g, b float32) {
	s.color[0] = mgl32.Clamp(r, 0, 1)
	s.color[1] = mgl32.Clamp(g, 0, 1)
	s.color[2] = mgl32.Clamp(b, 0, 1)
}

// SetRed sets the red channel, clamped to [0, 1].
func (s *Sprite) SetRed(v float32) { s.color[0] = mgl32.Clamp(v, 0, 1) }

// SetGreen sets the green channel, clamped to [0, 1].
func (s *Sprite) SetGreen(v float32) { s.color[1] = mgl32.Clamp(v, 0, 1) }

// SetBlue sets the blue channel, clamped to [0, 1].
func (s *Sprite) SetBlue(v float32) { s.color[2] = mgl32.Clamp(v, 0, 1) }

// SetAlpha sets the alpha channel, clamped to [0, 1].
func (s *Sprite) SetAlpha(v float32) { s.color[3] = mgl32.Clamp(v, 0, 1) }
