package graphics

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Scene is an off-screen render target with its own projection and camera.
// A scene can be drawn into other scenes through its sprite, and the
// outermost scene is bound to a window for presentation.
type Scene struct {
	ctx    *Context
	proj   *Projection
	width  int
	height int

	camera *Camera
	sprite *Sprite
	target backend.Target

	clearColor mgl32.Vec4

	// windows holds binding slots; nil entries are free.
	windows   []*Window
	destroyed bool
}

// CreateScene creates a width by height scene drawn through proj.
func (c *Context) CreateScene(proj *Projection, width, height int) (*Scene, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	if proj == nil || proj.destroyed {
		return nil, fmt.Errorf("%w: projection destroyed", fault.ErrIllegalState)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: scene size %dx%d", fault.ErrIllegalArgument, width, height)
	}

	target, err := c.backend.CreateTarget(width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: create target: %w", fault.ErrPlatform, err)
	}

	specs := proj.Specs()
	s := &Scene{
		ctx:    c,
		proj:   proj,
		width:  width,
		height: height,
		// Start at near-far so content at Z=0 is in view.
		camera: &Camera{pos: mgl32.Vec3{0, 0, specs.Near - specs.Far}},
		target: target,
	}
	s.sprite = newSprite(c, target.Texture(), width, height)
	s.sprite.scene = s
	proj.refs++

	c.log.Debug("scene created",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Stringer("projection", specs.Kind))
	return s, nil
}

// Projection returns the scene's projection.
func (s *Scene) Projection() *Projection { return s.proj }

// Camera returns the scene's camera.
func (s *Scene) Camera() *Camera { return s.camera }

// Sprite returns the sprite that draws the scene's contents.
func (s *Scene) Sprite() *Sprite { return s.sprite }

// Size returns the render target dimensions.
func (s *Scene) Size() (width, height int) { return s.width, s.height }

// SetClearColor sets the color Clear fills the scene with.
func (s *Scene) SetClearColor(r, g, b, a float32) {
	s.clearColor = mgl32.Vec4{r, g, b, a}
}

// Bindings returns the number of windows the scene is bound to.
func (s *Scene) Bindings() int {
	n := 0
	for _, w := range s.windows {
		if w != nil {
			n++
		}
	}
	return n
}

// Clear erases the scene's contents.
func (s *Scene) Clear() error {
	if s.destroyed {
		return fmt.Errorf("%w: scene destroyed", fault.ErrIllegalState)
	}
	if err := s.ctx.backend.Clear(s.target, s.clearColor); err != nil {
		return fmt.Errorf("%w: clear: %w", fault.ErrPlatform, err)
	}
	return nil
}

// DrawSprite draws sprite into the scene at (x, y, z) plus the sprite's
// offset. Drawing a scene's own sprite into it does nothing.
func (s *Scene) DrawSprite(sprite *Sprite, x, y, z float32) error {
	if s.destroyed {
		return fmt.Errorf("%w: scene destroyed", fault.ErrIllegalState)
	}
	if sprite.unloaded {
		return fmt.Errorf("%w: sprite unloaded", fault.ErrIllegalState)
	}
	if sprite.scene == s {
		return nil
	}

	pos := mgl32.Vec3{x, y, z}.Add(sprite.offset)
	call := backend.DrawCall{
		Texture:    sprite.texture,
		Section:    sprite.section,
		Model:      sprite.model(pos),
		View:       s.camera.view(),
		Projection: s.proj.matrix,
		Color:      sprite.color,
	}
	if err := s.ctx.backend.Draw(s.target, call); err != nil {
		return fmt.Errorf("%w: draw: %w", fault.ErrPlatform, err)
	}
	return nil
}

// DrawSpriteAtOffset draws sprite at its offset alone.
func (s *Scene) DrawSpriteAtOffset(sprite *Sprite) error {
	return s.DrawSprite(sprite, 0, 0, 0)
}

// DrawScene draws the contents of src into the scene.
func (s *Scene) DrawScene(src *Scene, x, y, z float32) error {
	if src == s {
		return nil
	}
	if src.destroyed {
		return fmt.Errorf("%w: source scene destroyed", fault.ErrIllegalState)
	}
	return s.DrawSprite(src.sprite, x, y, z)
}

// Capture reads back what the scene last rendered.
func (s *Scene) Capture() (*image.RGBA, error) {
	if s.destroyed {
		return nil, fmt.Errorf("%w: scene destroyed", fault.ErrIllegalState)
	}
	img, err := s.ctx.backend.ReadTarget(s.target)
	if err != nil {
		return nil, fmt.Errorf("%w: read target: %w", fault.ErrPlatform, err)
	}
	return img, nil
}

// CenterCamera moves the camera so the scene's content is centered.
// Perspective centering is exact only for a 90 degree field of view.
func (s *Scene) CenterCamera() {
	specs := s.proj.Specs()
	switch specs.Kind {
	case Orthographic:
		s.camera.SetPosition(0, 0, 0)
	case Perspective:
		x := specs.Width / -2
		y := specs.Height / -2
		s.camera.SetPosition(x, y, y)
	}
}

// Destroy releases the scene. It fails while any window is bound to it.
func (s *Scene) Destroy() error {
	if s.destroyed {
		return nil
	}
	if n := s.Bindings(); n > 0 {
		return fmt.Errorf("%w: scene in use by %d window(s)", fault.ErrIllegalState, n)
	}

	if err := s.ctx.backend.DestroyTarget(s.target); err != nil {
		return fmt.Errorf("%w: destroy target: %w", fault.ErrPlatform, err)
	}
	s.destroyed = true
	s.camera = nil
	s.proj.refs--
	return s.sprite.release()
}

// model returns the model matrix for drawing s at pos.
func (s *Sprite) model(pos mgl32.Vec3) mgl32.Mat4 {
	scale := s.scale
	if s.flipH {
		scale[0] = -scale[0]
		pos[0] += float32(s.section.Width)
	}
	if s.flipV {
		scale[1] = -scale[1]
		pos[1] += float32(s.section.Height)
	}

	return mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(s.rotation[0]))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(s.rotation[1]))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(s.rotation[2]))).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}
