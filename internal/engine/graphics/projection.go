package graphics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// ProjectionKind distinguishes orthographic from perspective projections.
type ProjectionKind int

const (
	Orthographic ProjectionKind = iota
	Perspective
)

func (k ProjectionKind) String() string {
	if k == Perspective {
		return "perspective"
	}
	return "orthographic"
}

// ProjectionSpecs describes a projection. Left/Right/Top/Bottom apply to
// orthographic projections, FOV/Aspect to perspective ones.
type ProjectionSpecs struct {
	Kind ProjectionKind

	Left   float32
	Right  float32
	Top    float32
	Bottom float32

	FOV    float32 // degrees
	Aspect float32

	Near   float32
	Far    float32
	Width  float32
	Height float32
}

// Projection is an immutable coordinate mapping. Scenes reference it for
// their whole lifetime, so it cannot be destroyed while any scene uses it.
type Projection struct {
	specs     ProjectionSpecs
	matrix    mgl32.Mat4
	refs      int
	destroyed bool
}

// NewOrtho creates an orthographic projection.
//
// The matrix is built with top and bottom swapped. Render targets are
// stored bottom row first, so content drawn through the swapped matrix
// comes out upright once the target is shown on screen.
func NewOrtho(left, right, top, bottom, near, far float32) (*Projection, error) {
	if left == right || top == bottom {
		return nil, fmt.Errorf("%w: degenerate ortho bounds %v..%v x %v..%v",
			fault.ErrIllegalArgument, left, right, top, bottom)
	}
	if near == far {
		return nil, fmt.Errorf("%w: near equals far (%v)", fault.ErrIllegalArgument, near)
	}

	specs := ProjectionSpecs{
		Kind:   Orthographic,
		Left:   left,
		Right:  right,
		Top:    top,
		Bottom: bottom,
		Near:   near,
		Far:    far,
		Width:  float32(math.Abs(float64(right - left))),
		Height: float32(math.Abs(float64(bottom - top))),
	}
	return &Projection{
		specs:  specs,
		matrix: mgl32.Ortho(left, right, top, bottom, near, far),
	}, nil
}

// NewScreenOrtho creates an orthographic projection whose origin is the
// top-left corner of a width by height viewport, clipping Z outside
// (0.1, far].
func NewScreenOrtho(width, height, far float32) (*Projection, error) {
	return NewOrtho(0, width, height, 0, 0.1, far)
}

// NewPerspective creates a perspective projection with a vertical field of
// view of fov degrees.
func NewPerspective(fov, width, height, near, far float32) (*Projection, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: viewport %vx%v", fault.ErrIllegalArgument, width, height)
	}
	if fov <= 0 || fov >= 180 {
		return nil, fmt.Errorf("%w: field of view %v", fault.ErrIllegalArgument, fov)
	}
	if near <= 0 || far <= near {
		return nil, fmt.Errorf("%w: clip range %v..%v", fault.ErrIllegalArgument, near, far)
	}

	aspect := width / height
	specs := ProjectionSpecs{
		Kind:   Perspective,
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Width:  width,
		Height: height,
	}
	return &Projection{
		specs:  specs,
		matrix: mgl32.Perspective(mgl32.DegToRad(fov), aspect, near, far),
	}, nil
}

// Specs returns the projection's description.
func (p *Projection) Specs() ProjectionSpecs {
	return p.specs
}

// Matrix returns the projection matrix.
func (p *Projection) Matrix() mgl32.Mat4 {
	return p.matrix
}

// InUse returns the number of live scenes referencing p.
func (p *Projection) InUse() int {
	return p.refs
}

// Destroy marks the projection unusable for new scenes.
func (p *Projection) Destroy() error {
	if p.refs > 0 {
		return fmt.Errorf("%w: projection in use by %d scene(s)", fault.ErrIllegalState, p.refs)
	}
	p.destroyed = true
	return nil
}
