// Package backend defines the contract between the graphics core and a
// platform renderer.
//
// The core computes every matrix itself and hands the backend fully
// resolved draw calls; a backend only owns GPU resources and windows.
package backend

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/titlecard/internal/engine/input"
)

// Texture is an uploaded RGBA image.
type Texture interface {
	Size() (width, height int)
}

// Target is an off-screen render target whose color output can be sampled
// as a texture.
type Target interface {
	Size() (width, height int)
	Texture() Texture
}

// DisplayMode is how a window occupies the screen.
type DisplayMode int

const (
	Windowed DisplayMode = iota
	Fullscreen
	BorderlessFullscreen
)

func (m DisplayMode) String() string {
	switch m {
	case Windowed:
		return "windowed"
	case Fullscreen:
		return "fullscreen"
	case BorderlessFullscreen:
		return "borderless"
	default:
		return "unknown"
	}
}

// Caps describes what a window can theoretically do on this platform.
type Caps struct {
	CanMinimize bool
	CanClose    bool
	CanMove     bool
	Resizable   bool
	HasTitle    bool
	HasIcon     bool
}

// Window is a platform window.
type Window interface {
	ID() uint32
	Caps() Caps
	Show()
	Hide()
	Visible() bool
	Title() string
	SetTitle(title string)
	Size() (width, height int)
	SetSize(width, height int) error
	DisplayMode() DisplayMode
	SetDisplayMode(mode DisplayMode) error
}

// WindowConfig holds window creation settings.
type WindowConfig struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Hidden     bool
}

// Rect is an integer rectangle in texture pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// DrawCall draws Section of Texture as a Section-sized quad spanning
// (0,0)-(Section.Width,Section.Height) in model space.
type DrawCall struct {
	Texture    Texture
	Section    Rect
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Color      mgl32.Vec4
}

// Backend renders draw calls and manages windows.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	// LoadTexture uploads width*height tightly packed RGBA8 pixels.
	LoadTexture(width, height int, pixels []byte) (Texture, error)
	UnloadTexture(tex Texture) error

	CreateTarget(width, height int) (Target, error)
	DestroyTarget(target Target) error

	// Clear clears target to color.
	Clear(target Target, color mgl32.Vec4) error
	// Draw renders call into target.
	Draw(target Target, call DrawCall) error
	// ReadTarget copies the color contents of target, top row first.
	ReadTarget(target Target) (*image.RGBA, error)

	CreateWindow(cfg WindowConfig) (Window, error)
	DestroyWindow(win Window) error
	// Present clears win, draws call if non-nil and swaps buffers.
	Present(win Window, call *DrawCall) error

	// PollEvents drains pending platform events.
	PollEvents() []input.Event

	Close() error
}
