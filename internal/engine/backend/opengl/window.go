package opengl

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Window wraps an SDL2 window rendered through the backend's shared GL
// context.
type Window struct {
	sdlWindow *sdl.Window
	id        uint32
	mode      backend.DisplayMode
}

func (w *Window) ID() uint32 { return w.id }

func (w *Window) Caps() backend.Caps {
	return backend.Caps{
		CanMinimize: true,
		CanClose:    true,
		CanMove:     true,
		Resizable:   true,
		HasTitle:    true,
		HasIcon:     true,
	}
}

func (w *Window) Show() { w.sdlWindow.Show() }
func (w *Window) Hide() { w.sdlWindow.Hide() }

func (w *Window) Visible() bool {
	return w.sdlWindow.GetFlags()&sdl.WINDOW_SHOWN != 0
}

func (w *Window) Title() string         { return w.sdlWindow.GetTitle() }
func (w *Window) SetTitle(title string) { w.sdlWindow.SetTitle(title) }

// Size returns the current window size.
func (w *Window) Size() (int, int) {
	width, height := w.sdlWindow.GetSize()
	return int(width), int(height)
}

// SetSize resizes the window. Zero keeps the current value of an axis.
func (w *Window) SetSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: window size %dx%d", fault.ErrIllegalArgument, width, height)
	}
	cw, ch := w.Size()
	if width == 0 {
		width = cw
	}
	if height == 0 {
		height = ch
	}
	w.sdlWindow.SetSize(int32(width), int32(height))
	return nil
}

func (w *Window) DisplayMode() backend.DisplayMode { return w.mode }

func (w *Window) SetDisplayMode(mode backend.DisplayMode) error {
	var flags uint32
	switch mode {
	case backend.Windowed:
	case backend.Fullscreen:
		flags = sdl.WINDOW_FULLSCREEN
	case backend.BorderlessFullscreen:
		flags = sdl.WINDOW_FULLSCREEN_DESKTOP
	default:
		return fmt.Errorf("%w: display mode %d", fault.ErrIllegalArgument, mode)
	}
	if err := w.sdlWindow.SetFullscreen(flags); err != nil {
		return fmt.Errorf("%w: set display mode %s: %w", fault.ErrPlatform, mode, err)
	}
	w.mode = mode
	return nil
}

// drawableSize is the framebuffer size in pixels, which differs from the
// window size on high-DPI displays.
func (w *Window) drawableSize() (int32, int32) {
	return w.sdlWindow.GLGetDrawableSize()
}
