package graphics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Window presents a bound scene on screen.
type Window struct {
	ctx    *Context
	native backend.Window

	scene *Scene
	model mgl32.Mat4
	view  mgl32.Mat4
	proj  mgl32.Mat4

	primary     bool
	shouldClose bool
	destroyed   bool
}

// ID returns the platform window ID.
// ID returns the backend window id events refer to.
func (w *Window) ID() uint32 { return w.native.ID() }

// Caps returns what the window can do on this platform.
func (w *Window) Caps() backend.Caps { return w.native.Caps() }

// Primary reports whether this is the context's first window.
func (w *Window) Primary() bool { return w.primary }

// Show makes the window visible.
func (w *Window) Show() { w.native.Show() }

// Hide hides the window without destroying it.
func (w *Window) Hide() { w.native.Hide() }

// Visible reports whether the window is shown.
func (w *Window) Visible() bool { return w.native.Visible() }

// Title returns the window title.
func (w *Window) Title() string { return w.native.Title() }

// SetTitle changes the window title.
func (w *Window) SetTitle(title string) { w.native.SetTitle(title) }

// Size returns the window's client area size.
func (w *Window) Size() (width, height int) { return w.native.Size() }

// SetSize resizes the window. A zero dimension keeps its current value.
func (w *Window) SetSize(width, height int) error {
	if !w.native.Caps().Resizable {
		return fmt.Errorf("%w: window cannot be resized", fault.ErrUnsupported)
	}
	cw, ch := w.native.Size()
	if width == 0 {
		width = cw
	}
	if height == 0 {
		height = ch
	}
	if err := w.native.SetSize(width, height); err != nil {
		return fmt.Errorf("%w: resize window: %w", fault.ErrPlatform, err)
	}
	return nil
}

// DisplayMode returns how the window occupies the screen.
func (w *Window) DisplayMode() backend.DisplayMode { return w.native.DisplayMode() }

// SetDisplayMode switches between windowed and fullscreen modes.
func (w *Window) SetDisplayMode(mode backend.DisplayMode) error {
	if err := w.native.SetDisplayMode(mode); err != nil {
		return fmt.Errorf("%w: display mode %s: %w", fault.ErrPlatform, mode, err)
	}
	return nil
}

// ShouldClose reports whether closing the window was requested.
func (w *Window) ShouldClose() bool { return w.shouldClose }

// SetShouldClose requests or cancels closing the window.
func (w *Window) SetShouldClose(v bool) { w.shouldClose = v }

// Scene returns the bound scene, or nil.
func (w *Window) Scene() *Scene { return w.scene }

// BindScene sets the scene the window presents. A nil scene unbinds.
func (w *Window) BindScene(scene *Scene) error {
	if w.destroyed {
		return fmt.Errorf("%w: window destroyed", fault.ErrIllegalState)
	}
	if scene == w.scene {
		return nil
	}
	if scene != nil && scene.destroyed {
		return fmt.Errorf("%w: scene destroyed", fault.ErrIllegalState)
	}

	if old := w.scene; old != nil {
		for i, bound := range old.windows {
			if bound == w {
				old.windows[i] = nil
				break
			}
		}
	}

	w.scene = scene
	if scene == nil {
		return nil
	}

	slot := -1
	for i, bound := range scene.windows {
		if bound == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		scene.windows = append(scene.windows, w)
	} else {
		scene.windows[slot] = w
	}

	specs := scene.proj.Specs()
	w.model = mgl32.Ident4()
	w.view = mgl32.LookAtV(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	w.proj = mgl32.Ortho(0, float32(scene.width), float32(scene.height), 0, specs.Near, specs.Far)
	return nil
}

// Render presents the bound scene. It returns false if no scene is bound.
func (w *Window) Render() (bool, error) {
	if w.destroyed {
		return false, fmt.Errorf("%w: window destroyed", fault.ErrIllegalState)
	}
	if w.scene == nil {
		return false, nil
	}

	sprite := w.scene.sprite
	call := backend.DrawCall{
		Texture:    sprite.texture,
		Section:    sprite.section,
		Model:      w.model,
		View:       w.view,
		Projection: w.proj,
		Color:      sprite.color,
	}
	if err := w.ctx.backend.Present(w.native, &call); err != nil {
		return false, fmt.Errorf("%w: present: %w", fault.ErrPlatform, err)
	}
	return true, nil
}

// Clear clears the bound scene, if any.
func (w *Window) Clear() error {
	if w.scene == nil {
		return nil
	}
	return w.scene.Clear()
}
