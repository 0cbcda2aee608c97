// Package headless implements a backend that renders nothing and records
// every call. It serves tests and display-less runs.
package headless

import (
	"fmt"
	"image"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/input"
)

// Texture is a texture kept in memory.
type Texture struct {
	ID     int
	Width  int
	Height int
	Pixels []byte
}

// Size returns the texture dimensions.
func (t *Texture) Size() (int, int) { return t.Width, t.Height }

// Target is an in-memory render target.
type Target struct {
	ID    int
	Color mgl32.Vec4
	tex   *Texture
}

// Size returns the target dimensions.
func (t *Target) Size() (int, int) { return t.tex.Width, t.tex.Height }

// Texture returns the target's color texture.
func (t *Target) Texture() backend.Texture { return t.tex }

// Window is a window that exists only in memory.
type Window struct {
	id      uint32
	title   string
	width   int
	height  int
	visible bool
	mode    backend.DisplayMode
}

func (w *Window) ID() uint32                       { return w.id }
func (w *Window) Show()                            { w.visible = true }
func (w *Window) Hide()                            { w.visible = false }
func (w *Window) Visible() bool                    { return w.visible }
func (w *Window) Title() string                    { return w.title }
func (w *Window) SetTitle(title string)            { w.title = title }
func (w *Window) Size() (int, int)                 { return w.width, w.height }
func (w *Window) DisplayMode() backend.DisplayMode { return w.mode }

// Caps reports every capability as available.
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

// SetSize resizes the window. Zero keeps the current value of that axis.
func (w *Window) SetSize(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: window size %dx%d", fault.ErrIllegalArgument, width, height)
	}
	if width > 0 {
		w.width = width
	}
	if height > 0 {
		w.height = height
	}
	return nil
}

// SetDisplayMode records the requested mode.
func (w *Window) SetDisplayMode(mode backend.DisplayMode) error {
	w.mode = mode
	return nil
}

// DrawRecord is one recorded Draw call.
type DrawRecord struct {
	Target *Target
	Call   backend.DrawCall
}

// PresentRecord is one recorded Present call.
type PresentRecord struct {
	Window *Window
	Call   *backend.DrawCall
}

// Backend is the recording backend.
type Backend struct {
	mu  sync.Mutex
	log *zap.Logger

	nextID   int
	textures map[*Texture]struct{}
	targets  map[*Target]struct{}
	windows  []*Window
	pending  []input.Event

	Draws    []DrawRecord
	Presents []PresentRecord
	Clears   []*Target
	closed   bool
}

// New creates a headless backend.
func New(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{
		log:      log,
		textures: make(map[*Texture]struct{}),
		targets:  make(map[*Target]struct{}),
	}
}

func (b *Backend) Name() string { return "headless" }

func (b *Backend) id() int {
	b.nextID++
	return b.nextID
}

// LoadTexture copies pixels into a new texture.
func (b *Backend) LoadTexture(width, height int, pixels []byte) (backend.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", fault.ErrIllegalArgument, width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: got %d bytes for %dx%d RGBA", fault.ErrIllegalArgument, len(pixels), width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tex := &Texture{ID: b.id(), Width: width, Height: height, Pixels: append([]byte(nil), pixels...)}
	b.textures[tex] = struct{}{}
	return tex, nil
}

// UnloadTexture releases a texture from LoadTexture.
func (b *Backend) UnloadTexture(t backend.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, ok := t.(*Texture)
	if !ok {
		return fmt.Errorf("%w: foreign texture %T", fault.ErrIllegalArgument, t)
	}
	if _, ok := b.textures[tex]; !ok {
		return fmt.Errorf("%w: texture %d not loaded", fault.ErrIllegalState, tex.ID)
	}
	delete(b.textures, tex)
	return nil
}

// CreateTarget creates a render target.
func (b *Backend) CreateTarget(width, height int) (backend.Target, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", fault.ErrIllegalArgument, width, height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t := &Target{ID: b.id(), tex: &Texture{ID: b.id(), Width: width, Height: height}}
	b.targets[t] = struct{}{}
	b.log.Debug("target created", zap.Int("id", t.ID), zap.Int("width", width), zap.Int("height", height))
	return t, nil
}

// DestroyTarget releases a render target.
func (b *Backend) DestroyTarget(t backend.Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	target, ok := t.(*Target)
	if !ok {
		return fmt.Errorf("%w: foreign target %T", fault.ErrIllegalArgument, t)
	}
	if _, ok := b.targets[target]; !ok {
		return fmt.Errorf("%w: target %d not alive", fault.ErrIllegalState, target.ID)
	}
	delete(b.targets, target)
	return nil
}

// Clear records a clear of target.
func (b *Backend) Clear(t backend.Target, color mgl32.Vec4) error {
	target, err := b.target(t)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	target.Color = color
	b.Clears = append(b.Clears, target)
	return nil
}

// Draw records call against target.
func (b *Backend) Draw(t backend.Target, call backend.DrawCall) error {
	target, err := b.target(t)
	if err != nil {
		return err
	}
	if call.Texture == nil {
		return fmt.Errorf("%w: draw without texture", fault.ErrIllegalArgument)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.Draws = append(b.Draws, DrawRecord{Target: target, Call: call})
	return nil
}

// ReadTarget returns an image filled with the target's last clear color.
// Draws are recorded, not rasterized, so the image never shows drawn
// content. Check Draws to see what was rendered; only the OpenGL backend
// reads back real pixels.
func (b *Backend) ReadTarget(t backend.Target) (*image.RGBA, error) {
	target, err := b.target(t)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	w, h := target.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := target.Color.Mul(255)
	fill := [4]byte{byte(c[0]), byte(c[1]), byte(c[2]), byte(c[3])}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], fill[:])
	}
	return img, nil
}

func (b *Backend) target(t backend.Target) (*Target, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	target, ok := t.(*Target)
	if !ok {
		return nil, fmt.Errorf("%w: foreign target %T", fault.ErrIllegalArgument, t)
	}
	if _, ok := b.targets[target]; !ok {
		return nil, fmt.Errorf("%w: target %d not alive", fault.ErrIllegalState, target.ID)
	}
	return target, nil
}

// CreateWindow creates an in-memory window.
func (b *Backend) CreateWindow(cfg backend.WindowConfig) (backend.Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: window size %dx%d", fault.ErrIllegalArgument, cfg.Width, cfg.Height)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	w := &Window{
		id:      uint32(b.id()),
		title:   cfg.Title,
		width:   cfg.Width,
		height:  cfg.Height,
		visible: !cfg.Hidden,
	}
	if cfg.Fullscreen {
		w.mode = backend.Fullscreen
	}
	b.windows = append(b.windows, w)
	return w, nil
}

// DestroyWindow removes a window.
func (b *Backend) DestroyWindow(win backend.Window) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, w := range b.windows {
		if w == win {
			b.windows = append(b.windows[:i], b.windows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: window not alive", fault.ErrIllegalState)
}

// Present records a presentation of call to win.
func (b *Backend) Present(win backend.Window, call *backend.DrawCall) error {
	w, ok := win.(*Window)
	if !ok {
		return fmt.Errorf("%w: foreign window %T", fault.ErrIllegalArgument, win)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var rec *backend.DrawCall
	if call != nil {
		c := *call
		rec = &c
	}
	b.Presents = append(b.Presents, PresentRecord{Window: w, Call: rec})
	return nil
}

// Push queues events for the next PollEvents.
func (b *Backend) Push(events ...input.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, events...)
}

// PollEvents returns and clears queued events.
func (b *Backend) PollEvents() []input.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.pending
	b.pending = nil
	return events
}

// LiveTextures returns the number of loaded, unreleased textures.
func (b *Backend) LiveTextures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textures)
}

// LiveTargets returns the number of undestroyed render targets.
func (b *Backend) LiveTargets() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.targets)
}

// LiveWindows returns the number of open windows.
func (b *Backend) LiveWindows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.windows)
}

// Reset forgets recorded draws, clears and presents.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Draws = nil
	b.Presents = nil
	b.Clears = nil
}

// Close releases everything.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if n := len(b.textures) + len(b.targets); n > 0 {
		b.log.Warn("closing with live resources",
			zap.Int("textures", len(b.textures)),
			zap.Int("targets", len(b.targets)))
	}
	b.textures = map[*Texture]struct{}{}
	b.targets = map[*Target]struct{}{}
	b.windows = nil
	return nil
}
