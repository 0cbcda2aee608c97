// Package opengl renders through OpenGL 4.1 core with SDL2 windows.
//
// Every window shares one GL context, owned by a hidden window created in
// New. All calls must come from the thread that called New.
package opengl

import (
	"fmt"
	"image"
	"runtime"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/input"
)

func init() {
	// OpenGL calls must be made from the main thread
	runtime.LockOSThread()
}

// Quad vertex format: pos(2) + texcoord(2) = 4 floats, 16 bytes
const (
	quadFloats = 6 * 4
	stride     = int32(4 * 4)
)

// Config holds backend configuration.
type Config struct {
	VSync bool
}

// Backend owns the SDL video subsystem and the shared GL context.
type Backend struct {
	log *zap.Logger

	ctxWindow *sdl.Window
	glContext sdl.GLContext

	program *spriteProgram
	vao     uint32
	vbo     uint32
	quad    [quadFloats]float32

	windows  map[uint32]*Window
	textures map[*Texture]struct{}
	targets  map[*Framebuffer]struct{}
	events   []input.Event
	closed   bool
}

// New initializes SDL2, creates the shared OpenGL context and compiles the
// sprite shader.
func New(cfg Config, log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backend{
		log:      log,
		windows:  make(map[uint32]*Window),
		textures: make(map[*Texture]struct{}),
		targets:  make(map[*Framebuffer]struct{}),
		events:   make([]input.Event, 0, 16),
	}

	log.Info("initializing SDL2")
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("%w: SDL_Init failed: %w", fault.ErrPlatform, err)
	}

	// We want OpenGL 4.1 Core Profile (max supported on macOS)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	sdl.GLSetAttribute(sdl.GL_MULTISAMPLEBUFFERS, 1)
	sdl.GLSetAttribute(sdl.GL_MULTISAMPLESAMPLES, 4)

	var err error
	b.ctxWindow, err = sdl.CreateWindow("", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		1, 1, uint32(sdl.WINDOW_OPENGL|sdl.WINDOW_HIDDEN))
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("%w: SDL_CreateWindow failed: %w", fault.ErrPlatform, err)
	}

	b.glContext, err = b.ctxWindow.GLCreateContext()
	if err != nil {
		b.ctxWindow.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("%w: SDL_GL_CreateContext failed: %w", fault.ErrPlatform, err)
	}

	if err := gl.Init(); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: failed to initialize OpenGL: %w", fault.ErrPlatform, err)
	}

	interval := 0
	if cfg.VSync {
		interval = 1
	}
	if err := sdl.GLSetSwapInterval(interval); err != nil {
		log.Warn("failed to set swap interval", zap.Int("interval", interval), zap.Error(err))
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	if err := b.setup(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) setup() error {
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.MULTISAMPLE)

	var err error
	b.program, err = newSpriteProgram()
	if err != nil {
		return fmt.Errorf("%w: sprite shader: %w", fault.ErrPlatform, err)
	}

	gl.GenVertexArrays(1, &b.vao)
	gl.BindVertexArray(b.vao)

	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, quadFloats*4, nil, gl.DYNAMIC_DRAW)

	// Position attribute (location = 0): 2 floats
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)

	// TexCoord attribute (location = 1): 2 floats
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 2*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return glError("setup")
}

func (b *Backend) Name() string { return "opengl" }

func (b *Backend) checkOpen() error {
	if b.closed {
		return fmt.Errorf("%w: backend is closed", fault.ErrIllegalState)
	}
	return nil
}

// LoadTexture uploads tightly packed RGBA8 pixels.
func (b *Backend) LoadTexture(width, height int, pixels []byte) (backend.Texture, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: texture size %dx%d", fault.ErrIllegalArgument, width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: expected %d bytes of pixels, got %d", fault.ErrIllegalArgument, width*height*4, len(pixels))
	}
	t, err := newTexture(width, height, pixels)
	if err != nil {
		return nil, err
	}
	b.textures[t] = struct{}{}
	return t, nil
}

func (b *Backend) UnloadTexture(tex backend.Texture) error {
	t, ok := tex.(*Texture)
	if !ok {
		return fmt.Errorf("%w: foreign texture %T", fault.ErrIllegalArgument, tex)
	}
	if _, live := b.textures[t]; !live {
		return fmt.Errorf("%w: texture already unloaded", fault.ErrIllegalState)
	}
	delete(b.textures, t)
	t.delete()
	return nil
}

func (b *Backend) CreateTarget(width, height int) (backend.Target, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", fault.ErrIllegalArgument, width, height)
	}
	fb, err := newFramebuffer(width, height)
	if err != nil {
		return nil, err
	}
	b.targets[fb] = struct{}{}
	return fb, nil
}

func (b *Backend) DestroyTarget(target backend.Target) error {
	fb, err := b.target(target)
	if err != nil {
		return err
	}
	delete(b.targets, fb)
	fb.delete()
	return nil
}

func (b *Backend) target(target backend.Target) (*Framebuffer, error) {
	fb, ok := target.(*Framebuffer)
	if !ok {
		return nil, fmt.Errorf("%w: foreign target %T", fault.ErrIllegalArgument, target)
	}
	if _, live := b.targets[fb]; !live {
		return nil, fmt.Errorf("%w: target already destroyed", fault.ErrIllegalState)
	}
	return fb, nil
}

// Clear clears the color and depth buffers of target.
func (b *Backend) Clear(target backend.Target, color mgl32.Vec4) error {
	fb, err := b.target(target)
	if err != nil {
		return err
	}
	fb.bind()
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

// Draw renders call into target.
func (b *Backend) Draw(target backend.Target, call backend.DrawCall) error {
	fb, err := b.target(target)
	if err != nil {
		return err
	}
	fb.bind()
	err = b.draw(call)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return err
}

// ReadTarget reads back the color attachment of target. GL rows start at
// the bottom, so they are flipped on copy.
func (b *Backend) ReadTarget(target backend.Target) (*image.RGBA, error) {
	fb, err := b.target(target)
	if err != nil {
		return nil, err
	}
	w, h := fb.Size()
	pixels := make([]byte, w*h*4)

	fb.bind()
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if err := glError("read target"); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	row := w * 4
	for y := 0; y < h; y++ {
		src := (h - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}

func (b *Backend) draw(call backend.DrawCall) error {
	tex, ok := call.Texture.(*Texture)
	if !ok || tex.id == 0 {
		return fmt.Errorf("%w: draw with an invalid texture", fault.ErrIllegalState)
	}
	b.quad = quadVertices(call.Section, tex.width, tex.height)

	gl.UseProgram(b.program.id)
	gl.Uniform1i(b.program.sampler, 0)
	gl.UniformMatrix4fv(b.program.proj, 1, false, &call.Projection[0])
	gl.UniformMatrix4fv(b.program.view, 1, false, &call.View[0])
	gl.UniformMatrix4fv(b.program.model, 1, false, &call.Model[0])
	gl.Uniform4f(b.program.color, call.Color[0], call.Color[1], call.Color[2], call.Color[3])

	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, quadFloats*4, unsafe.Pointer(&b.quad[0]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex.id)
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)

	return glError("draw")
}

// quadVertices returns two triangles spanning the section size. Texture
// coordinates are not flipped; the projections account for GL's
// bottom-left origin.
func quadVertices(section backend.Rect, texWidth, texHeight int) [quadFloats]float32 {
	w, h := float32(section.Width), float32(section.Height)
	tw, th := float32(texWidth), float32(texHeight)
	u0, v0 := float32(section.X)/tw, float32(section.Y)/th
	u1, v1 := float32(section.X+section.Width)/tw, float32(section.Y+section.Height)/th

	return [quadFloats]float32{
		0, 0, u0, v0,
		0, h, u0, v1,
		w, h, u1, v1,

		w, h, u1, v1,
		w, 0, u1, v0,
		0, 0, u0, v0,
	}
}

// CreateWindow opens an SDL window sharing the backend's GL context.
func (b *Backend) CreateWindow(cfg backend.WindowConfig) (backend.Window, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: window size %dx%d", fault.ErrIllegalArgument, cfg.Width, cfg.Height)
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Hidden {
		flags |= sdl.WINDOW_HIDDEN
	}
	mode := backend.Windowed
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
		mode = backend.Fullscreen
	}

	sw, err := sdl.CreateWindow(cfg.Title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		return nil, fmt.Errorf("%w: SDL_CreateWindow failed: %w", fault.ErrPlatform, err)
	}
	id, err := sw.GetID()
	if err != nil {
		sw.Destroy()
		return nil, fmt.Errorf("%w: window id: %w", fault.ErrPlatform, err)
	}

	w := &Window{sdlWindow: sw, id: id, mode: mode}
	b.windows[id] = w

	b.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Bool("vsync", cfg.VSync),
	)
	return w, nil
}

func (b *Backend) window(win backend.Window) (*Window, error) {
	w, ok := win.(*Window)
	if !ok {
		return nil, fmt.Errorf("%w: foreign window %T", fault.ErrIllegalArgument, win)
	}
	if b.windows[w.id] != w {
		return nil, fmt.Errorf("%w: window already destroyed", fault.ErrIllegalState)
	}
	return w, nil
}

func (b *Backend) DestroyWindow(win backend.Window) error {
	w, err := b.window(win)
	if err != nil {
		return err
	}
	delete(b.windows, w.id)
	// Keep the context current on a live window.
	if err := b.ctxWindow.GLMakeCurrent(b.glContext); err != nil {
		b.log.Warn("failed to restore GL context", zap.Error(err))
	}
	if err := w.sdlWindow.Destroy(); err != nil {
		return fmt.Errorf("%w: destroy window: %w", fault.ErrPlatform, err)
	}
	return nil
}

// Present draws call over a black background in win and swaps buffers.
func (b *Backend) Present(win backend.Window, call *backend.DrawCall) error {
	w, err := b.window(win)
	if err != nil {
		return err
	}
	if err := w.sdlWindow.GLMakeCurrent(b.glContext); err != nil {
		return fmt.Errorf("%w: make current: %w", fault.ErrPlatform, err)
	}

	width, height := w.drawableSize()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, width, height)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if call != nil {
		if err := b.draw(*call); err != nil {
			return err
		}
	}

	w.sdlWindow.GLSwap()
	return nil
}

// Close releases GL resources, the context and SDL.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.log.Info("closing OpenGL backend")

	if n := len(b.textures) + len(b.targets) + len(b.windows); n > 0 {
		b.log.Warn("releasing live resources",
			zap.Int("textures", len(b.textures)),
			zap.Int("targets", len(b.targets)),
			zap.Int("windows", len(b.windows)),
		)
	}
	for t := range b.textures {
		t.delete()
	}
	for fb := range b.targets {
		fb.delete()
	}
	for _, w := range b.windows {
		w.sdlWindow.Destroy()
	}
	clear(b.textures)
	clear(b.targets)
	clear(b.windows)

	if b.program != nil {
		b.program.delete()
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
	}
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
	}
	if b.glContext != nil {
		sdl.GLDeleteContext(b.glContext)
	}
	if b.ctxWindow != nil {
		b.ctxWindow.Destroy()
	}

	sdl.Quit()
	return nil
}
