package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
)

// Texture is a GL texture with nearest filtering.
type Texture struct {
	id     uint32
	width  int
	height int
}

func (t *Texture) Size() (int, int) { return t.width, t.height }

// ID returns the GL texture name.
func (t *Texture) ID() uint32 { return t.id }

func newTexture(width, height int, pixels []byte) (*Texture, error) {
	t := &Texture{width: width, height: height}

	data := gl.Ptr(nil)
	if len(pixels) > 0 {
		data = gl.Ptr(pixels)
	}

	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, data)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("upload texture"); err != nil {
		t.delete()
		return nil, err
	}
	return t, nil
}

func (t *Texture) delete() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

// Framebuffer is an offscreen render target with color and depth attachments.
type Framebuffer struct {
	fbo      uint32
	color    *Texture
	depthRBO uint32
}

func (fb *Framebuffer) Size() (int, int) { return fb.color.Size() }

// Texture returns the color attachment.
func (fb *Framebuffer) Texture() backend.Texture { return fb.color }

func newFramebuffer(width, height int) (*Framebuffer, error) {
	color, err := newTexture(width, height, nil)
	if err != nil {
		return nil, err
	}
	fb := &Framebuffer{color: color}

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, color.id, 0)

	gl.GenRenderbuffers(1, &fb.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.delete()
		return nil, fmt.Errorf("%w: framebuffer incomplete: 0x%x", fault.ErrPlatform, status)
	}
	return fb, nil
}

// bind makes this framebuffer the current render target.
func (fb *Framebuffer) bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.Viewport(0, 0, int32(fb.color.width), int32(fb.color.height))
}

func (fb *Framebuffer) delete() {
	if fb.fbo != 0 {
		gl.DeleteFramebuffers(1, &fb.fbo)
		fb.fbo = 0
	}
	if fb.depthRBO != 0 {
		gl.DeleteRenderbuffers(1, &fb.depthRBO)
		fb.depthRBO = 0
	}
	fb.color.delete()
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%w: %s: gl error 0x%x", fault.ErrPlatform, op, code)
	}
	return nil
}
