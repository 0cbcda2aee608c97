// Package graphics implements sprites, projections, scenes and windows on
// top of a backend.Backend.
//
// Drawing flows inward to outward: sprites are drawn into scenes, scenes
// into other scenes, and the outermost scene is bound to a window which
// presents it.
package graphics

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/titlecard/internal/engine/backend"
	"github.com/Faultbox/titlecard/internal/engine/fault"
	"github.com/Faultbox/titlecard/internal/engine/input"
)

// WindowConfig holds window creation settings.
type WindowConfig = backend.WindowConfig

// Context owns the backend and the windows created through it.
type Context struct {
	backend backend.Backend
	log     *zap.Logger
	windows []*Window
	closed  bool
}

// NewContext creates a graphics context over b.
func NewContext(b backend.Backend, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("graphics context created", zap.String("backend", b.Name()))
	return &Context{backend: b, log: log}
}

// Backend returns the underlying backend.
func (c *Context) Backend() backend.Backend {
	return c.backend
}

func (c *Context) checkOpen() error {
	if c.closed {
		return fmt.Errorf("%w: graphics context closed", fault.ErrIllegalState)
	}
	return nil
}

// CreateWindow opens a window. The first window created is the primary
// window and lives until the context is closed.
func (c *Context) CreateWindow(cfg WindowConfig) (*Window, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	native, err := c.backend.CreateWindow(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create window: %w", fault.ErrPlatform, err)
	}

	w := &Window{ctx: c, native: native, primary: len(c.windows) == 0}
	c.windows = append(c.windows, w)

	c.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Bool("primary", w.primary))
	return w, nil
}

// DestroyWindow closes w. The primary window cannot be destroyed.
func (c *Context) DestroyWindow(w *Window) error {
	if w.primary {
		return fmt.Errorf("%w: cannot destroy the primary window", fault.ErrIllegalArgument)
	}
	return c.destroyWindow(w)
}

func (c *Context) destroyWindow(w *Window) error {
	if w.destroyed {
		return nil
	}
	if err := w.BindScene(nil); err != nil {
		return err
	}
	if err := c.backend.DestroyWindow(w.native); err != nil {
		return fmt.Errorf("%w: destroy window: %w", fault.ErrPlatform, err)
	}
	w.destroyed = true

	for i, cur := range c.windows {
		if cur == w {
			c.windows = append(c.windows[:i], c.windows[i+1:]...)
			break
		}
	}
	return nil
}

// Windows returns the open windows, primary first.
func (c *Context) Windows() []*Window {
	return append([]*Window(nil), c.windows...)
}

// PrimaryWindow returns the primary window, or nil before one is created.
func (c *Context) PrimaryWindow() *Window {
	for _, w := range c.windows {
		if w.primary {
			return w
		}
	}
	return nil
}

// AnyWindowShouldClose reports whether any window was asked to close.
func (c *Context) AnyWindowShouldClose() bool {
	for _, w := range c.windows {
		if w.shouldClose {
			return true
		}
	}
	return false
}

// PollEvents drains backend events and marks windows whose close was
// requested.
func (c *Context) PollEvents() []input.Event {
	events := c.backend.PollEvents()
	for _, e := range events {
		switch e.Type {
		case input.EventWindowClose:
			for _, w := range c.windows {
				if w.ID() == e.WindowID {
					w.shouldClose = true
				}
			}
		case input.EventQuit:
			if w := c.PrimaryWindow(); w != nil {
				w.shouldClose = true
			}
		}
	}
	return events
}

// Close destroys every window and shuts down the backend.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}

	var err error
	for i := len(c.windows) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.destroyWindow(c.windows[i]))
	}
	err = multierr.Append(err, c.backend.Close())
	c.closed = true
	return err
}
