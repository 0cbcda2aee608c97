package opengl

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/titlecard/internal/engine/input"
)

// PollEvents drains SDL events and converts them to engine events.
func (b *Backend) PollEvents() []input.Event {
	b.events = b.events[:0]
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if e, ok := convertEvent(event); ok {
			b.events = append(b.events, e)
		}
	}
	return b.events
}

func convertEvent(event sdl.Event) (input.Event, bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return input.Event{Type: input.EventQuit}, true

	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED:
			return input.Event{
				Type:     input.EventWindowResize,
				WindowID: e.WindowID,
				Width:    int(e.Data1),
				Height:   int(e.Data2),
			}, true
		case sdl.WINDOWEVENT_CLOSE:
			return input.Event{Type: input.EventWindowClose, WindowID: e.WindowID}, true
		}

	case *sdl.KeyboardEvent:
		ev := input.Event{
			WindowID: e.WindowID,
			Key:      input.Key(e.Keysym.Scancode),
			Repeat:   e.Repeat != 0,
		}
		switch e.Type {
		case sdl.KEYDOWN:
			ev.Type = input.EventKeyDown
		case sdl.KEYUP:
			ev.Type = input.EventKeyUp
		default:
			return input.Event{}, false
		}
		return ev, true

	case *sdl.MouseMotionEvent:
		return input.Event{
			Type:     input.EventMouseMove,
			WindowID: e.WindowID,
			MouseX:   int(e.X),
			MouseY:   int(e.Y),
		}, true

	case *sdl.MouseButtonEvent:
		ev := input.Event{
			WindowID: e.WindowID,
			MouseX:   int(e.X),
			MouseY:   int(e.Y),
			Button:   e.Button,
		}
		switch e.Type {
		case sdl.MOUSEBUTTONDOWN:
			ev.Type = input.EventMouseDown
		case sdl.MOUSEBUTTONUP:
			ev.Type = input.EventMouseUp
		default:
			return input.Event{}, false
		}
		return ev, true
	}
	return input.Event{}, false
}
